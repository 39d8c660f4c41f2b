// Package scheduler turns due scheduled posts into publish work. The
// poller claims each due post exactly once and hands it to the task queue;
// the queue worker calls back into Process for the actual fan-out.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/repository"
	"github.com/nikhilm27/socialcast/internal/service"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

// Dispatcher hands a claimed post to the task queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, postID int64) error
}

var timeNow = time.Now

type Poller struct {
	sp        repository.ScheduledPostRepository
	publisher service.PublishService
	dispatch  Dispatcher
}

func NewPoller(sp repository.ScheduledPostRepository, publisher service.PublishService, dispatch Dispatcher) *Poller {
	return &Poller{
		sp:        sp,
		publisher: publisher,
		dispatch:  dispatch,
	}
}

// Tick claims every due pending post and dispatches it. The claim is a
// conditional status flip, so two overlapping ticks never dispatch the
// same post twice.
func (p *Poller) Tick(ctx context.Context) {
	due, err := p.sp.ListDue(ctx, timeNow())
	if err != nil {
		slog.Error("failed to list due posts", "error", err)
		return
	}

	for _, post := range due {
		claimed, err := p.sp.Claim(ctx, post.ID)
		if err != nil {
			slog.Error("failed to claim scheduled post", "post_id", post.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		if err := p.dispatch.Dispatch(ctx, post.ID); err != nil {
			slog.Error("failed to dispatch scheduled post", "post_id", post.ID, "error", err)
			p.markFailed(ctx, post.ID, fmt.Sprintf("failed to enqueue: %v", err))
		}
	}
}

// Process publishes one claimed post and persists the terminal state. The
// queue worker is the only caller.
func (p *Poller) Process(ctx context.Context, postID int64) error {
	post, err := p.sp.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info("scheduled post no longer exists", "post_id", postID)
		return nil
	}
	if post.Status != models.ScheduleStatusProcessing {
		slog.Info("scheduled post is not processing, skipping", "post_id", postID, "status", post.Status)
		return nil
	}

	req, err := buildRequest(post)
	if err != nil {
		p.markFailed(ctx, post.ID, err.Error())
		return nil
	}

	results, err := p.publisher.Publish(ctx, post.UserID, req)
	if err != nil {
		p.markFailed(ctx, post.ID, err.Error())
		return nil
	}

	resultJSON, err := json.Marshal(results)
	if err != nil {
		p.markFailed(ctx, post.ID, err.Error())
		return nil
	}

	// A completed run is terminal-published regardless of how the
	// individual targets fared; per-target failures live in the stored
	// result list. Only a run-level error marks the post failed.
	if err := p.sp.SetOutcome(ctx, post.ID, models.ScheduleStatusPublished, resultJSON, ""); err != nil {
		slog.Error("failed to record scheduled post outcome", "post_id", post.ID, "error", err)
		return err
	}
	return nil
}

func (p *Poller) markFailed(ctx context.Context, postID int64, reason string) {
	if err := p.sp.SetOutcome(ctx, postID, models.ScheduleStatusFailed, nil, reason); err != nil {
		slog.Error("failed to mark scheduled post failed", "post_id", postID, "error", err)
	}
}

func buildRequest(post *models.ScheduledPost) (*transfer.PublishRequest, error) {
	var targets []transfer.PublishTarget
	if err := json.Unmarshal(post.Targets, &targets); err != nil {
		return nil, fmt.Errorf("stored targets are unreadable: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("scheduled post has no targets")
	}

	descriptors := make([]transfer.MediaDescriptor, 0, len(post.Media))
	for _, url := range post.Media {
		descriptors = append(descriptors, transfer.MediaDescriptor{URL: url})
	}

	return &transfer.PublishRequest{
		Content: post.Content,
		Media:   descriptors,
		Targets: targets,
	}, nil
}
