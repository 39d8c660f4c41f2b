package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/repository"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

type ScheduleService interface {
	Create(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	PostInfo(ctx context.Context, userID, postID int64) (*models.ScheduledPost, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type scheduleService struct {
	sp         repository.ScheduledPostRepository
	normalizer *media.Normalizer
}

func NewScheduleService(sp repository.ScheduledPostRepository, normalizer *media.Normalizer) ScheduleService {
	return &scheduleService{
		sp:         sp,
		normalizer: normalizer,
	}
}

// Create persists the post for later publishing. Inline media is uploaded
// to durable storage now so the poller only ever deals in URLs; the
// scheduled time is parsed as ISO-8601 and normalized to UTC.
func (s *scheduleService) Create(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (int64, error) {
	if sc == nil {
		err := errors.New("schedule creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if sc.Content == "" && len(sc.Media) == 0 {
		err := errors.New("post must have content or media")
		slog.Info(err.Error())
		return 0, err
	}
	if len(sc.Targets) == 0 {
		err := errors.New("no target accounts selected")
		slog.Info(err.Error())
		return 0, err
	}

	scheduledFor, err := time.Parse(time.RFC3339, sc.ScheduledFor)
	if err != nil {
		err = fmt.Errorf("invalid scheduled time format: %w", err)
		slog.Info(err.Error())
		return 0, err
	}
	scheduledFor = scheduledFor.UTC()

	for _, d := range sc.Media {
		if media.IsBlobURL(d) {
			err := errors.New("media was not uploaded, blob URLs cannot be scheduled")
			slog.Info(err.Error())
			return 0, err
		}
	}

	urls, err := s.resolveMediaURLs(ctx, sc.Media)
	if err != nil {
		return 0, err
	}

	targets, err := json.Marshal(sc.Targets)
	if err != nil {
		return 0, err
	}

	post := &models.ScheduledPost{
		UserID:       userID,
		Content:      sc.Content,
		Media:        urls,
		Targets:      targets,
		ScheduledFor: scheduledFor,
		Status:       models.ScheduleStatusPending,
	}

	return s.sp.Create(ctx, post)
}

// resolveMediaURLs normalizes the descriptors and keeps only the public
// URLs. A descriptor that cannot produce a durable URL is an error at
// scheduling time, not at publish time.
func (s *scheduleService) resolveMediaURLs(ctx context.Context, descriptors []transfer.MediaDescriptor) ([]string, error) {
	if len(descriptors) == 0 {
		return nil, nil
	}

	set := s.normalizer.Resolve(ctx, descriptors)
	defer set.Cleanup()

	urls := make([]string, 0, len(set.Items))
	for _, item := range set.Items {
		if item.Err != nil {
			return nil, fmt.Errorf("error processing media: %w", item.Err)
		}
		if item.PublicURL == "" {
			return nil, errors.New("scheduled media must resolve to a durable URL")
		}
		urls = append(urls, item.PublicURL)
	}
	return urls, nil
}

func (s *scheduleService) List(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	posts, err := s.sp.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing scheduled posts")
	}
	return posts, nil
}

func (s *scheduleService) PostInfo(ctx context.Context, userID, postID int64) (*models.ScheduledPost, error) {
	post, err := s.sp.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting scheduled post")
	}
	if post == nil || post.UserID != userID {
		err = errors.New("scheduled post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// Remove cancels a pending post. Posts already claimed by the poller are
// past the point of cancellation.
func (s *scheduleService) Remove(ctx context.Context, userID, postID int64) error {
	err := s.sp.Remove(ctx, userID, postID)
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.New("scheduled post doesn't exist or is no longer pending")
		slog.Info(err.Error())
		return err
	}
	return err
}
