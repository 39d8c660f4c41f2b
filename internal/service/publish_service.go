package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/platform"
	"github.com/nikhilm27/socialcast/internal/repository"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

type PublishService interface {
	Publish(ctx context.Context, userID int64, req *transfer.PublishRequest) ([]transfer.PublishResult, error)
}

type publishService struct {
	sa         repository.SocialAccountRepository
	activity   repository.ActivityRepository
	tokens     TokenService
	registry   *platform.Registry
	normalizer *media.Normalizer
}

func NewPublishService(
	sa repository.SocialAccountRepository,
	activity repository.ActivityRepository,
	tokens TokenService,
	registry *platform.Registry,
	normalizer *media.Normalizer) PublishService {
	return &publishService{
		sa:         sa,
		activity:   activity,
		tokens:     tokens,
		registry:   registry,
		normalizer: normalizer,
	}
}

var linkPattern = regexp.MustCompile(`https?://\S+`)

// Publish fans the request out to every target account. One result per
// target comes back in request order; a failing target never stops the
// others.
func (s *publishService) Publish(ctx context.Context, userID int64, req *transfer.PublishRequest) ([]transfer.PublishResult, error) {
	if req == nil || len(req.Targets) == 0 {
		return nil, errors.New("at least one target account is required")
	}
	if req.Content == "" && len(req.Media) == 0 {
		return nil, errors.New("post must have content or media")
	}

	for _, d := range req.Media {
		if media.IsBlobURL(d) {
			return s.failAll(req, "media was not uploaded, blob URLs cannot be published"), nil
		}
	}

	set := s.normalizer.Resolve(ctx, req.Media)
	defer set.Cleanup()

	link := linkPattern.FindString(req.Content)

	results := make([]transfer.PublishResult, 0, len(req.Targets))
	for _, target := range req.Targets {
		result := s.publishOne(ctx, userID, target, req.Content, link, set.Items)
		s.audit(ctx, userID, target, result)
		results = append(results, result)
	}

	return results, nil
}

func (s *publishService) publishOne(ctx context.Context, userID int64, target transfer.PublishTarget, content, link string, items []*media.Item) (result transfer.PublishResult) {
	result = transfer.PublishResult{
		Platform:  target.Platform,
		AccountID: target.AccountID,
		Status:    transfer.PublishStatusFailed,
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("panic while publishing", "platform", target.Platform, "panic", p)
			result.Status = transfer.PublishStatusFailed
			result.ID = ""
			result.Error = fmt.Sprintf("internal error publishing to %s", target.Platform)
		}
	}()

	adapter, err := s.registry.Get(target.Platform)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	acc, err := s.sa.GetByTarget(ctx, userID, target.Platform, target.AccountID)
	if err != nil {
		result.Error = "error looking up the account"
		return result
	}
	if acc == nil {
		result.Error = fmt.Sprintf("%s account is not linked", target.Platform)
		return result
	}

	accessToken, err := s.tokens.Resolve(ctx, acc)
	if err != nil {
		var reconnect *ReconnectError
		if errors.As(err, &reconnect) {
			result.Error = reconnect.Error()
			result.ActionRequired = transfer.ActionReconnect
		} else {
			result.Error = err.Error()
		}
		return result
	}

	if err := platform.Validate(target.Platform, adapter.Capabilities(), content, items); err != nil {
		result.Error = err.Error()
		return result
	}

	postID, err := adapter.Publish(ctx, &platform.PublishInput{
		AccessToken: accessToken,
		AccountID:   acc.AccountID,
		Username:    acc.AccountUsername,
		Content:     content,
		Link:        link,
		Media:       items,
	})
	if err != nil {
		slog.Info("publish failed", "platform", target.Platform, "account_id", target.AccountID, "error", err)
		result.Error = err.Error()
		return result
	}

	result.Status = transfer.PublishStatusSuccess
	result.ID = postID
	result.Error = ""
	return result
}

func (s *publishService) failAll(req *transfer.PublishRequest, reason string) []transfer.PublishResult {
	results := make([]transfer.PublishResult, 0, len(req.Targets))
	for _, target := range req.Targets {
		results = append(results, transfer.PublishResult{
			Platform:  target.Platform,
			AccountID: target.AccountID,
			Status:    transfer.PublishStatusFailed,
			Error:     reason,
		})
	}
	return results
}

// audit records one activity row per target. Audit failures are logged,
// never surfaced.
func (s *publishService) audit(ctx context.Context, userID int64, target transfer.PublishTarget, result transfer.PublishResult) {
	entry := &models.ActivityLog{
		UserID:   userID,
		Platform: target.Platform,
	}
	if result.Status == transfer.PublishStatusSuccess {
		entry.Kind = models.ActivitySuccess
		entry.Title = fmt.Sprintf("Published to %s", target.Platform)
		entry.Meta = result.ID
	} else {
		entry.Kind = models.ActivityError
		entry.Title = fmt.Sprintf("Failed to publish to %s", target.Platform)
		entry.Meta = result.Error
	}

	if _, err := s.activity.Create(ctx, entry); err != nil {
		slog.Info("failed to record activity", "error", err)
	}
}
