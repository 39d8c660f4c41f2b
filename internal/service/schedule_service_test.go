package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

type schedulePostRepoStub struct {
	created   *models.ScheduledPost
	post      *models.ScheduledPost
	removeErr error
}

func (r *schedulePostRepoStub) Create(ctx context.Context, sp *models.ScheduledPost) (int64, error) {
	r.created = sp
	return 11, nil
}

func (r *schedulePostRepoStub) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	return r.post, nil
}

func (r *schedulePostRepoStub) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (r *schedulePostRepoStub) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (r *schedulePostRepoStub) Claim(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (r *schedulePostRepoStub) SetOutcome(ctx context.Context, id int64, status string, result []byte, errText string) error {
	return nil
}

func (r *schedulePostRepoStub) Remove(ctx context.Context, userID, id int64) error {
	return r.removeErr
}

func TestScheduleCreate(t *testing.T) {
	repo := &schedulePostRepoStub{}
	svc := NewScheduleService(repo, media.NewNormalizer(nil))

	id, err := svc.Create(context.Background(), 7, &transfer.ScheduleCreation{
		Content:      "later",
		Media:        []transfer.MediaDescriptor{{URL: "https://cdn.example.com/a.jpg"}},
		Targets:      []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}},
		ScheduledFor: "2026-09-01T10:00:00+02:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 11 {
		t.Fatalf("id = %d", id)
	}

	post := repo.created
	if post.Status != models.ScheduleStatusPending {
		t.Fatalf("status = %q", post.Status)
	}
	if got := post.ScheduledFor; !got.Equal(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)) || got.Location() != time.UTC {
		t.Fatalf("scheduled time not normalized to UTC: %v", got)
	}
	if len(post.Media) != 1 || post.Media[0] != "https://cdn.example.com/a.jpg" {
		t.Fatalf("media = %v", post.Media)
	}

	var targets []transfer.PublishTarget
	if err := json.Unmarshal(post.Targets, &targets); err != nil || len(targets) != 1 {
		t.Fatalf("targets = %s, err = %v", post.Targets, err)
	}
}

func TestScheduleCreateValidation(t *testing.T) {
	svc := NewScheduleService(&schedulePostRepoStub{}, media.NewNormalizer(nil))
	ctx := context.Background()

	cases := []struct {
		name string
		sc   *transfer.ScheduleCreation
		want string
	}{
		{"nil data", nil, "nil"},
		{
			"no content or media",
			&transfer.ScheduleCreation{
				Targets:      []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}},
				ScheduledFor: "2026-09-01T10:00:00Z",
			},
			"content or media",
		},
		{
			"no targets",
			&transfer.ScheduleCreation{Content: "later", ScheduledFor: "2026-09-01T10:00:00Z"},
			"target",
		},
		{
			"bad time format",
			&transfer.ScheduleCreation{
				Content:      "later",
				Targets:      []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}},
				ScheduledFor: "tomorrow at noon",
			},
			"time format",
		},
		{
			"blob media",
			&transfer.ScheduleCreation{
				Content:      "later",
				Media:        []transfer.MediaDescriptor{{URL: "blob:https://app.example.com/x"}},
				Targets:      []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}},
				ScheduledFor: "2026-09-01T10:00:00Z",
			},
			"blob",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 7, tc.sc)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestSchedulePostInfoOwnership(t *testing.T) {
	repo := &schedulePostRepoStub{post: &models.ScheduledPost{ID: 1, UserID: 99}}
	svc := NewScheduleService(repo, media.NewNormalizer(nil))

	if _, err := svc.PostInfo(context.Background(), 7, 1); err == nil {
		t.Fatal("expected error for another user's post")
	}

	repo.post.UserID = 7
	post, err := svc.PostInfo(context.Background(), 7, 1)
	if err != nil || post == nil {
		t.Fatalf("expected owner lookup to succeed, got %v, %v", post, err)
	}
}

func TestScheduleRemoveNotPending(t *testing.T) {
	repo := &schedulePostRepoStub{removeErr: sql.ErrNoRows}
	svc := NewScheduleService(repo, media.NewNormalizer(nil))

	err := svc.Remove(context.Background(), 7, 1)
	if err == nil || !strings.Contains(err.Error(), "no longer pending") {
		t.Fatalf("error = %v", err)
	}
}
