package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/platform"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

type fakeAccountRepo struct {
	accounts map[string]*models.SocialAccount
}

func accountKey(userID int64, platformName, accountID string) string {
	return fmt.Sprintf("%d/%s/%s", userID, platformName, accountID)
}

func (r *fakeAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	return 1, nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return nil, nil
}

func (r *fakeAccountRepo) GetByTarget(ctx context.Context, userID int64, platformName, accountID string) (*models.SocialAccount, error) {
	return r.accounts[accountKey(userID, platformName, accountID)], nil
}

func (r *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (r *fakeAccountRepo) ListExpiring(ctx context.Context, until time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (r *fakeAccountRepo) UpdateTokens(ctx context.Context, id int64, oldAccessToken string, sa *models.SocialAccount) error {
	return nil
}

func (r *fakeAccountRepo) Remove(ctx context.Context, userID, id int64) error {
	return nil
}

type fakeActivityRepo struct {
	entries []*models.ActivityLog
}

func (r *fakeActivityRepo) Create(ctx context.Context, a *models.ActivityLog) (int64, error) {
	r.entries = append(r.entries, a)
	return int64(len(r.entries)), nil
}

func (r *fakeActivityRepo) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.ActivityLog, error) {
	return r.entries, nil
}

type fakeTokenService struct {
	err error
}

func (s *fakeTokenService) Resolve(ctx context.Context, acc *models.SocialAccount) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "plain-token", nil
}

func (s *fakeTokenService) Refresh(ctx context.Context, acc *models.SocialAccount) error {
	return s.err
}

func (s *fakeTokenService) Save(ctx context.Context, acc *models.SocialAccount, accessToken, refreshToken string) error {
	return nil
}

type fakeAdapter struct {
	name    string
	caps    platform.Capabilities
	publish func(ctx context.Context, in *platform.PublishInput) (string, error)
	calls   int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Capabilities() platform.Capabilities { return a.caps }

func (a *fakeAdapter) Publish(ctx context.Context, in *platform.PublishInput) (string, error) {
	a.calls++
	if a.publish != nil {
		return a.publish(ctx, in)
	}
	return fmt.Sprintf("%s-post-%d", a.name, a.calls), nil
}

func linkedAccount(userID int64, platformName, accountID string) *models.SocialAccount {
	return &models.SocialAccount{
		ID:          1,
		UserID:      userID,
		Platform:    platformName,
		AccountID:   accountID,
		AccessToken: "encrypted",
	}
}

func newPublishFixture(adapters ...*fakeAdapter) (*publishService, *fakeAccountRepo, *fakeActivityRepo) {
	registry := platform.NewRegistry()
	for _, a := range adapters {
		registry.Register(a)
	}

	accounts := &fakeAccountRepo{accounts: map[string]*models.SocialAccount{}}
	activity := &fakeActivityRepo{}

	svc := &publishService{
		sa:         accounts,
		activity:   activity,
		tokens:     &fakeTokenService{},
		registry:   registry,
		normalizer: media.NewNormalizer(nil),
	}
	return svc, accounts, activity
}

func TestPublishFanOut(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha", caps: platform.Capabilities{MaxTextLength: 280}}
	beta := &fakeAdapter{name: "beta", caps: platform.Capabilities{MaxTextLength: 280}}
	svc, accounts, activity := newPublishFixture(alpha, beta)

	accounts.accounts[accountKey(7, "alpha", "a1")] = linkedAccount(7, "alpha", "a1")
	accounts.accounts[accountKey(7, "beta", "b1")] = linkedAccount(7, "beta", "b1")

	results, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "hello world",
		Targets: []transfer.PublishTarget{
			{Platform: "alpha", AccountID: "a1"},
			{Platform: "beta", AccountID: "b1"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Platform != "alpha" || results[1].Platform != "beta" {
		t.Fatalf("results out of request order: %+v", results)
	}
	for _, r := range results {
		if r.Status != transfer.PublishStatusSuccess {
			t.Fatalf("expected success, got %+v", r)
		}
		if r.ID == "" {
			t.Fatal("expected a platform post ID")
		}
	}
	if len(activity.entries) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(activity.entries))
	}
}

func TestPublishUnlinkedAccount(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha"}
	svc, _, _ := newPublishFixture(alpha)

	results, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "hello",
		Targets: []transfer.PublishTarget{{Platform: "alpha", AccountID: "missing"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].Status != transfer.PublishStatusFailed {
		t.Fatalf("expected failed result, got %+v", results[0])
	}
	if !strings.Contains(results[0].Error, "not linked") {
		t.Fatalf("expected not-linked error, got %q", results[0].Error)
	}
	if alpha.calls != 0 {
		t.Fatalf("adapter should not be invoked for unlinked account, calls = %d", alpha.calls)
	}
}

func TestPublishFailureIsolation(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha", publish: func(ctx context.Context, in *platform.PublishInput) (string, error) {
		return "", errors.New("rate limited")
	}}
	beta := &fakeAdapter{name: "beta"}
	svc, accounts, _ := newPublishFixture(alpha, beta)

	accounts.accounts[accountKey(7, "alpha", "a1")] = linkedAccount(7, "alpha", "a1")
	accounts.accounts[accountKey(7, "beta", "b1")] = linkedAccount(7, "beta", "b1")

	results, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "hello",
		Targets: []transfer.PublishTarget{
			{Platform: "alpha", AccountID: "a1"},
			{Platform: "beta", AccountID: "b1"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].Status != transfer.PublishStatusFailed {
		t.Fatalf("expected alpha to fail, got %+v", results[0])
	}
	if results[1].Status != transfer.PublishStatusSuccess {
		t.Fatalf("expected beta to succeed despite alpha failure, got %+v", results[1])
	}
}

func TestPublishValidationShortCircuit(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha", caps: platform.Capabilities{MaxTextLength: 5}}
	svc, accounts, _ := newPublishFixture(alpha)

	accounts.accounts[accountKey(7, "alpha", "a1")] = linkedAccount(7, "alpha", "a1")

	results, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "this is way too long",
		Targets: []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].Status != transfer.PublishStatusFailed {
		t.Fatalf("expected failed result, got %+v", results[0])
	}
	if alpha.calls != 0 {
		t.Fatalf("adapter should not be invoked after validation failure, calls = %d", alpha.calls)
	}
}

func TestPublishReconnectRequired(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha"}
	svc, accounts, _ := newPublishFixture(alpha)
	svc.tokens = &fakeTokenService{err: &ReconnectError{
		Platform:  "alpha",
		AccountID: "a1",
		Reason:    "token expired and no refresh token is stored",
	}}

	accounts.accounts[accountKey(7, "alpha", "a1")] = linkedAccount(7, "alpha", "a1")

	results, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "hello",
		Targets: []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].Status != transfer.PublishStatusFailed {
		t.Fatalf("expected failed result, got %+v", results[0])
	}
	if results[0].ActionRequired != transfer.ActionReconnect {
		t.Fatalf("expected reconnect action, got %q", results[0].ActionRequired)
	}
	if alpha.calls != 0 {
		t.Fatalf("adapter should not be invoked with unusable credential, calls = %d", alpha.calls)
	}
}

func TestPublishBlobURLFailsAllTargets(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha"}
	beta := &fakeAdapter{name: "beta"}
	svc, accounts, _ := newPublishFixture(alpha, beta)

	accounts.accounts[accountKey(7, "alpha", "a1")] = linkedAccount(7, "alpha", "a1")
	accounts.accounts[accountKey(7, "beta", "b1")] = linkedAccount(7, "beta", "b1")

	results, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "hello",
		Media:   []transfer.MediaDescriptor{{URL: "blob:https://app.example.com/abc"}},
		Targets: []transfer.PublishTarget{
			{Platform: "alpha", AccountID: "a1"},
			{Platform: "beta", AccountID: "b1"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != transfer.PublishStatusFailed {
			t.Fatalf("expected failed result, got %+v", r)
		}
		if !strings.Contains(r.Error, "blob") {
			t.Fatalf("expected blob error, got %q", r.Error)
		}
	}
	if alpha.calls != 0 || beta.calls != 0 {
		t.Fatal("no adapter should be invoked for blob media")
	}
}

func TestPublishPanicIsolation(t *testing.T) {
	alpha := &fakeAdapter{name: "alpha", publish: func(ctx context.Context, in *platform.PublishInput) (string, error) {
		panic("adapter bug")
	}}
	beta := &fakeAdapter{name: "beta"}
	svc, accounts, _ := newPublishFixture(alpha, beta)

	accounts.accounts[accountKey(7, "alpha", "a1")] = linkedAccount(7, "alpha", "a1")
	accounts.accounts[accountKey(7, "beta", "b1")] = linkedAccount(7, "beta", "b1")

	results, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "hello",
		Targets: []transfer.PublishTarget{
			{Platform: "alpha", AccountID: "a1"},
			{Platform: "beta", AccountID: "b1"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].Status != transfer.PublishStatusFailed {
		t.Fatalf("expected panicking target to fail, got %+v", results[0])
	}
	if results[1].Status != transfer.PublishStatusSuccess {
		t.Fatalf("expected second target to survive the panic, got %+v", results[1])
	}
}

func TestPublishRejectsEmptyRequest(t *testing.T) {
	svc, _, _ := newPublishFixture()

	if _, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "hello",
	}); err == nil {
		t.Fatal("expected error for request without targets")
	}

	if _, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Targets: []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}},
	}); err == nil {
		t.Fatal("expected error for request without content or media")
	}
}

func TestPublishUnknownPlatform(t *testing.T) {
	svc, _, _ := newPublishFixture()

	results, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
		Content: "hello",
		Targets: []transfer.PublishTarget{{Platform: "friendster", AccountID: "a1"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status != transfer.PublishStatusFailed {
		t.Fatalf("expected failed result, got %+v", results[0])
	}
	if !strings.Contains(results[0].Error, "unsupported platform") {
		t.Fatalf("expected unsupported platform error, got %q", results[0].Error)
	}
}

func TestPublishCleansInlineTempFiles(t *testing.T) {
	pngData := base64.StdEncoding.EncodeToString([]byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
	})

	cases := []struct {
		name       string
		publishErr error
	}{
		{"target succeeds", nil},
		{"target fails", errors.New("rate limited")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var materialized []string
			alpha := &fakeAdapter{name: "alpha", publish: func(ctx context.Context, in *platform.PublishInput) (string, error) {
				for _, item := range in.Media {
					if item.LocalPath == "" {
						t.Fatal("inline media should carry a local path")
					}
					if _, err := os.Stat(item.LocalPath); err != nil {
						t.Fatalf("temp file unreadable during publish: %v", err)
					}
					materialized = append(materialized, item.LocalPath)
				}
				return "p1", tc.publishErr
			}}
			svc, accounts, _ := newPublishFixture(alpha)
			accounts.accounts[accountKey(7, "alpha", "a1")] = linkedAccount(7, "alpha", "a1")

			_, err := svc.Publish(context.Background(), 7, &transfer.PublishRequest{
				Content: "hello",
				Media:   []transfer.MediaDescriptor{{InlineData: pngData, MediaType: "image/png"}},
				Targets: []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(materialized) == 0 {
				t.Fatal("adapter never saw the inline media")
			}
			for _, path := range materialized {
				if _, err := os.Stat(path); !os.IsNotExist(err) {
					t.Fatalf("temp file %s still present after publish", path)
				}
			}
		})
	}
}
