package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

type outcome struct {
	status  string
	result  []byte
	errText string
}

type fakePostRepo struct {
	posts      map[int64]*models.ScheduledPost
	claimable  map[int64]bool
	claimed    []int64
	outcomes   map[int64]outcome
	listDueErr error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:     map[int64]*models.ScheduledPost{},
		claimable: map[int64]bool{},
		outcomes:  map[int64]outcome{},
	}
}

func (r *fakePostRepo) Create(ctx context.Context, sp *models.ScheduledPost) (int64, error) {
	return 0, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	return r.posts[id], nil
}

func (r *fakePostRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	if r.listDueErr != nil {
		return nil, r.listDueErr
	}
	var due []*models.ScheduledPost
	for _, p := range r.posts {
		if p.Status == models.ScheduleStatusPending && !p.ScheduledFor.After(now) {
			due = append(due, p)
		}
	}
	return due, nil
}

func (r *fakePostRepo) Claim(ctx context.Context, id int64) (bool, error) {
	if !r.claimable[id] {
		return false, nil
	}
	r.claimable[id] = false
	r.claimed = append(r.claimed, id)
	if p, ok := r.posts[id]; ok {
		p.Status = models.ScheduleStatusProcessing
	}
	return true, nil
}

func (r *fakePostRepo) SetOutcome(ctx context.Context, id int64, status string, result []byte, errText string) error {
	r.outcomes[id] = outcome{status: status, result: result, errText: errText}
	if p, ok := r.posts[id]; ok {
		p.Status = status
	}
	return nil
}

func (r *fakePostRepo) Remove(ctx context.Context, userID, id int64) error {
	return nil
}

type fakeDispatcher struct {
	dispatched []int64
	err        error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, postID int64) error {
	if d.err != nil {
		return d.err
	}
	d.dispatched = append(d.dispatched, postID)
	return nil
}

type fakePublisher struct {
	requests []*transfer.PublishRequest
	results  []transfer.PublishResult
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, userID int64, req *transfer.PublishRequest) ([]transfer.PublishResult, error) {
	p.requests = append(p.requests, req)
	return p.results, p.err
}

func targetsJSON(t *testing.T, targets []transfer.PublishTarget) []byte {
	t.Helper()
	data, err := json.Marshal(targets)
	if err != nil {
		t.Fatalf("marshal targets: %v", err)
	}
	return data
}

func pendingPost(t *testing.T, id int64, scheduledFor time.Time) *models.ScheduledPost {
	t.Helper()
	return &models.ScheduledPost{
		ID:           id,
		UserID:       7,
		Content:      "scheduled hello",
		Targets:      targetsJSON(t, []transfer.PublishTarget{{Platform: "alpha", AccountID: "a1"}}),
		ScheduledFor: scheduledFor,
		Status:       models.ScheduleStatusPending,
	}
}

func TestTickClaimsAndDispatchesDuePosts(t *testing.T) {
	repo := newFakePostRepo()
	dispatcher := &fakeDispatcher{}
	poller := NewPoller(repo, &fakePublisher{}, dispatcher)

	now := time.Now()
	repo.posts[1] = pendingPost(t, 1, now.Add(-time.Minute))
	repo.posts[2] = pendingPost(t, 2, now.Add(time.Hour))
	repo.claimable[1] = true
	repo.claimable[2] = true

	poller.Tick(context.Background())

	if len(dispatcher.dispatched) != 1 || dispatcher.dispatched[0] != 1 {
		t.Fatalf("expected only post 1 dispatched, got %v", dispatcher.dispatched)
	}
	if len(repo.claimed) != 1 || repo.claimed[0] != 1 {
		t.Fatalf("expected only post 1 claimed, got %v", repo.claimed)
	}
}

func TestTickSkipsLostClaims(t *testing.T) {
	repo := newFakePostRepo()
	dispatcher := &fakeDispatcher{}
	poller := NewPoller(repo, &fakePublisher{}, dispatcher)

	repo.posts[1] = pendingPost(t, 1, time.Now().Add(-time.Minute))
	// Another poller already claimed this post.
	repo.claimable[1] = false

	poller.Tick(context.Background())

	if len(dispatcher.dispatched) != 0 {
		t.Fatalf("lost claim must not dispatch, got %v", dispatcher.dispatched)
	}
}

func TestTickMarksFailedOnDispatchError(t *testing.T) {
	repo := newFakePostRepo()
	dispatcher := &fakeDispatcher{err: errors.New("queue unavailable")}
	poller := NewPoller(repo, &fakePublisher{}, dispatcher)

	repo.posts[1] = pendingPost(t, 1, time.Now().Add(-time.Minute))
	repo.claimable[1] = true

	poller.Tick(context.Background())

	out, ok := repo.outcomes[1]
	if !ok || out.status != models.ScheduleStatusFailed {
		t.Fatalf("expected failed outcome, got %+v", out)
	}
	if !strings.Contains(out.errText, "enqueue") {
		t.Fatalf("expected enqueue error text, got %q", out.errText)
	}
}

func TestProcessPublishesClaimedPost(t *testing.T) {
	repo := newFakePostRepo()
	publisher := &fakePublisher{results: []transfer.PublishResult{
		{Platform: "alpha", AccountID: "a1", Status: transfer.PublishStatusSuccess, ID: "p1"},
	}}
	poller := NewPoller(repo, publisher, &fakeDispatcher{})

	post := pendingPost(t, 1, time.Now().Add(-time.Minute))
	post.Status = models.ScheduleStatusProcessing
	post.Media = []string{"https://cdn.example.com/a.jpg"}
	repo.posts[1] = post

	if err := poller.Process(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.requests) != 1 {
		t.Fatalf("expected one publish call, got %d", len(publisher.requests))
	}
	req := publisher.requests[0]
	if req.Content != "scheduled hello" {
		t.Fatalf("request content = %q", req.Content)
	}
	if len(req.Media) != 1 || req.Media[0].URL != "https://cdn.example.com/a.jpg" {
		t.Fatalf("request media = %+v", req.Media)
	}

	out := repo.outcomes[1]
	if out.status != models.ScheduleStatusPublished {
		t.Fatalf("expected published, got %+v", out)
	}
	if out.errText != "" {
		t.Fatalf("expected empty error text, got %q", out.errText)
	}

	var stored []transfer.PublishResult
	if err := json.Unmarshal(out.result, &stored); err != nil {
		t.Fatalf("stored result not valid JSON: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != "p1" {
		t.Fatalf("stored results = %+v", stored)
	}
}

func TestProcessPartialSuccessIsPublished(t *testing.T) {
	repo := newFakePostRepo()
	publisher := &fakePublisher{results: []transfer.PublishResult{
		{Platform: "alpha", Status: transfer.PublishStatusFailed, Error: "rate limited"},
		{Platform: "beta", Status: transfer.PublishStatusSuccess, ID: "p2"},
	}}
	poller := NewPoller(repo, publisher, &fakeDispatcher{})

	post := pendingPost(t, 1, time.Now().Add(-time.Minute))
	post.Status = models.ScheduleStatusProcessing
	repo.posts[1] = post

	if err := poller.Process(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := repo.outcomes[1]; out.status != models.ScheduleStatusPublished {
		t.Fatalf("one success should publish the post, got %+v", out)
	}
}

func TestProcessAllFailedTargetsStillPublished(t *testing.T) {
	repo := newFakePostRepo()
	publisher := &fakePublisher{results: []transfer.PublishResult{
		{Platform: "alpha", Status: transfer.PublishStatusFailed, Error: "rate limited"},
		{Platform: "beta", Status: transfer.PublishStatusFailed, Error: "bad token"},
	}}
	poller := NewPoller(repo, publisher, &fakeDispatcher{})

	post := pendingPost(t, 1, time.Now().Add(-time.Minute))
	post.Status = models.ScheduleStatusProcessing
	repo.posts[1] = post

	if err := poller.Process(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The run completed, so the post is terminal even though every target
	// failed; the failures are readable from the stored results.
	out := repo.outcomes[1]
	if out.status != models.ScheduleStatusPublished {
		t.Fatalf("expected published, got %+v", out)
	}
	if out.errText != "" {
		t.Fatalf("error text = %q, want empty", out.errText)
	}

	var stored []transfer.PublishResult
	if err := json.Unmarshal(out.result, &stored); err != nil {
		t.Fatalf("stored result not valid JSON: %v", err)
	}
	if len(stored) != 2 || stored[0].Error != "rate limited" || stored[1].Error != "bad token" {
		t.Fatalf("stored results = %+v", stored)
	}
}

func TestProcessPublishErrorIsFailed(t *testing.T) {
	repo := newFakePostRepo()
	publisher := &fakePublisher{err: errors.New("run could not start")}
	poller := NewPoller(repo, publisher, &fakeDispatcher{})

	post := pendingPost(t, 1, time.Now().Add(-time.Minute))
	post.Status = models.ScheduleStatusProcessing
	repo.posts[1] = post

	if err := poller.Process(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := repo.outcomes[1]
	if out.status != models.ScheduleStatusFailed {
		t.Fatalf("run-level error should mark the post failed, got %+v", out)
	}
	if !strings.Contains(out.errText, "run could not start") {
		t.Fatalf("error text = %q", out.errText)
	}
}

func TestProcessSkipsUnclaimedPost(t *testing.T) {
	repo := newFakePostRepo()
	publisher := &fakePublisher{}
	poller := NewPoller(repo, publisher, &fakeDispatcher{})

	repo.posts[1] = pendingPost(t, 1, time.Now().Add(-time.Minute))

	if err := poller.Process(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.requests) != 0 {
		t.Fatal("a post that was never claimed must not be published")
	}
}

func TestProcessMissingPost(t *testing.T) {
	repo := newFakePostRepo()
	publisher := &fakePublisher{}
	poller := NewPoller(repo, publisher, &fakeDispatcher{})

	if err := poller.Process(context.Background(), 99); err != nil {
		t.Fatalf("deleted post should be a no-op, got %v", err)
	}
	if len(publisher.requests) != 0 {
		t.Fatal("missing post must not be published")
	}
}

func TestProcessUnreadableTargets(t *testing.T) {
	repo := newFakePostRepo()
	publisher := &fakePublisher{}
	poller := NewPoller(repo, publisher, &fakeDispatcher{})

	post := pendingPost(t, 1, time.Now().Add(-time.Minute))
	post.Status = models.ScheduleStatusProcessing
	post.Targets = []byte("{not json")
	repo.posts[1] = post

	if err := poller.Process(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := repo.outcomes[1]
	if out.status != models.ScheduleStatusFailed {
		t.Fatalf("expected failed, got %+v", out)
	}
	if !strings.Contains(out.errText, "targets") {
		t.Fatalf("error text = %q", out.errText)
	}
	if len(publisher.requests) != 0 {
		t.Fatal("unreadable targets must not reach the publisher")
	}
}
