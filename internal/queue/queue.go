package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Dispatcher enqueues claimed scheduled posts for the worker pool.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Dispatch(ctx context.Context, postID int64) error {
	taskPayload, err := json.Marshal(PublishScheduledPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishScheduled, taskPayload)

	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return err
	}

	slog.Info("scheduled post enqueued", "post_id", postID)
	return nil
}
