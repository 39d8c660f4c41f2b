package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishScheduledTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishScheduledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.poller.Process(ctx, payload.PostID)
}
