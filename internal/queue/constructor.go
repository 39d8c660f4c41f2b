package queue

import (
	"github.com/nikhilm27/socialcast/internal/scheduler"
)

// Queue owns the worker side of the task queue. Tasks are produced by the
// poller through the Dispatcher in queue.go.
type Queue struct {
	poller *scheduler.Poller
}

func NewQueue(poller *scheduler.Poller) *Queue {
	return &Queue{
		poller: poller,
	}
}

const TaskTypePublishScheduled = "publish:scheduled"

type PublishScheduledPayload struct {
	PostID int64 `json:"post_id"`
}
