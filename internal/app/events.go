package app

import (
	"context"
	"time"
)

type TaskEventType string

const (
	TaskCreated TaskEventType = "task.created"
	TaskUpdated TaskEventType = "task.updated"
	TaskDeleted TaskEventType = "task.deleted"
)

// TaskEvent is published after a task mutation has been committed.
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	TaskID     uint          `json:"task_id"`
	Title      string        `json:"title,omitempty"`
	Completed  bool          `json:"completed"`
	Actor      string        `json:"actor"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type TaskEventPublisher interface {
	Publish(ctx context.Context, event TaskEvent) error
}
