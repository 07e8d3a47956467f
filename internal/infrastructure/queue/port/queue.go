package port

import "context"

// Task is a background job: a stable type name plus an opaque payload.
// Serialization stays with the callers; the read-receipt task carries JSON.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. A non-nil error requests a retry under the
// adapter's policy, so handlers must be idempotent.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption narrows delivery. Zero values mean the adapter's defaults.
type EnqueueOption struct {
	Queue    string // logical queue name
	MaxRetry int    // retry cap for the task
}

// Client enqueues tasks for background processing.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs background workers. Run blocks until the context is canceled,
// draining in-flight handlers before returning.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
}
