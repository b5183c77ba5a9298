package interfaces

import "context"

// JobQueue schedules asynchronous processing of a webhook. A nil error means
// the job was durably accepted.
type JobQueue interface {
	Enqueue(ctx context.Context, webhookID int64) error
}

// IngestionGate decides whether newly stored webhooks are queued.
type IngestionGate interface {
	IsEnabled(ctx context.Context) (bool, error)
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}
