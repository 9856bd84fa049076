package async

import (
	"context"
	"errors"
	"time"
)

var (
	ErrQueueClosed = errors.New("queue is shutting down")
	ErrQueueFull   = errors.New("queue is full")
)

// Job asks for one source to be ingested in the background.
type Job struct {
	SourceID    string
	URL         string
	SubmittedAt time.Time
	RequestID   string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
