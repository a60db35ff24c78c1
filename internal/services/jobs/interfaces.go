package jobs

import (
	"context"
	"io"
)

// Service is the request-facing side of the job manager
type Service interface {
	// Stage persists an upload to temporary storage without buffering it in memory
	Stage(r io.Reader, filename string) (*Upload, error)
	// Enqueue registers a staged upload as a queued job
	Enqueue(upload *Upload, opts ...SubmitOption) (*Job, error)
	// Submit stages and enqueues in one call
	Submit(ctx context.Context, r io.Reader, filename string, opts ...SubmitOption) (*Job, error)
	// Get returns a snapshot of the job or ErrJobNotFound
	Get(id string) (*Job, error)
	Counts() map[Status]int
	// InFlight totals the owner's queued and processing jobs
	InFlight(ownerID uint) (count, seconds int)
}

// Queue is the worker-facing side of the job manager
type Queue interface {
	Next() <-chan string
	MarkProcessing(id string) (*Job, error)
	Complete(id string, result Result) error
	Fail(id string, cause error, stack []byte) error
}

// SubmitOption is a functional option for configuring jobs
type SubmitOption func(*submitConfig)

type submitConfig struct {
	OwnerID         uint
	SubscriptionID  uint
	DurationSeconds int
}

// WithOwner records the user the job belongs to
func WithOwner(userID uint) SubmitOption {
	return func(cfg *submitConfig) {
		cfg.OwnerID = userID
	}
}

// WithSubscription pins the subscription the job is charged to
func WithSubscription(subscriptionID uint) SubmitOption {
	return func(cfg *submitConfig) {
		cfg.SubscriptionID = subscriptionID
	}
}

// WithDuration records the probed audio duration
func WithDuration(seconds int) SubmitOption {
	return func(cfg *submitConfig) {
		cfg.DurationSeconds = seconds
	}
}
