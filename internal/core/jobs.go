package core

import (
	"context"
)

//go:generate mockgen -destination=../../mocks/mock_jobs.go -package=mocks github.com/sevigo/change-warden/internal/core JobDispatcher,Job

// JobDispatcher defines the contract for a system that can accept and queue
// background jobs for asynchronous processing. This interface decouples the
// event source (e.g., a webhook handler) from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch accepts a Change and queues it for processing.
	// It returns an error if the job cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, change *Change) error

	// Stop closes the queue and waits for in-flight jobs to finish.
	Stop()
}

// Job represents a single, executable unit of work that can be processed by the
// application's job dispatcher.
type Job interface {
	// Run executes the job's logic for one Change.
	Run(ctx context.Context, change *Change) error
}
