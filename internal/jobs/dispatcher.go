package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
)

var (
	// ErrQueueFull is returned by Dispatch when no queue slot is free.
	ErrQueueFull = errors.New("job queue is full, cannot accept new review job")
	// ErrDispatcherStopped is returned by Dispatch after Stop.
	ErrDispatcherStopped = errors.New("dispatcher is stopped")
)

const defaultQueueSize = 100

// dispatcher implements core.JobDispatcher and manages a pool of worker goroutines
// for processing changes as review jobs.
type dispatcher struct {
	ctx        context.Context
	reviewJob  core.Job
	jobQueue   chan *core.Change
	maxWorkers int
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	logger     *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool. Workers run jobs
// with ctx, so cancelling it aborts in-flight reviews.
// If MaxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(ctx context.Context, reviewJob core.Job, cfg *config.Config, logger *slog.Logger) core.JobDispatcher {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &dispatcher{
		ctx:        ctx,
		reviewJob:  reviewJob,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan *core.Change, queueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

// startWorkers launches maxWorkers goroutines to process jobs from the queue.
func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes changes from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting review worker", "id", workerID)

	for change := range d.jobQueue {
		d.processChange(workerID, change)
	}

	d.logger.Debug("shutting down review worker", "id", workerID)
}

func (d *dispatcher) processChange(workerID int, change *core.Change) {
	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"project", change.ProjectName,
		"kind", change.Kind,
	)

	if err := d.reviewJob.Run(d.ctx, change); err != nil {
		d.logger.Error("review job failed",
			"project", change.ProjectName,
			"kind", change.Kind,
			"error", err,
		)
	}
}

// Dispatch queues a change for processing by a worker.
func (d *dispatcher) Dispatch(_ context.Context, change *core.Change) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherStopped
	}

	select {
	case d.jobQueue <- change:
		d.logger.Info("queued review job", "project", change.ProjectName, "kind", change.Kind)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
// It is safe to call more than once.
func (d *dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobQueue)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	d.wg.Wait()
	d.logger.Info("all review jobs have finished")
}
