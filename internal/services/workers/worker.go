package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/killallgit/sermon-api/internal/services/jobs"
)

// JobProcessor runs one queued job to a terminal state
type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// Worker drains job IDs from the queue one at a time
type Worker struct {
	id        string
	queue     jobs.Queue
	processor JobProcessor
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(id string, queue jobs.Queue, processor JobProcessor) *Worker {
	return &Worker{
		id:        id,
		queue:     queue,
		processor: processor,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the worker in a goroutine
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker once its current job finishes
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	slog.Debug("Worker starting", "worker", w.id)
	defer slog.Debug("Worker stopped", "worker", w.id)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case jobID := <-w.queue.Next():
			slog.Info("Worker picked up job", "worker", w.id, "job_id", jobID)
			if err := w.processor.Process(ctx, jobID); err != nil {
				slog.Warn("Job finished with error", "worker", w.id, "job_id", jobID, "error", err)
			} else {
				slog.Info("Job completed", "worker", w.id, "job_id", jobID)
			}
		}
	}
}

// WorkerPool manages multiple workers
type WorkerPool struct {
	workers []*Worker
	mu      sync.Mutex
	started bool
}

// NewWorkerPool creates workerCount workers sharing one processor
func NewWorkerPool(queue jobs.Queue, processor JobProcessor, workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	pool := &WorkerPool{workers: make([]*Worker, workerCount)}
	for i := range pool.workers {
		pool.workers[i] = NewWorker(fmt.Sprintf("worker-%d", i+1), queue, processor)
	}
	return pool
}

// Size returns the number of workers
func (p *WorkerPool) Size() int {
	return len(p.workers)
}

// Start starts all workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}

	slog.Info("Starting worker pool", "workers", len(p.workers))
	for _, worker := range p.workers {
		worker.Start(ctx)
	}
	p.started = true
	return nil
}

// Stop stops all workers gracefully
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	slog.Info("Stopping worker pool")
	for _, worker := range p.workers {
		worker.Stop()
	}
	p.started = false
}
