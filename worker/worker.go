package worker

import (
	"context"
	"sync"
	"time"

	"income-bridge/api/logger"

	"go.uber.org/zap"
)

// Job is a unit of background work. The context carries a deadline; jobs
// should respect it.
type Job func(ctx context.Context)

// Dispatcher runs audit and event writes off the request path. Submission
// never blocks: when the buffer is full the job is dropped and counted.
type Dispatcher struct {
	jobs       chan Job
	workers    int
	jobTimeout time.Duration
	wg         sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	dropped uint64
}

func NewDispatcher(workers, buffer int) *Dispatcher {
	return &Dispatcher{
		jobs:       make(chan Job, buffer),
		workers:    workers,
		jobTimeout: 10 * time.Second,
	}
}

func (d *Dispatcher) Start() {
	logger.Get().Info("starting dispatcher", zap.Int("workers", d.workers))
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop drains queued jobs and waits for the workers to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
	logger.Get().Info("dispatcher stopped", zap.Uint64("jobs_dropped", d.Dropped()))
}

// Submit queues a job for execution. Jobs submitted after Stop, or while
// the buffer is full, are dropped.
func (d *Dispatcher) Submit(job Job) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		d.dropped++
		logger.Get().Warn("dispatcher is stopped, job not submitted")
		return
	}

	select {
	case d.jobs <- job:
	default:
		d.dropped++
		logger.Get().Warn("dispatcher buffer full, job dropped")
	}
}

// Dropped reports how many jobs were discarded.
func (d *Dispatcher) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	logger.Get().Debug("worker started", zap.Int("worker_id", id))

	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
		job(ctx)
		cancel()
	}

	logger.Get().Debug("worker stopping", zap.Int("worker_id", id))
}
