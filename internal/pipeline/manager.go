package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Manager owns the job queue and worker pool.
type Manager struct {
	jobs    *JobStore
	queue   chan *Job
	runner  *JobRunner
	log     *slog.Logger
	workers int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates the manager but does not start workers.
func NewManager(runner *JobRunner, workers, queueSize int, ttl time.Duration, log *slog.Logger) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		jobs:    NewJobStore(ttl),
		queue:   make(chan *Job, queueSize),
		runner:  runner,
		log:     log,
		workers: workers,
	}
}

// Start launches worker goroutines and the job store cleanup loop.
func (m *Manager) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-m.queue:
					if !ok {
						return
					}
					m.runner.Process(workerCtx, job)
				}
			}
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				m.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down workers.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	close(m.queue)
	m.wg.Wait()
}

// Submit registers and queues a job. A full queue fails the job
// immediately rather than blocking the caller.
func (m *Manager) Submit(job *Job) error {
	m.jobs.Put(job)
	select {
	case m.queue <- job:
		return nil
	default:
		job.MarkFailed("job queue is full")
		return fmt.Errorf("job queue is full (%d)", cap(m.queue))
	}
}

// GetJob returns a job by id, or nil.
func (m *Manager) GetJob(id string) *Job {
	return m.jobs.Get(id)
}

// QueueDepth returns the number of queued, unstarted jobs.
func (m *Manager) QueueDepth() int {
	return len(m.queue)
}
