package workers

import (
	"context"
	"sync"
	"time"

	"remora/internal/metrics"
	"remora/pkg/errors"
	"remora/pkg/logger"
)

// A refresh pass is bounded by per-fetch timeouts, so shutdown should
// be quick; the timeout only guards against a wedged worker.
const shutdownTimeout = 30 * time.Second

// Scheduler runs each enabled worker on its own goroutine: one
// immediate iteration on start, then one per interval tick.
type Scheduler struct {
	mu      sync.RWMutex
	workers []Worker
	running bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logger.Logger
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{log: logger.Get()}
}

// RegisterWorker adds a worker. Registration after Start is ignored.
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("Ignoring worker registered after start", "worker", w.Name())
		return
	}
	s.workers = append(s.workers, w)
	s.log.Info("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start launches a goroutine per enabled worker
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	started := 0
	for _, w := range s.workers {
		if !w.Enabled() {
			s.log.Info("Skipping disabled worker", "worker", w.Name())
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, w)
		started++
	}

	s.log.Info("Worker scheduler started", "workers", started)
	return nil
}

// Stop cancels all workers and waits for them to drain
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		s.log.Info("All workers stopped")
	case <-time.After(shutdownTimeout):
		err = errors.Wrapf(errors.ErrInternal, "worker shutdown timed out after %s", shutdownTimeout)
		s.log.Warn("Worker shutdown timed out", "timeout", shutdownTimeout)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return err
}

func (s *Scheduler) loop(ctx context.Context, w Worker) {
	defer s.wg.Done()

	ticker := time.NewTicker(w.Interval())
	defer ticker.Stop()

	s.runOnce(ctx, w)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Worker stopping", "worker", w.Name())
			return
		case <-ticker.C:
			s.runOnce(ctx, w)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, w Worker) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Worker panicked", "worker", w.Name(), "panic", r)
		}
	}()

	err := w.Run(ctx)
	elapsed := time.Since(start)
	metrics.RecordWorkerExecution(w.Name(), elapsed, err)

	if err != nil {
		s.log.Error("Worker iteration failed", "worker", w.Name(), "error", err, "duration", elapsed)
		return
	}
	s.log.Debug("Worker iteration done", "worker", w.Name(), "duration", elapsed)
}

// GetWorkers returns the registered workers
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Worker(nil), s.workers...)
}

// IsRunning reports whether Start has been called and Stop has not
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
