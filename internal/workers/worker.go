package workers

import (
	"context"
	"sync"
	"time"

	"remora/pkg/logger"
)

// Worker is one periodically scheduled background job
type Worker interface {
	// Name identifies the worker in logs and metrics
	Name() string

	// Run performs a single iteration. The scheduler invokes it once
	// per Interval and once immediately on start.
	Run(ctx context.Context) error

	// Interval is the spacing between iterations
	Interval() time.Duration

	// Enabled reports whether the scheduler should run this worker
	Enabled() bool
}

// WorkerHealth is a point-in-time snapshot of a worker's run history
type WorkerHealth struct {
	LastRun    time.Time
	LastError  error
	RunCount   int64
	ErrorCount int64
	Enabled    bool
}

// BaseWorker carries the bookkeeping shared by all workers; concrete
// workers embed it and implement Run.
type BaseWorker struct {
	name     string
	interval time.Duration
	enabled  bool
	log      *logger.Logger

	mu         sync.RWMutex
	lastRun    time.Time
	lastError  error
	runCount   int64
	errorCount int64
}

// NewBaseWorker creates the embedded base for a named worker
func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
	}
}

func (w *BaseWorker) Name() string            { return w.name }
func (w *BaseWorker) Interval() time.Duration { return w.interval }
func (w *BaseWorker) Enabled() bool           { return w.enabled }

// Log returns the worker-scoped logger
func (w *BaseWorker) Log() *logger.Logger { return w.log }

// Health snapshots the run bookkeeping
func (w *BaseWorker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		LastRun:    w.lastRun,
		LastError:  w.lastError,
		RunCount:   w.runCount,
		ErrorCount: w.errorCount,
		Enabled:    w.enabled,
	}
}

// RecordRun marks a successful iteration
func (w *BaseWorker) RecordRun() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastRun = time.Now()
	w.runCount++
	w.lastError = nil
}

// RecordError marks a failed iteration
func (w *BaseWorker) RecordError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastRun = time.Now()
	w.runCount++
	w.errorCount++
	w.lastError = err
}
