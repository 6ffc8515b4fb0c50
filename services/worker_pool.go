// Package services holds the ingestion orchestration and the background
// machinery it relies on.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/feedlane/feedlane-backend/config"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const defaultJobTimeout = 30 * time.Second

// Job represents a unit of work for the worker pool.
type Job struct {
	// Name is a descriptive name for logging purposes
	Name string
	// Execute is the function that performs the work
	Execute func(ctx context.Context) error
}

// WorkerPool runs jobs on a fixed number of goroutines fed by a bounded
// queue. Submit never blocks; Shutdown drains what is already queued.
type WorkerPool struct {
	jobQueue chan Job
	wg       sync.WaitGroup
	// ctx is cancelled only when a shutdown deadline passes, so in-flight
	// jobs see their context end instead of running on unbounded.
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.SugaredLogger
	metrics *workerPoolMetrics
	config  config.WorkerPoolConfig
	mu      sync.RWMutex
	running bool
	closed  bool
}

type workerPoolMetrics struct {
	queueDepth    prometheus.Gauge
	activeWorkers prometheus.Gauge
	completedJobs prometheus.Counter
	droppedJobs   prometheus.Counter
	errorCount    prometheus.Counter
	panicCount    prometheus.Counter
	jobDuration   prometheus.Histogram
}

// Singleton pattern for metrics (avoid double registration in tests).
var (
	wpMetricsInstance *workerPoolMetrics
	wpMetricsOnce     sync.Once
	wpDefaultRegistry = prometheus.DefaultRegisterer
)

func newWorkerPoolMetrics() *workerPoolMetrics {
	wpMetricsOnce.Do(func() {
		factory := promauto.With(wpDefaultRegistry)
		wpMetricsInstance = &workerPoolMetrics{
			queueDepth: factory.NewGauge(prometheus.GaugeOpts{
				Name: "feedlane_worker_pool_queue_depth",
				Help: "Current number of jobs waiting in queue",
			}),
			activeWorkers: factory.NewGauge(prometheus.GaugeOpts{
				Name: "feedlane_worker_pool_active_workers",
				Help: "Current number of workers processing jobs",
			}),
			completedJobs: factory.NewCounter(prometheus.CounterOpts{
				Name: "feedlane_worker_pool_completed_jobs_total",
				Help: "Total number of finished jobs, successful or not",
			}),
			droppedJobs: factory.NewCounter(prometheus.CounterOpts{
				Name: "feedlane_worker_pool_dropped_jobs_total",
				Help: "Total number of jobs dropped due to full queue or shutdown",
			}),
			errorCount: factory.NewCounter(prometheus.CounterOpts{
				Name: "feedlane_worker_pool_errors_total",
				Help: "Total number of job execution errors",
			}),
			panicCount: factory.NewCounter(prometheus.CounterOpts{
				Name: "feedlane_worker_pool_panics_total",
				Help: "Total number of jobs that panicked",
			}),
			jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "feedlane_worker_pool_job_duration_seconds",
				Help:    "Time taken to execute jobs",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			}),
		}
	})
	return wpMetricsInstance
}

// resetWorkerPoolMetricsForTesting resets the metrics singleton for test isolation.
// This should only be called from tests.
func resetWorkerPoolMetricsForTesting() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	wpDefaultRegistry = reg
	wpMetricsInstance = nil
	wpMetricsOnce = sync.Once{}
	return reg
}

// NewWorkerPool creates a new worker pool with the given configuration.
// The pool must be started with Start() before submitting jobs.
func NewWorkerPool(cfg config.WorkerPoolConfig) *WorkerPool {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobQueue: make(chan Job, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.GetLogger().Named("worker-pool"),
		metrics:  newWorkerPoolMetrics(),
		config:   cfg,
	}
}

// Start launches the worker goroutines. Calling Start() multiple times is safe
// and will only start workers once.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running || wp.closed {
		wp.logger.Warn("Worker pool already running")
		return
	}
	wp.running = true

	wp.logger.Infow("Starting worker pool",
		"maxWorkers", wp.config.MaxWorkers,
		"queueSize", wp.config.QueueSize)

	for i := 0; i < wp.config.MaxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	wp.logger.Debugw("Worker started", "workerId", id)

	for job := range wp.jobQueue {
		wp.executeJob(id, job)
	}
	wp.logger.Debugw("Worker stopping (queue drained)", "workerId", id)
}

func (wp *WorkerPool) jobTimeout() time.Duration {
	if wp.config.JobTimeoutSeconds > 0 {
		return time.Duration(wp.config.JobTimeoutSeconds) * time.Second
	}
	return defaultJobTimeout
}

// executeJob runs a single job with metrics, error handling and panic recovery.
func (wp *WorkerPool) executeJob(workerID int, job Job) {
	wp.metrics.activeWorkers.Inc()
	wp.metrics.queueDepth.Dec()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			wp.metrics.panicCount.Inc()
			wp.logger.Errorw("Job panicked",
				"job", job.Name,
				"workerId", workerID,
				"panic", fmt.Sprint(r))
		}
		wp.metrics.jobDuration.Observe(time.Since(start).Seconds())
		wp.metrics.completedJobs.Inc()
		wp.metrics.activeWorkers.Dec()
	}()

	jobCtx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout())
	defer cancel()

	if err := job.Execute(jobCtx); err != nil {
		wp.logger.Errorw("Job execution failed",
			"job", job.Name,
			"workerId", workerID,
			"error", err,
			"duration", time.Since(start))
		wp.metrics.errorCount.Inc()
		return
	}
	wp.logger.Debugw("Job completed",
		"job", job.Name,
		"workerId", workerID,
		"duration", time.Since(start))
}

// Submit adds a job to the queue. Returns true if the job was queued,
// false if the queue is full or the pool is shutting down.
// This method is non-blocking and safe to call from multiple goroutines.
func (wp *WorkerPool) Submit(job Job) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		wp.metrics.droppedJobs.Inc()
		wp.logger.Warnw("Job dropped - pool shut down", "job", job.Name)
		return false
	}

	select {
	case wp.jobQueue <- job:
		wp.metrics.queueDepth.Inc()
		wp.logger.Debugw("Job submitted", "job", job.Name)
		return true
	default:
		wp.metrics.droppedJobs.Inc()
		wp.logger.Warnw("Job dropped - queue full",
			"job", job.Name,
			"queueSize", wp.config.QueueSize)
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued and in-flight jobs to
// finish. If ctx ends first, running jobs have their contexts cancelled and
// ctx.Err() is returned.
func (wp *WorkerPool) Shutdown(ctx context.Context) error {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return nil
	}
	wp.closed = true
	wasRunning := wp.running
	wp.running = false
	close(wp.jobQueue)
	wp.mu.Unlock()

	if !wasRunning {
		wp.cancel()
		return nil
	}

	wp.logger.Infow("Initiating worker pool shutdown...", "queued", len(wp.jobQueue))

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.cancel()
		wp.logger.Info("Worker pool shutdown complete - all workers finished")
		return nil
	case <-ctx.Done():
		wp.cancel()
		wp.logger.Warn("Worker pool shutdown timed out - some workers may still be running")
		return ctx.Err()
	}
}

// QueueDepth returns the current number of jobs waiting in the queue.
func (wp *WorkerPool) QueueDepth() int {
	return len(wp.jobQueue)
}
