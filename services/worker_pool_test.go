package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/feedlane/feedlane-backend/config"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
}

func testPoolConfig(workers, queue int) config.WorkerPoolConfig {
	return config.WorkerPoolConfig{
		MaxWorkers:             workers,
		QueueSize:              queue,
		ShutdownTimeoutSeconds: 5,
		JobTimeoutSeconds:      5,
	}
}

func TestWorkerPool_SubmitAndExecute(t *testing.T) {
	resetWorkerPoolMetricsForTesting()
	pool := NewWorkerPool(testPoolConfig(2, 10))
	pool.Start()
	defer pool.Shutdown(context.Background())

	var executed int32
	done := make(chan struct{})

	submitted := pool.Submit(Job{
		Name: "test-job",
		Execute: func(ctx context.Context) error {
			atomic.AddInt32(&executed, 1)
			close(done)
			return nil
		},
	})
	require.True(t, submitted, "Job should be accepted")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Job did not execute within timeout")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&executed))
}

func TestWorkerPool_BoundedConcurrency(t *testing.T) {
	resetWorkerPoolMetricsForTesting()
	pool := NewWorkerPool(testPoolConfig(2, 100))
	pool.Start()
	defer pool.Shutdown(context.Background())

	var maxConcurrent, currentConcurrent int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Submit(Job{
			Name: "concurrent-job",
			Execute: func(ctx context.Context) error {
				defer wg.Done()
				current := atomic.AddInt32(&currentConcurrent, 1)
				defer atomic.AddInt32(&currentConcurrent, -1)

				mu.Lock()
				if current > maxConcurrent {
					maxConcurrent = current
				}
				mu.Unlock()

				time.Sleep(50 * time.Millisecond)
				return nil
			},
		})
	}
	wg.Wait()

	assert.LessOrEqual(t, maxConcurrent, int32(2), "Should never exceed 2 concurrent workers")
}

func TestWorkerPool_QueueFull(t *testing.T) {
	reg := resetWorkerPoolMetricsForTesting()
	pool := NewWorkerPool(testPoolConfig(1, 2))
	pool.Start()
	defer pool.Shutdown(context.Background())

	blocker := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(Job{
		Name: "blocker",
		Execute: func(ctx context.Context) error {
			close(started)
			<-blocker
			return nil
		},
	})
	<-started

	assert.True(t, pool.Submit(Job{Name: "queued-1", Execute: func(ctx context.Context) error { return nil }}))
	assert.True(t, pool.Submit(Job{Name: "queued-2", Execute: func(ctx context.Context) error { return nil }}))

	dropped := !pool.Submit(Job{Name: "overflow", Execute: func(ctx context.Context) error { return nil }})
	assert.True(t, dropped, "Job should be dropped when queue is full")
	assert.Equal(t, 2, pool.QueueDepth())

	count, err := testutil.GatherAndCount(reg, "feedlane_worker_pool_dropped_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, float64(1), testutil.ToFloat64(pool.metrics.droppedJobs))

	close(blocker)
}

func TestWorkerPool_ShutdownDrainsQueue(t *testing.T) {
	resetWorkerPoolMetricsForTesting()
	pool := NewWorkerPool(testPoolConfig(1, 10))
	pool.Start()

	var completed int32
	for i := 0; i < 5; i++ {
		pool.Submit(Job{
			Name: "slow-job",
			Execute: func(ctx context.Context) error {
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&completed, 1)
				return nil
			},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, pool.Shutdown(ctx))
	assert.Equal(t, int32(5), atomic.LoadInt32(&completed), "Queued jobs should complete during shutdown")
	assert.False(t, pool.Submit(Job{Name: "after-shutdown", Execute: func(ctx context.Context) error { return nil }}))
}

func TestWorkerPool_ShutdownTimeout(t *testing.T) {
	resetWorkerPoolMetricsForTesting()
	pool := NewWorkerPool(testPoolConfig(1, 10))
	pool.Start()

	jobDone := make(chan struct{})
	defer close(jobDone)
	started := make(chan struct{})

	pool.Submit(Job{
		Name: "very-slow-job",
		Execute: func(ctx context.Context) error {
			close(started)
			// Intentionally ignore ctx.Done() to simulate uncooperative job
			select {
			case <-jobDone:
			case <-time.After(10 * time.Second):
			}
			return nil
		},
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := pool.Shutdown(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	resetWorkerPoolMetricsForTesting()
	pool := NewWorkerPool(testPoolConfig(1, 10))
	pool.Start()
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.False(t, pool.Submit(Job{Name: "late", Execute: func(ctx context.Context) error { return nil }}))
	assert.NoError(t, pool.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestWorkerPool_DoubleStart(t *testing.T) {
	resetWorkerPoolMetricsForTesting()
	pool := NewWorkerPool(testPoolConfig(2, 10))
	pool.Start()
	pool.Start() // Should be idempotent
	defer pool.Shutdown(context.Background())

	done := make(chan struct{})
	require.True(t, pool.Submit(Job{Name: "after-double-start", Execute: func(ctx context.Context) error {
		close(done)
		return nil
	}}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestWorkerPool_JobErrorAndPanic(t *testing.T) {
	resetWorkerPoolMetricsForTesting()
	pool := NewWorkerPool(testPoolConfig(1, 10))
	pool.Start()
	defer pool.Shutdown(context.Background())

	pool.Submit(Job{Name: "error-job", Execute: func(ctx context.Context) error { return assert.AnError }})
	pool.Submit(Job{Name: "panic-job", Execute: func(ctx context.Context) error { panic("boom") }})

	done := make(chan struct{})
	pool.Submit(Job{
		Name: "success-job",
		Execute: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not survive a failing job")
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(pool.metrics.errorCount))
	assert.Equal(t, float64(1), testutil.ToFloat64(pool.metrics.panicCount))
}

func TestWorkerPool_JobTimeout(t *testing.T) {
	resetWorkerPoolMetricsForTesting()
	cfg := testPoolConfig(1, 1)
	cfg.JobTimeoutSeconds = 1
	pool := NewWorkerPool(cfg)
	pool.Start()
	defer pool.Shutdown(context.Background())

	result := make(chan error, 1)
	pool.Submit(Job{
		Name: "deadline-job",
		Execute: func(ctx context.Context) error {
			<-ctx.Done()
			result <- ctx.Err()
			return ctx.Err()
		},
	})

	select {
	case err := <-result:
		assert.Equal(t, context.DeadlineExceeded, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Job context was not bounded by the configured timeout")
	}
}
