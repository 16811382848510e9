package jobs

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furixon/dc-scraper/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func descriptors(n int) []models.TaskDescriptor {
	tasks := make([]models.TaskDescriptor, n)
	for i := range tasks {
		tasks[i] = models.TaskDescriptor{
			URL:   "https://www.coupang.com/vp/products/" + strconv.Itoa(i),
			JobID: "job_test",
		}
	}
	return tasks
}

func TestRunAllSummaryArithmetic(t *testing.T) {
	exec := func(_ context.Context, desc models.TaskDescriptor) models.TaskResult {
		if desc.URL[len(desc.URL)-1]%2 == 0 {
			return models.TaskResult{URL: desc.URL, Status: models.StatusSuccess}
		}
		return models.FailedResult(desc.URL, "page load timeout or bot detection")
	}

	pool := NewPool(exec, time.Millisecond, discardLogger())
	summary := pool.RunAll(context.Background(), descriptors(9), PoolOptions{WorkerCount: 3}, nil)

	assert.Equal(t, 9, summary.Total)
	assert.Equal(t, summary.Total, summary.Succeeded+summary.Failed)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Equal(t, 4, summary.Failed)
	assert.GreaterOrEqual(t, summary.ElapsedSeconds, 0.0)
}

func TestRunAllBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64

	exec := func(context.Context, models.TaskDescriptor) models.TaskResult {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			observed := atomic.LoadInt64(&peak)
			if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return models.TaskResult{Status: models.StatusSuccess}
	}

	pool := NewPool(exec, time.Millisecond, discardLogger())
	summary := pool.RunAll(context.Background(), descriptors(20), PoolOptions{WorkerCount: 4}, nil)

	assert.Equal(t, 20, summary.Succeeded)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(4), "never more workers than configured")
}

func TestRunAllWorkerCountCappedByTasks(t *testing.T) {
	assert.Equal(t, 2, resolveWorkerCount(8, 2))
	assert.Equal(t, 1, resolveWorkerCount(0, 1))
	assert.Equal(t, 3, resolveWorkerCount(3, 100))
}

func TestRunAllBatchingPartitionsAndCoolsDown(t *testing.T) {
	var mu sync.Mutex
	var order []string
	started := map[string]time.Time{}

	exec := func(_ context.Context, desc models.TaskDescriptor) models.TaskResult {
		mu.Lock()
		order = append(order, desc.URL)
		started[desc.URL] = time.Now()
		mu.Unlock()
		return models.TaskResult{URL: desc.URL, Status: models.StatusSuccess}
	}

	cooldown := 50 * time.Millisecond
	pool := NewPool(exec, cooldown, discardLogger())

	begin := time.Now()
	summary := pool.RunAll(context.Background(), descriptors(10), PoolOptions{
		WorkerCount: 2,
		UseBatching: true,
		BatchSize:   5,
	}, nil)

	require.Equal(t, 10, summary.Total)
	assert.Equal(t, 10, summary.Succeeded)

	// Two batches of five with one cooldown between them.
	assert.GreaterOrEqual(t, time.Since(begin), cooldown)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 10)

	firstBatch := map[string]bool{}
	for _, desc := range descriptors(10)[:5] {
		firstBatch[desc.URL] = true
	}
	var latestFirst, earliestSecond time.Time
	for url, at := range started {
		if firstBatch[url] {
			if at.After(latestFirst) {
				latestFirst = at
			}
		} else if earliestSecond.IsZero() || at.Before(earliestSecond) {
			earliestSecond = at
		}
	}
	assert.GreaterOrEqual(t, earliestSecond.Sub(latestFirst), cooldown,
		"second batch must start only after the cooldown")
}

func TestRunAllBatchingDisabledForSmallSets(t *testing.T) {
	var calls int64
	exec := func(context.Context, models.TaskDescriptor) models.TaskResult {
		atomic.AddInt64(&calls, 1)
		return models.TaskResult{Status: models.StatusSuccess}
	}

	pool := NewPool(exec, time.Hour, discardLogger()) // a cooldown this long would hang a batched run
	done := make(chan models.RunSummary, 1)
	go func() {
		done <- pool.RunAll(context.Background(), descriptors(4), PoolOptions{
			WorkerCount: 2,
			UseBatching: true,
			BatchSize:   5,
		}, nil)
	}()

	select {
	case summary := <-done:
		assert.Equal(t, 4, summary.Succeeded)
		assert.Equal(t, int64(4), atomic.LoadInt64(&calls))
	case <-time.After(5 * time.Second):
		t.Fatal("small task set must bypass batching entirely")
	}
}

func TestRunAllCollectsResultsAsCompleted(t *testing.T) {
	exec := func(_ context.Context, desc models.TaskDescriptor) models.TaskResult {
		return models.TaskResult{URL: desc.URL, Status: models.StatusSuccess}
	}

	var collected []string
	pool := NewPool(exec, time.Millisecond, discardLogger())
	summary := pool.RunAll(context.Background(), descriptors(7), PoolOptions{WorkerCount: 3}, func(result models.TaskResult) {
		collected = append(collected, result.URL)
	})

	assert.Equal(t, 7, summary.Total)
	assert.Len(t, collected, 7, "every result reaches the collector exactly once")
}

func TestRunAllEmptyTaskSet(t *testing.T) {
	pool := NewPool(func(context.Context, models.TaskDescriptor) models.TaskResult {
		t.Fatal("must not execute anything")
		return models.TaskResult{}
	}, time.Millisecond, discardLogger())

	summary := pool.RunAll(context.Background(), nil, PoolOptions{}, nil)
	assert.Equal(t, models.RunSummary{}, summary)
}
