package jobs

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/furixon/dc-scraper/internal/models"
)

const progressEvery = 5

// TaskFunc executes one task to completion. Implementations must contain all
// failures in the returned TaskResult.
type TaskFunc func(ctx context.Context, desc models.TaskDescriptor) models.TaskResult

// PoolOptions tunes one RunAll invocation.
type PoolOptions struct {
	WorkerCount int // 0 = derive from CPU count
	UseBatching bool
	BatchSize   int
}

// Pool fans tasks out across bounded parallel workers and collects results
// as they complete. Completion order is not guaranteed.
type Pool struct {
	exec     TaskFunc
	cooldown time.Duration
	logger   *slog.Logger
}

func NewPool(exec TaskFunc, cooldown time.Duration, logger *slog.Logger) *Pool {
	return &Pool{
		exec:     exec,
		cooldown: cooldown,
		logger:   logger.With("component", "pool"),
	}
}

// RunAll executes every task and returns the aggregated summary. onResult,
// when non-nil, is invoked from the collection loop for each finished task
// (single goroutine, no locking needed by the callee). With batching enabled
// and more tasks than the batch size, batches run strictly sequentially with
// a cooldown between them; a batch that blows up is logged and the run moves
// on to the next batch.
func (p *Pool) RunAll(ctx context.Context, tasks []models.TaskDescriptor, opts PoolOptions, onResult func(models.TaskResult)) models.RunSummary {
	start := time.Now()
	summary := models.RunSummary{Total: len(tasks)}

	if len(tasks) == 0 {
		return summary
	}

	if opts.UseBatching && opts.BatchSize > 0 && len(tasks) > opts.BatchSize {
		batches := partition(tasks, opts.BatchSize)
		p.logger.Info("batched run", "batches", len(batches), "batchSize", opts.BatchSize, "total", len(tasks))

		for i, batch := range batches {
			succeeded, failed := p.runBatch(ctx, batch, opts.WorkerCount, onResult)
			summary.Succeeded += succeeded
			summary.Failed += failed

			if i < len(batches)-1 {
				p.logger.Info("batch finished, cooling down", "batch", i+1, "cooldown", p.cooldown)
				select {
				case <-ctx.Done():
				case <-time.After(p.cooldown):
				}
			}
		}
	} else {
		succeeded, failed := p.runBatch(ctx, tasks, opts.WorkerCount, onResult)
		summary.Succeeded = succeeded
		summary.Failed = failed
	}

	summary.ElapsedSeconds = time.Since(start).Seconds()
	p.logger.Info("run finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsedSeconds", summary.ElapsedSeconds)

	return summary
}

// runBatch runs one set of tasks through the bounded worker pool and counts
// outcomes. A panic out of the orchestration is contained here: the batch's
// unfinished tasks are counted as failed and the caller continues.
func (p *Pool) runBatch(ctx context.Context, tasks []models.TaskDescriptor, workerCount int, onResult func(models.TaskResult)) (succeeded, failed int) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("batch orchestration failed", "error", rec)
			failed = len(tasks) - succeeded
		}
	}()

	workers := resolveWorkerCount(workerCount, len(tasks))
	p.logger.Info("dispatching batch", "tasks", len(tasks), "workers", workers)

	sem := make(chan struct{}, workers)
	results := make(chan models.TaskResult, len(tasks))
	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		go func(desc models.TaskDescriptor) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- p.exec(ctx, desc)
		}(task)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for result := range results {
		done++
		if result.Status == models.StatusSuccess {
			succeeded++
		} else {
			failed++
			p.logger.Warn("task failed", "url", result.URL, "error", result.Error)
		}

		if done%progressEvery == 0 || done == len(tasks) {
			p.logger.Info("progress",
				"done", done,
				"total", len(tasks),
				"succeeded", succeeded,
				"failed", failed)
		}

		if onResult != nil {
			onResult(result)
		}
	}

	return succeeded, failed
}

// resolveWorkerCount leaves CPU headroom by default: each worker owns a full
// browser process, and saturating the host invites bans and OOM kills.
func resolveWorkerCount(configured, taskCount int) int {
	workers := configured
	if workers <= 0 {
		workers = int(float64(runtime.NumCPU()) * 0.8)
	}
	if workers < 1 {
		workers = 1
	}
	if workers > taskCount {
		workers = taskCount
	}
	return workers
}

func partition(tasks []models.TaskDescriptor, size int) [][]models.TaskDescriptor {
	var batches [][]models.TaskDescriptor
	for start := 0; start < len(tasks); start += size {
		end := start + size
		if end > len(tasks) {
			end = len(tasks)
		}
		batches = append(batches, tasks[start:end])
	}
	return batches
}
