package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/furixon/dc-scraper/internal/config"
	"github.com/furixon/dc-scraper/internal/models"
)

var (
	// ErrRunInProgress is returned when another run holds the guard.
	ErrRunInProgress = errors.New("a crawl run is already in progress")
)

// Discoverer finds candidate product URLs for a keyword.
type Discoverer interface {
	Discover(keyword string, maxLinks int) ([]string, error)
}

// ResultStore persists finished task results. Persistence is best-effort
// from the pipeline's point of view.
type ResultStore interface {
	SaveTaskResult(ctx context.Context, jobID string, result models.TaskResult) error
}

// EventPublisher notifies downstream consumers that a run finished.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, jobID, keyword string, summary models.RunSummary) error
}

// RunRequest is what the API boundary hands to the pipeline.
type RunRequest struct {
	Keyword     string `json:"keyword"`
	MaxLinks    int    `json:"max_links"`
	UseBatching *bool  `json:"use_batching,omitempty"`
	BatchSize   int    `json:"batch_size,omitempty"`
}

// Pipeline composes discovery, the worker pool, persistence and notification
// into one guarded, fire-and-forget run.
type Pipeline struct {
	cfg       config.CrawlerConfig
	guard     *RunGuard
	discovery Discoverer
	pool      *Pool
	store     ResultStore    // optional
	events    EventPublisher // optional
	logger    *slog.Logger
}

func NewPipeline(cfg config.CrawlerConfig, guard *RunGuard, discovery Discoverer, pool *Pool, store ResultStore, events EventPublisher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		guard:     guard,
		discovery: discovery,
		pool:      pool,
		store:     store,
		events:    events,
		logger:    logger.With("component", "pipeline"),
	}
}

// NewJobID names a run after its start time.
func NewJobID() string {
	return "job_" + time.Now().Format("20060102_150405")
}

// Start accepts or rejects a run against the guard. On acceptance the run
// proceeds out-of-band and the caller polls status separately.
func (p *Pipeline) Start(req RunRequest) (string, error) {
	if !p.guard.TryAcquire() {
		return "", ErrRunInProgress
	}

	jobID := NewJobID()
	go p.run(jobID, req)

	return jobID, nil
}

// Running reports whether a run currently holds the guard.
func (p *Pipeline) Running() bool {
	return p.guard.Running()
}

func (p *Pipeline) run(jobID string, req RunRequest) {
	// The guard must clear on every exit path, including panics, or the
	// service would stay "busy" forever.
	defer p.guard.Release()
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("run aborted by panic", "jobID", jobID, "error", rec)
		}
	}()

	ctx := context.Background()

	maxLinks := req.MaxLinks
	if maxLinks <= 0 {
		maxLinks = p.cfg.MaxLinks
	}

	p.logger.Info("run started", "jobID", jobID, "keyword", req.Keyword, "maxLinks", maxLinks)

	links, err := p.discovery.Discover(req.Keyword, maxLinks)
	if err != nil {
		p.logger.Error("discovery failed", "jobID", jobID, "error", err)
		return
	}
	if len(links) == 0 {
		p.logger.Warn("no qualifying links, aborting run", "jobID", jobID, "keyword", req.Keyword)
		return
	}

	tasks := make([]models.TaskDescriptor, len(links))
	for i, link := range links {
		tasks[i] = models.TaskDescriptor{URL: link, JobID: jobID}
	}

	opts := PoolOptions{
		WorkerCount: p.cfg.WorkerCount,
		UseBatching: p.cfg.UseBatching,
		BatchSize:   p.cfg.BatchSize,
	}
	if req.UseBatching != nil {
		opts.UseBatching = *req.UseBatching
	}
	if req.BatchSize > 0 {
		opts.BatchSize = req.BatchSize
	}

	summary := p.pool.RunAll(ctx, tasks, opts, func(result models.TaskResult) {
		if p.store == nil {
			return
		}
		if err := p.store.SaveTaskResult(ctx, jobID, result); err != nil {
			p.logger.Error("failed to persist task result", "jobID", jobID, "url", result.URL, "error", err)
		}
	})

	if p.events != nil {
		if err := p.events.PublishRunCompleted(ctx, jobID, req.Keyword, summary); err != nil {
			p.logger.Error("failed to publish run completion", "jobID", jobID, "error", err)
		}
	}

	p.logger.Info("run completed",
		"jobID", jobID,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsedSeconds", summary.ElapsedSeconds)
}
