package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/furixon/dc-scraper/internal/models"
)

// EventTypeRunCompleted is published when a full crawl run finishes.
const EventTypeRunCompleted = "CRAWL_RUN_COMPLETED"

// RunCompletedPayload is the stream entry body for a finished run.
type RunCompletedPayload struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	JobID     string            `json:"job_id"`
	Keyword   string            `json:"keyword"`
	Summary   models.RunSummary `json:"summary"`
}

// Publisher writes run lifecycle events to a redis stream for downstream
// consumers (persistence post-processing, notification).
type Publisher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewPublisher(client *redis.Client, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		logger: logger.With("component", "events"),
	}
}

// PublishRunCompleted appends a run-completed entry to the stream.
func (p *Publisher) PublishRunCompleted(ctx context.Context, jobID, keyword string, summary models.RunSummary) error {
	payload := RunCompletedPayload{
		EventID:   uuid.New().String(),
		EventType: EventTypeRunCompleted,
		Timestamp: time.Now().UTC(),
		JobID:     jobID,
		Keyword:   keyword,
		Summary:   summary,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_type": payload.EventType,
			"event_id":   payload.EventID,
			"payload":    string(body),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published",
		"event_id", payload.EventID,
		"event_type", payload.EventType,
		"job_id", jobID,
		"stream", p.stream)

	return nil
}
