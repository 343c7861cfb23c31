// Package apilog captures per-request log events and persists them to the
// api_logs table through a Redis stream, keeping the write off the request
// path. The /stats endpoint aggregates over the persisted rows.
package apilog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/personagen/personagen/internal/metrics"
)

const (
	// StreamKey is the Redis stream for request log events.
	StreamKey = "stream:api_logs"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// Event is the compressed log event format for the Redis stream.
type Event struct {
	Endpoint  string `json:"ep"`
	Method    string `json:"m"`
	Status    int    `json:"s"`
	UserID    string `json:"uid"`
	RequestID string `json:"rid"`
	At        int64  `json:"t"` // Unix milliseconds
}

// Publisher enqueues request log events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new log event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "apilog.publisher"),
		metrics: recorder,
	}
}

// Publish adds a log event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishAsync(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		if _, err := p.Publish(ctx, event); err != nil {
			p.logger.Warn("failed to publish log event",
				"endpoint", event.Endpoint,
				"error", err,
			)
			p.metrics.IncLogEventPublished("dropped")
			return
		}

		p.metrics.IncLogEventPublished("success")
	}()
}
