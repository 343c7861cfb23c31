package apilog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/personagen/personagen/internal/metrics"
	"github.com/personagen/personagen/internal/model"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "apilog_workers"

	// DefaultBatchSize is the max events per batch.
	DefaultBatchSize = 500

	// DefaultBlockTimeout is how long to block waiting for messages.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultClaimInterval is how often to scan for stuck pending messages.
	DefaultClaimInterval = 10 * time.Second

	// DefaultClaimIdle is how long a pending message must sit idle before it
	// is reclaimed. Covers batches whose insert failed as well as messages
	// stranded in a dead consumer's pending list.
	DefaultClaimIdle = 30 * time.Second
)

// Repository is the persistence seam for log entries.
type Repository interface {
	BulkInsertLogs(ctx context.Context, entries []*model.LogEntry) error
}

// StreamClient is the subset of Redis stream commands the worker uses.
// *redis.Client satisfies it.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Worker drains log events from the Redis stream into Postgres in batches.
// Run one per process; the consumer group keeps multiple instances from
// double-processing. Messages that fail to persist stay in the pending list
// and are picked up again by the periodic claim scan.
type Worker struct {
	redis         StreamClient
	repo          Repository
	logger        *slog.Logger
	metrics       metrics.Recorder
	consumerID    string
	batchSize     int
	blockTimeout  time.Duration
	claimInterval time.Duration
	claimIdle     time.Duration
	claimStartID  string
	lastClaim     time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a new log worker.
func NewWorker(client StreamClient, repo Repository, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:         client,
		repo:          repo,
		logger:        logger.With("component", "apilog.worker", "consumer_id", consumerID),
		metrics:       recorder,
		consumerID:    consumerID,
		batchSize:     DefaultBatchSize,
		blockTimeout:  DefaultBlockTimeout,
		claimInterval: DefaultClaimInterval,
		claimIdle:     DefaultClaimIdle,
		claimStartID:  "0-0",
		done:          make(chan struct{}),
	}
}

// Start creates the consumer group if needed and begins the consume loop.
func (w *Worker) Start(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go w.run(runCtx)

	w.logger.Info("log worker started")
	return nil
}

// Shutdown stops the consume loop and waits for the in-flight batch.
func (w *Worker) Shutdown(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("log worker shutdown: %w", ctx.Err())
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := w.maybeClaimPending(ctx)
		if err != nil {
			w.logger.Warn("failed to claim pending messages", "error", err)
		}

		if len(messages) == 0 {
			messages, err = w.readBatch(ctx)
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.Error("stream read failed", "error", err)
				time.Sleep(time.Second)
				continue
			}
		}

		if len(messages) > 0 {
			w.processBatch(ctx, messages)
		}
	}
}

// readBatch reads never-before-delivered messages via XREADGROUP.
func (w *Worker) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()

	if err != nil || len(streams) == 0 {
		return nil, err
	}

	return streams[0].Messages, nil
}

// maybeClaimPending scans the group's pending list on a fixed interval and
// reclaims messages idle past the threshold, including those delivered to
// consumers that no longer exist. Each consumer ID is fresh per boot, so
// without this scan an unacked batch would never be redelivered.
func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if w.claimInterval <= 0 || w.claimIdle <= 0 {
		return nil, nil
	}
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.claimInterval {
		return nil, nil
	}
	w.lastClaim = time.Now()

	messages, start, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.claimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.batchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}

	if start != "" {
		w.claimStartID = start
	}

	return messages, nil
}

// processBatch decodes a batch of messages, bulk-inserts them, and acks.
// Undecodable messages are acked and skipped so one poison message cannot
// wedge the stream.
func (w *Worker) processBatch(ctx context.Context, messages []redis.XMessage) {
	if len(messages) == 0 {
		return
	}

	entries := make([]*model.LogEntry, 0, len(messages))
	ids := make([]string, 0, len(messages))

	for _, msg := range messages {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			w.metrics.IncLogEventProcessed("skipped")
			ids = append(ids, msg.ID)
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			w.logger.Warn("skipping undecodable log event", "stream_id", msg.ID)
			w.metrics.IncLogEventProcessed("skipped")
			ids = append(ids, msg.ID)
			continue
		}

		entries = append(entries, &model.LogEntry{
			Endpoint:  event.Endpoint,
			Method:    event.Method,
			Status:    event.Status,
			UserID:    event.UserID,
			RequestID: event.RequestID,
			CreatedAt: time.UnixMilli(event.At),
		})
		ids = append(ids, msg.ID)
	}

	w.metrics.ObserveLogBatchSize(len(entries))

	// Insert with a background-scoped timeout so a shutdown still flushes
	// the batch that was already read.
	insertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.repo.BulkInsertLogs(insertCtx, entries); err != nil {
		w.logger.Error("bulk insert failed", "error", err, "batch_size", len(entries))
		for range entries {
			w.metrics.IncLogEventProcessed("failed")
		}
		// Leave messages pending; the claim scan redelivers them once they
		// pass the idle threshold.
		return
	}

	for range entries {
		w.metrics.IncLogEventProcessed("success")
	}

	if err := w.redis.XAck(insertCtx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		w.logger.Error("ack failed", "error", err)
	}
}
