package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/personagen/personagen/internal/model"
)

// BulkInsertLogs writes a batch of request log entries in one round trip.
// Called by the background log worker, not by request handlers.
func (r *Repository) BulkInsertLogs(ctx context.Context, entries []*model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO api_logs (endpoint, method, status, user_id, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, e := range entries {
		batch.Queue(query, e.Endpoint, e.Method, e.Status, e.UserID, e.RequestID, e.CreatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert log entry: %w", err)
		}
	}

	return nil
}

// CountByEndpoint returns request counts grouped by endpoint.
// Backs GET /stats; a plain passthrough aggregate.
func (r *Repository) CountByEndpoint(ctx context.Context) ([]*model.EndpointCount, error) {
	query := `
		SELECT endpoint, COUNT(*) AS count
		FROM api_logs
		GROUP BY endpoint
		ORDER BY count DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count log entries: %w", err)
	}
	defer rows.Close()

	var counts []*model.EndpointCount
	for rows.Next() {
		var c model.EndpointCount
		if err := rows.Scan(&c.Endpoint, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint count: %w", err)
		}
		counts = append(counts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating endpoint counts: %w", err)
	}

	return counts, nil
}
