package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/personagen/personagen/internal/model"
)

// Common errors for API key repository operations.
var (
	ErrAPIKeyNotFound = errors.New("API key not found")
)

// CreateAPIKey inserts a new active API key.
func (r *Repository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	query := `
		INSERT INTO api_keys (api_key, user_id, active, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		key.Key,
		key.UserID,
		key.Active,
		key.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	return nil
}

// GetActiveAPIKey retrieves an API key by its token, active keys only.
// Used by the auth middleware; revoked keys look identical to unknown ones.
func (r *Repository) GetActiveAPIKey(ctx context.Context, key string) (*model.APIKey, error) {
	query := `
		SELECT api_key, user_id, active, created_at
		FROM api_keys
		WHERE api_key = $1 AND active
	`

	var k model.APIKey
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&k.Key,
		&k.UserID,
		&k.Active,
		&k.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	return &k, nil
}

// ListActiveAPIKeys retrieves all active API keys for a user.
func (r *Repository) ListActiveAPIKeys(ctx context.Context, userID string) ([]*model.APIKey, error) {
	query := `
		SELECT api_key, user_id, active, created_at
		FROM api_keys
		WHERE user_id = $1 AND active
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.Key, &k.UserID, &k.Active, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, &k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}

	return keys, nil
}

// RevokeAPIKey deactivates a key owned by userID. Deactivation is final;
// the row is kept. Returns ErrAPIKeyNotFound when no active key matched,
// including keys owned by someone else.
func (r *Repository) RevokeAPIKey(ctx context.Context, userID, key string) error {
	query := `
		UPDATE api_keys
		SET active = FALSE
		WHERE api_key = $1 AND user_id = $2 AND active
	`

	result, err := r.pool.Exec(ctx, query, key, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}
