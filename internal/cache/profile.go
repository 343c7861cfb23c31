package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/personagen/personagen/internal/model"
)

const (
	// profileKeyPrefix is the Redis key prefix for cached profiles.
	profileKeyPrefix = "profile:"

	// unsetFilterValue is the literal used in cache keys for unset filters,
	// so an all-unset request still maps to a stable key.
	unsetFilterValue = "none"

	// DefaultProfileTTL is the lifetime of a cached profile.
	DefaultProfileTTL = 60 * time.Second
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// ProfileKey derives the cache key for a filter tuple. Identical filters,
// including identical all-unset filters, always produce the same key.
func ProfileKey(f model.ProfileFilter) string {
	age := unsetFilterValue
	if f.Age != nil {
		age = strconv.Itoa(*f.Age)
	}

	gender := f.Gender
	if gender == "" {
		gender = unsetFilterValue
	}

	country := f.Country
	if country == "" {
		country = unsetFilterValue
	}

	return profileKeyPrefix + strings.Join([]string{age, gender, country}, ":")
}

// GetProfile retrieves a cached profile document by cache key.
// Returns ErrCacheMiss if absent or expired. Stored documents are plain
// JSON; a corrupt entry is treated as a miss.
func (c *Cache) GetProfile(ctx context.Context, key string) (*model.Profile, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, ErrCacheMiss
	}

	return &profile, nil
}

// SetProfile stores a profile document under key with the given TTL.
// Concurrent writers for one key race benignly; last write wins.
func (c *Cache) SetProfile(ctx context.Context, key string, profile *model.Profile, ttl time.Duration) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}

	return nil
}
