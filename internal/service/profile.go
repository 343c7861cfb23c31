package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/personagen/personagen/internal/cache"
	"github.com/personagen/personagen/internal/metrics"
	"github.com/personagen/personagen/internal/model"
)

// Service errors.
var (
	ErrCountTooLarge = errors.New("count exceeds the bulk generation limit")
	ErrCountTooSmall = errors.New("count must be at least 1")
)

// ProfileCache is the caching seam for generated documents.
type ProfileCache interface {
	GetProfile(ctx context.Context, key string) (*model.Profile, error)
	SetProfile(ctx context.Context, key string, profile *model.Profile, ttl time.Duration) error
}

// ProfileGenerator synthesizes a document for a filter.
type ProfileGenerator interface {
	Profile(f model.ProfileFilter) *model.Profile
}

// ProfileService serves profile documents out of the cache, generating on
// miss. Requests with identical filters share one cache entry for the TTL
// window, so repeat calls return byte-identical documents until expiry.
type ProfileService struct {
	cache    ProfileCache
	gen      ProfileGenerator
	ttl      time.Duration
	maxBulk  int
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewProfileService creates a new ProfileService.
func NewProfileService(pc ProfileCache, gen ProfileGenerator, ttl time.Duration, maxBulk int, logger *slog.Logger, recorder metrics.Recorder) *ProfileService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if ttl <= 0 {
		ttl = cache.DefaultProfileTTL
	}
	return &ProfileService{
		cache:    pc,
		gen:      gen,
		ttl:      ttl,
		maxBulk:  maxBulk,
		logger:   logger,
		recorder: recorder,
	}
}

// Generate returns the cached document for the filter, or synthesizes,
// caches, and returns a fresh one. Cache errors degrade to generation; the
// endpoint stays up when Redis is down. Concurrent misses on one key may
// both generate; last write wins, which is fine for interchangeable
// synthetic data.
func (s *ProfileService) Generate(ctx context.Context, f model.ProfileFilter) (*model.Profile, error) {
	start := time.Now()
	key := cache.ProfileKey(f)

	cached, err := s.cache.GetProfile(ctx, key)
	if err == nil {
		s.recorder.IncProfileCacheHit()
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("profile cache read failed",
			slog.String("cache_key", key),
			slog.String("error", err.Error()),
		)
	}
	s.recorder.IncProfileCacheMiss()

	profile := s.gen.Profile(f)
	s.recorder.IncProfileGenerated()

	if err := s.cache.SetProfile(ctx, key, profile, s.ttl); err != nil {
		s.logger.Warn("profile cache write failed",
			slog.String("cache_key", key),
			slog.String("error", err.Error()),
		)
	}

	s.recorder.ObserveGenerateDuration(time.Since(start))

	return profile, nil
}

// BulkGenerate produces count documents by running the single-generation
// path count times with empty filters. Within the TTL window items after
// the first are cached copies of the same document; that mirrors the cache
// key semantics and is intentional.
func (s *ProfileService) BulkGenerate(ctx context.Context, count int) ([]*model.Profile, error) {
	if count < 1 {
		return nil, ErrCountTooSmall
	}
	if count > s.maxBulk {
		return nil, fmt.Errorf("%w: %d > %d", ErrCountTooLarge, count, s.maxBulk)
	}

	profiles := make([]*model.Profile, 0, count)
	for i := 0; i < count; i++ {
		p, err := s.Generate(ctx, model.ProfileFilter{})
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, nil
}
