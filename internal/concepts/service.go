// Package concepts builds and maintains the trend-concept pool: a curated
// baseline merged with concepts mined from live signals, cached with a TTL.
package concepts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ideaforge/internal/core"
	"ideaforge/internal/llm"
	"ideaforge/internal/logger"
	"ideaforge/internal/signals"
)

// SignalFetcher is the slice of the signal layer the service needs.
type SignalFetcher interface {
	FetchAll(ctx context.Context, opts signals.FetchOptions) *signals.FetchResult
}

// Service ties signal fetching, extraction and caching together and exposes
// the concept pool to the pipeline.
type Service struct {
	fetcher   SignalFetcher
	extractor *Extractor
	cache     *Cache
	fetchOpts signals.FetchOptions
	log       *slog.Logger
}

// NewService creates a concept service.
func NewService(fetcher SignalFetcher, extractor *Extractor, cache *Cache, fetchOpts signals.FetchOptions) *Service {
	return &Service{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     cache,
		fetchOpts: fetchOpts,
		log:       logger.Get(),
	}
}

// GetAIConcepts returns the current dynamic concept set, refreshing via
// signal extraction when the cache is stale or missing, and degrading to
// stale cache data when refresh fails.
func (s *Service) GetAIConcepts(ctx context.Context, maxAge time.Duration) (*CachedResult, error) {
	return s.cache.GetOrRefresh(ctx, maxAge, s.refresh)
}

// refresh fetches signals and extracts a fresh concept set from them.
func (s *Service) refresh(ctx context.Context) (core.CachedConceptSet, llm.Usage, error) {
	fetchResult := s.fetcher.FetchAll(ctx, s.fetchOpts)
	if len(fetchResult.Signals) == 0 {
		return core.CachedConceptSet{}, llm.Usage{}, fmt.Errorf("no signals available from any source")
	}

	concepts, usage, err := s.extractor.Extract(ctx, fetchResult.Signals)
	if err != nil {
		return core.CachedConceptSet{}, usage, err
	}

	now := time.Now().UTC()
	set := core.CachedConceptSet{
		Concepts:       concepts,
		ExtractedAt:    now,
		ExpiresAt:      now.Add(24 * time.Hour),
		RawSignalCount: len(fetchResult.Signals),
		Sources:        fetchResult.SourcesOK,
	}
	return set, usage, nil
}

// BuildPoolFromCache assembles the run's pool: curated concepts merged with
// whatever the cache currently serves. A first-run cache failure degrades to
// a curated-only pool rather than failing the run.
func (s *Service) BuildPoolFromCache(ctx context.Context, maxAge time.Duration, poolSize int) (*Pool, *CachedResult, error) {
	cached, err := s.GetAIConcepts(ctx, maxAge)
	if err != nil {
		s.log.Warn("Dynamic concepts unavailable, using curated-only pool", "error", err.Error())
		return BuildPool(CuratedConcepts(), nil, poolSize), nil, nil
	}

	pool := BuildPool(CuratedConcepts(), cached.Set.Concepts, poolSize)
	return pool, cached, nil
}

// Invalidate drops the cached concept set.
func (s *Service) Invalidate() error {
	return s.cache.Invalidate()
}
