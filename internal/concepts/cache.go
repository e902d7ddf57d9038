package concepts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ideaforge/internal/core"
	"ideaforge/internal/llm"
	"ideaforge/internal/logger"
	"ideaforge/internal/store"
)

// DocumentStore is the slice of the durable store the cache needs: whole-
// document replace semantics, no partial updates.
type DocumentStore interface {
	GetDocument(key string, out any) (bool, error)
	SetDocument(key string, document any) error
	DeleteDocument(key string) error
}

// RefreshFunc produces a fresh concept set, typically by fetching signals and
// running extraction. It reports the LLM usage of the attempt.
type RefreshFunc func(ctx context.Context) (core.CachedConceptSet, llm.Usage, error)

// Cache is the TTL-gated concept cache. Its key contract: refresh failures
// degrade to serving stale data whenever any cached entry exists; only the
// true first-run failure (no entry, refresh fails) propagates an error.
type Cache struct {
	store DocumentStore
	log   *slog.Logger
}

// NewCache creates a concept cache over the given durable store.
func NewCache(docStore DocumentStore) *Cache {
	return &Cache{
		store: docStore,
		log:   logger.Get(),
	}
}

// CachedResult is what cache reads hand back to the pipeline.
type CachedResult struct {
	Set      core.CachedConceptSet
	AgeHours float64
	Stale    bool      // Entry is older than maxAge
	Cached   bool      // Served from the cache (false only right after a refresh)
	Cost     llm.Usage // Extraction cost of this call; zero on cache hits
}

// Get returns the cached entry together with its age and staleness. Staleness
// is informational: the payload is returned either way. found is false when
// no entry exists.
func (c *Cache) Get(maxAge time.Duration) (result *CachedResult, found bool, err error) {
	var set core.CachedConceptSet
	ok, err := c.store.GetDocument(store.ConceptCacheKey, &set)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read concept cache: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	age := time.Since(set.ExtractedAt)
	return &CachedResult{
		Set:      set,
		AgeHours: age.Hours(),
		Stale:    age > maxAge,
		Cached:   true,
	}, true, nil
}

// GetOrRefresh returns the cached set when fresh, otherwise attempts refresh.
// On refresh failure it falls back to whatever entry exists, marked stale,
// regardless of its age. Only the no-entry-and-refresh-failed case errors.
func (c *Cache) GetOrRefresh(ctx context.Context, maxAge time.Duration, refresh RefreshFunc) (*CachedResult, error) {
	existing, found, err := c.Get(maxAge)
	if err != nil {
		return nil, err
	}
	if found && !existing.Stale {
		c.log.Debug("Concept cache hit", "age_hours", existing.AgeHours)
		return existing, nil
	}

	set, usage, refreshErr := refresh(ctx)
	if refreshErr == nil {
		if err := c.store.SetDocument(store.ConceptCacheKey, set); err != nil {
			// The fresh data is still good; persistence failure only costs
			// us the next run's cache hit.
			c.log.Warn("Failed to persist refreshed concept set", "error", err.Error())
		}
		c.log.Info("Concept cache refreshed",
			"concepts", len(set.Concepts),
			"signals", set.RawSignalCount,
		)
		return &CachedResult{
			Set:      set,
			AgeHours: 0,
			Stale:    false,
			Cached:   false,
			Cost:     usage,
		}, nil
	}

	if found {
		c.log.Warn("Concept refresh failed, serving stale cache",
			"age_hours", existing.AgeHours,
			"error", refreshErr.Error(),
		)
		existing.Stale = true
		existing.Cost = usage
		return existing, nil
	}

	return nil, fmt.Errorf("%w: %v", core.ErrNoCachedConcepts, refreshErr)
}

// Invalidate deletes the cached entry unconditionally.
func (c *Cache) Invalidate() error {
	if err := c.store.DeleteDocument(store.ConceptCacheKey); err != nil {
		return fmt.Errorf("failed to invalidate concept cache: %w", err)
	}
	c.log.Info("Concept cache invalidated")
	return nil
}
