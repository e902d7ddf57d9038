package concepts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"ideaforge/internal/core"
	"ideaforge/internal/llm"
	"ideaforge/internal/store"
)

// memStore is an in-memory DocumentStore for cache tests.
type memStore struct {
	docs    map[string]string
	getErr  error
	setErr  error
	setKeys []string
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]string)}
}

func (m *memStore) GetDocument(key string, out any) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	payload, ok := m.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(payload), out)
}

func (m *memStore) SetDocument(key string, document any) error {
	if m.setErr != nil {
		return m.setErr
	}
	payload, err := json.Marshal(document)
	if err != nil {
		return err
	}
	m.docs[key] = string(payload)
	m.setKeys = append(m.setKeys, key)
	return nil
}

func (m *memStore) DeleteDocument(key string) error {
	delete(m.docs, key)
	return nil
}

func (m *memStore) seed(t *testing.T, set core.CachedConceptSet) {
	t.Helper()
	if err := m.SetDocument(store.ConceptCacheKey, set); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	m.setKeys = nil
}

func conceptSet(names []string, age time.Duration) core.CachedConceptSet {
	concepts := make([]core.TrendConcept, len(names))
	for i, name := range names {
		concepts[i] = core.TrendConcept{ID: "c-" + name, Name: name}
	}
	extractedAt := time.Now().UTC().Add(-age)
	return core.CachedConceptSet{
		Concepts:       concepts,
		ExtractedAt:    extractedAt,
		ExpiresAt:      extractedAt.Add(24 * time.Hour),
		RawSignalCount: 12,
		Sources:        []string{"hackernews"},
	}
}

func failingRefresh(ctx context.Context) (core.CachedConceptSet, llm.Usage, error) {
	return core.CachedConceptSet{}, llm.Usage{}, fmt.Errorf("all sources down")
}

func TestGetOrRefreshFreshHitSkipsRefresh(t *testing.T) {
	mem := newMemStore()
	mem.seed(t, conceptSet([]string{"RAG"}, 2*time.Hour))
	cache := NewCache(mem)

	refreshCalled := false
	result, err := cache.GetOrRefresh(context.Background(), 24*time.Hour, func(ctx context.Context) (core.CachedConceptSet, llm.Usage, error) {
		refreshCalled = true
		return core.CachedConceptSet{}, llm.Usage{}, nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if refreshCalled {
		t.Error("Expected fresh cache hit to skip refresh")
	}
	if !result.Cached {
		t.Error("Expected Cached=true on cache hit")
	}
	if result.Stale {
		t.Error("Expected Stale=false for a 2h-old entry with 24h max age")
	}
	if len(result.Set.Concepts) != 1 {
		t.Errorf("Expected 1 concept, got %d", len(result.Set.Concepts))
	}
}

func TestGetOrRefreshStaleTriggersRefresh(t *testing.T) {
	mem := newMemStore()
	mem.seed(t, conceptSet([]string{"Old Concept"}, 30*time.Hour))
	cache := NewCache(mem)

	fresh := conceptSet([]string{"New Concept"}, 0)
	result, err := cache.GetOrRefresh(context.Background(), 24*time.Hour, func(ctx context.Context) (core.CachedConceptSet, llm.Usage, error) {
		return fresh, llm.Usage{InputTokens: 100, OutputTokens: 50}, nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Cached {
		t.Error("Expected Cached=false right after refresh")
	}
	if result.Stale {
		t.Error("Expected Stale=false after successful refresh")
	}
	if result.Cost.InputTokens != 100 {
		t.Errorf("Expected extraction cost carried on result, got %+v", result.Cost)
	}
	if result.Set.Concepts[0].Name != "New Concept" {
		t.Errorf("Expected refreshed set, got %q", result.Set.Concepts[0].Name)
	}
	if len(mem.setKeys) != 1 {
		t.Errorf("Expected refreshed set persisted exactly once, got %d writes", len(mem.setKeys))
	}
}

func TestGetOrRefreshFailureServesStale(t *testing.T) {
	// A 30h-old entry with 24h max age plus a failing refresh must produce
	// the stale payload, not an error.
	mem := newMemStore()
	mem.seed(t, conceptSet([]string{"Stale But Usable"}, 30*time.Hour))
	cache := NewCache(mem)

	result, err := cache.GetOrRefresh(context.Background(), 24*time.Hour, failingRefresh)
	if err != nil {
		t.Fatalf("Expected stale fallback, got error: %v", err)
	}

	if !result.Stale {
		t.Error("Expected Stale=true on refresh-failure fallback")
	}
	if !result.Cached {
		t.Error("Expected Cached=true when serving from cache")
	}
	if result.Set.Concepts[0].Name != "Stale But Usable" {
		t.Errorf("Expected stale payload served, got %q", result.Set.Concepts[0].Name)
	}
	if result.AgeHours < 29 {
		t.Errorf("Expected age around 30h, got %.1f", result.AgeHours)
	}
}

func TestGetOrRefreshFirstRunFailure(t *testing.T) {
	mem := newMemStore()
	cache := NewCache(mem)

	_, err := cache.GetOrRefresh(context.Background(), 24*time.Hour, failingRefresh)
	if err == nil {
		t.Fatal("Expected error when no cache entry exists and refresh fails")
	}
	if !errors.Is(err, core.ErrNoCachedConcepts) {
		t.Errorf("Expected ErrNoCachedConcepts, got %v", err)
	}
}

func TestGetOrRefreshPersistFailureStillReturnsFreshData(t *testing.T) {
	mem := newMemStore()
	mem.setErr = fmt.Errorf("disk full")
	cache := NewCache(mem)

	fresh := conceptSet([]string{"Fresh"}, 0)
	result, err := cache.GetOrRefresh(context.Background(), 24*time.Hour, func(ctx context.Context) (core.CachedConceptSet, llm.Usage, error) {
		return fresh, llm.Usage{}, nil
	})
	if err != nil {
		t.Fatalf("Expected fresh data despite persistence failure, got %v", err)
	}
	if result.Set.Concepts[0].Name != "Fresh" {
		t.Errorf("Expected fresh payload, got %q", result.Set.Concepts[0].Name)
	}
}

func TestInvalidate(t *testing.T) {
	mem := newMemStore()
	mem.seed(t, conceptSet([]string{"Doomed"}, time.Hour))
	cache := NewCache(mem)

	if err := cache.Invalidate(); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	_, found, err := cache.Get(24 * time.Hour)
	if err != nil {
		t.Fatalf("Get after invalidate failed: %v", err)
	}
	if found {
		t.Error("Expected no entry after invalidation")
	}
}
