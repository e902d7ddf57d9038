// Package signals pulls raw trend signals from external feed sources.
package signals

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ideaforge/internal/core"
	"ideaforge/internal/logger"
)

// Source supplies raw signals from one external feed. Implementations must
// treat unavailability as an error return; the fetcher converts errors into
// empty results so one dead source never aborts the batch.
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]core.RawSignal, error)
}

// FetchOptions configures a fetch across all sources.
type FetchOptions struct {
	MaxPerSource   int           // Limit per source (0 = source default)
	MaxConcurrency int           // Sources fetched concurrently
	Timeout        time.Duration // Deadline for the whole fan-out
}

// DefaultFetchOptions returns sensible defaults.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		MaxPerSource:   30,
		MaxConcurrency: 5,
		Timeout:        30 * time.Second,
	}
}

// FetchResult contains the merged signals plus per-source accounting.
type FetchResult struct {
	Signals       []core.RawSignal
	SourcesOK     []string
	SourcesFailed []string
	Duplicates    int
}

// Fetcher fans out across all configured sources and merges the results.
type Fetcher struct {
	sources []Source
	log     *slog.Logger
}

// NewFetcher creates a fetcher over the given sources.
func NewFetcher(sources []Source) *Fetcher {
	return &Fetcher{
		sources: sources,
		log:     logger.Get(),
	}
}

// FetchAll queries every source concurrently, isolates per-source failures,
// and deduplicates the merged list by normalized title (first occurrence wins).
func (f *Fetcher) FetchAll(ctx context.Context, opts FetchOptions) *FetchResult {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 5
	}

	result := &FetchResult{}
	sem := make(chan struct{}, opts.MaxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, source := range f.sources {
		wg.Add(1)
		sem <- struct{}{}

		go func(src Source) {
			defer wg.Done()
			defer func() { <-sem }()

			signals, err := src.Fetch(ctx, opts.MaxPerSource)
			if err != nil {
				// Feed unavailability is expected and non-fatal.
				f.log.Warn("Signal source failed", "source", src.Name(), "error", err.Error())
				mu.Lock()
				result.SourcesFailed = append(result.SourcesFailed, src.Name())
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Signals = append(result.Signals, signals...)
			result.SourcesOK = append(result.SourcesOK, src.Name())
			mu.Unlock()
		}(source)
	}

	wg.Wait()

	merged, duplicates := dedupeByTitle(result.Signals)
	result.Signals = merged
	result.Duplicates = duplicates

	f.log.Info("Signal fetch completed",
		"sources_ok", len(result.SourcesOK),
		"sources_failed", len(result.SourcesFailed),
		"signals", len(result.Signals),
		"duplicates_dropped", duplicates,
	)

	return result
}

// dedupeByTitle drops signals whose normalized title was already seen,
// keeping the first occurrence.
func dedupeByTitle(signals []core.RawSignal) ([]core.RawSignal, int) {
	seen := make(map[string]bool, len(signals))
	var unique []core.RawSignal
	duplicates := 0

	for _, signal := range signals {
		key := core.NormalizeName(signal.Title)
		if key == "" || seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		unique = append(unique, signal)
	}

	return unique, duplicates
}
