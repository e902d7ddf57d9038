package signals

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ideaforge/internal/core"
)

const arxivAPIBase = "http://export.arxiv.org/api/query"

// ArxivSource fetches recent papers matching a query from the arXiv API.
// The API serves Atom, sorted by submission date.
type ArxivSource struct {
	query     string
	userAgent string
	client    *http.Client
}

// NewArxivSource creates a source for the given arXiv search query
// (e.g. "cat:cs.AI").
func NewArxivSource(query, userAgent string) *ArxivSource {
	return &ArxivSource{
		query:     query,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Name returns the source's display name.
func (s *ArxivSource) Name() string { return "arxiv" }

// Fetch queries the arXiv API and converts entries into raw signals.
func (s *ArxivSource) Fetch(ctx context.Context, limit int) ([]core.RawSignal, error) {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("search_query", s.query)
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	params.Set("max_results", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query arxiv: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	body, err := readAll(resp)
	if err != nil {
		return nil, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse arxiv response: %w", err)
	}

	var signals []core.RawSignal
	for _, entry := range feed.Entries {
		if len(signals) >= limit {
			break
		}

		var link string
		for _, l := range entry.Link {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}

		signals = append(signals, core.RawSignal{
			ID:          signalID(s.Name(), link),
			Title:       strings.Join(strings.Fields(entry.Title), " "),
			Summary:     strings.TrimSpace(entry.Summary),
			URL:         link,
			Source:      s.Name(),
			PublishedAt: parseFeedDate(entry.Published),
		})
	}

	return signals, nil
}
