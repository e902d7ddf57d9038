package signals

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ideaforge/internal/core"
)

const hackerNewsFrontPage = "https://news.ycombinator.com/"

// HackerNewsSource scrapes the Hacker News front page for story signals.
type HackerNewsSource struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewHackerNewsSource creates a source over the HN front page.
func NewHackerNewsSource(userAgent string) *HackerNewsSource {
	return &HackerNewsSource{
		url:       hackerNewsFrontPage,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Name returns the source's display name.
func (s *HackerNewsSource) Name() string { return "hackernews" }

// Fetch pulls the front page and extracts story rows.
func (s *HackerNewsSource) Fetch(ctx context.Context, limit int) ([]core.RawSignal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch front page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("front page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse front page HTML: %w", err)
	}

	return s.parseStories(doc, limit), nil
}

// parseStories walks the story table. Each story occupies a tr.athing with
// its points in the following subtext row.
func (s *HackerNewsSource) parseStories(doc *goquery.Document, limit int) []core.RawSignal {
	var signals []core.RawSignal

	doc.Find("tr.athing").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if limit > 0 && len(signals) >= limit {
			return false
		}

		titleLink := row.Find("span.titleline > a").First()
		title := strings.TrimSpace(titleLink.Text())
		href, _ := titleLink.Attr("href")
		if title == "" || href == "" {
			return true
		}
		if strings.HasPrefix(href, "item?id=") {
			href = s.url + href
		}

		score := 0.0
		if scoreText := row.Next().Find("span.score").Text(); scoreText != "" {
			if points, err := strconv.Atoi(strings.TrimSuffix(scoreText, " points")); err == nil {
				score = float64(points)
			}
		}

		signals = append(signals, core.RawSignal{
			ID:     signalID(s.Name(), href),
			Title:  title,
			URL:    href,
			Source: s.Name(),
			Score:  score,
		})
		return true
	})

	return signals
}

// readAll drains an HTTP response body with a size cap.
func readAll(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
