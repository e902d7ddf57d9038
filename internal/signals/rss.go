package signals

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ideaforge/internal/core"
)

// rss represents an RSS feed document.
type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// atomFeed represents an Atom feed document.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Link      []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// RSSSource fetches signals from a single RSS or Atom feed URL.
type RSSSource struct {
	name      string
	url       string
	userAgent string
	client    *http.Client
}

// NewRSSSource creates a source for the given feed URL.
func NewRSSSource(name, url, userAgent string) *RSSSource {
	return &RSSSource{
		name:      name,
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Name returns the source's display name.
func (s *RSSSource) Name() string { return s.name }

// Fetch pulls and parses the feed, converting items into raw signals.
func (s *RSSSource) Fetch(ctx context.Context, limit int) ([]core.RawSignal, error) {
	body, err := s.get(ctx)
	if err != nil {
		return nil, err
	}

	// Try RSS first, then Atom.
	var doc rss
	if err := xml.Unmarshal(body, &doc); err == nil && doc.Channel.Title != "" {
		return s.fromRSS(doc, limit), nil
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err == nil && feed.Title != "" {
		return s.fromAtom(feed, limit), nil
	}

	return nil, fmt.Errorf("unable to parse %s as RSS or Atom", s.url)
}

func (s *RSSSource) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	return readAll(resp)
}

func (s *RSSSource) fromRSS(doc rss, limit int) []core.RawSignal {
	var signals []core.RawSignal
	for _, item := range doc.Channel.Items {
		if limit > 0 && len(signals) >= limit {
			break
		}
		signals = append(signals, core.RawSignal{
			ID:          signalID(s.name, item.Link),
			Title:       strings.TrimSpace(item.Title),
			Summary:     strings.TrimSpace(item.Description),
			URL:         item.Link,
			Source:      s.name,
			PublishedAt: parseFeedDate(item.PubDate),
		})
	}
	return signals
}

func (s *RSSSource) fromAtom(feed atomFeed, limit int) []core.RawSignal {
	var signals []core.RawSignal
	for _, entry := range feed.Entries {
		if limit > 0 && len(signals) >= limit {
			break
		}

		var link string
		for _, l := range entry.Link {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}

		published := entry.Published
		if published == "" {
			published = entry.Updated
		}

		signals = append(signals, core.RawSignal{
			ID:          signalID(s.name, link),
			Title:       strings.TrimSpace(entry.Title),
			Summary:     strings.TrimSpace(entry.Summary),
			URL:         link,
			Source:      s.name,
			PublishedAt: parseFeedDate(published),
		})
	}
	return signals
}

// signalID creates a deterministic ID for a signal keyed on source and URL.
func signalID(source, url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+url)).String()
}

// parseFeedDate handles the date formats feeds actually emit.
func parseFeedDate(dateStr string) time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339,
		time.RFC1123,
		time.RFC1123Z,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}
