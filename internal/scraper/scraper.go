package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pfrederiksen/citycast-digest/internal/event"
)

const (
	EventsURL = "https://dc.citycast.fm/events"
	UserAgent = "citycast-digest/1.0 (github.com/pfrederiksen/citycast-digest)"
	Timeout   = 30 * time.Second

	maxPageSize = 10 << 20
)

// Scraper handles fetching and parsing the events page
type Scraper struct {
	client *http.Client
	url    string
	parser *Parser
}

// Option configures a Scraper
type Option func(*Scraper)

// WithURL overrides the events page URL
func WithURL(url string) Option {
	return func(s *Scraper) {
		if url != "" {
			s.url = url
		}
	}
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		s.client = client
	}
}

// WithParser overrides the parser used by FetchEvents
func WithParser(p *Parser) Option {
	return func(s *Scraper) {
		s.parser = p
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:    EventsURL,
		parser: NewParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the page the scraper fetches
func (s *Scraper) URL() string {
	return s.url
}

// Fetch downloads the raw markup of the events page
func (s *Scraper) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}

	return string(body), nil
}

// FetchEvents fetches the events page and parses it into day groups
func (s *Scraper) FetchEvents(ctx context.Context) ([]event.DayGroup, error) {
	markup, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseString(markup)
}

// FetchFile reads saved markup from disk, e.g. a copy of the page kept for testing
func FetchFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading markup file: %w", err)
	}
	return string(data), nil
}
