// Package feed collects news headlines from RSS and Atom feeds.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mmcdole/gofeed"
)

// PerFeed is the number of entries taken from each feed.
const PerFeed = 8

const tickerSeparator = "  ∘  "

// Headline is one feed entry.
type Headline struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Source string `json:"source"`
}

type Config struct {
	Feeds        []string
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	UserAgent    string
}

// Service fetches headlines and caches them per limit.
type Service struct {
	feeds  []string
	http   *resty.Client
	parser *gofeed.Parser
	cache  *expirable.LRU[int, []Headline]
	log    *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 3 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	client := resty.New().SetTimeout(cfg.FetchTimeout)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Service{
		feeds:  cfg.Feeds,
		http:   client,
		parser: gofeed.NewParser(),
		cache:  expirable.NewLRU[int, []Headline](16, nil, cfg.CacheTTL),
		log:    log.With("component", "feed"),
	}
}

// Headlines walks the feeds in order, taking up to PerFeed entries from
// each, until limit headlines are collected. Feeds that fail are skipped.
func (s *Service) Headlines(ctx context.Context, limit int) []Headline {
	if limit <= 0 {
		return nil
	}
	if cached, ok := s.cache.Get(limit); ok {
		return append([]Headline(nil), cached...)
	}

	items := make([]Headline, 0, limit)
	for _, url := range s.feeds {
		if len(items) >= limit {
			break
		}
		entries, err := s.fetch(ctx, url)
		if err != nil {
			s.log.Warn("feed skipped", "url", url, "error", err)
			continue
		}
		for _, h := range entries {
			items = append(items, h)
			if len(items) >= limit {
				break
			}
		}
	}

	s.cache.Add(limit, items)
	return append([]Headline(nil), items...)
}

func (s *Service) fetch(ctx context.Context, url string) ([]Headline, error) {
	resp, err := s.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}
	parsed, err := s.parser.Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	n := min(len(parsed.Items), PerFeed)
	out := make([]Headline, 0, n)
	for _, item := range parsed.Items[:n] {
		out = append(out, Headline{
			Title:  strings.TrimSpace(item.Title),
			Link:   item.Link,
			Source: strings.TrimSpace(parsed.Title),
		})
	}
	return out, nil
}

// Ticker renders the first n headlines as a single line.
func Ticker(headlines []Headline, n int) string {
	n = max(min(n, len(headlines)), 0)
	parts := make([]string, 0, n)
	for _, h := range headlines[:n] {
		parts = append(parts, h.Source+": "+h.Title)
	}
	return strings.Join(parts, tickerSeparator)
}
