package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds page fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Timeout per page fetch.
	Timeout time.Duration `yaml:"timeout"`

	// MaxPages caps how many pages are walked. Zero means no cap.
	MaxPages int `yaml:"max_pages"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaults.MaxConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// PageFetcher fetches one 1-based page and reports the total page count.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (items []T, totalPages int, err error)
}

// PageFunc adapts a function to PageFetcher.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, int, error)

// FetchPage calls f.
func (f PageFunc[T]) FetchPage(ctx context.Context, page int) ([]T, int, error) {
	return f(ctx, page)
}

// FetchAll returns the items of every page in page order. Any page
// failure fails the whole walk.
func FetchAll[T any](ctx context.Context, fetcher PageFetcher[T], cfg Config) ([]T, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	first, totalPages, err := fetchPage(ctx, fetcher, 1, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("fetch page 1: %w", err)
	}
	if cfg.MaxPages > 0 && totalPages > cfg.MaxPages {
		log.Warn().
			Int("total_pages", totalPages).
			Int("max_pages", cfg.MaxPages).
			Msg("Page count exceeds cap, truncating")
		totalPages = cfg.MaxPages
	}
	if totalPages <= 1 {
		return first, nil
	}

	log.Debug().
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	pages := make([][]T, totalPages)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrency)
	for page := 2; page <= totalPages; page++ {
		g.Go(func() error {
			items, _, err := fetchPage(gctx, fetcher, page, cfg.Timeout)
			if err != nil {
				return fmt.Errorf("fetch page %d: %w", page, err)
			}
			pages[page-1] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []T
	for _, items := range pages {
		all = append(all, items...)
	}

	log.Debug().
		Int("pages", totalPages).
		Int("items", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return all, nil
}

func fetchPage[T any](ctx context.Context, fetcher PageFetcher[T], page int, timeout time.Duration) ([]T, int, error) {
	pageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fetcher.FetchPage(pageCtx, page)
}
