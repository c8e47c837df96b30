package decoy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"fraudintel/internal/search/models"
	"fraudintel/pkg/platform/sentinel"
)

// Cache loads the decoy dataset once per process and shares it without
// locks. Concurrent first loads collapse into one call. A failed load is not
// cached, so the next request retries.
type Cache struct {
	primary  Source
	fallback Source
	logger   *slog.Logger

	group   singleflight.Group
	records atomic.Pointer[[]models.Record]
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithFallback sets the source used when the primary has no dataset.
func WithFallback(src Source) Option {
	return func(c *Cache) {
		c.fallback = src
	}
}

func NewCache(primary Source, opts ...Option) (*Cache, error) {
	if primary == nil {
		return nil, fmt.Errorf("decoy source is required")
	}
	c := &Cache{
		primary: primary,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Load returns the cached dataset. Callers must not mutate the slice.
func (c *Cache) Load(ctx context.Context) ([]models.Record, error) {
	if recs := c.records.Load(); recs != nil {
		return *recs, nil
	}
	v, err, _ := c.group.Do("decoy", func() (any, error) {
		if recs := c.records.Load(); recs != nil {
			return *recs, nil
		}
		recs, err := c.loadFromSources(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		models.SortNewestFirst(recs)
		c.records.Store(&recs)
		c.logger.InfoContext(ctx, "decoy dataset loaded", "records", len(recs))
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Record), nil
}

func (c *Cache) loadFromSources(ctx context.Context) ([]models.Record, error) {
	recs, err := c.primary.Load(ctx)
	if err == nil {
		return recs, nil
	}
	if c.fallback == nil {
		return nil, fmt.Errorf("load decoy dataset: %w", err)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		c.logger.WarnContext(ctx, "primary decoy source failed, using fallback", "error", err)
	}
	recs, err = c.fallback.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fallback decoy dataset: %w", err)
	}
	return recs, nil
}

// Invalidate drops the cached dataset; the next Load reads the sources again.
func (c *Cache) Invalidate() {
	c.records.Store(nil)
}
