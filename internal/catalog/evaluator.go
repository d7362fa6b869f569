// Package catalog decides where candidate tracks come from: the local cache
// when it is populated, the media source otherwise.
package catalog

import (
	"context"
	"fmt"

	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/logger"
)

type Evaluator struct {
	cache  Cache
	cached pool
	live   pool
	logger *logger.Logger
}

// NewEvaluator builds an evaluator over a cache and a source. Either may be
// nil; a nil cache always falls through to the source.
func NewEvaluator(cache Cache, source Source, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Default()
	}
	e := &Evaluator{
		cache:  cache,
		live:   livePool{source: source},
		logger: log.WithComponent("evaluator"),
	}
	if cache != nil {
		e.cached = cachedPool{cache: cache}
	}
	return e
}

func (e *Evaluator) choose(ctx context.Context, preferCache bool) (pool, error) {
	if !preferCache || e.cached == nil {
		return e.live, nil
	}
	has, err := e.cache.HasEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check library cache: %w", err)
	}
	if !has {
		return e.live, nil
	}
	return e.cached, nil
}

// Evaluate returns entries matching spec. With preferCache and a populated
// cache the cache answers; otherwise the source is searched.
func (e *Evaluator) Evaluate(ctx context.Context, spec domain.FilterSpec, preferCache bool) ([]domain.CatalogEntry, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	p, err := e.choose(ctx, preferCache)
	if err != nil {
		return nil, err
	}

	entries, err := p.entries(ctx, spec)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Evaluated filter", "pool", p.name(), "entries", len(entries), "limit", spec.Limit)
	return entries, nil
}

// Count returns how many entries match spec, ignoring Limit. When the cache
// answers CountUnknown the source is asked instead.
func (e *Evaluator) Count(ctx context.Context, spec domain.FilterSpec, preferCache bool) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}

	p, err := e.choose(ctx, preferCache)
	if err != nil {
		return 0, err
	}

	n, err := p.count(ctx, spec)
	if err != nil {
		return 0, err
	}
	if n < 0 && p.name() != e.live.name() {
		e.logger.Debug("Cache count unknown, asking source")
		return e.live.count(ctx, spec)
	}
	return n, nil
}
