package catalog

import (
	"context"
	"fmt"
	"math"

	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
)

// pool is one way of producing candidate entries for a filter.
type pool interface {
	name() string
	entries(ctx context.Context, spec domain.FilterSpec) ([]domain.CatalogEntry, error)
	count(ctx context.Context, spec domain.FilterSpec) (int, error)
}

type cachedPool struct {
	cache Cache
}

func (p cachedPool) name() string { return "cache" }

func (p cachedPool) entries(ctx context.Context, spec domain.FilterSpec) ([]domain.CatalogEntry, error) {
	return p.cache.GetByFilter(ctx, spec)
}

func (p cachedPool) count(ctx context.Context, spec domain.FilterSpec) (int, error) {
	return p.cache.CountByFilter(ctx, spec)
}

// livePool asks the source directly. Nothing it returns is written to the cache.
type livePool struct {
	source Source
}

func (p livePool) name() string { return "live" }

func searchQuery(spec domain.FilterSpec) (domain.SearchQuery, error) {
	q := domain.SearchQuery{
		Genres:    spec.Genres,
		MinRating: spec.MinRating,
	}
	for _, label := range spec.Decades {
		r, err := domain.ParseDecade(label)
		if err != nil {
			return q, err
		}
		q.Decades = append(q.Decades, r.Start)
	}
	return q, nil
}

func (p livePool) entries(ctx context.Context, spec domain.FilterSpec) ([]domain.CatalogEntry, error) {
	if p.source == nil {
		return nil, fmt.Errorf("media source: %w", domain.ErrNotConfigured)
	}

	q, err := searchQuery(spec)
	if err != nil {
		return nil, err
	}

	// Live rows can only be dropped after the fetch, so pad the sample.
	if spec.Limit > 0 {
		q.Random = true
		q.Limit = spec.Limit
		if spec.ExcludeLive {
			q.Limit = int(math.Ceil(float64(spec.Limit) * constants.LiveOverfetchFactor))
		}
	}

	raw, err := p.source.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search media source: %w", err)
	}

	out := make([]domain.CatalogEntry, 0, len(raw))
	for _, r := range raw {
		e := BuildEntry(r, nil)
		if spec.ExcludeLive && e.IsLive {
			continue
		}
		out = append(out, e)
		if spec.Limit > 0 && len(out) == spec.Limit {
			break
		}
	}
	return out, nil
}

func (p livePool) count(ctx context.Context, spec domain.FilterSpec) (int, error) {
	if tc, ok := p.source.(TotalCounter); ok && !spec.HasConstraints() && !spec.ExcludeLive {
		n, err := tc.TotalEntries(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count media source: %w", err)
		}
		return n, nil
	}

	spec.Limit = 0
	entries, err := p.entries(ctx, spec)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
