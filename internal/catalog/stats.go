package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/logger"
)

const statsCacheKey = "source:library_stats"

// StatsSource reports library-wide genre and decade listings.
type StatsSource interface {
	LibraryStats(ctx context.Context) (domain.LibraryStats, error)
}

// ResponseCache stores raw upstream responses with an expiry.
type ResponseCache interface {
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// CachedStats memoizes a StatsSource in a ResponseCache. Cache failures are
// logged and fall through to the source.
type CachedStats struct {
	source StatsSource
	cache  ResponseCache
	ttl    time.Duration
	logger *logger.Logger
}

func NewCachedStats(source StatsSource, cache ResponseCache, ttl time.Duration, log *logger.Logger) *CachedStats {
	if log == nil {
		log = logger.Default()
	}
	return &CachedStats{source: source, cache: cache, ttl: ttl, logger: log.WithComponent("stats")}
}

func (c *CachedStats) LibraryStats(ctx context.Context) (domain.LibraryStats, error) {
	if data, err := c.cache.GetCache(ctx, statsCacheKey); err != nil {
		c.logger.Warn("Failed to read cached stats", "error", err)
	} else if data != nil {
		var stats domain.LibraryStats
		if err := json.Unmarshal(data, &stats); err == nil {
			return stats, nil
		}
		c.logger.Warn("Discarding unreadable cached stats")
	}

	stats, err := c.source.LibraryStats(ctx)
	if err != nil {
		return stats, err
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := c.cache.SetCache(ctx, statsCacheKey, data, c.ttl); err != nil {
			c.logger.Warn("Failed to cache stats", "error", err)
		}
	}
	return stats, nil
}
