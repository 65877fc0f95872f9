package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"StockSentinel/internal/model"
)

// CachedFetcher wraps another fetcher with a Redis cache for full-month
// slices. Compact (current) requests bypass the cache entirely.
type CachedFetcher struct {
	inner IntradayFetcher
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedFetcher creates the caching decorator.
func NewCachedFetcher(inner IntradayFetcher, rdb *redis.Client, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *CachedFetcher) Name() string { return c.inner.Name() + "+cache" }

func cacheKey(symbol, month, interval string) string {
	return fmt.Sprintf("intraday:%s:%s:%s", symbol, month, interval)
}

func (c *CachedFetcher) FetchIntraday(ctx context.Context, symbol, month, interval string) (model.TimeSeries, error) {
	if month == "" {
		return c.inner.FetchIntraday(ctx, symbol, month, interval)
	}

	key := cacheKey(symbol, month, interval)
	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var series model.TimeSeries
		if err := json.Unmarshal(data, &series); err == nil {
			log.Debugf("intraday cache hit: %s", key)
			return series, nil
		}
		log.Warnf("intraday cache entry corrupt, refetching: %s", key)
	} else if err != redis.Nil {
		log.Warnf("intraday cache read failed: %v", err)
	}

	series, err := c.inner.FetchIntraday(ctx, symbol, month, interval)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(series); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warnf("intraday cache write failed: %v", err)
		}
	}
	return series, nil
}
