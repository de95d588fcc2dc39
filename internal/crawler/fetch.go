package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"sjsage522/xbdealworker/logger"
	crawlerrors "sjsage522/xbdealworker/pkg/errors"
	"sjsage522/xbdealworker/services/cache"
)

// GuardedFetcher wraps a Fetcher with a per-host rate limit block stored in
// the cache, so a 429 from the storefront stops further requests to that
// host until BlockTime has elapsed, across categories and across runs.
type GuardedFetcher struct {
	Fetcher   Fetcher
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// Fetch checks the block marker, fetches, and sets the marker on rate limiting
func (g *GuardedFetcher) Fetch(ctx context.Context, target string) (io.Reader, error) {
	if g.CacheSvc == nil {
		return g.Fetcher.Fetch(ctx, target)
	}

	host := hostKey(target)
	key := host + "_rate_limited"
	if _, err := g.CacheSvc.Get(key); err == nil {
		return nil, crawlerrors.NewRateLimit(host, g.BlockTime)
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.ForCache().Warn().Err(err).Str("key", key).Msg("Rate limit lookup failed")
	}

	body, err := g.Fetcher.Fetch(ctx, target)
	if err != nil {
		if crawlerrors.Is(err, crawlerrors.ErrorTypeRateLimit) {
			value := []byte(fmt.Sprintf("%d", g.BlockTime/time.Second))
			if cacheErr := g.CacheSvc.Set(key, value, g.BlockTime); cacheErr != nil {
				logger.ForCache().Warn().Err(cacheErr).Str("key", key).Msg("Failed to store rate limit block")
			}
		}
		return nil, err
	}
	return body, nil
}

func hostKey(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "storefront"
	}
	return u.Host
}
