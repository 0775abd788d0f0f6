package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 15 * time.Minute

// CachedProvider memoizes another provider's answers in Redis. Coordinates
// are bucketed to ~100m so nearby walks share entries.
type CachedProvider struct {
	next Provider
	rdb  *redis.Client
}

func NewCachedProvider(next Provider, rdb *redis.Client) *CachedProvider {
	return &CachedProvider{next: next, rdb: rdb}
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("weather:%.3f:%.3f", lat, lng)
}

func (c *CachedProvider) Conditions(ctx context.Context, lat, lng float64) (Conditions, error) {
	key := cacheKey(lat, lng)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cond Conditions
		if err := json.Unmarshal(raw, &cond); err == nil {
			return cond, nil
		}
	}

	cond, err := c.next.Conditions(ctx, lat, lng)
	if err != nil {
		return Conditions{}, err
	}

	if raw, err := json.Marshal(cond); err == nil {
		// Cache failures are not worth failing the lookup over.
		c.rdb.Set(ctx, key, raw, cacheTTL)
	}
	return cond, nil
}
