package marketplace

import (
	"context"
	"fmt"
	"time"

	"marketplace-compat/internal/common/database"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/metrics"
	"marketplace-compat/internal/compatibility"

	"github.com/redis/go-redis/v9"
)

// CacheKey identifies one scored (profile, listing) pair. Both versions are
// part of the key so an edit to either side misses the cache.
func CacheKey(category compatibility.Category, userID, profileVersion, listingID, listingVersion string) string {
	return fmt.Sprintf("compat:%s:%s:%s:%s:%s",
		category, userID, versionOrZero(profileVersion), listingID, versionOrZero(listingVersion))
}

func versionOrZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

// ResultCache stores computed compatibility results in redis. Read and write
// failures are logged and treated as misses.
type ResultCache struct {
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewResultCache(rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *ResultCache {
	return &ResultCache{
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"cache": "result"}),
	}
}

func (c *ResultCache) Get(ctx context.Context, key string) (*compatibility.CompatibilityResult, bool) {
	var result compatibility.CompatibilityResult
	found, err := database.GetJSON(ctx, c.redis, key, &result)
	if err != nil {
		c.logger.Warn("result cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	metrics.ObserveCacheLookup("result", found)
	if !found {
		return nil, false
	}
	return &result, true
}

func (c *ResultCache) Set(ctx context.Context, key string, result compatibility.CompatibilityResult) {
	if err := database.SetJSON(ctx, c.redis, key, result, c.ttl); err != nil {
		c.logger.Warn("result cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
