package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/golangast/transitslu/slu/da"
)

// cacheKeyPrefix namespaces parse results in a shared redis.
const cacheKeyPrefix = "slu:parse:"

// Cache memoizes parse results in redis, keyed by a digest of the
// observation's textual form. Cache failures degrade to a miss; the
// dispatcher never fails because redis is down.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a redis client. A non-positive ttl keeps entries for
// an hour.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(obs *Observation) string {
	sum := sha256.Sum256([]byte(string(obs.Kind()) + "\x00" + obs.String()))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get looks the observation up; the second result reports a hit.
func (c *Cache) Get(ctx context.Context, obs *Observation) (*da.ConfusionNetwork, bool) {
	text, err := c.client.Get(ctx, cacheKey(obs)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("parse cache read failed")
		return nil, false
	}
	dac, err := da.ParseConfusionNetwork(text)
	if err != nil {
		log.Warn().Err(err).Msg("parse cache holds an unparsable entry")
		return nil, false
	}
	return dac, true
}

// Put stores a parse result.
func (c *Cache) Put(ctx context.Context, obs *Observation, dac *da.ConfusionNetwork) {
	if err := c.client.Set(ctx, cacheKey(obs), dac.String(), c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("parse cache write failed")
	}
}
