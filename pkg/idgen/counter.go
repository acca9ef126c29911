package idgen

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// CounterGenerator produces codes from a monotonic Redis counter encoded as
// base62. Unlike random draws, counter codes never collide, at the cost of
// being guessable and requiring Redis on the create path.
type CounterGenerator struct {
	redis *redis.Client
	key   string
}

func NewCounterGenerator(redisClient *redis.Client) *CounterGenerator {
	return &CounterGenerator{redis: redisClient, key: "shortlink:code_counter"}
}

// Generate returns the next ID using Redis INCR (atomic counter).
func (g *CounterGenerator) Generate(ctx context.Context) (string, error) {
	val, err := g.redis.Incr(ctx, g.key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment counter: %w", err)
	}
	return Encode(uint64(val)), nil
}
