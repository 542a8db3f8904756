// Package cache memoizes census eligibility answers in Redis.
//
// Answers are stored under a per-voting generation. Mutations bump the
// generation instead of deleting keys, so an answer computed from a read that
// raced a mutation is written under a generation nobody reads any more.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	id "decide/pkg/domain"
)

const (
	keyPrefix = "census:eligible:"
	genPrefix = "census:gen:"
)

// DefaultTTL bounds how long a stale answer can survive a failed invalidation.
const DefaultTTL = 5 * time.Minute

// redisClient is the subset of redis.Cmdable the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisCache stores "1" (enrolled) or "0" (not enrolled) per voting, generation
// and voter.
type RedisCache struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisCache(client redisClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func Key(votingID id.VotingID, gen int64, voterID id.VoterID) string {
	return fmt.Sprintf("%s%d:%d:%d", keyPrefix, votingID, gen, voterID)
}

func GenerationKey(votingID id.VotingID) string {
	return fmt.Sprintf("%s%d", genPrefix, votingID)
}

// Generation returns the current generation of a voting, 0 if it was never
// invalidated. Callers read it before consulting the store.
func (c *RedisCache) Generation(ctx context.Context, votingID id.VotingID) (int64, error) {
	val, err := c.client.Get(ctx, GenerationKey(votingID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	gen, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse generation %q: %w", val, err)
	}
	return gen, nil
}

// Get returns the cached answer. hit is false when nothing is cached.
func (c *RedisCache) Get(ctx context.Context, votingID id.VotingID, gen int64, voterID id.VoterID) (eligible bool, hit bool, err error) {
	val, err := c.client.Get(ctx, Key(votingID, gen, voterID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("get eligibility: %w", err)
	}
	return val == "1", true, nil
}

func (c *RedisCache) Set(ctx context.Context, votingID id.VotingID, gen int64, voterID id.VoterID, eligible bool) error {
	val := "0"
	if eligible {
		val = "1"
	}
	if err := c.client.Set(ctx, Key(votingID, gen, voterID), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("set eligibility: %w", err)
	}
	return nil
}

// Invalidate retires every cached answer of the voting. Old keys expire with
// their TTL.
func (c *RedisCache) Invalidate(ctx context.Context, votingID id.VotingID) error {
	if err := c.client.Incr(ctx, GenerationKey(votingID)).Err(); err != nil {
		return fmt.Errorf("invalidate eligibility: %w", err)
	}
	return nil
}
