package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a redis hash. It exists for server-side
// consumers of sessionkit (a BFF holding sessions on behalf of many
// devices): the key prefix scopes one token pair per principal.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

const (
	redisFieldAccess  = "access"
	redisFieldRefresh = "refresh"
)

// NewRedis creates a redis-backed store. ttl bounds how long a saved pair
// lives without a subsequent Save; zero means no expiry, matching the
// durable-until-cleared semantics of the other stores.
func NewRedis(client *redis.Client, keyPrefix string, ttl time.Duration) *Redis {
	if keyPrefix == "" {
		keyPrefix = "sessionkit"
	}
	return &Redis{
		client: client,
		key:    keyPrefix + ":tokens",
		ttl:    ttl,
	}
}

func (r *Redis) Save(ctx context.Context, tokens Tokens) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key, redisFieldAccess, tokens.Access, redisFieldRefresh, tokens.Refresh)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key, r.ttl)
	} else {
		pipe.Persist(ctx, r.key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func (r *Redis) Read(ctx context.Context) (Tokens, error) {
	values, err := r.client.HMGet(ctx, r.key, redisFieldAccess, redisFieldRefresh).Result()
	if err != nil {
		return Tokens{}, fmt.Errorf("read tokens: %w", err)
	}

	var tokens Tokens
	if s, ok := values[0].(string); ok {
		tokens.Access = s
	}
	if s, ok := values[1].(string); ok {
		tokens.Refresh = s
	}
	return tokens, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}
