// Package cache stores answered queries in Redis so repeated questions skip
// the embedding and completion round trips.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/ragdesk/internal/wire"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "query_cache:"

// Key is case-insensitive on the query text.
func Key(query string) string {
	return keyPrefix + strings.ToLower(query)
}

// QueryCache maps query text to a previously returned answer.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{client: client, ttl: ttl}
}

// Connect dials addr and pings it once. Callers run without a cache when
// this fails.
func Connect(ctx context.Context, addr string, ttl time.Duration) (*QueryCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, ttl), nil
}

// Get reports a miss as ok=false with a nil error.
func (c *QueryCache) Get(ctx context.Context, query string) (wire.QueryResponse, bool, error) {
	var resp wire.QueryResponse
	data, err := c.client.Get(ctx, Key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return resp, false, nil
	}
	if err != nil {
		return resp, false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, false, fmt.Errorf("cache decode: %w", err)
	}
	return resp, true, nil
}

func (c *QueryCache) Set(ctx context.Context, query string, resp wire.QueryResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, Key(query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *QueryCache) Close() error {
	return c.client.Close()
}
