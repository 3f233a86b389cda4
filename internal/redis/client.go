package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client caches read-side aggregates so dashboard refreshes do not hit
// the database on every poll. All values are JSON under prefixed keys.
type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) SetSummary(key string, value interface{}, ttl time.Duration) error {
	ctx := context.Background()
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return c.rdb.Set(ctx, "summary:"+key, jsonData, ttl).Err()
}

// GetSummary unmarshals the cached value into dest. A cache miss is
// reported as an error so callers fall through to the database.
func (c *Client) GetSummary(key string, dest interface{}) error {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "summary:"+key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("summary not cached")
		}
		return fmt.Errorf("failed to get summary: %w", err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Client) InvalidateSummary(key string) error {
	ctx := context.Background()
	return c.rdb.Del(ctx, "summary:"+key).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
