// Package indexnow feeds queued URLs to an IndexNow endpoint one at a time
// at a fixed minimum interval.
package indexnow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Item is one queued URL.
type Item struct {
	URL      string `json:"url"`
	Attempts int    `json:"attempts"`
}

// Queue is a FIFO of items. Pop waits up to timeout and returns nil when
// nothing arrived.
type Queue interface {
	Push(ctx context.Context, items ...Item) error
	Pop(ctx context.Context, timeout time.Duration) (*Item, error)
	Len(ctx context.Context) (int64, error)
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisQueue is a Redis list used with RPUSH and BLPOP.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

var _ Queue = (*RedisQueue)(nil)

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, items ...Item) error {
	if len(items) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(items))
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("marshal queue item: %w", err)
		}
		values = append(values, data)
	}
	if err := q.rdb.RPush(ctx, q.key, values...).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", q.key, err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Item, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blpop %s: %w", q.key, err)
	}
	// [key, value]
	return decodeItem(res[1])
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

func decodeItem(raw string) (*Item, error) {
	var it Item
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		// plain URLs pushed by hand are accepted too
		if raw != "" && raw[0] != '{' {
			return &Item{URL: raw}, nil
		}
		return nil, fmt.Errorf("decode queue item %q: %w", raw, err)
	}
	return &it, nil
}

// URLItems wraps urls as fresh queue items.
func URLItems(urls []string) []Item {
	items := make([]Item, 0, len(urls))
	for _, u := range urls {
		items = append(items, Item{URL: u})
	}
	return items
}
