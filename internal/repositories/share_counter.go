package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ShareCounter tracks how many times each story was shared
type ShareCounter interface {
	Increment(ctx context.Context, storyID string) (int64, error)
	Count(ctx context.Context, storyID string) (int64, error)
}

type redisShareCounter struct {
	client RedisClient
}

// NewRedisShareCounter keeps counters under "story:shares:<id>"
func NewRedisShareCounter(client RedisClient) ShareCounter {
	return &redisShareCounter{client: client}
}

func shareKey(storyID string) string {
	return "story:shares:" + storyID
}

func (r *redisShareCounter) Increment(ctx context.Context, storyID string) (int64, error) {
	n, err := r.client.Incr(ctx, shareKey(storyID))
	if err != nil {
		return 0, fmt.Errorf("increment shares: %w", err)
	}
	return n, nil
}

func (r *redisShareCounter) Count(ctx context.Context, storyID string) (int64, error) {
	v, err := r.client.Get(ctx, shareKey(storyID))
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get shares: %w", err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse shares %q: %w", v, err)
	}
	return n, nil
}

type memoryShareCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryShareCounter keeps counters in process memory
func NewMemoryShareCounter() ShareCounter {
	return &memoryShareCounter{counts: make(map[string]int64)}
}

func (m *memoryShareCounter) Increment(ctx context.Context, storyID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[storyID]++
	return m.counts[storyID], nil
}

func (m *memoryShareCounter) Count(ctx context.Context, storyID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[storyID], nil
}
