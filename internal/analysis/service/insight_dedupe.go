package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/redis/go-redis/v9"
)

// InsightDeduper suppresses repeat insights for the same (project,
// category) within a configurable window. A zero window disables
// suppression entirely, preserving the daily-feed behavior where a
// sustained condition produces a fresh insight on every run.
type InsightDeduper interface {
	// Seen reports whether an insight for (projectID, category) was
	// already recorded inside the current window.
	Seen(ctx context.Context, projectID int64, category model.InsightCategory) (bool, error)
	// Mark records that an insight for (projectID, category) was created.
	Mark(ctx context.Context, projectID int64, category model.InsightCategory) error
}

type noopDeduper struct{}

func (noopDeduper) Seen(context.Context, int64, model.InsightCategory) (bool, error) {
	return false, nil
}
func (noopDeduper) Mark(context.Context, int64, model.InsightCategory) error { return nil }

// NoopDeduper never suppresses anything.
func NoopDeduper() InsightDeduper { return noopDeduper{} }

// RedisInsightDeduper stores markers in Redis with TTL equal to the
// dedupe window, so suppression works across process restarts and
// multiple instances.
type RedisInsightDeduper struct {
	redis  *redis.Client
	window time.Duration
}

func NewRedisInsightDeduper(rdb *redis.Client, window time.Duration) *RedisInsightDeduper {
	return &RedisInsightDeduper{redis: rdb, window: window}
}

func dedupeKey(projectID int64, category model.InsightCategory) string {
	return fmt.Sprintf("insight:dedupe:%d:%s", projectID, category)
}

func (d *RedisInsightDeduper) Seen(ctx context.Context, projectID int64, category model.InsightCategory) (bool, error) {
	if d.redis == nil || d.window <= 0 {
		return false, nil
	}
	n, err := d.redis.Exists(ctx, dedupeKey(projectID, category)).Result()
	if err != nil {
		return false, fmt.Errorf("check insight dedupe marker: %w", err)
	}
	return n > 0, nil
}

func (d *RedisInsightDeduper) Mark(ctx context.Context, projectID int64, category model.InsightCategory) error {
	if d.redis == nil || d.window <= 0 {
		return nil
	}
	if err := d.redis.Set(ctx, dedupeKey(projectID, category), "1", d.window).Err(); err != nil {
		return fmt.Errorf("set insight dedupe marker: %w", err)
	}
	return nil
}

// MemoryInsightDeduper keeps markers in process memory. Used by tests
// and redis-less deployments; not shared across instances.
type MemoryInsightDeduper struct {
	mu     sync.Mutex
	window time.Duration
	clock  Clock
	seen   map[string]time.Time
}

func NewMemoryInsightDeduper(window time.Duration, clock Clock) *MemoryInsightDeduper {
	if clock == nil {
		clock = SystemClock()
	}
	return &MemoryInsightDeduper{window: window, clock: clock, seen: map[string]time.Time{}}
}

func (d *MemoryInsightDeduper) Seen(_ context.Context, projectID int64, category model.InsightCategory) (bool, error) {
	if d.window <= 0 {
		return false, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	at, ok := d.seen[dedupeKey(projectID, category)]
	if !ok {
		return false, nil
	}
	if d.clock.Now().Sub(at) >= d.window {
		delete(d.seen, dedupeKey(projectID, category))
		return false, nil
	}
	return true, nil
}

func (d *MemoryInsightDeduper) Mark(_ context.Context, projectID int64, category model.InsightCategory) error {
	if d.window <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[dedupeKey(projectID, category)] = d.clock.Now()
	return nil
}
