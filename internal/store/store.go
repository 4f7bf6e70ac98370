// Package store abstracts the shared key-value store all jobs and triggers
// of one instance operate on. Per-key atomicity of these operations is the
// only concurrency control the pipeline relies on.
package store

import (
	"context"
	"time"
)

// ZMember is one entry of a sorted set; Score orders delivery.
type ZMember struct {
	Member string
	Score  float64
}

type Store interface {
	// Get returns the value of key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetEx sets key with a time-to-live.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Expire refreshes the time-to-live of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	HSetAll(ctx context.Context, key string, fields map[string]string) error
	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	ZAdd(ctx context.Context, key string, members ...ZMember) error
	// ZRangeByScore returns members with score <= max in ascending score
	// order.
	ZRangeByScore(ctx context.Context, key string, max float64) ([]ZMember, error)
	ZRem(ctx context.Context, key string, members ...string) error
	ZCard(ctx context.Context, key string) (int64, error)
}
