// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides caching for the read-mostly role directory,
// backed by memory or Redis.
package cache

import (
	"context"
	"time"
)

// Cache is the backend interface. Implementations must be thread-safe.
// Values are []byte so memory and Redis backends are interchangeable.
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero TTL uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Error is a sentinel error type for cache operations.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

// Options configures cache creation.
type Options struct {
	// RedisURL selects the Redis backend when non-empty.
	RedisURL string

	// Prefix is prepended to every Redis key.
	Prefix string

	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration

	// MaxSize caps memory cache entries (0 = unlimited).
	MaxSize int
}

// New creates a cache from the options: Redis when a URL is set,
// otherwise in-memory.
func New(opts Options) (Cache, error) {
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = time.Hour
	}
	if opts.RedisURL != "" {
		return NewRedisCache(opts)
	}
	return NewMemoryCache(opts), nil
}
