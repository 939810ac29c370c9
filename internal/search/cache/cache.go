// Package cache provides the search result stores: process memory, Redis
// and Postgres.
package cache

import (
	"seqguard/internal/search"
	"seqguard/pkg/platform/sentinel"
)

// ErrNotFound is returned by Get on a cache miss.
var ErrNotFound = sentinel.ErrNotFound

// Store is implemented by every backend in this package.
type Store = search.ResultCache

var (
	_ Store = (*InMemoryCache)(nil)
	_ Store = (*RedisCache)(nil)
	_ Store = (*PostgresCache)(nil)
)
