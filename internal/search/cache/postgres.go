package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"seqguard/internal/search"
	"seqguard/pkg/platform/sentinel"
)

// Schema creates the table used by PostgresCache.
const Schema = `
CREATE TABLE IF NOT EXISTS search_cache (
	key       TEXT PRIMARY KEY,
	hits      JSONB NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL
)`

// PostgresCache persists hit lists in the search_cache table.
type PostgresCache struct {
	db *sql.DB
}

func NewPostgresCache(db *sql.DB) *PostgresCache {
	return &PostgresCache{db: db}
}

// Migrate creates the cache table when it does not exist.
func (c *PostgresCache) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create search_cache: %w", err)
	}
	return nil
}

func (c *PostgresCache) Get(ctx context.Context, key string) ([]search.Hit, error) {
	var raw []byte
	err := c.db.QueryRowContext(ctx, `SELECT hits FROM search_cache WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find search cache: %w", err)
	}
	var hits []search.Hit
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("decode cached hits: %w: %w", sentinel.ErrInvalidState, err)
	}
	return hits, nil
}

func (c *PostgresCache) Put(ctx context.Context, key string, hits []search.Hit) error {
	if hits == nil {
		hits = []search.Hit{}
	}
	raw, err := json.Marshal(hits)
	if err != nil {
		return fmt.Errorf("encode hits: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO search_cache (key, hits, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET hits = EXCLUDED.hits, stored_at = EXCLUDED.stored_at
	`, key, raw, time.Now())
	if err != nil {
		return fmt.Errorf("save search cache: %w", err)
	}
	return nil
}
