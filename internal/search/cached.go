package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"

	"seqguard/internal/search/metrics"
	"seqguard/pkg/platform/sentinel"
)

// CacheKeyPrefix namespaces cache keys in shared stores.
const CacheKeyPrefix = "blast_cache_"

// CacheKey derives the stable cache key for a sequence searched against db.
func CacheKey(sequence string, db Database) string {
	sum := sha256.Sum256([]byte(sequence + string(db)))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}

// ResultCache stores hit lists verbatim. Get returns an error wrapping
// sentinel.ErrNotFound on a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]Hit, error)
	Put(ctx context.Context, key string, hits []Hit) error
}

// CachedSearcher answers from the cache when it can and stores fresh results
// after a successful search. Cache failures never fail a search.
type CachedSearcher struct {
	next    Searcher
	cache   ResultCache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewCachedSearcher(next Searcher, cache ResultCache, logger *slog.Logger, m *metrics.Metrics) *CachedSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{next: next, cache: cache, logger: logger, metrics: m}
}

func (s *CachedSearcher) Search(ctx context.Context, sequence string, db Database) ([]Hit, error) {
	key := CacheKey(sequence, db)

	hits, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.IncrementCacheLookup("hit")
		s.logger.InfoContext(ctx, "search cache hit", "database", db, "hits", len(hits))
		return hits, nil
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncrementCacheLookup("miss")
	default:
		s.metrics.IncrementCacheLookup("error")
		s.logger.WarnContext(ctx, "search cache lookup failed", "database", db, "error", err)
	}

	ctx, flags := withResultFlags(ctx)
	hits, err = s.next.Search(ctx, sequence, db)
	if err != nil {
		return nil, err
	}
	if flags.unreadable {
		s.logger.WarnContext(ctx, "search results unreadable, not caching", "database", db)
		return hits, nil
	}
	if err := s.cache.Put(ctx, key, hits); err != nil {
		s.logger.WarnContext(ctx, "search cache store failed", "database", db, "error", err)
	}
	return hits, nil
}

type resultFlagsKey struct{}

type resultFlags struct {
	unreadable bool
}

func withResultFlags(ctx context.Context) (context.Context, *resultFlags) {
	f := &resultFlags{}
	return context.WithValue(ctx, resultFlagsKey{}, f), f
}

// MarkUnreadable records that the hits a Searcher is about to return stand
// in for a result document it could not decode. Such hits are served but
// never cached.
func MarkUnreadable(ctx context.Context) {
	if f, ok := ctx.Value(resultFlagsKey{}).(*resultFlags); ok {
		f.unreadable = true
	}
}
