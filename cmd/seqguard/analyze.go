package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"seqguard/internal/analysis"
	"seqguard/internal/analysis/handler"
	"seqguard/internal/platform/config"
	"seqguard/internal/platform/redis"
	"seqguard/internal/registry"
	"seqguard/internal/search"
	"seqguard/internal/search/cache"
)

func (c *cli) newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [sequence|-]",
		Short: "Run the full screening: local registry, remote patent and organism search, compliance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args, c.v.GetString("in"))
			if err != nil {
				return err
			}
			return c.analyze(cmd, input)
		},
	}

	f := cmd.Flags()
	f.StringP("in", "i", "", "read the sequence from a FASTA or plain text file")
	f.StringP("jurisdiction", "j", "GLOBAL", "country code for the compliance report")
	f.Bool("all-jurisdictions", false, "also report every jurisdiction with violations")
	f.String("blast-url", search.DefaultBaseURL, "QBLAST endpoint")
	f.Duration("poll-interval", search.DefaultPollInterval, "delay between job status checks")
	f.Int("max-poll-attempts", search.DefaultMaxPollAttempts, "status checks before a search times out")
	f.Duration("http-timeout", 30*time.Second, "timeout of a single HTTP call to the search service")
	f.Int("retry-attempts", search.DefaultRetryAttempts, "HTTP attempts per search call")
	f.Duration("timeout", analysis.DefaultTimeout, "overall analysis timeout")
	f.String("cache", config.CacheNone, "search result cache: redis or none")
	f.String("redis-url", "", "Redis URL for --cache=redis")
	f.Duration("cache-ttl", 0, "Redis cache entry lifetime, 0 keeps entries forever")
	return cmd
}

func (c *cli) analyze(cmd *cobra.Command, input string) error {
	ctx := cmd.Context()
	log := c.logger(cmd)

	reg, err := c.registry()
	if err != nil {
		return err
	}
	rules, err := c.rules()
	if err != nil {
		return err
	}

	client := search.NewClient(c.v.GetString("blast-url"),
		search.WithHTTPClient(&http.Client{Timeout: c.v.GetDuration("http-timeout")}),
		search.WithPollInterval(c.v.GetDuration("poll-interval")),
		search.WithMaxPollAttempts(c.v.GetInt("max-poll-attempts")),
		search.WithRetry(c.v.GetInt("retry-attempts"), search.DefaultRetryBackoff),
		search.WithLogger(log),
	)
	searcher, closeCache, err := c.withCache(ctx, client, log)
	if err != nil {
		return err
	}
	defer closeCache()

	service := analysis.NewService(registry.NewScanner(reg, registry.WithLogger(log)), rules, searcher,
		analysis.WithLogger(log),
		analysis.WithTimeout(c.v.GetDuration("timeout")),
	)
	result, err := service.Analyze(ctx, analysis.Request{
		Input:            input,
		Jurisdiction:     strings.ToUpper(strings.TrimSpace(c.v.GetString("jurisdiction"))),
		AllJurisdictions: c.v.GetBool("all-jurisdictions"),
	})
	if err != nil {
		return err
	}
	return c.writeJSON(cmd.OutOrStdout(), handler.FromResult(result))
}

// withCache decorates next with a cache that outlives the process. An
// in-memory cache would die with the single analysis it serves.
func (c *cli) withCache(ctx context.Context, next search.Searcher, log *slog.Logger) (search.Searcher, func(), error) {
	noop := func() {}
	switch backend := strings.ToLower(c.v.GetString("cache")); backend {
	case config.CacheNone, "":
		return next, noop, nil
	case config.CacheRedis:
		client, err := redis.New(ctx, config.RedisConfig{URL: c.v.GetString("redis-url")})
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("--cache=redis requires --redis-url")
		}
		store := cache.NewRedisCache(client.Client, c.v.GetDuration("cache-ttl"))
		return search.NewCachedSearcher(next, store, log, nil), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q (want redis or none)", backend)
	}
}
