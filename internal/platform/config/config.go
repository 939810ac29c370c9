package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"seqguard/pkg/platform/middleware/metadata"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

// Config is the full service configuration.
type Config struct {
	Server   Server
	Log      Log
	Data     Data
	Search   Search
	Cache    Cache
	Redis    RedisConfig
	Postgres PostgresConfig
	Audit    Audit
	Tracing  Tracing
	Analysis Analysis
	Limits   RateLimit
	Metrics  bool
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	// AdminToken guards /admin routes. Empty leaves them unmounted.
	AdminToken string
	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix
}

type Log struct {
	Level  string
	Format string
}

// Data points at optional overrides for the bundled registry and rule book.
type Data struct {
	RegistryPath      string
	JurisdictionsPath string
}

// Search configures the remote BLAST client.
type Search struct {
	BaseURL         string
	PollInterval    time.Duration
	MaxPollAttempts int
	HTTPTimeout     time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
}

type Cache struct {
	Backend string
	TTL     time.Duration
}

// RedisConfig configures the shared Redis client. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	URL string
}

// Audit configures where audit events go. No brokers means log only.
type Audit struct {
	KafkaBrokers []string
	Topic        string
	BufferSize   int
	// RecentCapacity bounds the in-process copy served by /admin/audit.
	RecentCapacity int
}

type Tracing struct {
	Enabled  bool
	Endpoint string
}

// RateLimit bounds full analyses per client IP. The window is shared across
// replicas when Redis is configured.
type RateLimit struct {
	Enabled  bool
	Analyses int
	Window   time.Duration
}

type Analysis struct {
	Timeout             time.Duration
	DefaultJurisdiction string
}

// FromEnv builds the configuration from environment variables so main stays
// lean. Malformed numbers and durations are reported rather than defaulted.
func FromEnv() (Config, error) {
	e := &envReader{}
	cfg := Config{
		Server: Server{
			Addr:            e.str("SEQGUARD_ADDR", ":8080"),
			ShutdownTimeout: e.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
			AdminToken:      e.str("ADMIN_TOKEN", ""),
			TrustedProxies:  e.prefixes("TRUSTED_PROXIES"),
		},
		Log: Log{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "json"),
		},
		Data: Data{
			RegistryPath:      e.str("REGISTRY_PATH", ""),
			JurisdictionsPath: e.str("JURISDICTIONS_PATH", ""),
		},
		Search: Search{
			BaseURL:         e.str("BLAST_URL", "https://blast.ncbi.nlm.nih.gov/Blast.cgi"),
			PollInterval:    e.duration("BLAST_POLL_INTERVAL", 5*time.Second),
			MaxPollAttempts: e.integer("BLAST_MAX_POLL_ATTEMPTS", 60),
			HTTPTimeout:     e.duration("BLAST_HTTP_TIMEOUT", 30*time.Second),
			RetryAttempts:   e.integer("BLAST_RETRY_ATTEMPTS", 3),
			RetryBackoff:    e.duration("BLAST_RETRY_BACKOFF", time.Second),
		},
		Cache: Cache{
			Backend: strings.ToLower(e.str("CACHE_BACKEND", CacheMemory)),
			TTL:     e.duration("CACHE_TTL", 0),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: e.str("DATABASE_URL", ""),
		},
		Audit: Audit{
			KafkaBrokers:   splitList(e.str("KAFKA_BROKERS", "")),
			Topic:          e.str("AUDIT_TOPIC", "seqguard.audit"),
			BufferSize:     e.integer("AUDIT_BUFFER_SIZE", 1024),
			RecentCapacity: e.integer("AUDIT_RECENT_CAPACITY", 10000),
		},
		Tracing: Tracing{
			Enabled:  e.boolean("TRACING_ENABLED", false),
			Endpoint: e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Analysis: Analysis{
			Timeout:             e.duration("ANALYSIS_TIMEOUT", 6*time.Minute),
			DefaultJurisdiction: strings.ToUpper(e.str("DEFAULT_JURISDICTION", "GLOBAL")),
		},
		Limits: RateLimit{
			Enabled:  e.boolean("RATE_LIMIT_ENABLED", true),
			Analyses: e.integer("RATE_LIMIT_ANALYSES", 10),
			Window:   e.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Metrics: e.boolean("METRICS_ENABLED", true),
	}
	if e.err != nil {
		return Config{}, e.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
		}
	case CachePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Search.MaxPollAttempts < 1 {
		return fmt.Errorf("BLAST_MAX_POLL_ATTEMPTS must be at least 1")
	}
	if c.Search.RetryAttempts < 1 {
		return fmt.Errorf("BLAST_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Limits.Enabled && (c.Limits.Analyses < 1 || c.Limits.Window <= 0) {
		return fmt.Errorf("RATE_LIMIT_ANALYSES and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// envReader reads typed variables and keeps the first parse error.
type envReader struct {
	err error
}

func (e *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *envReader) integer(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return b
}

func (e *envReader) prefixes(key string) []netip.Prefix {
	v := e.str(key, "")
	if v == "" {
		return nil
	}
	p, err := metadata.ParseTrustedProxies(v)
	if err != nil {
		e.fail(key, err)
		return nil
	}
	return p
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
