package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"seqguard/internal/search/metrics"
	"seqguard/pkg/platform/circuit"
	"seqguard/pkg/platform/sentinel"
)

const (
	// DefaultBaseURL is the public NCBI QBLAST endpoint.
	DefaultBaseURL = "https://blast.ncbi.nlm.nih.gov/Blast.cgi"

	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 60
	DefaultRetryAttempts   = 3
	DefaultRetryBackoff    = time.Second

	maxResponseBytes = 64 << 20
)

// Client implements Searcher against the QBLAST CGI protocol: submit a job,
// poll its status until ready, then fetch JSON results.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	pollInterval    time.Duration
	maxPollAttempts int
	retryAttempts   int
	retryBackoff    time.Duration
	breaker         *circuit.Breaker
	logger          *slog.Logger
	metrics         *metrics.Metrics
	tracer          trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithMaxPollAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPollAttempts = n
		}
	}
}

// WithRetry sets the number of HTTP attempts and the base backoff. The wait
// before attempt n+1 is n × backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
		if backoff >= 0 {
			c.retryBackoff = backoff
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:         baseURL,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		pollInterval:    DefaultPollInterval,
		maxPollAttempts: DefaultMaxPollAttempts,
		retryAttempts:   DefaultRetryAttempts,
		retryBackoff:    DefaultRetryBackoff,
		breaker:         circuit.New("blast"),
		logger:          slog.Default(),
		tracer:          otel.Tracer("seqguard/internal/search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search submits sequence to db, waits for the job and returns its hits.
func (c *Client) Search(ctx context.Context, sequence string, db Database) ([]Hit, error) {
	ctx, span := c.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("search.database", string(db)),
		attribute.Int("sequence.length", len(sequence)),
	))
	defer span.End()

	start := time.Now()
	hits, err := c.search(ctx, sequence, db)
	outcome := "success"
	if err != nil {
		outcome = string(GetCategory(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetAttributes(attribute.Int("search.hits", len(hits)))
	}
	c.metrics.ObserveSearch(string(db), outcome, time.Since(start))
	return hits, err
}

func (c *Client) search(ctx context.Context, sequence string, db Database) ([]Hit, error) {
	rid, err := c.Submit(ctx, sequence, db)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "search submitted", "database", db, "rid", rid)

	if err := c.waitReady(ctx, rid, db); err != nil {
		return nil, err
	}
	return c.Results(ctx, rid, db)
}

// Submit starts a search job and returns its RID.
func (c *Client) Submit(ctx context.Context, sequence string, db Database) (string, error) {
	form := url.Values{}
	form.Set("CMD", "Put")
	form.Set("PROGRAM", "blastn")
	form.Set("DATABASE", string(db))
	form.Set("QUERY", sequence)
	form.Set("FORMAT_TYPE", "JSON2_S")
	encoded := form.Encode()

	body, err := c.do(ctx, db, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	rid, ok := parseRID(body)
	if !ok {
		c.logger.ErrorContext(ctx, "search submission returned no RID", "database", db, "body_bytes", len(body))
		return "", NewProviderError(ErrorSubmitFailed, db, "failed to submit search: limit reached or IP blocked", nil)
	}
	return rid, nil
}

// Status polls a job once.
func (c *Client) Status(ctx context.Context, rid string, db Database) (JobStatus, error) {
	q := url.Values{}
	q.Set("CMD", "Get")
	q.Set("FORMAT_OBJECT", "SearchInfo")
	q.Set("RID", rid)

	body, err := c.get(ctx, db, q)
	if err != nil {
		return "", err
	}

	status := parseStatus(body)
	switch status {
	case StatusFailed:
		return status, NewProviderError(ErrorJobFailed, db, "search job failed", nil)
	case StatusUnknown:
		return status, NewProviderError(ErrorJobExpired, db, "search job expired or unknown", sentinel.ErrExpired)
	}
	return status, nil
}

// waitReady polls every pollInterval until the job is ready, the attempts
// run out, or ctx ends.
func (c *Client) waitReady(ctx context.Context, rid string, db Database) error {
	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		if err := sleep(ctx, c.pollInterval); err != nil {
			return NewProviderError(ErrorTimeout, db, "search cancelled while waiting", err)
		}

		status, err := c.Status(ctx, rid, db)
		if err != nil {
			return err
		}
		c.logger.DebugContext(ctx, "search status", "database", db, "rid", rid, "status", status, "attempt", attempt)
		if status == StatusReady {
			c.metrics.ObservePollAttempts(string(db), attempt)
			return nil
		}
	}
	return NewProviderError(ErrorTimeout, db,
		fmt.Sprintf("search timed out after %d status checks", c.maxPollAttempts), nil)
}

// Results fetches the hits of a finished job. A result document that cannot
// be decoded yields no hits rather than an error, and is marked so that
// caches do not keep it.
func (c *Client) Results(ctx context.Context, rid string, db Database) ([]Hit, error) {
	q := url.Values{}
	q.Set("CMD", "Get")
	q.Set("FORMAT_TYPE", "JSON2_S")
	q.Set("RID", rid)

	body, err := c.get(ctx, db, q)
	if err != nil {
		return nil, err
	}

	hits, err := parseHits(body)
	if err != nil {
		c.logger.WarnContext(ctx, "unreadable search results", "database", db, "rid", rid, "error", err)
		MarkUnreadable(ctx)
		return []Hit{}, nil
	}
	return hits, nil
}

func (c *Client) get(ctx context.Context, db Database, q url.Values) ([]byte, error) {
	target := c.baseURL + "?" + q.Encode()
	return c.do(ctx, db, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
}

// do sends a request with retry and circuit breaking. While the breaker is
// open each call gets a single attempt, which doubles as a recovery probe.
func (c *Client) do(ctx context.Context, db Database, newReq func(context.Context) (*http.Request, error)) ([]byte, error) {
	attempts := c.retryAttempts
	open := c.breaker.IsOpen()
	if open {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.once(ctx, newReq)
		if err == nil {
			if _, change := c.breaker.RecordSuccess(); change.Closed {
				c.logger.InfoContext(ctx, "search circuit closed", "breaker", c.breaker.Name())
				c.metrics.SetBreakerOpen(false)
			}
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, NewProviderError(ErrorTimeout, db, "search request cancelled", ctx.Err())
		}
		if attempt < attempts {
			c.metrics.IncrementRetry()
			c.logger.WarnContext(ctx, "search request failed, retrying",
				"database", db,
				"attempt", attempt,
				"error", err,
			)
			if err := sleep(ctx, time.Duration(attempt)*c.retryBackoff); err != nil {
				return nil, NewProviderError(ErrorTimeout, db, "search request cancelled", err)
			}
		}
	}

	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "search circuit opened", "breaker", c.breaker.Name())
		c.metrics.SetBreakerOpen(true)
	}
	if open {
		return nil, NewProviderError(ErrorProviderOutage, db, "search service unavailable (circuit open)", errors.Join(sentinel.ErrUnavailable, lastErr))
	}
	return nil, NewProviderError(ErrorProviderOutage, db,
		fmt.Sprintf("search request failed after %d attempts", attempts), lastErr)
}

func (c *Client) once(ctx context.Context, newReq func(context.Context) (*http.Request, error)) ([]byte, error) {
	req, err := newReq(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
