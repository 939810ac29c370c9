package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"seqguard/internal/ratelimit"
	dErrors "seqguard/pkg/domain-errors"
	"seqguard/pkg/platform/httputil"
	"seqguard/pkg/requestcontext"
)

// Middleware admits requests per client IP. Store failures let the request
// through so a Redis outage does not take analyses down with it.
type Middleware struct {
	store    ratelimit.Store
	limit    int
	window   time.Duration
	logger   *slog.Logger
	rejected prometheus.Counter
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithRejectedCounter counts refused requests.
func WithRejectedCounter(c prometheus.Counter) Option {
	return func(m *Middleware) {
		m.rejected = c
	}
}

func New(store ratelimit.Store, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// PerClient limits the wrapped routes to limit requests per window for each
// client IP. scope keeps separate route groups in separate buckets.
func (m *Middleware) PerClient(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			result, err := m.store.AllowN(ctx, scope+":"+ip, 1, m.limit, m.window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"request_id", requestcontext.RequestID(ctx),
					"scope", scope,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				if m.rejected != nil {
					m.rejected.Inc()
				}
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"scope", scope,
					"client_ip", ip,
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter)))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited,
					"too many analyses from this client, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
