// Package httptransport assembles the public HTTP surface: shared middleware,
// health and metrics endpoints, the analysis routes and the operator routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seqguard/internal/platform/metrics"
	dErrors "seqguard/pkg/domain-errors"
	audit "seqguard/pkg/platform/audit"
	"seqguard/pkg/platform/httputil"
	"seqguard/pkg/platform/middleware/admin"
	"seqguard/pkg/platform/middleware/metadata"
	"seqguard/pkg/platform/middleware/requesttime"
	"seqguard/pkg/platform/middleware/version"
	"seqguard/pkg/requestcontext"
)

// APIVersion is reported on every response.
const APIVersion = "v1"

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// AuditLister reads back the audit trail of one subject.
type AuditLister interface {
	List(ctx context.Context, subject string) ([]audit.Event, error)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config carries the router dependencies. Nil fields switch the matching
// feature off.
type Config struct {
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	Gatherer        prometheus.Gatherer
	RegistryVersion string
	Modules         []Registrar
	Audit           AuditLister
	AdminToken      string
	HealthChecks    map[string]HealthCheck
	// TrustedProxies may set X-Forwarded-For. Empty means the direct peer
	// is always the client.
	TrustedProxies []netip.Prefix
}

// NewRouter builds the service router.
func NewRouter(cfg Config) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(metadata.TrustedClientMetadata(cfg.TrustedProxies))
	r.Use(requesttime.Middleware)
	r.Use(accessLog(logger))
	r.Use(cfg.Metrics.Middleware)
	r.Use(version.Stamp(APIVersion, cfg.RegistryVersion))

	r.Get("/healthz", healthHandler(cfg.HealthChecks, logger))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, m := range cfg.Modules {
		m.Register(r)
	}

	if cfg.Audit != nil && cfg.AdminToken != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
			r.Get("/audit", auditHandler(cfg.Audit, logger))
		})
	}
	return r
}

func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			ctx := r.Context()
			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "http request",
				"request_id", requestcontext.RequestID(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

type auditEventResponse struct {
	Category     string    `json:"category"`
	Action       string    `json:"action"`
	Subject      string    `json:"subject"`
	Decision     string    `json:"decision,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
	SequenceHash string    `json:"sequence_hash,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type auditResponse struct {
	Subject string               `json:"subject"`
	Events  []auditEventResponse `json:"events"`
}

func auditHandler(lister AuditLister, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subject := strings.TrimSpace(r.URL.Query().Get("subject"))
		if subject == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "subject query parameter is required"))
			return
		}

		events, err := lister.List(ctx, subject)
		if err != nil {
			logger.ErrorContext(ctx, "audit lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"subject", subject,
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "audit lookup failed"))
			return
		}

		resp := auditResponse{Subject: subject, Events: make([]auditEventResponse, 0, len(events))}
		for _, e := range events {
			resp.Events = append(resp.Events, auditEventResponse{
				Category:     string(e.Category),
				Action:       e.Action,
				Subject:      e.Subject,
				Decision:     e.Decision,
				Reason:       e.Reason,
				Jurisdiction: e.Jurisdiction,
				SequenceHash: e.SequenceHash,
				RequestID:    e.RequestID,
				Timestamp:    e.Timestamp,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
