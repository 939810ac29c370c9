package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seqguard/internal/analysis"
	"seqguard/internal/compliance"
	"seqguard/internal/search"
	"seqguard/pkg/platform/httputil"
	"seqguard/pkg/requestcontext"
)

// Service defines the interface for analysis operations.
type Service interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	AnalyzeLocal(ctx context.Context, input string) (*analysis.LocalResult, error)
	EvaluateCompliance(ctx context.Context, hits []search.Hit, countryCode string) compliance.Report
	Jurisdictions() []compliance.Info
}

// Handler wires analysis endpoints to the analysis service.
type Handler struct {
	service Service
	logger  *slog.Logger

	analyzeMiddleware []func(http.Handler) http.Handler
	localMiddleware   []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithAnalyzeMiddleware wraps only POST /analysis, the route that starts
// remote searches.
func WithAnalyzeMiddleware(mws ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.analyzeMiddleware = append(h.analyzeMiddleware, mws...)
	}
}

// WithLocalMiddleware wraps only POST /analysis/local, whose registry scan
// cost grows with the body size.
func WithLocalMiddleware(mws ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.localMiddleware = append(h.localMiddleware, mws...)
	}
}

// New constructs an analysis handler with its dependencies.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts analysis endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.analyzeMiddleware...).Post("/analysis", h.HandleAnalyze)
	r.With(h.localMiddleware...).Post("/analysis/local", h.HandleAnalyzeLocal)
	r.Post("/compliance/evaluate", h.HandleEvaluateCompliance)
	r.Get("/jurisdictions", h.HandleJurisdictions)
}

// HandleAnalyze handles POST /analysis requests.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[AnalyzeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Analyze(ctx, analysis.Request{
		Input:            req.Sequence,
		Jurisdiction:     req.Jurisdiction,
		AllJurisdictions: req.AllJurisdictions,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "analysis failed",
			"request_id", requestID,
			"jurisdiction", req.Jurisdiction,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "analysis served",
		"request_id", requestID,
		"analysis_id", result.ID,
		"risk_level", result.Risk.RiskLevel,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleAnalyzeLocal handles POST /analysis/local requests.
func (h *Handler) HandleAnalyzeLocal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LocalAnalyzeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.AnalyzeLocal(ctx, req.Sequence)
	if err != nil {
		h.logger.WarnContext(ctx, "local analysis failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromLocalResult(result))
}

// HandleEvaluateCompliance handles POST /compliance/evaluate requests.
func (h *Handler) HandleEvaluateCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ComplianceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report := h.service.EvaluateCompliance(ctx, req.Hits, req.Jurisdiction)
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleJurisdictions handles GET /jurisdictions requests.
func (h *Handler) HandleJurisdictions(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, JurisdictionsResponse{
		Jurisdictions: h.service.Jurisdictions(),
	})
}
