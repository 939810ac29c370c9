// Package analysis orchestrates a screening run: normalize the input, scan the
// local registry and query the remote search service in parallel, then reduce
// everything into a verdict and a compliance report.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"seqguard/internal/analysis/metrics"
	"seqguard/internal/compliance"
	"seqguard/internal/registry"
	"seqguard/internal/risk"
	"seqguard/internal/search"
	"seqguard/internal/sequence"
	dErrors "seqguard/pkg/domain-errors"
	audit "seqguard/pkg/platform/audit"
	"seqguard/pkg/requestcontext"
)

// DefaultTimeout bounds a full analysis. Two remote searches of up to 60
// polls at 5s each fit inside it.
const DefaultTimeout = 6 * time.Minute

// Service runs analyses. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	scanner  *registry.Scanner
	rules    *compliance.RuleBook
	searcher search.Searcher
	auditor  audit.Emitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer

	timeout             time.Duration
	defaultJurisdiction string
	now                 func() time.Time
	clockPinned         bool
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditor sets where analysis audit events go.
func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithTimeout bounds Analyze. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithDefaultJurisdiction sets the code used when a request names none.
func WithDefaultJurisdiction(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.defaultJurisdiction = code
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
			s.clockPinned = true
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewService builds a Service. searcher may be nil, in which case only
// AnalyzeLocal is usable.
func NewService(scanner *registry.Scanner, rules *compliance.RuleBook, searcher search.Searcher, opts ...Option) *Service {
	s := &Service{
		scanner:             scanner,
		rules:               rules,
		searcher:            searcher,
		logger:              slog.Default(),
		tracer:              otel.Tracer("seqguard/internal/analysis"),
		timeout:             DefaultTimeout,
		defaultJurisdiction: compliance.GlobalCode,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the full pipeline. Any remote search failure aborts the whole
// analysis; no partial result is returned.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "analysis.Analyze")
	defer span.End()

	seq := sequence.Parse(req.Input)
	if seq.Empty() {
		err := invalidSequence(seq)
		s.fail(ctx, "", seq, ModeFull, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if s.searcher == nil {
		err := dErrors.New(dErrors.CodeUnavailable, "remote search is not configured")
		s.fail(ctx, "", seq, ModeFull, err)
		return nil, err
	}

	id := uuid.NewString()
	span.SetAttributes(
		attribute.String("analysis.id", id),
		attribute.Int("sequence.length", seq.Length),
	)
	s.logger.DebugContext(ctx, "sequence parsed",
		"analysis_id", id,
		"length", seq.Length,
		"source_type", seq.SourceType,
		"invalid_chars", seq.InvalidCharCount,
	)

	ev, err := s.gather(ctx, id, seq.Sequence)
	if err != nil {
		mapped := mapSearchError(ctx, err)
		s.fail(ctx, id, seq, ModeFull, mapped)
		span.RecordError(err)
		span.SetStatus(codes.Error, mapped.Error())
		return nil, mapped
	}

	code := req.Jurisdiction
	if code == "" {
		code = s.defaultJurisdiction
	}

	result := &Result{
		ID:              id,
		Sequence:        seq,
		RegistryVersion: s.scanner.Registry().Version,
		Matches:         ev.matches,
		LocalRisk:       ev.localRisk,
		PatentHits:      ev.patentHits,
		OrganismHits:    ev.organismHits,
		Risk:            risk.CalculateUniversalRisk(ev.patentHits, ev.organismHits),
		Compliance:      s.rules.Evaluate(ev.organismHits, code),
		Latencies:       ev.latencies,
		StartedAt:       start,
	}
	if req.AllJurisdictions {
		result.AllCompliance = s.rules.EvaluateAll(ev.organismHits)
	}
	result.CompletedAt = s.now()

	span.SetAttributes(
		attribute.String("risk.level", string(result.Risk.RiskLevel)),
		attribute.String("compliance.status", string(result.Compliance.Status)),
	)
	s.complete(ctx, result)
	return result, nil
}

// AnalyzeAsync runs Analyze on its own goroutine. The channel receives exactly
// one value and is then closed.
func (s *Service) AnalyzeAsync(ctx context.Context, req Request) <-chan AsyncResult {
	out := make(chan AsyncResult, 1)
	go func() {
		defer close(out)
		res, err := s.Analyze(ctx, req)
		out <- AsyncResult{Result: res, Err: err}
	}()
	return out
}

// AnalyzeLocal screens input against the bundled registry only. It performs
// no I/O beyond logging and auditing.
func (s *Service) AnalyzeLocal(ctx context.Context, input string) (*LocalResult, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "analysis.AnalyzeLocal")
	defer span.End()

	seq := sequence.Parse(input)
	if seq.Empty() {
		err := invalidSequence(seq)
		s.fail(ctx, "", seq, ModeLocal, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	id := uuid.NewString()
	matches := s.scanner.Scan(ctx, seq.Sequence)
	verdict := risk.CalculateRiskScore(matches, s.expiryClock(ctx))
	s.metrics.ObservePhase(PhaseLocalScan, s.now().Sub(start))

	result := &LocalResult{
		ID:              id,
		Sequence:        seq,
		RegistryVersion: s.scanner.Registry().Version,
		Matches:         matches,
		Risk:            verdict,
		CompletedAt:     s.now(),
	}

	s.metrics.IncrementVerdict(string(ModeLocal), string(verdict.RiskLevel))
	s.metrics.ObserveAnalyze(string(ModeLocal), result.CompletedAt.Sub(start))
	s.emit(ctx, audit.Event{
		Action:       string(audit.EventAnalysisCompleted),
		Subject:      id,
		Decision:     string(verdict.RiskLevel),
		Reason:       "local:" + string(verdict.Status),
		SequenceHash: hashSequence(seq.Sequence),
	})
	s.logger.InfoContext(ctx, "local analysis completed",
		"request_id", requestcontext.RequestID(ctx),
		"analysis_id", id,
		"matches", len(matches),
		"risk_level", verdict.RiskLevel,
		"score", verdict.OverallScore,
	)
	return result, nil
}

// EvaluateCompliance checks already fetched organism hits against one
// jurisdiction. It never fails.
func (s *Service) EvaluateCompliance(ctx context.Context, hits []search.Hit, countryCode string) compliance.Report {
	if countryCode == "" {
		countryCode = s.defaultJurisdiction
	}
	report := s.rules.Evaluate(hits, countryCode)
	s.metrics.AddViolations(report.CountryCode, string(report.Severity), len(report.Violations))
	s.emit(ctx, audit.Event{
		Action:       string(audit.EventComplianceEvaluated),
		Subject:      report.CountryCode,
		Decision:     string(report.Status),
		Reason:       report.Summary,
		Jurisdiction: report.CountryCode,
	})
	return report
}

// Jurisdictions lists the jurisdictions compliance can be evaluated against.
func (s *Service) Jurisdictions() []compliance.Info {
	return s.rules.Jurisdictions()
}

func (s *Service) complete(ctx context.Context, r *Result) {
	hash := hashSequence(r.Sequence.Sequence)

	s.metrics.IncrementVerdict(string(ModeFull), string(r.Risk.RiskLevel))
	s.metrics.ObserveAnalyze(string(ModeFull), r.CompletedAt.Sub(r.StartedAt))
	s.metrics.AddViolations(r.Compliance.CountryCode, string(r.Compliance.Severity), len(r.Compliance.Violations))

	s.emit(ctx, audit.Event{
		Action:       string(audit.EventAnalysisCompleted),
		Subject:      r.ID,
		Decision:     string(r.Risk.RiskLevel),
		Reason:       r.Risk.Summary,
		SequenceHash: hash,
		Jurisdiction: r.Compliance.CountryCode,
	})
	if len(r.Compliance.Violations) > 0 {
		s.emit(ctx, audit.Event{
			Action:       string(audit.EventRegulatedAgentDetected),
			Subject:      r.ID,
			Decision:     string(r.Compliance.Status),
			Reason:       r.Compliance.Summary,
			SequenceHash: hash,
			Jurisdiction: r.Compliance.CountryCode,
		})
	}

	s.logger.InfoContext(ctx, "analysis completed",
		"request_id", requestcontext.RequestID(ctx),
		"analysis_id", r.ID,
		"length", r.Sequence.Length,
		"local_matches", len(r.Matches),
		"patent_hits", len(r.PatentHits),
		"organism_hits", len(r.OrganismHits),
		"risk_level", r.Risk.RiskLevel,
		"compliance_status", r.Compliance.Status,
		"jurisdiction", r.Compliance.CountryCode,
		"duration_ms", r.CompletedAt.Sub(r.StartedAt).Milliseconds(),
	)
}

func (s *Service) fail(ctx context.Context, id string, seq sequence.Canonical, mode Mode, err error) {
	code := dErrors.CodeOf(err)
	s.metrics.IncrementFailure(string(code))
	s.emit(ctx, audit.Event{
		Action:       string(audit.EventAnalysisFailed),
		Subject:      id,
		Decision:     string(code),
		Reason:       dErrors.MessageOf(err),
		SequenceHash: hashSequence(seq.Sequence),
	})

	level := slog.LevelError
	if code == dErrors.CodeValidation {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "analysis failed",
		"request_id", requestcontext.RequestID(ctx),
		"analysis_id", id,
		"mode", mode,
		"code", code,
		"error", err,
	)
}

// emit stamps request metadata onto e and sends it. Audit failures are
// logged and never fail the analysis.
func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.auditor == nil {
		return
	}
	e.RequestID = requestcontext.RequestID(ctx)
	e.ClientIP = requestcontext.ClientIP(ctx)
	if err := s.auditor.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", e.Action,
			"subject", e.Subject,
			"error", err,
		)
	}
}

func invalidSequence(seq sequence.Canonical) error {
	if seq.Error != "" {
		return dErrors.New(dErrors.CodeValidation, "sequence "+seq.Error)
	}
	return dErrors.New(dErrors.CodeValidation, "sequence contains no nucleotides")
}

func hashSequence(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// expiryClock is the instant patent expiry is judged against. A pinned clock
// wins; otherwise the request time set by middleware is used.
func (s *Service) expiryClock(ctx context.Context) time.Time {
	if s.clockPinned {
		return s.now()
	}
	return requestcontext.Now(ctx)
}
