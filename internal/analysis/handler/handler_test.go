package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"seqguard/internal/analysis"
	"seqguard/internal/analysis/handler/mocks"
	"seqguard/internal/compliance"
	"seqguard/internal/registry"
	"seqguard/internal/risk"
	"seqguard/internal/search"
	"seqguard/internal/sequence"
	dErrors "seqguard/pkg/domain-errors"
	"seqguard/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type AnalysisHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestAnalysisHandlerSuite(t *testing.T) {
	suite.Run(t, new(AnalysisHandlerSuite))
}

func (s *AnalysisHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func sampleResult() *analysis.Result {
	started := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	return &analysis.Result{
		ID: "a-1",
		Sequence: sequence.Canonical{
			Sequence: "ACGT", Header: "probe", SourceType: sequence.SourceFASTA, Length: 4, GCContent: 0.5,
		},
		RegistryVersion: "2025.1",
		Matches: []registry.Match{{
			Entry: registry.Entry{ID: "P-1", Name: "reporter", Kind: registry.KindPatent},
			Tier:  registry.TierExactFullPatent, Score: 1, Indices: []int{3},
		}},
		LocalRisk:    risk.Verdict{OverallScore: 50, RiskLevel: risk.LevelYellow, Status: risk.StatusNotClearToOperate},
		OrganismHits: []search.Hit{{Title: "Bacillus anthracis", IdentityPercentage: 98}},
		Risk: risk.Verdict{
			OverallScore: 100, RiskLevel: risk.LevelRed, Status: risk.StatusRestrictedDoNotUse,
			Summary: "Global Pathogen Match: Bacillus anthracis...",
		},
		Compliance:  compliance.Report{CountryCode: "US", Status: compliance.StatusTier1Restricted, OverallRisk: 100},
		StartedAt:   started,
		CompletedAt: started.Add(1500 * time.Millisecond),
	}
}

func (s *AnalysisHandlerSuite) TestAnalyze() {
	s.service.EXPECT().Analyze(gomock.Any(), analysis.Request{
		Input: ">probe\nACGT", Jurisdiction: "US", AllJurisdictions: true,
	}).Return(sampleResult(), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/analysis", map[string]any{
		"sequence": ">probe\nACGT", "jurisdiction": " us ", "all_jurisdictions": true,
	})
	rr := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[AnalysisResponse](s.T(), rr)
	s.Equal("a-1", resp.ID)
	s.Equal("probe", resp.Sequence.Header)
	s.Equal(4, resp.Sequence.Length)
	s.Equal(risk.LevelRed, resp.Risk.RiskLevel)
	s.Equal(risk.LevelYellow, resp.Local.Risk.RiskLevel)
	s.Require().Len(resp.Local.Matches, 1)
	s.Equal("P-1", resp.Local.Matches[0].EntryID)
	s.Equal(registry.TierExactFullPatent, resp.Local.Matches[0].Tier)
	s.Equal(compliance.StatusTier1Restricted, resp.Compliance.Status)
	s.NotNil(resp.PatentHits)
	s.Empty(resp.PatentHits)
	s.Equal(int64(1500), resp.DurationMS)
}

func (s *AnalysisHandlerSuite) TestAnalyzeValidation() {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "empty body", body: "", status: http.StatusBadRequest, code: "bad_request"},
		{name: "malformed json", body: "{", status: http.StatusBadRequest, code: "bad_request"},
		{name: "missing sequence", body: `{"jurisdiction":"US"}`, status: http.StatusUnprocessableEntity, code: "validation_error"},
		{name: "blank sequence", body: `{"sequence":"  "}`, status: http.StatusUnprocessableEntity, code: "validation_error"},
		{name: "jurisdiction too long", body: `{"sequence":"ACGT","jurisdiction":"ABCDEFGHIJKLMNOPQ"}`, status: http.StatusUnprocessableEntity, code: "validation_error"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/analysis", tt.body)
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatusAndError(s.T(), rr, tt.status, tt.code)
		})
	}
}

func (s *AnalysisHandlerSuite) TestAnalyzeErrorMapping() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid sequence", err: dErrors.New(dErrors.CodeValidation, "sequence contains no nucleotides"), status: http.StatusUnprocessableEntity, code: "validation_error"},
		{name: "upstream failure", err: dErrors.New(dErrors.CodeUpstream, "remote search of nt failed"), status: http.StatusBadGateway, code: "upstream_error"},
		{name: "timeout", err: dErrors.New(dErrors.CodeTimeout, "remote search of pat timed out"), status: http.StatusGatewayTimeout, code: "timeout"},
		{name: "unexpected", err: context.Canceled, status: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.service.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(nil, tt.err)
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/analysis", map[string]string{"sequence": "ACGT"})
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatusAndError(s.T(), rr, tt.status, tt.code)
		})
	}
}

func (s *AnalysisHandlerSuite) TestAnalyzeLocal() {
	s.service.EXPECT().AnalyzeLocal(gomock.Any(), "ACGTTT").Return(&analysis.LocalResult{
		ID:              "l-1",
		Sequence:        sequence.Canonical{Sequence: "ACGTTT", Header: sequence.RawHeader, SourceType: sequence.SourceRaw, Length: 6},
		RegistryVersion: "2025.1",
		Risk:            risk.Verdict{RiskLevel: risk.LevelGreen, Status: risk.StatusClearToOperate},
	}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/analysis/local", map[string]string{"sequence": "ACGTTT"})
	rr := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[LocalAnalysisResponse](s.T(), rr)
	s.Equal("l-1", resp.ID)
	s.Equal(sequence.RawHeader, resp.Sequence.Header)
	s.Equal(risk.StatusClearToOperate, resp.Local.Risk.Status)
	s.NotNil(resp.Local.Matches)
}

func (s *AnalysisHandlerSuite) TestAnalyzeLocalRejectsBlank() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/analysis/local", map[string]string{"sequence": ""})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "validation_error")
}

func (s *AnalysisHandlerSuite) TestEvaluateCompliance() {
	hits := []search.Hit{{Title: "Variola virus", Accession: "X69198", IdentityPercentage: 99.1}}
	s.service.EXPECT().EvaluateCompliance(gomock.Any(), hits, "EU").Return(compliance.Report{
		CountryCode: "EU", Status: compliance.StatusProhibited, Severity: compliance.SeverityCritical, OverallRisk: 100,
		Summary: "1 regulated agent detected. PROHIBITED",
	})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/evaluate", ComplianceRequest{Hits: hits, Jurisdiction: "eu"})
	rr := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[compliance.Report](s.T(), rr)
	s.Equal(compliance.StatusProhibited, resp.Status)
	s.Equal(100, resp.OverallRisk)
}

func (s *AnalysisHandlerSuite) TestEvaluateComplianceTooManyHits() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/evaluate",
		ComplianceRequest{Hits: make([]search.Hit, maxComplianceHits+1)})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "validation_error")
}

func (s *AnalysisHandlerSuite) TestJurisdictions() {
	s.service.EXPECT().Jurisdictions().Return([]compliance.Info{
		{Code: "AU", Name: "Australia"}, {Code: "GLOBAL", Name: "Global (Default)"},
	})

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/jurisdictions", nil))

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[JurisdictionsResponse](s.T(), rr)
	s.Len(resp.Jurisdictions, 2)
	s.Equal("AU", resp.Jurisdictions[0].Code)
}

func TestAnalyzeMiddlewareWrapsOnlyAnalyze(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	service.EXPECT().Jurisdictions().Return(nil)

	var wrapped []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped = append(wrapped, r.URL.Path)
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	router := chi.NewRouter()
	New(service, slog.New(slog.NewTextHandler(io.Discard, nil)), WithAnalyzeMiddleware(mw)).Register(router)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/analysis", map[string]string{"sequence": "ACGT"}))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/jurisdictions", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"/analysis"}, wrapped)
}

func TestLocalMiddlewareWrapsOnlyLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	service.EXPECT().Jurisdictions().Return(nil)

	var wrapped []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped = append(wrapped, r.URL.Path)
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	router := chi.NewRouter()
	New(service, slog.New(slog.NewTextHandler(io.Discard, nil)), WithLocalMiddleware(mw)).Register(router)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/analysis/local", map[string]string{"sequence": "ACGT"}))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/jurisdictions", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"/analysis/local"}, wrapped)
}
