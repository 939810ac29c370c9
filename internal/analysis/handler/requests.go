package handler

import (
	"strings"

	"seqguard/internal/search"
	dErrors "seqguard/pkg/domain-errors"
)

const (
	maxJurisdictionLength = 16
	maxComplianceHits     = 1000
)

// AnalyzeRequest is the HTTP request body for POST /analysis.
type AnalyzeRequest struct {
	Sequence         string `json:"sequence"`
	Jurisdiction     string `json:"jurisdiction"`
	AllJurisdictions bool   `json:"all_jurisdictions"`
}

// Validate implements httputil.Validatable.
func (r *AnalyzeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Sequence) == "" {
		return dErrors.New(dErrors.CodeValidation, "sequence is required")
	}
	code, err := normalizeJurisdiction(r.Jurisdiction)
	if err != nil {
		return err
	}
	r.Jurisdiction = code
	return nil
}

// LocalAnalyzeRequest is the HTTP request body for POST /analysis/local.
type LocalAnalyzeRequest struct {
	Sequence string `json:"sequence"`
}

// Validate implements httputil.Validatable.
func (r *LocalAnalyzeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Sequence) == "" {
		return dErrors.New(dErrors.CodeValidation, "sequence is required")
	}
	return nil
}

// ComplianceRequest is the HTTP request body for POST /compliance/evaluate.
// Hits are organism search results, typically taken from a prior analysis.
type ComplianceRequest struct {
	Hits         []search.Hit `json:"hits"`
	Jurisdiction string       `json:"jurisdiction"`
}

// Validate implements httputil.Validatable.
func (r *ComplianceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Hits) > maxComplianceHits {
		return dErrors.New(dErrors.CodeValidation, "at most 1000 hits may be evaluated at once")
	}
	code, err := normalizeJurisdiction(r.Jurisdiction)
	if err != nil {
		return err
	}
	r.Jurisdiction = code
	return nil
}

func normalizeJurisdiction(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) > maxJurisdictionLength {
		return "", dErrors.New(dErrors.CodeValidation, "jurisdiction must be at most 16 characters")
	}
	return code, nil
}
