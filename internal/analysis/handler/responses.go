package handler

import (
	"time"

	"seqguard/internal/analysis"
	"seqguard/internal/compliance"
	"seqguard/internal/registry"
	"seqguard/internal/risk"
	"seqguard/internal/search"
	"seqguard/internal/sequence"
)

// SequenceResponse describes the parsed submission without echoing it back.
type SequenceResponse struct {
	Header           string              `json:"header"`
	SourceType       sequence.SourceType `json:"source_type"`
	Length           int                 `json:"length"`
	InvalidCharCount int                 `json:"invalid_char_count"`
	GCContent        float64             `json:"gc_content"`
}

// MatchResponse is one local registry match.
type MatchResponse struct {
	EntryID   string        `json:"entry_id"`
	EntryName string        `json:"entry_name"`
	Kind      registry.Kind `json:"kind"`
	Tier      registry.Tier `json:"tier"`
	Score     float64       `json:"score"`
	Indices   []int         `json:"indices,omitempty"`
	Fragments int           `json:"fragments,omitempty"`
	Note      string        `json:"note,omitempty"`
}

// LocalResponse is the advisory registry screening.
type LocalResponse struct {
	RegistryVersion string          `json:"registry_version"`
	Risk            risk.Verdict    `json:"risk"`
	Matches         []MatchResponse `json:"matches"`
}

// AnalysisResponse is the HTTP response for POST /analysis.
type AnalysisResponse struct {
	ID            string              `json:"id"`
	Sequence      SequenceResponse    `json:"sequence"`
	Risk          risk.Verdict        `json:"risk"`
	Compliance    compliance.Report   `json:"compliance"`
	AllCompliance []compliance.Report `json:"all_compliance,omitempty"`
	Local         LocalResponse       `json:"local"`
	PatentHits    []search.Hit        `json:"patent_hits"`
	OrganismHits  []search.Hit        `json:"organism_hits"`
	DurationMS    int64               `json:"duration_ms"`
	CompletedAt   time.Time           `json:"completed_at"`
}

// LocalAnalysisResponse is the HTTP response for POST /analysis/local.
type LocalAnalysisResponse struct {
	ID          string           `json:"id"`
	Sequence    SequenceResponse `json:"sequence"`
	Local       LocalResponse    `json:"local"`
	CompletedAt time.Time        `json:"completed_at"`
}

// JurisdictionsResponse is the HTTP response for GET /jurisdictions.
type JurisdictionsResponse struct {
	Jurisdictions []compliance.Info `json:"jurisdictions"`
}

// FromResult converts a domain Result to an HTTP response.
func FromResult(r *analysis.Result) *AnalysisResponse {
	return &AnalysisResponse{
		ID:            r.ID,
		Sequence:      fromSequence(r.Sequence),
		Risk:          r.Risk,
		Compliance:    r.Compliance,
		AllCompliance: r.AllCompliance,
		Local: LocalResponse{
			RegistryVersion: r.RegistryVersion,
			Risk:            r.LocalRisk,
			Matches:         fromMatches(r.Matches),
		},
		PatentHits:   nonNil(r.PatentHits),
		OrganismHits: nonNil(r.OrganismHits),
		DurationMS:   r.CompletedAt.Sub(r.StartedAt).Milliseconds(),
		CompletedAt:  r.CompletedAt,
	}
}

// FromLocalResult converts a domain LocalResult to an HTTP response.
func FromLocalResult(r *analysis.LocalResult) *LocalAnalysisResponse {
	return &LocalAnalysisResponse{
		ID:       r.ID,
		Sequence: fromSequence(r.Sequence),
		Local: LocalResponse{
			RegistryVersion: r.RegistryVersion,
			Risk:            r.Risk,
			Matches:         fromMatches(r.Matches),
		},
		CompletedAt: r.CompletedAt,
	}
}

func fromSequence(c sequence.Canonical) SequenceResponse {
	return SequenceResponse{
		Header:           c.Header,
		SourceType:       c.SourceType,
		Length:           c.Length,
		InvalidCharCount: c.InvalidCharCount,
		GCContent:        c.GCContent,
	}
}

func fromMatches(ms []registry.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, MatchResponse{
			EntryID:   m.Entry.ID,
			EntryName: m.Entry.Label(),
			Kind:      m.Entry.Kind,
			Tier:      m.Tier,
			Score:     m.Score,
			Indices:   m.Indices,
			Fragments: len(m.Fragments),
			Note:      m.Note,
		})
	}
	return out
}

func nonNil(hits []search.Hit) []search.Hit {
	if hits == nil {
		return []search.Hit{}
	}
	return hits
}
