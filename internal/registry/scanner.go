package registry

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"seqguard/internal/matching"
	audit "seqguard/pkg/platform/audit"
	"seqguard/pkg/requestcontext"
)

// Tier classifies how a registry sequence relates to the query.
type Tier string

const (
	TierExactFullPatent    Tier = "EXACT_MATCH_FULL_PATENT"
	TierFragment           Tier = "FRAGMENT_MATCH"
	TierSubsequenceReverse Tier = "SUBSEQUENCE_MATCH_REVERSE"
	TierBiosecurity        Tier = "BIOSECURITY_MATCH"
)

const (
	// BiosecurityFragmentSize is the chunk length for biosecurity fragment scans.
	BiosecurityFragmentSize = 15
	// reverseMinQueryLength gates the query-inside-entry test.
	reverseMinQueryLength = 15

	reverseNote = "User input appears to be a fragment of this patent"
)

// Match is one tiered relationship between the query and a registry entry.
type Match struct {
	Entry      Entry               `json:"entry"`
	Tier       Tier                `json:"tier"`
	Score      float64             `json:"score"`
	Indices    []int               `json:"indices,omitempty"`
	Fragments  []matching.Fragment `json:"fragments,omitempty"`
	Note       string              `json:"note,omitempty"`
	Similarity *float64            `json:"similarity,omitempty"`
}

// Scanner runs every registry entry against a query. It only reads the
// registry, so one Scanner may serve concurrent scans.
type Scanner struct {
	registry *Registry
	logger   *slog.Logger
	auditor  audit.Emitter
}

type Option func(*Scanner)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditor records every match on the audit trail.
func WithAuditor(auditor audit.Emitter) Option {
	return func(s *Scanner) {
		s.auditor = auditor
	}
}

func NewScanner(registry *Registry, opts ...Option) *Scanner {
	s := &Scanner{registry: registry, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the loaded registry for reporting.
func (s *Scanner) Registry() *Registry {
	return s.registry
}

// Scan returns every match for query, patents first. Tiers are not
// deduplicated; one patent entry can produce up to three matches.
func (s *Scanner) Scan(ctx context.Context, query string) []Match {
	matches := []Match{}
	if query == "" {
		return matches
	}

	for _, entry := range s.registry.Patents {
		for _, m := range scanPatent(query, entry) {
			s.record(ctx, m)
			matches = append(matches, m)
		}
	}
	for _, entry := range s.registry.Biosecurity {
		if m, ok := scanBiosecurity(query, entry); ok {
			s.record(ctx, m)
			matches = append(matches, m)
		}
	}
	return matches
}

func scanPatent(query string, entry Entry) []Match {
	var out []Match

	if idx := matching.KMPSearch(query, entry.Sequence); len(idx) > 0 {
		out = append(out, Match{Entry: entry, Tier: TierExactFullPatent, Score: 1.0, Indices: idx})
	}

	if frags := matching.FragmentMatch(query, entry.Sequence, matching.DefaultFragmentSize); len(frags) > 0 {
		coverage := float64(len(frags)*matching.DefaultFragmentSize) / float64(len(entry.Sequence))
		out = append(out, Match{Entry: entry, Tier: TierFragment, Score: min(1.0, coverage), Fragments: frags})
	}

	if len(query) > reverseMinQueryLength && strings.Contains(entry.Sequence, query) {
		out = append(out, Match{
			Entry: entry,
			Tier:  TierSubsequenceReverse,
			Score: float64(len(query)) / float64(len(entry.Sequence)),
			Note:  reverseNote,
		})
	}
	return out
}

// scanBiosecurity is binary: a full hit or any fragment hit is one match.
func scanBiosecurity(query string, entry Entry) (Match, bool) {
	if len(matching.KMPSearch(query, entry.Sequence)) > 0 ||
		len(matching.FragmentMatch(query, entry.Sequence, BiosecurityFragmentSize)) > 0 {
		return Match{Entry: entry, Tier: TierBiosecurity, Score: 1.0}, true
	}
	return Match{}, false
}

func (s *Scanner) record(ctx context.Context, m Match) {
	s.logger.InfoContext(ctx, "registry match",
		"entry_id", m.Entry.ID,
		"kind", m.Entry.Kind,
		"tier", m.Tier,
		"score", m.Score,
	)
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Subject:   m.Entry.ID,
		Action:    string(audit.EventRegistryMatch),
		Decision:  string(m.Tier),
		Reason:    "score=" + strconv.FormatFloat(m.Score, 'f', 4, 64),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit registry match audit event", "entry_id", m.Entry.ID, "error", err)
	}
}
