// Package risk reduces screening evidence into a single verdict.
//
// Two reductions exist. CalculateRiskScore folds local registry matches and is
// advisory. CalculateUniversalRisk folds remote search hits and is the verdict
// shown to the user when both are available.
// Both are pure: no I/O, no side effects, no failure modes.
package risk

import (
	"fmt"
	"math"
	"slices"
	"time"

	"seqguard/internal/registry"
	"seqguard/internal/search"
	keywords "seqguard/pkg/platform/strings"
)

// Level is the traffic-light risk classification.
type Level string

const (
	LevelGreen  Level = "GREEN"
	LevelYellow Level = "YELLOW"
	LevelRed    Level = "RED"
)

// Status is the operational recommendation attached to a Level.
type Status string

const (
	StatusClearToOperate     Status = "CLEAR_TO_OPERATE"
	StatusLikelyClear        Status = "LIKELY_CLEAR"
	StatusNotClearToOperate  Status = "NOT_CLEAR_TO_OPERATE"
	StatusRestrictedDoNotUse Status = "RESTRICTED_DO_NOT_USE"
)

// Verdict is the outcome of a reduction. OverallScore is in [0,100].
type Verdict struct {
	OverallScore float64 `json:"overall_score"`
	RiskLevel    Level   `json:"risk_level"`
	Status       Status  `json:"status"`
	Summary      string  `json:"summary,omitempty"`
}

const (
	baseRiskRestricted = 1.0
	baseRiskPatent     = 0.5
	expiredDiscount    = 0.1

	redThreshold    = 0.8
	yellowThreshold = 0.5

	patentIdentityThreshold = 80.0
	universalRedScore       = 100
	universalYellowScore    = 60
)

// DangerKeywords flag an organism hit as a pathogen when any appears in its
// lower-cased title. Identity percentage is ignored for these.
var DangerKeywords = []string{
	"anthra", "ebola", "variola", "pestis", "botulinum",
	"francisella", "marburg", "lassa", "y.pestis", "b.anthracis",
}

// CalculateRiskScore reduces local registry matches to the worst single match.
// A match scores baseRisk(entry) × similarity, discounted to a tenth when the
// entry's patent expired before now.
func CalculateRiskScore(matches []registry.Match, now time.Time) Verdict {
	if len(matches) == 0 {
		return Verdict{OverallScore: 0, RiskLevel: LevelGreen, Status: StatusClearToOperate}
	}

	var worst float64
	for _, m := range matches {
		worst = math.Max(worst, matchScore(m, now))
	}

	v := Verdict{OverallScore: round2(worst * 100)}
	switch {
	case worst >= redThreshold:
		v.RiskLevel, v.Status = LevelRed, StatusRestrictedDoNotUse
	case worst >= yellowThreshold:
		v.RiskLevel, v.Status = LevelYellow, StatusNotClearToOperate
	default:
		v.RiskLevel, v.Status = LevelGreen, StatusLikelyClear
	}
	return v
}

func matchScore(m registry.Match, now time.Time) float64 {
	score := baseRisk(m.Entry.RiskLevel)

	similarity := 1.0
	if m.Similarity != nil {
		similarity = *m.Similarity
	}
	score *= similarity

	if exp, ok := m.Entry.Expiration(); ok && exp.Before(now) {
		score *= expiredDiscount
	}
	return score
}

func baseRisk(level registry.RiskLevel) float64 {
	if level == registry.RiskRestricted {
		return baseRiskRestricted
	}
	return baseRiskPatent
}

// CalculateUniversalRisk reduces remote search results. Any organism hit whose
// title names a dangerous pathogen is RED. Otherwise the highest-identity
// patent hit above 80% is YELLOW. Everything else is GREEN.
func CalculateUniversalRisk(patentHits, organismHits []search.Hit) Verdict {
	if hit, ok := firstDangerous(organismHits); ok {
		return Verdict{
			OverallScore: universalRedScore,
			RiskLevel:    LevelRed,
			Status:       StatusRestrictedDoNotUse,
			Summary:      fmt.Sprintf("Global Pathogen Match: %s...", truncate(hit.Title, 50)),
		}
	}

	if top, ok := topIdentity(patentHits); ok && top.IdentityPercentage > patentIdentityThreshold {
		return Verdict{
			OverallScore: universalYellowScore,
			RiskLevel:    LevelYellow,
			Status:       StatusNotClearToOperate,
			Summary: fmt.Sprintf("Patent Match (%.1f%%): %s...",
				top.IdentityPercentage, truncate(top.Title, 60)),
		}
	}

	return Verdict{
		OverallScore: 0,
		RiskLevel:    LevelGreen,
		Status:       StatusLikelyClear,
		Summary:      "No global patents or dangerous pathogens detected.",
	}
}

// IsDangerous reports whether title names one of DangerKeywords.
func IsDangerous(title string) bool {
	_, ok := keywords.FirstContained(title, DangerKeywords)
	return ok
}

func firstDangerous(hits []search.Hit) (search.Hit, bool) {
	for _, h := range hits {
		if IsDangerous(h.Title) {
			return h, true
		}
	}
	return search.Hit{}, false
}

// topIdentity picks the highest identity hit without reordering the caller's
// slice. Ties keep the earlier hit.
func topIdentity(hits []search.Hit) (search.Hit, bool) {
	if len(hits) == 0 {
		return search.Hit{}, false
	}
	sorted := slices.Clone(hits)
	slices.SortStableFunc(sorted, func(a, b search.Hit) int {
		switch {
		case a.IdentityPercentage > b.IdentityPercentage:
			return -1
		case a.IdentityPercentage < b.IdentityPercentage:
			return 1
		}
		return 0
	})
	return sorted[0], true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
