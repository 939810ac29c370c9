// Package compliance cross-references organism search hits against
// jurisdiction-specific biosecurity regulations.
package compliance

import (
	"fmt"
	"slices"
	"time"

	"seqguard/internal/search"
	keywords "seqguard/pkg/platform/strings"
)

// Severity ranks a rule. Lower priority numbers are more severe.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

var severityPriority = map[Severity]int{
	SeverityCritical: 1,
	SeverityHigh:     2,
	SeverityMedium:   3,
	SeverityLow:      4,
}

// Priority is 1 for CRITICAL through 4 for LOW, 5 for anything else.
func (s Severity) Priority() int {
	if p, ok := severityPriority[s]; ok {
		return p
	}
	return len(severityPriority) + 1
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	_, ok := severityPriority[s]
	return ok
}

// Risk is the fixed report risk for a top severity.
func (s Severity) Risk() int {
	switch s {
	case SeverityCritical:
		return 100
	case SeverityHigh:
		return 75
	case SeverityMedium:
		return 50
	default:
		return 25
	}
}

// Status is the regulatory classification of a rule or report.
type Status string

const (
	StatusClear              Status = "CLEAR"
	StatusProhibited         Status = "PROHIBITED"
	StatusTier1Restricted    Status = "TIER_1_RESTRICTED"
	StatusStrictlyControlled Status = "STRICTLY_CONTROLLED"
	StatusExportControlled   Status = "EXPORT_CONTROLLED"
	StatusRestricted         Status = "RESTRICTED"
	StatusBiosecurityConcern Status = "BIOSECURITY_CONCERN"
)

var statusLabels = map[Status]string{
	StatusProhibited:         "PROHIBITED",
	StatusTier1Restricted:    "TIER 1 RESTRICTED",
	StatusStrictlyControlled: "STRICTLY CONTROLLED",
	StatusExportControlled:   "EXPORT LICENSE REQUIRED",
	StatusRestricted:         "RESTRICTED USE",
	StatusBiosecurityConcern: "BIOSECURITY RISK",
}

// StatusLabel is the user-facing label for status. Unknown statuses are
// returned verbatim.
func StatusLabel(status Status) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

const clearSummary = "No regulated biological agents detected."

// Violation is one hit matching one rule.
type Violation struct {
	Organism           string   `json:"organism"`
	Accession          string   `json:"accession"`
	IdentityPercentage float64  `json:"identity_percentage"`
	MatchedKeyword     string   `json:"matched_keyword"`
	Status             Status   `json:"status"`
	Severity           Severity `json:"severity"`
	Description        string   `json:"description"`
	Citation           string   `json:"citation"`
	Guidance           string   `json:"guidance"`
	Link               string   `json:"link"`
}

// Report is the compliance outcome for one jurisdiction.
type Report struct {
	Jurisdiction string      `json:"jurisdiction"`
	CountryCode  string      `json:"country_code"`
	FlagIcon     string      `json:"flag_icon"`
	Authority    string      `json:"authority"`
	Status       Status      `json:"status"`
	Severity     Severity    `json:"severity"`
	OverallRisk  int         `json:"overall_risk"`
	Violations   []Violation `json:"violations"`
	Summary      string      `json:"summary"`
	EvaluatedAt  time.Time   `json:"evaluated_at"`
}

// Evaluate checks every hit title against every rule of the jurisdiction for
// countryCode. Unknown codes use GLOBAL. Never fails.
func (b *RuleBook) Evaluate(hits []search.Hit, countryCode string) Report {
	j, _ := b.Resolve(countryCode)
	return b.evaluate(hits, j)
}

// EvaluateAll evaluates every jurisdiction in rule book order and keeps only
// those with at least one violation.
func (b *RuleBook) EvaluateAll(hits []search.Hit) []Report {
	reports := make([]Report, 0, len(b.order))
	for _, code := range b.order {
		r := b.evaluate(hits, b.byCode[code])
		if len(r.Violations) > 0 {
			reports = append(reports, r)
		}
	}
	return reports
}

func (b *RuleBook) evaluate(hits []search.Hit, j Jurisdiction) Report {
	report := Report{
		Jurisdiction: j.Name,
		CountryCode:  j.Code,
		FlagIcon:     j.FlagIcon,
		Authority:    j.Authority,
		Status:       StatusClear,
		Severity:     SeverityLow,
		Violations:   []Violation{},
		Summary:      clearSummary,
		EvaluatedAt:  b.now().UTC(),
	}

	for _, hit := range hits {
		for _, rule := range j.Rules {
			kw, ok := keywords.FirstContained(hit.Title, rule.Keywords)
			if !ok {
				continue
			}
			report.Violations = append(report.Violations, Violation{
				Organism:           hit.Title,
				Accession:          hit.Accession,
				IdentityPercentage: hit.IdentityPercentage,
				MatchedKeyword:     kw,
				Status:             rule.Status,
				Severity:           rule.Severity,
				Description:        rule.Description,
				Citation:           rule.Citation,
				Guidance:           rule.Guidance,
				Link:               rule.Link,
			})
		}
	}

	if len(report.Violations) == 0 {
		return report
	}

	slices.SortStableFunc(report.Violations, func(a, b Violation) int {
		return a.Severity.Priority() - b.Severity.Priority()
	})

	top := report.Violations[0]
	report.Status = top.Status
	report.Severity = top.Severity
	report.OverallRisk = top.Severity.Risk()
	report.Summary = summarize(len(report.Violations), top.Status)
	return report
}

func summarize(n int, status Status) string {
	plural := ""
	if n > 1 {
		plural = "s"
	}
	return fmt.Sprintf("%d regulated agent%s detected. %s", n, plural, StatusLabel(status))
}
