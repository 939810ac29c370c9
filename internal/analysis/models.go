package analysis

import (
	"time"

	"seqguard/internal/compliance"
	"seqguard/internal/registry"
	"seqguard/internal/risk"
	"seqguard/internal/search"
	"seqguard/internal/sequence"
)

// Mode labels which pipeline produced a result.
type Mode string

const (
	ModeFull  Mode = "full"
	ModeLocal Mode = "local"
)

// Phase names used for latency metrics and logs.
const (
	PhaseLocalScan      = "local_scan"
	PhasePatentSearch   = "patent_search"
	PhaseOrganismSearch = "organism_search"
)

// Request is one screening submission. Input is FASTA or raw sequence text.
type Request struct {
	Input string
	// Jurisdiction is a country code; empty uses the service default.
	Jurisdiction string
	// AllJurisdictions also evaluates every jurisdiction with violations.
	AllJurisdictions bool
}

// Latencies records how long each phase took.
type Latencies struct {
	LocalScan      time.Duration `json:"local_scan"`
	PatentSearch   time.Duration `json:"patent_search"`
	OrganismSearch time.Duration `json:"organism_search"`
}

// Result is a complete analysis. Risk is the verdict shown to users; LocalRisk
// is advisory evidence from the bundled registry and is never merged into it.
type Result struct {
	ID              string              `json:"id"`
	Sequence        sequence.Canonical  `json:"sequence"`
	RegistryVersion string              `json:"registry_version"`
	Matches         []registry.Match    `json:"matches"`
	LocalRisk       risk.Verdict        `json:"local_risk"`
	PatentHits      []search.Hit        `json:"patent_hits"`
	OrganismHits    []search.Hit        `json:"organism_hits"`
	Risk            risk.Verdict        `json:"risk"`
	Compliance      compliance.Report   `json:"compliance"`
	AllCompliance   []compliance.Report `json:"all_compliance,omitempty"`
	Latencies       Latencies           `json:"latencies"`
	StartedAt       time.Time           `json:"started_at"`
	CompletedAt     time.Time           `json:"completed_at"`
}

// LocalResult is the registry-only screening used offline.
type LocalResult struct {
	ID              string             `json:"id"`
	Sequence        sequence.Canonical `json:"sequence"`
	RegistryVersion string             `json:"registry_version"`
	Matches         []registry.Match   `json:"matches"`
	Risk            risk.Verdict       `json:"risk"`
	CompletedAt     time.Time          `json:"completed_at"`
}

// AsyncResult is delivered once on the channel returned by AnalyzeAsync.
type AsyncResult struct {
	Result *Result
	Err    error
}

// evidence is filled by the parallel gather phase. Each goroutine owns
// distinct fields.
type evidence struct {
	matches      []registry.Match
	localRisk    risk.Verdict
	patentHits   []search.Hit
	organismHits []search.Hit
	latencies    Latencies
}
