package compliance

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	keywords "seqguard/pkg/platform/strings"
)

//go:embed data/jurisdictions.yaml
var defaultRules []byte

// GlobalCode is the jurisdiction used for unknown or empty country codes.
const GlobalCode = "GLOBAL"

// Rule ties a keyword list to fixed legal metadata.
type Rule struct {
	Keywords    []string `yaml:"keywords"`
	Status      Status   `yaml:"status"`
	Severity    Severity `yaml:"severity"`
	Description string   `yaml:"description"`
	Citation    string   `yaml:"citation"`
	Guidance    string   `yaml:"guidance"`
	Link        string   `yaml:"link"`
}

// Jurisdiction is one regulatory regime.
type Jurisdiction struct {
	Code      string `yaml:"code"`
	Name      string `yaml:"name"`
	Authority string `yaml:"authority"`
	FlagIcon  string `yaml:"flag_icon"`
	Rules     []Rule `yaml:"rules"`
}

// Info is the public summary of a Jurisdiction.
type Info struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	FlagIcon  string `json:"flag_icon"`
	Authority string `json:"authority"`
}

type document struct {
	Version       string         `yaml:"version"`
	Jurisdictions []Jurisdiction `yaml:"jurisdictions"`
}

// RuleBook is the read-only jurisdiction table. Safe for concurrent use.
type RuleBook struct {
	version string
	order   []string
	byCode  map[string]Jurisdiction
	now     func() time.Time
}

// Option configures a RuleBook.
type Option func(*RuleBook)

// WithClock overrides the clock used for Report.EvaluatedAt.
func WithClock(now func() time.Time) Option {
	return func(b *RuleBook) {
		if now != nil {
			b.now = now
		}
	}
}

// Default returns the rule book bundled with the binary.
func Default(opts ...Option) (*RuleBook, error) {
	return Load(bytes.NewReader(defaultRules), opts...)
}

// LoadFile reads a rule book from a YAML file.
func LoadFile(path string, opts ...Option) (*RuleBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jurisdictions %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Load decodes and validates a YAML rule book. A GLOBAL jurisdiction is
// required since it backs every unknown code.
func Load(r io.Reader, opts ...Option) (*RuleBook, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode jurisdictions: %w", err)
	}

	book := &RuleBook{
		version: doc.Version,
		byCode:  make(map[string]Jurisdiction, len(doc.Jurisdictions)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(book)
	}

	for i, raw := range doc.Jurisdictions {
		j, err := normalizeJurisdiction(raw)
		if err != nil {
			return nil, fmt.Errorf("jurisdictions[%d]: %w", i, err)
		}
		if _, dup := book.byCode[j.Code]; dup {
			return nil, fmt.Errorf("jurisdictions[%d]: duplicate code %s", i, j.Code)
		}
		book.byCode[j.Code] = j
		book.order = append(book.order, j.Code)
	}

	if _, ok := book.byCode[GlobalCode]; !ok {
		return nil, fmt.Errorf("jurisdictions: %s fallback is required", GlobalCode)
	}
	return book, nil
}

func normalizeJurisdiction(j Jurisdiction) (Jurisdiction, error) {
	j.Code = normalizeCode(j.Code)
	if j.Code == "" {
		return j, fmt.Errorf("code is required")
	}
	if j.Name == "" {
		j.Name = j.Code
	}

	rules := make([]Rule, 0, len(j.Rules))
	for i, rule := range j.Rules {
		rule.Keywords = keywords.NormalizeKeywords(rule.Keywords)
		if len(rule.Keywords) == 0 {
			return j, fmt.Errorf("%s rules[%d]: at least one keyword is required", j.Code, i)
		}
		rule.Status = Status(strings.ToUpper(strings.TrimSpace(string(rule.Status))))
		if rule.Status == "" {
			return j, fmt.Errorf("%s rules[%d]: status is required", j.Code, i)
		}
		rule.Severity = Severity(strings.ToUpper(strings.TrimSpace(string(rule.Severity))))
		if !rule.Severity.Valid() {
			return j, fmt.Errorf("%s rules[%d]: unknown severity %q", j.Code, i, rule.Severity)
		}
		rules = append(rules, rule)
	}
	j.Rules = rules
	return j, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Version is the rule book document version.
func (b *RuleBook) Version() string {
	return b.version
}

// Resolve returns the jurisdiction for code, falling back to GLOBAL. The
// boolean reports whether code itself was known.
func (b *RuleBook) Resolve(code string) (Jurisdiction, bool) {
	if j, ok := b.byCode[normalizeCode(code)]; ok {
		return j, true
	}
	return b.byCode[GlobalCode], false
}

// Jurisdictions lists every jurisdiction sorted by code.
func (b *RuleBook) Jurisdictions() []Info {
	out := make([]Info, 0, len(b.byCode))
	for _, j := range b.byCode {
		out = append(out, Info{Code: j.Code, Name: j.Name, FlagIcon: j.FlagIcon, Authority: j.Authority})
	}
	slices.SortFunc(out, func(a, b Info) int { return strings.Compare(a.Code, b.Code) })
	return out
}
