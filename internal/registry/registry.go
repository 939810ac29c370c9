// Package registry holds the reference sequences a query is screened against
// and the scanner that classifies each query/entry relationship into a tier.
package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

//go:embed data/registry.json
var defaultRegistry []byte

// Kind tags which variant an Entry is.
type Kind string

const (
	KindPatent      Kind = "patent"
	KindBiosecurity Kind = "biosecurity"
)

// RiskLevel is the base risk class of a registry entry.
type RiskLevel string

const (
	RiskRestricted RiskLevel = "RESTRICTED"
	RiskPatent     RiskLevel = "PATENT"
)

// PatentDetail is set on KindPatent entries.
type PatentDetail struct {
	Owner          string     `json:"owner"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// BiosecurityDetail is set on KindBiosecurity entries.
type BiosecurityDetail struct {
	Organism         string   `json:"organism"`
	RegulatoryBodies []string `json:"regulatory_bodies,omitempty"`
}

// Entry is one reference sequence. Exactly one of Patent or Biosecurity is
// non-nil, matching Kind.
type Entry struct {
	Kind        Kind               `json:"kind"`
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Sequence    string             `json:"sequence"`
	RiskLevel   RiskLevel          `json:"risk_level"`
	Patent      *PatentDetail      `json:"patent,omitempty"`
	Biosecurity *BiosecurityDetail `json:"biosecurity,omitempty"`
}

// Expiration returns the patent expiration date when one is recorded.
func (e Entry) Expiration() (time.Time, bool) {
	if e.Patent == nil || e.Patent.ExpirationDate == nil {
		return time.Time{}, false
	}
	return *e.Patent.ExpirationDate, true
}

// Label is a human readable name: the organism for biosecurity entries,
// otherwise the entry name.
func (e Entry) Label() string {
	if e.Biosecurity != nil && e.Biosecurity.Organism != "" {
		return e.Biosecurity.Organism
	}
	return e.Name
}

// Registry is loaded once and never mutated afterwards.
type Registry struct {
	Version     string
	Patents     []Entry
	Biosecurity []Entry
}

// Len is the total number of entries.
func (r *Registry) Len() int {
	return len(r.Patents) + len(r.Biosecurity)
}

// rawEntry is the on-disk record shape shared by both lists.
type rawEntry struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Sequence         string   `json:"sequence"`
	RiskLevel        string   `json:"riskLevel"`
	Owner            string   `json:"owner"`
	ExpirationDate   string   `json:"expirationDate"`
	Organism         string   `json:"organism"`
	RegulatoryBodies []string `json:"regulatoryBodies"`
}

type rawLists struct {
	Patents     []rawEntry `json:"patents"`
	Biosecurity []rawEntry `json:"biosecurity"`
}

type rawDocument struct {
	Version    string    `json:"version"`
	Registries *rawLists `json:"registries"`
	rawLists
}

// Default returns the registry bundled with the binary.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultRegistry))
}

// LoadFile reads a registry document from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a registry document. Both the nested
// {"registries": {"patents": [...], "biosecurity": [...]}} shape and the flat
// {"patents": [...], "biosecurity": [...]} shape are accepted.
func Load(r io.Reader) (*Registry, error) {
	var doc rawDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	lists := doc.rawLists
	if doc.Registries != nil {
		lists = *doc.Registries
	}

	reg := &Registry{Version: doc.Version}
	for i, raw := range lists.Patents {
		e, err := raw.toEntry(KindPatent)
		if err != nil {
			return nil, fmt.Errorf("patents[%d]: %w", i, err)
		}
		reg.Patents = append(reg.Patents, e)
	}
	for i, raw := range lists.Biosecurity {
		e, err := raw.toEntry(KindBiosecurity)
		if err != nil {
			return nil, fmt.Errorf("biosecurity[%d]: %w", i, err)
		}
		reg.Biosecurity = append(reg.Biosecurity, e)
	}
	return reg, nil
}

func (raw rawEntry) toEntry(kind Kind) (Entry, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return Entry{}, fmt.Errorf("entry id is required")
	}
	seq := strings.ToUpper(strings.Join(strings.Fields(raw.Sequence), ""))
	if seq == "" {
		return Entry{}, fmt.Errorf("entry %s: sequence is required", id)
	}

	e := Entry{
		Kind:      kind,
		ID:        id,
		Name:      raw.Name,
		Sequence:  seq,
		RiskLevel: RiskLevel(strings.ToUpper(strings.TrimSpace(raw.RiskLevel))),
	}

	switch kind {
	case KindPatent:
		if e.RiskLevel == "" {
			e.RiskLevel = RiskPatent
		}
		detail := &PatentDetail{Owner: raw.Owner}
		if raw.ExpirationDate != "" {
			exp, err := parseDate(raw.ExpirationDate)
			if err != nil {
				return Entry{}, fmt.Errorf("entry %s: %w", id, err)
			}
			detail.ExpirationDate = &exp
		}
		e.Patent = detail
	case KindBiosecurity:
		if e.RiskLevel == "" {
			e.RiskLevel = RiskRestricted
		}
		if e.Name == "" {
			e.Name = raw.Organism
		}
		e.Biosecurity = &BiosecurityDetail{
			Organism:         raw.Organism,
			RegulatoryBodies: raw.RegulatoryBodies,
		}
	}
	return e, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expirationDate %q", s)
	}
	return t, nil
}
