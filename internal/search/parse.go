package search

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var ridPattern = regexp.MustCompile(`RID\s*=\s*(\w+)`)

// parseRID extracts the job handle from a submission response.
func parseRID(body []byte) (string, bool) {
	m := ridPattern.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// JobStatus is the state reported by a status poll.
type JobStatus string

const (
	StatusWaiting JobStatus = "WAITING"
	StatusReady   JobStatus = "READY"
	StatusFailed  JobStatus = "FAILED"
	StatusUnknown JobStatus = "UNKNOWN"
)

// parseStatus reads the Status=... marker. A body without a recognizable
// marker is treated as still waiting.
func parseStatus(body []byte) JobStatus {
	s := string(body)
	switch {
	case strings.Contains(s, "Status=WAITING"):
		return StatusWaiting
	case strings.Contains(s, "Status=FAILED"):
		return StatusFailed
	case strings.Contains(s, "Status=UNKNOWN"):
		return StatusUnknown
	case strings.Contains(s, "Status=READY"):
		return StatusReady
	default:
		return StatusWaiting
	}
}

type blastOutput struct {
	BlastOutput2 []struct {
		Report struct {
			Results struct {
				Search struct {
					Hits []blastHit `json:"hits"`
				} `json:"search"`
			} `json:"results"`
		} `json:"report"`
	} `json:"BlastOutput2"`
}

type blastHit struct {
	Description []struct {
		ID        string `json:"id"`
		Accession string `json:"accession"`
		Title     string `json:"title"`
	} `json:"description"`
	HSPs []struct {
		BitScore  float64 `json:"bit_score"`
		EValue    float64 `json:"evalue"`
		Identity  int     `json:"identity"`
		AlignLen  int     `json:"align_len"`
		QueryFrom int     `json:"query_from"`
		QueryTo   int     `json:"query_to"`
		HitFrom   int     `json:"hit_from"`
		HitTo     int     `json:"hit_to"`
	} `json:"hsps"`
}

// parseHits decodes a JSON2_S result document.
func parseHits(body []byte) ([]Hit, error) {
	var out blastOutput
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if len(out.BlastOutput2) == 0 {
		return nil, fmt.Errorf("results missing BlastOutput2")
	}

	raw := out.BlastOutput2[0].Report.Results.Search.Hits
	hits := make([]Hit, 0, len(raw))
	for i, h := range raw {
		if len(h.Description) == 0 || len(h.HSPs) == 0 {
			return nil, fmt.Errorf("hit %d has no description or hsps", i)
		}
		d, hsp := h.Description[0], h.HSPs[0]
		hits = append(hits, Hit{
			ID:                 d.ID,
			Title:              d.Title,
			Accession:          d.Accession,
			Score:              hsp.BitScore,
			EValue:             hsp.EValue,
			IdentityPercentage: IdentityPercentage(hsp.Identity, hsp.AlignLen),
			AlignLength:        hsp.AlignLen,
			QueryFrom:          hsp.QueryFrom,
			QueryTo:            hsp.QueryTo,
			HitFrom:            hsp.HitFrom,
			HitTo:              hsp.HitTo,
		})
	}
	return hits, nil
}
