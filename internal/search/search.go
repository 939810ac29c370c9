// Package search talks to the remote BLAST-style sequence search service and
// caches its results by sequence content.
package search

import "context"

// Database selects which remote collection a sequence is searched against.
type Database string

const (
	// DatabasePatent is the patent sequence collection.
	DatabasePatent Database = "pat"
	// DatabaseNucleotide is the general organism nucleotide collection.
	DatabaseNucleotide Database = "nt"
)

// Hit is one ranked result from the remote search, using the first HSP of
// the reported hit.
type Hit struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Accession          string  `json:"accession"`
	Score              float64 `json:"score"`
	EValue             float64 `json:"e_value"`
	IdentityPercentage float64 `json:"identity_percentage"`
	AlignLength        int     `json:"align_length"`
	QueryFrom          int     `json:"query_from"`
	QueryTo            int     `json:"query_to"`
	HitFrom            int     `json:"hit_from"`
	HitTo              int     `json:"hit_to"`
}

// IdentityPercentage computes 100 × identity / alignLength, or 0 when
// alignLength is not positive.
func IdentityPercentage(identity, alignLength int) float64 {
	if alignLength <= 0 {
		return 0
	}
	return float64(identity) / float64(alignLength) * 100
}

// Searcher runs one sequence against one remote database.
type Searcher interface {
	Search(ctx context.Context, sequence string, db Database) ([]Hit, error)
}
