// Package sequence normalizes raw FASTA or plain nucleotide text into the
// canonical upper-case form the matchers operate on.
package sequence

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// SourceType records which input shape a sequence was parsed from.
type SourceType string

const (
	SourceFASTA SourceType = "FASTA"
	SourceRaw   SourceType = "RAW"
)

// RawHeader is the header assigned to input without a FASTA description line.
const RawHeader = "Raw Input Sequence"

// ErrInvalidInput is the Error value set on a Canonical built from empty or non-text input.
const ErrInvalidInput = "invalid input"

// Canonical is an immutable, cleaned nucleotide sequence plus parse metadata.
// Sequence only ever contains A, T, G, C and N.
type Canonical struct {
	Sequence         string     `json:"sequence"`
	Header           string     `json:"header"`
	SourceType       SourceType `json:"source_type,omitempty"`
	Length           int        `json:"length"`
	InvalidCharCount int        `json:"invalid_char_count"`
	GCContent        float64    `json:"gc_content"`
	CreatedAt        time.Time  `json:"created_at"`
	Error            string     `json:"error,omitempty"`
}

// Empty reports whether parsing produced no usable nucleotides.
func (c Canonical) Empty() bool {
	return c.Sequence == ""
}

// Parse normalizes input. It never fails: unusable input yields a Canonical
// with an empty Sequence and Error set, and unknown characters are dropped
// and counted rather than rejected.
func Parse(input string) Canonical {
	if input == "" || !utf8.ValidString(input) {
		return Canonical{Error: ErrInvalidInput, CreatedAt: time.Now()}
	}

	trimmed := strings.TrimSpace(input)
	var body, header string
	source := SourceRaw

	if strings.HasPrefix(trimmed, ">") {
		source = SourceFASTA
		first, rest, _ := strings.Cut(trimmed, "\n")
		header = strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(first, "\r"), ">"))
		body = rest
	} else {
		header = RawHeader
		body = trimmed
	}

	seq, invalid := clean(body)
	return Canonical{
		Sequence:         seq,
		Header:           header,
		SourceType:       source,
		Length:           len(seq),
		InvalidCharCount: invalid,
		GCContent:        GCContent(seq),
		CreatedAt:        time.Now(),
	}
}

// ParseBytes is Parse for file or request bodies. Bytes that are not valid
// UTF-8 are treated as non-text input.
func ParseBytes(b []byte) Canonical {
	if !utf8.Valid(b) {
		return Canonical{Error: ErrInvalidInput, CreatedAt: time.Now()}
	}
	return Parse(string(b))
}

// clean drops whitespace, upper-cases, and strips everything outside the
// nucleotide alphabet. Whitespace does not count as invalid.
func clean(body string) (string, int) {
	var b strings.Builder
	b.Grow(len(body))
	invalid := 0
	for _, r := range body {
		if unicode.IsSpace(r) {
			continue
		}
		switch unicode.ToUpper(r) {
		case 'A', 'T', 'G', 'C', 'N':
			b.WriteRune(unicode.ToUpper(r))
		default:
			invalid++
		}
	}
	return b.String(), invalid
}

// GCContent returns the fraction of G and C bases in s, or 0 for an empty string.
func GCContent(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'G', 'C', 'g', 'c':
			gc++
		}
	}
	return float64(gc) / float64(len(s))
}
