// Package strings holds the literal keyword helpers used for title screening.
package strings

import (
	"strings"
)

// NormalizeKeywords trims, lower-cases and deduplicates keywords, dropping
// empty ones. First-seen order is preserved.
//
//	NormalizeKeywords([]string{" Anthrax ", "ebola", "ANTHRAX", ""})
//	// []string{"anthrax", "ebola"}
func NormalizeKeywords(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		kw := strings.ToLower(strings.TrimSpace(v))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		result = append(result, kw)
	}

	return result
}

// FirstContained returns the first keyword that occurs in text, compared
// case-insensitively. Keywords are expected to be lower case already.
func FirstContained(text string, keywords []string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}
