// Package matching holds the exact and approximate string matchers used to
// compare a query sequence with registry sequences.
package matching

// KMPSearch returns every 0-based start index of pattern in text, including
// overlapping occurrences. An empty pattern or text, or a pattern longer than
// text, yields no matches.
func KMPSearch(text, pattern string) []int {
	n, m := len(text), len(pattern)
	if m == 0 || n == 0 || m > n {
		return []int{}
	}

	lps := prefixTable(pattern)
	matches := []int{}

	j := 0
	for i := 0; i < n; i++ {
		for j > 0 && text[i] != pattern[j] {
			j = lps[j-1]
		}
		if text[i] == pattern[j] {
			j++
		}
		if j == m {
			matches = append(matches, i-m+1)
			j = lps[j-1]
		}
	}
	return matches
}

// prefixTable builds the longest-proper-prefix-that-is-also-suffix table.
func prefixTable(pattern string) []int {
	lps := make([]int, len(pattern))
	length := 0
	for i := 1; i < len(pattern); {
		switch {
		case pattern[i] == pattern[length]:
			length++
			lps[i] = length
			i++
		case length != 0:
			length = lps[length-1]
		default:
			lps[i] = 0
			i++
		}
	}
	return lps
}
