package matching

// LevenshteinSimilarity returns 1 - distance/max(len(s1), len(s2)) using a
// single-row edit distance table. Two empty strings are identical (1.0); one
// empty string against a non-empty one scores 0.0.
func LevenshteinSimilarity(s1, s2 string) float64 {
	m, n := len(s1), len(s2)
	if m == 0 {
		if n == 0 {
			return 1.0
		}
		return 0.0
	}
	if n == 0 {
		return 0.0
	}

	row := make([]int, n+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= m; i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= n; j++ {
			above := row[j]
			if s1[i-1] == s2[j-1] {
				row[j] = diag
			} else {
				row[j] = 1 + min(diag, above, row[j-1])
			}
			diag = above
		}
	}

	return 1.0 - float64(row[n])/float64(max(m, n))
}
