package matching

// DefaultFragmentSize is the chunk length used for patent fragment scans.
const DefaultFragmentSize = 20

// Fragment is one chunk of the pattern that occurs at least once in the text.
type Fragment struct {
	Fragment     string `json:"fragment"`
	PatternStart int    `json:"pattern_start"`
	TextIndices  []int  `json:"text_indices"`
	Length       int    `json:"length"`
}

// FragmentMatch slices pattern into overlapping chunks of minFragmentSize with
// a stride of half that size, and returns the chunks found in text. A pattern
// shorter than minFragmentSize has no fragments.
func FragmentMatch(text, pattern string, minFragmentSize int) []Fragment {
	if minFragmentSize <= 0 || len(pattern) < minFragmentSize {
		return []Fragment{}
	}

	stride := max(minFragmentSize/2, 1)
	found := []Fragment{}
	for start := 0; start+minFragmentSize <= len(pattern); start += stride {
		chunk := pattern[start : start+minFragmentSize]
		if hits := KMPSearch(text, chunk); len(hits) > 0 {
			found = append(found, Fragment{
				Fragment:     chunk,
				PatternStart: start,
				TextIndices:  hits,
				Length:       minFragmentSize,
			})
		}
	}
	return found
}
