// Package similarity scores how alike two plain-text strings are.
package similarity

// Scorer returns an integer similarity between 0 and 100.
type Scorer interface {
	Similarity(a, b string) int
}

// LCS scores strings by the length of their longest common character
// subsequence relative to their combined length.
type LCS struct{}

var _ Scorer = LCS{}

// Similarity implements Scorer.
func (LCS) Similarity(a, b string) int {
	return Score(a, b)
}

// Score returns 100 for identical strings and 2*lcs/(len(a)+len(b))
// otherwise, never reaching 100 for different strings.
func Score(a, b string) int {
	if a == b {
		return 100
	}
	x, y := []rune(a), []rune(b)
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	lcs := lcsLength(x, y)
	score := 200 * lcs / (len(x) + len(y))
	if score >= 100 {
		score = 99
	}
	return score
}

func lcsLength(x, y []rune) int {
	if len(y) > len(x) {
		x, y = y, x
	}
	prev := make([]int, len(y)+1)
	curr := make([]int, len(y)+1)
	for i := 1; i <= len(x); i++ {
		for j := 1; j <= len(y); j++ {
			if x[i-1] == y[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(y)]
}
