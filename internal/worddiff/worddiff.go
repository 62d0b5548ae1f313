// Package worddiff aligns two strings word by word and marks the spans
// that are not part of their common token sequence.
//
// Strings are split on a configurable set of separator characters; each
// separator is a token of its own. Characters from scripts written without
// spaces (Thai, Lao, Tibetan, Hangul, kana, Bopomofo, CJK) are always
// single-character tokens.
//
// The alignment is a forward greedy scan over the longest common
// subsequence table: for every row the first column that improves on the
// best value seen so far is taken as the aligned position. This is not a
// canonical LCS backtrace and may pick a different alignment when tokens
// repeat; callers depend on exactly this behaviour.
package worddiff

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Run markers wrapped around every differing span.
const (
	Start = "\uE000"
	End   = "\uE001"
)

// DefaultSeparators is the separator set used when none is configured.
const DefaultSeparators = " \u00A0\t\r\n\f\v\u2028\u2029\u3000" +
	",.;:!?\u00A1\u00BF\"()[]{}<>=+*/\\|\u00AB\u00BB\u201C\u201D\u201E\u2018\u2019" +
	"\uFF0C\u3002\u3001\uFF1B\uFF1A\uFF1F\uFF01"

// Differ computes word-level differences.
type Differ struct {
	separators map[rune]struct{}
}

// New creates a Differ splitting on the given separators, or on
// DefaultSeparators when separators is empty.
func New(separators string) *Differ {
	if separators == "" {
		separators = DefaultSeparators
	}
	set := make(map[rune]struct{}, utf8.RuneCountInString(separators))
	for _, r := range separators {
		set[r] = struct{}{}
	}
	return &Differ{separators: set}
}

// IsSeparator reports whether r splits tokens.
func (d *Differ) IsSeparator(r rune) bool {
	_, ok := d.separators[r]
	return ok
}

// Tokenize splits s into word, separator and single-character tokens.
// Concatenating the tokens gives back s.
func (d *Differ) Tokenize(s string) []string {
	var tokens []string
	start := -1
	for i, r := range s {
		if d.IsSeparator(r) || IsSingleCharScript(r) {
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			tokens = append(tokens, string(r))
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// Words returns the tokens of s that are neither separators nor spaces.
func (d *Differ) Words(s string) []string {
	var words []string
	for _, t := range d.Tokenize(s) {
		r, size := utf8.DecodeRuneInString(t)
		if size == len(t) && (d.IsSeparator(r) || unicode.IsSpace(r) || unicode.IsPunct(r)) {
			continue
		}
		words = append(words, t)
	}
	return words
}

// Result holds both strings with their differing spans marked.
type Result struct {
	X string
	Y string
}

// Diff marks the tokens of x and y that are not aligned with each other.
func (d *Differ) Diff(x, y string) Result {
	xTokens := d.Tokenize(x)
	yTokens := d.Tokenize(y)
	xAligned, yAligned := align(xTokens, yTokens)
	return Result{
		X: mark(xTokens, xAligned),
		Y: mark(yTokens, yAligned),
	}
}

// align builds the LCS length table and scans it row by row, taking the
// first column whose value exceeds the best value seen so far.
func align(x, y []string) (xAligned, yAligned []bool) {
	rows, cols := len(x)+1, len(y)+1
	table := make([][]int, rows)
	for i := range table {
		table[i] = make([]int, cols)
	}
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			if x[i-1] == y[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else {
				table[i][j] = max(table[i-1][j], table[i][j-1])
			}
		}
	}

	xAligned = make([]bool, len(x))
	yAligned = make([]bool, len(y))
	best := 0
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			if table[i][j] > best {
				xAligned[i-1] = true
				yAligned[j-1] = true
				best = table[i][j]
				break
			}
		}
	}
	return xAligned, yAligned
}

// mark wraps every run of unaligned tokens in Start and End. Two runs
// separated by a single whitespace token become one run.
func mark(tokens []string, aligned []bool) string {
	different := make([]bool, len(tokens))
	for i := range tokens {
		different[i] = !aligned[i]
	}
	for i := 1; i < len(tokens)-1; i++ {
		if !different[i] && isSpaceToken(tokens[i]) && different[i-1] && different[i+1] {
			different[i] = true
		}
	}

	var b strings.Builder
	inRun := false
	for i, t := range tokens {
		if different[i] != inRun {
			if inRun {
				b.WriteString(End)
			} else {
				b.WriteString(Start)
			}
			inRun = different[i]
		}
		b.WriteString(t)
	}
	if inRun {
		b.WriteString(End)
	}
	return b.String()
}

func isSpaceToken(t string) bool {
	r, size := utf8.DecodeRuneInString(t)
	return size == len(t) && unicode.IsSpace(r)
}

// CountRuns returns the number of marked runs in a tagged string.
func CountRuns(tagged string) int {
	return strings.Count(tagged, Start)
}

// Runs returns the text of every marked run, in order.
func Runs(tagged string) []string {
	var runs []string
	rest := tagged
	for {
		i := strings.Index(rest, Start)
		if i < 0 {
			return runs
		}
		rest = rest[i+len(Start):]
		j := strings.Index(rest, End)
		if j < 0 {
			return append(runs, rest)
		}
		runs = append(runs, rest[:j])
		rest = rest[j+len(End):]
	}
}

// Strip removes every marker from a tagged string.
func Strip(tagged string) string {
	return strings.NewReplacer(Start, "", End, "").Replace(tagged)
}
