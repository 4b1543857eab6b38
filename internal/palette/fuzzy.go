// Package palette implements the fuzzy matching and ranking used by the
// command palette and content search.
package palette

import "strings"

// Score constants. Exact beats prefix beats substring beats subsequence;
// substring decays with its offset down to a floor.
const (
	scoreExact          = 100
	scorePrefix         = 80
	scoreSubstringBase  = 60
	scoreSubstringFloor = 30
	scoreSubsequence    = 20
)

// Matches reports whether query fuzzy-matches text. Matching is
// case-insensitive; an empty query matches everything. A contiguous
// substring always matches, otherwise the query characters must appear
// in order as a subsequence of text.
func Matches(query, text string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	t := strings.ToLower(text)
	if strings.Contains(t, q) {
		return true
	}
	return subsequence(q, t)
}

// subsequence scans text left-to-right, greedily consuming the next
// unmatched query rune on equality.
func subsequence(q, t string) bool {
	qr := []rune(q)
	i := 0
	for _, ch := range t {
		if i < len(qr) && qr[i] == ch {
			i++
			if i == len(qr) {
				return true
			}
		}
	}
	return false
}

// Score ranks how well query matches text. Higher is better. The value
// is used only for ordering; acceptance is decided by Matches.
func Score(query, text string) int {
	if query == "" {
		return 0
	}
	q := strings.ToLower(query)
	t := strings.ToLower(text)

	if t == q {
		return scoreExact
	}
	if strings.HasPrefix(t, q) {
		return scorePrefix
	}
	if idx := strings.Index(t, q); idx >= 0 {
		score := scoreSubstringBase - idx
		if score < scoreSubstringFloor {
			score = scoreSubstringFloor
		}
		return score
	}
	return scoreSubsequence
}
