// Package judge implements the fuzzy answer equivalence check used by
// the trivia flow: a cascade of exact, keyword, and edit-distance
// comparisons between a submitted answer and a clue's reference
// answer.
package judge

import (
	"math"
	"strings"
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "who": {},
}

// Result is the outcome of comparing a candidate answer to a
// reference answer.
type Result struct {
	Correct    bool
	Similarity float64
}

// Check normalizes both strings and runs the cascade described in
// spec §4.1: exact match, keyword match, whole-string edit distance,
// and finally a best-effort similarity score.
func Check(candidate, reference string) Result {
	cand := normalize(candidate)
	ref := normalize(reference)

	if cand == "" {
		return Result{Correct: false, Similarity: 0}
	}

	if cand == ref {
		return Result{Correct: true, Similarity: 1.0}
	}

	if keywordMatch(cand, ref) {
		return Result{Correct: true, Similarity: 0.8}
	}

	d := Levenshtein(cand, ref)
	tolerance := maxInt(2, int(math.Floor(float64(len(ref))*0.2)))
	if d <= tolerance && len(ref) > 0 {
		return Result{Correct: true, Similarity: 1 - float64(d)/float64(len(ref))}
	}

	denom := maxInt(len(ref), len(cand))
	if denom == 0 {
		return Result{Correct: false, Similarity: 0}
	}
	sim := 1 - float64(d)/float64(denom)
	if sim < 0 {
		sim = 0
	}
	return Result{Correct: false, Similarity: sim}
}

// normalize lowercases, strips everything but letters/digits/spaces,
// collapses runs of whitespace, and trims.
func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		switch {
		case isAlnum(r):
			b.WriteRune(r)
			lastWasSpace = false
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
		default:
			// drop punctuation entirely, but don't let it merge
			// adjacent words without a space, e.g. "co-op" -> "co op"
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func tokenize(s string) []string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= 1 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

func keywordMatch(cand, ref string) bool {
	candWords := tokenize(cand)
	refWords := tokenize(ref)

	for _, cw := range candWords {
		for _, pw := range refWords {
			if cw == pw {
				return true
			}
			if len(cw) > 3 && strings.Contains(pw, cw) {
				return true
			}
			if len(pw) > 3 && strings.Contains(cw, pw) {
				return true
			}
			tolerance := int(math.Floor(float64(len(cw)) * 0.25))
			if Levenshtein(cw, pw) <= tolerance {
				return true
			}
		}
	}
	return false
}

// Levenshtein computes the edit distance between a and b using the
// standard two-row dynamic-programming scheme. Ties between
// insertion/deletion/substitution are broken toward substitution.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			sub := prev[j-1] + 1
			del := prev[j] + 1
			ins := curr[j-1] + 1
			curr[j] = sub
			if del < curr[j] {
				curr[j] = del
			}
			if ins < curr[j] {
				curr[j] = ins
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
