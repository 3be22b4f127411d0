package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExactMatch(t *testing.T) {
	for _, x := range []string{"Paris", "the great gatsby", "42"} {
		r := Check(x, x)
		assert.True(t, r.Correct)
		assert.Equal(t, 1.0, r.Similarity)
	}
}

func TestEmptyCandidateAlwaysWrong(t *testing.T) {
	for _, y := range []string{"", "answer", "Gatsby"} {
		r := Check("", y)
		assert.False(t, r.Correct)
		assert.Equal(t, 0.0, r.Similarity)
	}
	r := Check("   ", "answer")
	assert.False(t, r.Correct)
}

func TestKeywordMatch(t *testing.T) {
	r := Check("the great gatsby", "Gatsby")
	assert.True(t, r.Correct)
	assert.InDelta(t, 0.8, r.Similarity, 1e-9)
}

func TestEditDistanceMatch(t *testing.T) {
	r := Check("Einstien", "Einstein")
	assert.True(t, r.Correct)
	assert.GreaterOrEqual(t, r.Similarity, 0.8)
}

func TestWrongAnswerIsWrong(t *testing.T) {
	r := Check("banana", "Einstein")
	assert.False(t, r.Correct)
}

func TestLevenshteinSymmetricAndBounded(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"", "abc"},
		{"flaw", "lawn"},
		{"same", "same"},
	}
	for _, p := range pairs {
		d1 := Levenshtein(p[0], p[1])
		d2 := Levenshtein(p[1], p[0])
		assert.Equal(t, d1, d2)

		maxLen := len(p[0])
		if len(p[1]) > maxLen {
			maxLen = len(p[1])
		}
		assert.LessOrEqual(t, d1, maxLen)
	}
}

func TestLevenshteinIdentical(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("same", "same"))
}
