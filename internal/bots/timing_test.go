package bots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateThinkTimesSumsToQuarterOfTotal(t *testing.T) {
	total := 100000.0
	times := generateThinkTimes(12, total)
	sum := 0.0
	for _, v := range times {
		sum += v
		assert.GreaterOrEqual(t, v, minIntervalMs)
	}
	assert.InDelta(t, total*0.25, sum, total*0.25*0.5+12*minIntervalMs)
}

func TestGenerateCellTimesSumsToThreeQuartersOfTotal(t *testing.T) {
	total := 200000.0
	times := generateCellTimes(80, total)
	assert.Len(t, times, 80)
	sum := 0.0
	for _, v := range times {
		sum += v
		assert.GreaterOrEqual(t, v, minIntervalMs)
	}
	assert.InDelta(t, total*0.75, sum, total*0.75*0.5+80*minIntervalMs)
}

func TestTargetSolveMsUsesBaseTimeTable(t *testing.T) {
	// 2026-02-02 is a Monday.
	ms, err := targetSolveMs("2026-02-02", Easy)
	assert.NoError(t, err)
	lo := baseTimeTable[1][Easy] * multiplierRange[Easy][0] * 1000
	hi := baseTimeTable[1][Easy] * multiplierRange[Easy][1] * 1000
	assert.GreaterOrEqual(t, ms, lo)
	assert.LessOrEqual(t, ms, hi)
}

func TestFisherYatesIntsIsAPermutation(t *testing.T) {
	perm := fisherYatesInts(20)
	seen := make(map[int]bool)
	for _, v := range perm {
		seen[v] = true
	}
	assert.Len(t, seen, 20)
}

func TestParseDifficultyDefaultsToStd(t *testing.T) {
	assert.Equal(t, Std, ParseDifficulty("unknown"))
	assert.Equal(t, Expert, ParseDifficulty("expert"))
}
