package bots

import "math/rand"

const minIntervalMs = 40.0

// targetSolveMs computes the bot's individual target solve duration
// in milliseconds.
func targetSolveMs(date string, diff Difficulty) (float64, error) {
	dow, err := dayOfWeek(date)
	if err != nil {
		return 0, err
	}
	base := baseTimeTable[dow][diff]
	lo, hi := multiplierRange[diff][0], multiplierRange[diff][1]
	mult := lo + rand.Float64()*(hi-lo)
	return base * mult * 1000, nil
}

// generateThinkTimes builds n per-word think-pause durations summing
// to 25% of totalMs.
func generateThinkTimes(n int, totalMs float64) []float64 {
	raw := make([]float64, n)
	for i := range raw {
		roll := rand.Float64()
		switch {
		case roll < 0.25:
			raw[i] = (3 + rand.Float64()*7) * 1000
		case roll < 0.55:
			raw[i] = (0.8 + rand.Float64()*2.2) * 1000
		default:
			raw[i] = (0.1 + rand.Float64()*0.7) * 1000
		}
	}
	return normalizeFloor(raw, totalMs*0.25)
}

// generateCellTimes builds n per-cell fill durations, in streaks of
// 2-8 cells at one of three speed classes, summing to 75% of totalMs
//.
func generateCellTimes(n int, totalMs float64) []float64 {
	raw := make([]float64, 0, n)
	for len(raw) < n {
		streak := 2 + rand.Intn(7)
		if streak > n-len(raw) {
			streak = n - len(raw)
		}
		var lo, hi float64
		roll := rand.Float64()
		switch {
		case roll < 1.0/3:
			lo, hi = 0.2, 0.6
		case roll < 2.0/3:
			lo, hi = 0.5, 1.5
		default:
			lo, hi = 1.5, 4.0
		}
		for i := 0; i < streak; i++ {
			base := lo + rand.Float64()*(hi-lo)
			jitter := 0.6 + rand.Float64()*0.8
			raw = append(raw, base*jitter*1000)
		}
	}
	return normalizeFloor(raw, totalMs*0.75)
}

// normalizeFloor rescales raw so its entries sum to target, flooring
// every entry at minIntervalMs.
func normalizeFloor(raw []float64, target float64) []float64 {
	sum := 0.0
	for _, v := range raw {
		sum += v
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		scaled := v
		if sum > 0 {
			scaled = v / sum * target
		}
		if scaled < minIntervalMs {
			scaled = minIntervalMs
		}
		out[i] = scaled
	}
	return out
}

// fisherYatesInts shuffles a 0..n-1 index permutation in place.
func fisherYatesInts(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}
