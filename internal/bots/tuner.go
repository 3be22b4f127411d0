package bots

import "math/rand"

// TunedParams is one (wanderChance, wanderTime) candidate and its
// simulated expected total.
type TunedParams struct {
	WanderChance float64
	WanderTimeMs float64
	ExpectedMs   float64
}

// Tune sweeps wanderChance and wanderTime and returns the pair whose
// simulated expected total most closely matches targetMs, for a given
// (dayOfWeek, difficulty) pair . It is offline tooling: nothing at runtime calls it, and its
// output is meant to be baked into wanderChanceTable by hand, not
// consulted live.
func Tune(targetMs float64, cellTotal float64, trials int) TunedParams {
	best := TunedParams{ExpectedMs: -1}

	for wc := 0.10; wc <= 0.85; wc += 0.05 {
		for wt := 800.0; wt <= 8000; wt += 200 {
			expected := simulateExpected(cellTotal, wc, wt, trials)
			diff := expected - targetMs
			if diff < 0 {
				diff = -diff
			}
			bestDiff := best.ExpectedMs - targetMs
			if bestDiff < 0 {
				bestDiff = -bestDiff
			}
			if best.ExpectedMs < 0 || diff < bestDiff {
				best = TunedParams{WanderChance: wc, WanderTimeMs: wt, ExpectedMs: expected}
			}
		}
	}
	return best
}

// simulateExpected runs N trials of cellTotal + numHits*wanderTime,
// where numHits is a per-trial count of geometric wander hops gated by
// wanderChance, and averages the totals.
func simulateExpected(cellTotal, wanderChance, wanderTimeMs float64, trials int) float64 {
	sum := 0.0
	for i := 0; i < trials; i++ {
		hits := 0
		for attempt := 0; attempt < maxWanderHops; attempt++ {
			if rand.Float64() < wanderChance {
				hits++
			} else {
				break
			}
		}
		sum += cellTotal + float64(hits)*wanderTimeMs
	}
	return sum / float64(trials)
}
