package jeopardy

import (
	"math/rand"
	"time"
)

// aiProfiles maps each CPU difficulty to {buzzSpeed, accuracy, skipChance}
// (spec §4.4 "AI opponents", §6 fixed table).
var aiProfiles = map[string][3]float64{
	"easy":   {0.3, 0.5, 0.35},
	"medium": {0.5, 0.7, 0.15},
	"hard":   {0.8, 0.9, 0.05},
}

func aiProfile(difficulty string) (buzzSpeed, accuracy, skipChance float64) {
	p, ok := aiProfiles[difficulty]
	if !ok {
		p = aiProfiles["medium"]
	}
	return p[0], p[1], p[2]
}

func aiTimerName(socketID string) string { return "ai:" + socketID }

// scheduleAIClueSelection lets a CPU controller pick the next clue
// after a short pause, uniformly among unused slots.
func (r *Room) scheduleAIClueSelection() {
	r.mu.RLock()
	player, ok := r.Players[r.Controlling]
	isAI := ok && player.IsAI
	socketID := r.Controlling
	var choices []ClueRef
	if isAI {
		board := r.currentBoard()
		for catIdx := range board.Categories {
			for row := 1; row <= 5; row++ {
				ref := ClueRef{Category: catIdx, Row: row}
				if !r.UsedClues[ref] {
					choices = append(choices, ref)
				}
			}
		}
	}
	r.mu.RUnlock()
	if !isAI || len(choices) == 0 {
		return
	}

	r.sched.Arm(aiTimerName(socketID), 1500*time.Millisecond, func(epoch uint64) {
		if !r.sched.IsCurrent(aiTimerName(socketID), epoch) {
			return
		}
		ref := choices[rand.Intn(len(choices))]
		r.SelectClue(socketID, ref.Category, ref.Row)
	})
}

// scheduleAIDailyDoubleWager lets a CPU controller submit a wager
// scaled by its accuracy, a cautious player stakes less of its score.
func (r *Room) scheduleAIDailyDoubleWager() {
	r.mu.RLock()
	socketID := r.AnsweringPlayer
	player, ok := r.Players[socketID]
	isAI := ok && player.IsAI
	var score int
	var roundMin int
	var accuracy float64
	if isAI {
		score = player.Score
		roundMin = roundMinJeopardy
		if r.CurrentRound == RoundDouble {
			roundMin = roundMinDouble
		}
		_, accuracy, _ = aiProfile(player.AIDifficulty)
	}
	r.mu.RUnlock()
	if !isAI {
		return
	}

	r.sched.Arm(aiTimerName(socketID), 1500*time.Millisecond, func(epoch uint64) {
		if !r.sched.IsCurrent(aiTimerName(socketID), epoch) {
			return
		}
		upper := max(roundMin, score)
		wager := int(float64(upper) * accuracy * (0.6 + rand.Float64()*0.4))
		r.DailyDoubleWager(socketID, wager)
	})
}

// scheduleAIBuzzes rolls every un-buzzed CPU's reaction independently;
// the fastest buzz wins and the rest are cancelled atomically via the
// shared "ai:" timer prefix.
func (r *Room) scheduleAIBuzzes() {
	r.mu.RLock()
	type candidate struct {
		socketID   string
		buzzSpeed  float64
		skipChance float64
	}
	var candidates []candidate
	for sid, p := range r.Players {
		if !p.IsAI || r.BuzzedPlayers[sid] {
			continue
		}
		buzzSpeed, _, skipChance := aiProfile(p.AIDifficulty)
		candidates = append(candidates, candidate{sid, buzzSpeed, skipChance})
	}
	r.mu.RUnlock()

	for _, c := range candidates {
		if rand.Float64() < c.skipChance {
			continue
		}
		delaySeconds := max(1.0, 2.0-1.5*c.buzzSpeed) + rand.Float64()*2.0
		delay := time.Duration(delaySeconds * float64(time.Second))
		socketID := c.socketID
		r.sched.Arm(aiTimerName(socketID), delay, func(epoch uint64) {
			if !r.sched.IsCurrent(aiTimerName(socketID), epoch) {
				return
			}
			r.BuzzIn(socketID)
		})
	}
}

// scheduleAIAnswer lets a CPU that buzzed in answer after a short
// pause, correct with probability equal to its accuracy.
func (r *Room) scheduleAIAnswer(socketID string) {
	r.mu.RLock()
	player, ok := r.Players[socketID]
	isAI := ok && player.IsAI
	var clue string
	var accuracy float64
	if isAI {
		_, accuracy, _ = aiProfile(player.AIDifficulty)
		clue = r.currentClueLocked().Answer
	}
	r.mu.RUnlock()
	if !isAI {
		return
	}

	r.sched.Arm(aiTimerName(socketID), 1500*time.Millisecond, func(epoch uint64) {
		if !r.sched.IsCurrent(aiTimerName(socketID), epoch) {
			return
		}
		answer := ""
		if rand.Float64() < accuracy {
			answer = clue
		}
		r.SubmitAnswer(socketID, answer)
	})
}

// scheduleAIFinalWagers lets every CPU player submit a Final Jeopardy
// wager, more confident CPUs risk a larger share of their score.
func (r *Room) scheduleAIFinalWagers() {
	r.mu.RLock()
	type candidate struct {
		socketID string
		score    int
		accuracy float64
	}
	var candidates []candidate
	for sid, p := range r.Players {
		if !p.IsAI {
			continue
		}
		_, accuracy, _ := aiProfile(p.AIDifficulty)
		candidates = append(candidates, candidate{sid, p.Score, accuracy})
	}
	r.mu.RUnlock()

	for _, c := range candidates {
		socketID, score, accuracy := c.socketID, c.score, c.accuracy
		r.sched.Arm(aiTimerName(socketID), 1500*time.Millisecond, func(epoch uint64) {
			if !r.sched.IsCurrent(aiTimerName(socketID), epoch) {
				return
			}
			wager := int(float64(max(0, score)) * accuracy * (0.4 + rand.Float64()*0.4))
			r.FinalWager(socketID, wager)
		})
	}
}

// scheduleAIFinalAnswers lets every CPU player submit its Final
// Jeopardy answer, correct with probability equal to its accuracy.
func (r *Room) scheduleAIFinalAnswers() {
	r.mu.RLock()
	type candidate struct {
		socketID string
		accuracy float64
	}
	var candidates []candidate
	var correctAnswer string
	if r.game.FJ != nil {
		correctAnswer = r.game.FJ.Answer
	}
	for sid, p := range r.Players {
		if !p.IsAI {
			continue
		}
		_, accuracy, _ := aiProfile(p.AIDifficulty)
		candidates = append(candidates, candidate{sid, accuracy})
	}
	r.mu.RUnlock()

	for _, c := range candidates {
		socketID, accuracy := c.socketID, c.accuracy
		r.sched.Arm(aiTimerName(socketID), 1500*time.Millisecond, func(epoch uint64) {
			if !r.sched.IsCurrent(aiTimerName(socketID), epoch) {
				return
			}
			answer := ""
			if rand.Float64() < accuracy {
				answer = correctAnswer
			}
			r.FinalAnswer(socketID, answer)
		})
	}
}
