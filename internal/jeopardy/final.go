package jeopardy

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/blarphus/crossword/internal/judge"
	"github.com/blarphus/crossword/internal/store"
)

// enterFinalCategory starts the final round.
func (r *Room) enterFinalCategory() {
	r.mu.Lock()
	r.Final = FinalState{Wagers: map[string]int{}, Answers: map[string]string{}}
	fj := r.game.FJ
	r.mu.Unlock()

	if fj == nil {
		r.finishGame()
		return
	}

	r.transport.EmitToRoom(r.RoomName(), "final-category", map[string]interface{}{"category": fj.Category})

	r.sched.Arm("phase", 5*time.Second, func(epoch uint64) {
		if !r.sched.IsCurrent("phase", epoch) {
			return
		}
		r.mu.Lock()
		r.Phase = PhaseFinalWager
		r.mu.Unlock()

		r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseFinalWager})
		r.scheduleAIFinalWagers()
	})
}

// FinalWager records a player's private Final Jeopardy wager, clamped
// to [0, max(0, score)].
func (r *Room) FinalWager(socketID string, wager int) {
	r.mu.Lock()
	if r.Phase != PhaseFinalWager {
		r.mu.Unlock()
		return
	}
	player, ok := r.Players[socketID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, already := r.Final.Wagers[socketID]; already {
		r.mu.Unlock()
		return
	}
	r.Final.Wagers[socketID] = max(0, min(wager, max(0, player.Score)))
	allIn := len(r.Final.Wagers) == len(r.Players)
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "final-wager-submitted", map[string]interface{}{"socketId": socketID})
	if allIn {
		r.sched.Cancel("phase")
		r.enterFinalClue()
	}
}

func (r *Room) enterFinalClue() {
	r.mu.Lock()
	r.Phase = PhaseFinalClue
	fj := r.game.FJ
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseFinalClue})
	r.transport.EmitToRoom(r.RoomName(), "final-clue", map[string]interface{}{"clue": fj.Clue})

	r.sched.Arm("phase", 30*time.Second, func(epoch uint64) {
		if !r.sched.IsCurrent("phase", epoch) {
			return
		}
		r.enterFinalResults()
	})

	r.scheduleAIFinalAnswers()
}

// FinalAnswer records a player's Final Jeopardy answer (spec §4.4
// "finalClue (all in or timeout) -> finalResults").
func (r *Room) FinalAnswer(socketID, answerText string) {
	r.mu.Lock()
	if r.Phase != PhaseFinalClue {
		r.mu.Unlock()
		return
	}
	if _, ok := r.Players[socketID]; !ok {
		r.mu.Unlock()
		return
	}
	if _, already := r.Final.Answers[socketID]; already {
		r.mu.Unlock()
		return
	}
	r.Final.Answers[socketID] = answerText
	allIn := len(r.Final.Answers) == len(r.Players)
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "final-answer-submitted", map[string]interface{}{"socketId": socketID})
	if allIn {
		r.sched.Cancel("phase")
		r.enterFinalResults()
	}
}

// enterFinalResults reveals players in ascending score order, 3s
// apart (spec §4.4 and example scenario in §8).
func (r *Room) enterFinalResults() {
	r.mu.Lock()
	if r.Phase == PhaseFinalResults {
		r.mu.Unlock()
		return
	}
	r.Phase = PhaseFinalResults

	type scored struct {
		sid   string
		score int
	}
	list := make([]scored, 0, len(r.Players))
	for sid, p := range r.Players {
		list = append(list, scored{sid, p.Score})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].score < list[j].score })
	order := make([]string, len(list))
	for i, s := range list {
		order[i] = s.sid
	}
	r.Final.Order = order
	r.Final.RevealIdx = 0
	fj := r.game.FJ
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseFinalResults})

	r.sched.Arm("phase", 3*time.Second, func(epoch uint64) {
		if !r.sched.IsCurrent("phase", epoch) {
			return
		}
		r.revealNextFinal(fj)
	})
}

func (r *Room) revealNextFinal(fj *store.FinalClue) {
	r.mu.Lock()
	if r.Final.RevealIdx >= len(r.Final.Order) {
		r.mu.Unlock()
		r.sched.Arm("phase", 3*time.Second, func(epoch uint64) {
			if !r.sched.IsCurrent("phase", epoch) {
				return
			}
			r.finishGame()
		})
		return
	}
	sid := r.Final.Order[r.Final.RevealIdx]
	r.Final.RevealIdx++
	player := r.Players[sid]
	wager := r.Final.Wagers[sid]
	answerText := r.Final.Answers[sid]

	var result judge.Result
	if fj != nil {
		result = judge.Check(answerText, fj.Answer)
	}
	delta := wager
	if !result.Correct {
		delta = -delta
	}
	if player != nil {
		player.Score += delta
	}
	more := r.Final.RevealIdx < len(r.Final.Order)
	scores := r.scoresLocked()
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "final-jeopardy-reveal", map[string]interface{}{
		"socketId": sid, "answer": answerText, "correct": result.Correct, "wager": wager, "scoreChange": delta,
	})
	r.transport.EmitToRoom(r.RoomName(), "scores-update", scores)

	if more {
		r.sched.Arm("phase", 3*time.Second, func(epoch uint64) {
			if !r.sched.IsCurrent("phase", epoch) {
				return
			}
			r.revealNextFinal(fj)
		})
		return
	}
	r.sched.Arm("phase", 3*time.Second, func(epoch uint64) {
		if !r.sched.IsCurrent("phase", epoch) {
			return
		}
		r.finishGame()
	})
}

// finishGame transitions to gameOver and schedules room eviction 5
// minutes later.
func (r *Room) finishGame() {
	r.mu.Lock()
	r.Phase = PhaseGameOver
	gameID := r.game.GameID
	total := r.totalCluesLocked()
	scores := r.scoresLocked()
	r.mu.Unlock()

	go func() {
		if err := r.store.SaveJeopardyProgress(context.Background(), gameID, total, total, string(RoundFinal), true); err != nil {
			log.Printf("jeopardy: save final progress %s: %v", gameID, err)
		}
	}()

	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseGameOver})
	r.transport.EmitToRoom(r.RoomName(), "game-over", map[string]interface{}{"scores": scores})

	r.sched.Arm("gameOverEvict", 5*time.Minute, func(epoch uint64) {
		if !r.sched.IsCurrent("gameOverEvict", epoch) {
			return
		}
		if r.OnEvict != nil {
			r.OnEvict()
		}
	})
}
