package jeopardy

import (
	"context"
	"log"
	"time"

	"github.com/blarphus/crossword/internal/judge"
	"github.com/blarphus/crossword/internal/store"
)

// SelectClue is the controlling player's board pick.
func (r *Room) SelectClue(socketID string, catIdx, row int) {
	r.mu.Lock()
	if r.Phase != PhaseSelectingClue || socketID != r.Controlling {
		r.mu.Unlock()
		return
	}
	ref := ClueRef{Category: catIdx, Row: row}
	if r.UsedClues[ref] {
		r.mu.Unlock()
		return
	}
	board := r.currentBoard()
	clue, ok := clueAt(board, catIdx, row)
	if !ok {
		r.mu.Unlock()
		return
	}
	r.UsedClues[ref] = true
	r.CurrentClue = &ref

	if clue.DailyDouble {
		r.Phase = PhaseDailyDoubleWager
		r.AnsweringPlayer = r.Controlling
		snapshot := r.stateSnapshotLocked()
		r.mu.Unlock()

		r.transport.EmitToRoom(r.RoomName(), "daily-double", map[string]interface{}{"category": clue.Category, "row": row})
		r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseDailyDoubleWager})
		r.transport.EmitToRoom(r.RoomName(), "room-state", snapshot)
		r.scheduleAIDailyDoubleWager()
		return
	}

	r.Phase = PhaseReadingClue
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "clue-selected", map[string]interface{}{
		"category": clue.Category, "row": row, "value": clue.Value, "clue": clue.Clue,
	})
	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseReadingClue})

	r.sched.Arm("phase", 3*time.Second, func(epoch uint64) {
		r.mu.Lock()
		if !r.sched.IsCurrent("phase", epoch) || r.Phase != PhaseReadingClue {
			r.mu.Unlock()
			return
		}
		r.Phase = PhaseBuzzerOpen
		r.BuzzedPlayers = map[string]bool{}
		r.mu.Unlock()

		r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseBuzzerOpen})
		r.armBuzzerWindow()
		r.scheduleAIBuzzes()
	})
}

// armBuzzerWindow opens a 5s buzz-in window; if nobody buzzes in
// time, the answer is always revealed.
func (r *Room) armBuzzerWindow() {
	r.sched.Arm("buzzer", 5*time.Second, func(epoch uint64) {
		r.mu.Lock()
		if !r.sched.IsCurrent("buzzer", epoch) || r.Phase != PhaseBuzzerOpen {
			r.mu.Unlock()
			return
		}
		r.sched.CancelPrefix("ai:")
		r.Phase = PhaseShowingResult
		clue := r.currentClueLocked()
		r.mu.Unlock()

		r.transport.EmitToRoom(r.RoomName(), "buzzer-expired", map[string]interface{}{})
		r.transport.EmitToRoom(r.RoomName(), "answer-result", map[string]interface{}{
			"correct": false, "answer": clue.Answer, "timeout": true,
		})
		r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseShowingResult})

		r.sched.Arm("phase", 3*time.Second, func(epoch2 uint64) {
			if !r.sched.IsCurrent("phase", epoch2) {
				return
			}
			r.advanceAfterResult()
		})
	})
}

// BuzzIn seats the first buzzer as the answering player.
func (r *Room) BuzzIn(socketID string) {
	r.mu.Lock()
	if r.Phase != PhaseBuzzerOpen {
		r.mu.Unlock()
		return
	}
	if _, ok := r.Players[socketID]; !ok || r.BuzzedPlayers[socketID] {
		r.mu.Unlock()
		return
	}
	r.sched.Cancel("buzzer")
	r.sched.CancelPrefix("ai:")
	r.Phase = PhasePlayerAnswering
	r.AnsweringPlayer = socketID
	r.BuzzedPlayers[socketID] = true
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "buzzer-result", map[string]interface{}{"socketId": socketID})
	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhasePlayerAnswering})

	r.sched.Arm("answer", 10*time.Second, func(epoch uint64) {
		r.mu.Lock()
		if !r.sched.IsCurrent("answer", epoch) || r.Phase != PhasePlayerAnswering {
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
		r.SubmitAnswer(socketID, "")
	})

	r.scheduleAIAnswer(socketID)
}

// SubmitAnswer judges the answering player's answer and applies
// scoring.
func (r *Room) SubmitAnswer(socketID, answerText string) {
	r.mu.Lock()
	if socketID != r.AnsweringPlayer {
		r.mu.Unlock()
		return
	}
	if r.Phase != PhasePlayerAnswering && r.Phase != PhaseDailyDoubleAnswer {
		r.mu.Unlock()
		return
	}
	r.sched.Cancel("answer")

	isDaily := r.Phase == PhaseDailyDoubleAnswer
	clue := r.currentClueLocked()
	result := judge.Check(answerText, clue.Answer)

	delta := clue.Value
	if isDaily {
		delta = r.DDWagerAmount
	}
	if !result.Correct {
		delta = -delta
	}
	if player := r.Players[socketID]; player != nil {
		player.Score += delta
	}

	var othersRemain bool
	if !isDaily {
		for sid := range r.Players {
			if !r.BuzzedPlayers[sid] {
				othersRemain = true
				break
			}
		}
	}
	if result.Correct {
		r.Controlling = socketID
	}
	r.Phase = PhaseShowingResult
	scores := r.scoresLocked()
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "answer-result", map[string]interface{}{
		"socketId": socketID, "correct": result.Correct, "scoreChange": delta,
		"answer": clue.Answer, "similarity": result.Similarity,
	})
	r.transport.EmitToRoom(r.RoomName(), "scores-update", scores)
	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseShowingResult})

	if !result.Correct && othersRemain && !isDaily {
		r.sched.Arm("phase", 1500*time.Millisecond, func(epoch uint64) {
			if !r.sched.IsCurrent("phase", epoch) {
				return
			}
			r.rebuzz()
		})
		return
	}

	delay := 3 * time.Second
	if result.Correct {
		delay = 2500 * time.Millisecond
	}
	r.sched.Arm("phase", delay, func(epoch uint64) {
		if !r.sched.IsCurrent("phase", epoch) {
			return
		}
		r.advanceAfterResult()
	})
}

// DailyDoubleWager accepts the controller's private wager, clamped
// per spec §4.4 ("Daily double scoring").
func (r *Room) DailyDoubleWager(socketID string, wager int) {
	r.mu.Lock()
	if socketID != r.AnsweringPlayer || r.Phase != PhaseDailyDoubleWager {
		r.mu.Unlock()
		return
	}
	player := r.Players[socketID]
	if player == nil {
		r.mu.Unlock()
		return
	}
	roundMin := roundMinJeopardy
	if r.CurrentRound == RoundDouble {
		roundMin = roundMinDouble
	}
	lower := 5
	if player.Score < 0 {
		lower = roundMin
	}
	upper := max(roundMin, player.Score)

	r.DDWagerAmount = max(lower, min(wager, upper))
	r.Phase = PhaseDailyDoubleAnswer
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseDailyDoubleAnswer})
	r.sched.Arm("answer", 10*time.Second, func(epoch uint64) {
		r.mu.Lock()
		if !r.sched.IsCurrent("answer", epoch) || r.Phase != PhaseDailyDoubleAnswer {
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
		r.SubmitAnswer(socketID, "")
	})
}

func (r *Room) rebuzz() {
	r.mu.Lock()
	r.Phase = PhaseBuzzerOpen
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseBuzzerOpen})
	r.armBuzzerWindow()
	r.scheduleAIBuzzes()
}

// advanceAfterResult moves from showingResult back to clue selection,
// or switches rounds/enters Final Jeopardy once every slot is used
//.
func (r *Room) advanceAfterResult() {
	r.mu.Lock()
	r.CurrentClue = nil
	r.BuzzedPlayers = map[string]bool{}
	r.AnsweringPlayer = ""

	allUsed := r.allCluesUsedLocked()
	cluesAnswered := len(r.UsedClues)
	totalClues := r.totalCluesLocked()
	round := string(r.CurrentRound)
	gameID := r.game.GameID

	var nextPhase Phase
	var nextRound RoundName
	switchedRound := false

	if allUsed {
		switch r.CurrentRound {
		case RoundJeopardy:
			nextRound = RoundDouble
			r.CurrentRound = RoundDouble
			r.seedUsedCluesLocked()
			nextPhase = PhaseSelectingClue
			switchedRound = true
		default:
			nextRound = RoundFinal
			r.CurrentRound = RoundFinal
			nextPhase = PhaseFinalCategory
			switchedRound = true
		}
	} else {
		nextPhase = PhaseSelectingClue
	}
	r.Phase = nextPhase
	r.mu.Unlock()

	go func() {
		if err := r.store.SaveJeopardyProgress(context.Background(), gameID, cluesAnswered, totalClues, round, false); err != nil {
			log.Printf("jeopardy: save progress %s: %v", gameID, err)
		}
	}()

	if switchedRound {
		r.transport.EmitToRoom(r.RoomName(), "round-change", map[string]interface{}{"round": nextRound})
	}
	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": nextPhase})

	if nextPhase == PhaseFinalCategory {
		r.enterFinalCategory()
		return
	}
	r.scheduleAIClueSelection()
}

func (r *Room) seedUsedCluesLocked() {
	r.UsedClues = make(map[ClueRef]bool)
	board := r.currentBoard()
	for catIdx := range board.Categories {
		for row := 1; row <= 5; row++ {
			if _, ok := clueAt(board, catIdx, row); !ok {
				r.UsedClues[ClueRef{Category: catIdx, Row: row}] = true
			}
		}
	}
}

func (r *Room) allCluesUsedLocked() bool {
	board := r.currentBoard()
	for catIdx := range board.Categories {
		for row := 1; row <= 5; row++ {
			if !r.UsedClues[ClueRef{Category: catIdx, Row: row}] {
				return false
			}
		}
	}
	return true
}

func (r *Room) totalCluesLocked() int {
	return len(r.currentBoard().Clues)
}

func (r *Room) currentClueLocked() *store.JClue {
	if r.CurrentClue == nil {
		return &store.JClue{}
	}
	clue, ok := clueAt(r.currentBoard(), r.CurrentClue.Category, r.CurrentClue.Row)
	if !ok {
		return &store.JClue{}
	}
	return clue
}

func (r *Room) scoresLocked() map[string]int {
	out := make(map[string]int, len(r.Players))
	for sid, p := range r.Players {
		out[sid] = p.Score
	}
	return out
}
