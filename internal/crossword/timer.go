package crossword

import (
	"context"
	"log"
	"time"

	"github.com/blarphus/crossword/internal/store"
)

const progressDebounce = 200 * time.Millisecond

// PausePuzzle adds socketID to the pause set; if every human member
// is now paused, the solve timer is stopped and persisted (spec §4.2
// pause-puzzle).
func (r *Room) PausePuzzle(socketID string) {
	r.mu.Lock()
	if _, ok := r.memberships[socketID]; !ok {
		r.mu.Unlock()
		return
	}
	r.paused[socketID] = true
	if r.allHumansPausedLocked() {
		r.stopAndPersistTimerLocked()
		sync := r.timerSyncLocked()
		r.mu.Unlock()
		r.transport.EmitToRoom(r.RoomName(), "timer-sync", sync)
		return
	}
	r.mu.Unlock()
}

// ResumePuzzle removes socketID from the pause set; the first resume
// out of a full pause re-arms the timer (spec §4.2 resume-puzzle).
func (r *Room) ResumePuzzle(socketID string) {
	r.mu.Lock()
	if _, ok := r.memberships[socketID]; !ok {
		r.mu.Unlock()
		return
	}
	wasFullyPaused := r.allHumansPausedLocked()
	delete(r.paused, socketID)
	if wasFullyPaused && !r.allHumansPausedLocked() {
		r.startTimer()
		sync := r.timerSyncLocked()
		r.mu.Unlock()
		r.transport.EmitToRoom(r.RoomName(), "timer-sync", sync)
		return
	}
	r.mu.Unlock()
}

// ClearPuzzle evicts bots, wipes persisted solve state, and resets
// the timer (spec §4.2 clear-puzzle).
func (r *Room) ClearPuzzle(socketID string) {
	r.mu.Lock()
	if _, ok := r.memberships[socketID]; !ok {
		r.mu.Unlock()
		return
	}

	var evictBots []string
	for sid, m := range r.memberships {
		if m.IsBot {
			evictBots = append(evictBots, sid)
		}
	}
	if len(evictBots) > 0 {
		r.sched.CancelPrefix("bot:")
	}

	r.sharedGrid = make(map[store.CellKey]string)
	r.cellFillers = make(map[store.CellKey]Filler)
	r.points = make(map[string]int)
	r.guesses = make(map[string]store.GuessStat)
	r.hint = HintState{Votes: map[string]bool{}, HintCells: map[store.CellKey]bool{}}
	r.completed = false
	r.timerAccumulated = 0
	r.timerStartedAt = nil
	if r.humanCount() > 0 {
		r.startTimer()
	}
	date := r.Date
	sync := r.timerSyncLocked()
	r.mu.Unlock()

	go func() {
		if err := r.store.ClearState(context.Background(), date); err != nil {
			log.Printf("crossword: clear state %s: %v", date, err)
		}
	}()

	for _, sid := range evictBots {
		r.RemoveBot(sid)
	}
	r.transport.EmitToRoom(r.RoomName(), "timer-sync", sync)
	r.transport.EmitToRoom(r.RoomName(), "puzzle-cleared", map[string]interface{}{})
	r.scheduleProgress()
}

// scheduleProgress debounces a summarized puzzle-progress emission to
// the global calendar listener set.
func (r *Room) scheduleProgress() {
	r.sched.Arm("progress", progressDebounce, func(epoch uint64) {
		r.mu.RLock()
		if !r.sched.IsCurrent("progress", epoch) {
			r.mu.RUnlock()
			return
		}
		filled, total := 0, 0
		for row := 0; row < r.puzzle.Rows; row++ {
			for col := 0; col < r.puzzle.Cols; col++ {
				correct, ok := r.puzzle.CorrectAnswer(row, col)
				if !ok {
					continue
				}
				total++
				if r.sharedGrid[(store.CellKey{Row: row, Col: col})] == correct {
					filled++
				}
			}
		}
		date := r.Date
		r.mu.RUnlock()

		r.transport.EmitToRoom("calendar", "puzzle-progress", map[string]interface{}{
			"date":   date,
			"filled": filled,
			"total":  total,
		})
	})
}
