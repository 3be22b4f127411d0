package crossword

import (
	"context"
	"log"
	"math/rand"

	"github.com/blarphus/crossword/internal/store"
)

const maxHintCells = 5

// HintVote registers socketID's vote for a group hint and applies the
// reveal once every human member has voted (spec §4.2 hint-vote).
func (r *Room) HintVote(socketID string) {
	r.mu.Lock()
	if _, ok := r.memberships[socketID]; !ok {
		r.mu.Unlock()
		return
	}
	r.hint.Votes[socketID] = true
	votes := len(r.hint.Votes)
	total := r.humanCount()
	ready := votes >= total
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "hint-vote-update", map[string]interface{}{"votes": votes, "total": total})

	if ready {
		r.applyHintReveal()
	}
}

// HintAvailable announces that a hint is ready to be voted for. Only
// the first call per "available" session broadcasts (spec §4.2
// hint-available).
func (r *Room) HintAvailable(socketID string) {
	r.mu.Lock()
	if r.hint.Available {
		r.mu.Unlock()
		return
	}
	r.hint.Available = true
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "hint-available", map[string]interface{}{})
}

func (r *Room) applyHintReveal() {
	r.mu.Lock()
	var candidates []store.CellKey
	for row := 0; row < r.puzzle.Rows; row++ {
		for col := 0; col < r.puzzle.Cols; col++ {
			correct, ok := r.puzzle.CorrectAnswer(row, col)
			if !ok {
				continue
			}
			key := store.CellKey{Row: row, Col: col}
			if r.hint.HintCells[key] {
				continue
			}
			if r.sharedGrid[key] == correct {
				continue
			}
			candidates = append(candidates, key)
		}
	}
	fisherYatesShuffleCells(candidates)
	if len(candidates) > maxHintCells {
		candidates = candidates[:maxHintCells]
	}

	date := r.Date
	type revealedCell struct {
		Row, Col int
		Letter   string
	}
	var revealed []revealedCell
	for _, key := range candidates {
		correct, _ := r.puzzle.CorrectAnswer(key.Row, key.Col)
		r.sharedGrid[key] = correct
		r.cellFillers[key] = Filler{Kind: FillerHint}
		r.hint.HintCells[key] = true
		revealed = append(revealed, revealedCell{Row: key.Row, Col: key.Col, Letter: correct})

		row, col, letter := key.Row, key.Col, correct
		go func() {
			ctx := context.Background()
			if err := r.store.UpsertCell(ctx, date, row, col, letter); err != nil {
				log.Printf("crossword: hint upsert cell %s (%d,%d): %v", date, row, col, err)
			}
			if err := r.store.UpsertCellFiller(ctx, date, row, col, "(hint)"); err != nil {
				log.Printf("crossword: hint upsert filler %s (%d,%d): %v", date, row, col, err)
			}
		}()
	}
	r.hint.Votes = map[string]bool{}
	r.hint.Available = false

	completedNow := !r.completed && r.allCellsFilledCorrectly()
	if completedNow {
		r.completed = true
	}
	var evictBots []string
	if completedNow {
		for sid, mem := range r.memberships {
			if mem.IsBot {
				evictBots = append(evictBots, sid)
			}
		}
		if len(evictBots) > 0 {
			r.sched.CancelPrefix("bot:")
		}
	}
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "hint-reveal", map[string]interface{}{
		"cells":     revealed,
		"completed": completedNow,
	})
	for _, sid := range evictBots {
		r.RemoveBot(sid)
	}
	r.scheduleProgress()
}

func fisherYatesShuffleCells(cells []store.CellKey) {
	for i := len(cells) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		cells[i], cells[j] = cells[j], cells[i]
	}
}
