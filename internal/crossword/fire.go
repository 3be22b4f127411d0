package crossword

import (
	"fmt"
	"math"
	"time"

	"github.com/blarphus/crossword/internal/store"
)

const (
	fireWindow        = 30 * time.Second
	fireIgnitionCount = 3
	fireExtendBy      = 5 * time.Second
)

// clearFireLocked resets a membership's streak state and cancels its
// armed expiry timer. Caller holds r.mu.
func (r *Room) clearFireLocked(m *Membership) {
	r.sched.Cancel(r.fireTimerName(m.SocketID))
	m.Fire = FireStreak{}
}

func (r *Room) fireTimerName(socketID string) string {
	return fmt.Sprintf("fire:%s", socketID)
}

// armFireExpiryLocked (re-)arms the expiry timer matching m.Fire.ExpiresAt.
// Caller holds r.mu.
func (r *Room) armFireExpiryLocked(m *Membership) {
	socketID := m.SocketID
	d := time.Until(m.Fire.ExpiresAt)
	if d < 0 {
		d = 0
	}
	r.sched.Arm(r.fireTimerName(socketID), d, func(epoch uint64) {
		r.mu.Lock()
		if !r.sched.IsCurrent(r.fireTimerName(socketID), epoch) {
			r.mu.Unlock()
			return
		}
		mem, ok := r.memberships[socketID]
		if !ok || !mem.Fire.OnFire {
			r.mu.Unlock()
			return
		}
		mem.Fire = FireStreak{}
		r.mu.Unlock()

		r.transport.EmitToRoom(r.RoomName(), "fire-expired", map[string]interface{}{"socketId": socketID})
	})
}

// allUserFilledCellsLocked returns every cell the named user currently
// has credit for in cellFillers, matching the spec's "all cells the
// user has ever filled (from filler map)" fireCells rule.
func (r *Room) allUserFilledCellsLocked(userName string) map[store.CellKey]bool {
	out := make(map[store.CellKey]bool)
	for k, f := range r.cellFillers {
		if f.Kind == FillerHuman && f.Name == userName {
			out[k] = true
		}
	}
	return out
}

// countWordCompletionsLocked returns how many across/down clues
// through key are fully solved right now (0, 1, or 2: a cell can
// complete both its across and down word simultaneously), and the
// union of their cells.
func (r *Room) countWordCompletionsLocked(key store.CellKey) (int, []store.CellKey) {
	count := 0
	var cells []store.CellKey
	for _, c := range r.cluesContaining(key) {
		if r.wordSolved(c) {
			count++
			cells = append(cells, c.Cells...)
		}
	}
	return count, cells
}

// pruneRecent drops fire-window entries older than 30s and
// returns the surviving sum of word counts.
func pruneRecent(recent []WordCompletion, now time.Time) ([]WordCompletion, int) {
	var kept []WordCompletion
	sum := 0
	for _, wc := range recent {
		if now.Sub(wc.At) <= fireWindow {
			kept = append(kept, wc)
			sum += wc.Count
		}
	}
	return kept, sum
}

func fireMultiplierFor(wordsCompletedOnFire int) float64 {
	return 1.5 + 0.5*math.Floor(float64(wordsCompletedOnFire)/3)
}
