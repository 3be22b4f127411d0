package bots

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/blarphus/crossword/internal/crossword"
	"github.com/blarphus/crossword/internal/scheduler"
	"github.com/blarphus/crossword/internal/store"
)

const maxWanderHops = 4

// queuedWord pairs a clue with the direction it was drawn from, since
// store.Clue itself carries no directionality.
type queuedWord struct {
	clue *store.Clue
	dir  crossword.Direction
}

type botState struct {
	socketID     string
	diff         Difficulty
	queue        []queuedWord
	thinkTimes   []float64
	cellTimes    []float64
	wordIdx      int
	cellPos      int
	pending      []store.CellKey
	pendingIdx   int
	pendingDir   crossword.Direction
	wanderBudget int
}

// Manager owns every synthetic participant in one crossword room. It
// shares the room's scheduler so room shutdown (CancelAll) or a
// puzzle-completion eviction (CancelPrefix("bot:")) tears down every
// bot timer alongside it.
type Manager struct {
	room  *crossword.Room
	sched *scheduler.Scheduler

	mu     sync.Mutex
	bots   map[string]*botState
	nextID int
}

// NewManager creates a bot manager bound to room, sharing sched with
// the room's own timers.
func NewManager(room *crossword.Room, sched *scheduler.Scheduler) *Manager {
	return &Manager{room: room, sched: sched, bots: make(map[string]*botState)}
}

// AddBot seats a new synthetic solver at the given difficulty and
// starts its fill schedule.
func (m *Manager) AddBot(diff Difficulty) (string, error) {
	puzzle := m.room.Puzzle()

	var combined []queuedWord
	for i := range puzzle.Across {
		combined = append(combined, queuedWord{&puzzle.Across[i], crossword.Across})
	}
	for i := range puzzle.Down {
		combined = append(combined, queuedWord{&puzzle.Down[i], crossword.Down})
	}
	if len(combined) == 0 {
		return "", fmt.Errorf("bots: puzzle %s has no clues", puzzle.Date)
	}

	order := fisherYatesInts(len(combined))
	queue := make([]queuedWord, len(combined))
	for i, idx := range order {
		queue[i] = combined[idx]
	}

	totalMs, err := targetSolveMs(puzzle.Date, diff)
	if err != nil {
		return "", fmt.Errorf("bots: %w", err)
	}

	// Rotate the shuffled queue so this bot doesn't start on the same
	// word as another live bot's current word, when an alternative
	// start exists (spec §4.3).
	m.mu.Lock()
	taken := make(map[*store.Clue]bool, len(m.bots))
	for _, other := range m.bots {
		if other.wordIdx < len(other.queue) {
			taken[other.queue[other.wordIdx].clue] = true
		}
	}
	m.mu.Unlock()
	queue = rotateQueueAvoidingCollision(queue, taken)

	totalCells := 0
	for row := 0; row < puzzle.Rows; row++ {
		for col := 0; col < puzzle.Cols; col++ {
			if _, ok := puzzle.CorrectAnswer(row, col); ok {
				totalCells++
			}
		}
	}
	if totalCells == 0 {
		totalCells = 1
	}

	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("bot-%d", m.nextID)
	bs := &botState{
		socketID:     id,
		diff:         diff,
		queue:        queue,
		thinkTimes:   generateThinkTimes(len(queue), totalMs),
		cellTimes:    generateCellTimes(totalCells, totalMs),
		wanderBudget: maxWanderHops,
	}
	m.bots[id] = bs
	m.mu.Unlock()

	m.room.Join(id, id, botDisplayName(diff, id), "", true)
	m.startWord(bs)
	return id, nil
}

// RemoveBot cancels a single bot's pending timer and evicts it from
// the room.
func (m *Manager) RemoveBot(id string) {
	m.mu.Lock()
	_, ok := m.bots[id]
	delete(m.bots, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.sched.Cancel(m.timerName(id))
	m.room.RemoveBot(id)
}

// ListBots returns the socket ids of every bot this manager still
// believes is live. Bots evicted by the room's own completion/clear
// paths (which cancel the whole "bot:" timer prefix directly, without
// routing back through the manager) are pruned lazily the next time
// this is called.
func (m *Manager) ListBots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.bots))
	for id := range m.bots {
		if _, ok := m.room.Membership(id); ok {
			ids = append(ids, id)
		} else {
			delete(m.bots, id)
		}
	}
	return ids
}

func (m *Manager) timerName(id string) string {
	return "bot:" + id
}

func botDisplayName(diff Difficulty, id string) string {
	return fmt.Sprintf("Bot (%s) %s", diff, id)
}

func (m *Manager) alive(id string) bool {
	m.mu.Lock()
	_, ok := m.bots[id]
	m.mu.Unlock()
	return ok
}

// armStep schedules step after delay under the bot's single named
// timer, self-checking liveness and epoch currency before running
//.
func (m *Manager) armStep(bs *botState, delay time.Duration, step func()) {
	name := m.timerName(bs.socketID)
	m.sched.Arm(name, delay, func(epoch uint64) {
		if !m.sched.IsCurrent(name, epoch) {
			return
		}
		if !m.alive(bs.socketID) {
			return
		}
		if _, ok := m.room.Membership(bs.socketID); !ok {
			// The room evicted this bot out from under the manager
			// (puzzle completion, clear-puzzle, last human leaving);
			// stop the step chain instead of re-arming forever.
			m.mu.Lock()
			delete(m.bots, bs.socketID)
			m.mu.Unlock()
			return
		}
		step()
	})
}

// startWord begins the next word in the bot's queue: either a wander
// hop (with probability wanderChance[difficulty]) or landing directly
// on the word's first cell.
func (m *Manager) startWord(bs *botState) {
	if len(bs.queue) == 0 {
		return
	}
	if bs.wordIdx >= len(bs.queue) {
		bs.wordIdx = 0
	}
	word := bs.queue[bs.wordIdx]
	think := bs.thinkTimes[bs.wordIdx%len(bs.thinkTimes)]

	if bs.wanderBudget > 0 && rand.Float64() < wanderChanceTable[bs.diff] {
		bs.wanderBudget--
		m.doWanderHop(bs, think)
		return
	}

	bs.pending = append([]store.CellKey(nil), word.clue.Cells...)
	bs.pendingIdx = 0
	bs.pendingDir = word.dir
	m.armStep(bs, 0, func() { m.fillNext(bs) })
}

// doWanderHop emits a random cursor hop of 2-5 squares and, per the
// spec's "repeat" instruction, re-rolls the wander/land decision
// afterward. wanderBudget bounds the retries (spec §9 open question:
// the source's wander recursion has no documented base case).
func (m *Manager) doWanderHop(bs *botState, think float64) {
	puzzle := m.room.Puzzle()
	mem, ok := m.room.Membership(bs.socketID)
	row, col := 0, 0
	if ok {
		row, col = mem.CursorRow, mem.CursorCol
	}

	dist := 2 + rand.Intn(4)
	angle := rand.Float64() * 2 * math.Pi
	row = clampInt(row+int(math.Round(float64(dist)*math.Sin(angle))), 0, puzzle.Rows-1)
	col = clampInt(col+int(math.Round(float64(dist)*math.Cos(angle))), 0, puzzle.Cols-1)

	delay := time.Duration(think/3) * time.Millisecond
	m.armStep(bs, delay, func() {
		m.room.CursorMove(bs.socketID, row, col, bs.pendingDir)
		m.startWord(bs)
	})
}

// fillNext executes the next queued cell fill, or, once the current
// word is exhausted, advances to the next word.
func (m *Manager) fillNext(bs *botState) {
	if bs.pendingIdx >= len(bs.pending) {
		bs.pending = nil
		bs.wordIdx++
		bs.wanderBudget = maxWanderHops
		m.startWord(bs)
		return
	}

	cell := bs.pending[bs.pendingIdx]
	bs.pendingIdx++
	dir := bs.pendingDir

	delay := bs.cellTimes[bs.cellPos%len(bs.cellTimes)]
	bs.cellPos++

	m.armStep(bs, time.Duration(delay)*time.Millisecond, func() {
		live := m.room.SnapshotGrid()
		correct, ok := m.room.Puzzle().CorrectAnswer(cell.Row, cell.Col)

		m.room.CursorMove(bs.socketID, cell.Row, cell.Col, dir)
		if ok && live[cell] != correct {
			m.room.CellUpdate(bs.socketID, cell.Row, cell.Col, correct)
		}
		m.fillNext(bs)
	})
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rotateQueueAvoidingCollision left-rotates queue to the first offset
// whose starting word isn't in taken, preserving the rest of the
// shuffled order. If every word is taken (or queue has only one
// word), the queue is returned unrotated — a collision is unavoidable.
func rotateQueueAvoidingCollision(queue []queuedWord, taken map[*store.Clue]bool) []queuedWord {
	if len(queue) == 0 || !taken[queue[0].clue] {
		return queue
	}
	for i := 1; i < len(queue); i++ {
		if !taken[queue[i].clue] {
			rotated := make([]queuedWord, len(queue))
			copy(rotated, queue[i:])
			copy(rotated[len(queue)-i:], queue[:i])
			return rotated
		}
	}
	return queue
}
