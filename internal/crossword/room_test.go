package crossword

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blarphus/crossword/internal/scheduler"
	"github.com/blarphus/crossword/internal/store"
)

// fakeStore is a minimal in-memory Store for engine tests.
type fakeStore struct {
	puzzle  *store.Puzzle
	grid    map[store.CellKey]string
	fillers map[store.CellKey]string
	points  map[string]int
	guesses map[string]store.GuessStat
	timer   int
}

func newFakeStore(p *store.Puzzle) *fakeStore {
	return &fakeStore{
		puzzle:  p,
		grid:    map[store.CellKey]string{},
		fillers: map[store.CellKey]string{},
		points:  map[string]int{},
		guesses: map[string]store.GuessStat{},
	}
}

func (f *fakeStore) GetPuzzle(ctx context.Context, date string) (*store.Puzzle, error) { return f.puzzle, nil }
func (f *fakeStore) HasPuzzle(ctx context.Context, date string) (bool, error)          { return true, nil }
func (f *fakeStore) GetState(ctx context.Context, date string) (*store.SharedState, error) {
	grid := map[store.CellKey]string{}
	for k, v := range f.grid {
		grid[k] = v
	}
	return &store.SharedState{UserGrid: grid, Points: f.points, Guesses: f.guesses}, nil
}
func (f *fakeStore) UpsertCell(ctx context.Context, date string, row, col int, letter string) error {
	key := store.CellKey{Row: row, Col: col}
	if letter == "" {
		delete(f.grid, key)
	} else {
		f.grid[key] = letter
	}
	return nil
}
func (f *fakeStore) UpsertCellFiller(ctx context.Context, date string, row, col int, name string) error {
	f.fillers[store.CellKey{Row: row, Col: col}] = name
	return nil
}
func (f *fakeStore) ClearState(ctx context.Context, date string) error {
	f.grid = map[store.CellKey]string{}
	f.fillers = map[store.CellKey]string{}
	f.points = map[string]int{}
	f.guesses = map[string]store.GuessStat{}
	return nil
}
func (f *fakeStore) GetCellFillers(ctx context.Context, date string) (map[store.CellKey]string, error) {
	return f.fillers, nil
}
func (f *fakeStore) AddPoints(ctx context.Context, date, name string, delta int) error {
	f.points[name] += delta
	return nil
}
func (f *fakeStore) AddGuess(ctx context.Context, date, name string, correct bool) error {
	gs := f.guesses[name]
	gs.Total++
	if !correct {
		gs.Incorrect++
	}
	f.guesses[name] = gs
	return nil
}
func (f *fakeStore) GetTimer(ctx context.Context, date string) (int, error) { return f.timer, nil }
func (f *fakeStore) SaveTimer(ctx context.Context, date string, seconds int) error {
	f.timer = seconds
	return nil
}
func (f *fakeStore) GetUserColors(ctx context.Context, names []string) (map[string]string, error) {
	return map[string]string{}, nil
}
func (f *fakeStore) GetRandomJeopardyGame(ctx context.Context) (*store.JeopardyGame, error) {
	return nil, nil
}
func (f *fakeStore) GetJeopardyGame(ctx context.Context, id string) (*store.JeopardyGame, error) {
	return nil, nil
}
func (f *fakeStore) SaveJeopardyProgress(ctx context.Context, gameID string, cluesAnswered, totalClues int, round string, completed bool) error {
	return nil
}

// fakeBroadcaster records emitted events for assertions instead of
// driving a real socket.
type fakeBroadcaster struct {
	events []emitted
}

type emitted struct {
	room, event string
	payload     interface{}
}

func (b *fakeBroadcaster) Join(room, socketID string)  {}
func (b *fakeBroadcaster) Leave(room, socketID string) {}
func (b *fakeBroadcaster) EmitToRoom(room, event string, payload interface{}) {
	b.events = append(b.events, emitted{room, event, payload})
}
func (b *fakeBroadcaster) EmitToSocket(socketID, event string, payload interface{}) {
	b.events = append(b.events, emitted{socketID, event, payload})
}

// a 3x3 puzzle: one across word "CAT", one down word "COG" sharing
// the C, plus a blocked corner.
func tinyPuzzle() *store.Puzzle {
	return &store.Puzzle{
		Date: "2026-01-01",
		Rows: 3,
		Cols: 3,
		Grid: [][]string{
			{"C", "A", "T"},
			{"O", ".", "."},
			{"G", ".", "."},
		},
		Across: []store.Clue{{Number: 1, Row: 0, Col: 0, Clue: "feline", Answer: "CAT"}},
		Down:   []store.Clue{{Number: 1, Row: 0, Col: 0, Clue: "gear wheel", Answer: "COG"}},
	}
}

func newTestRoom(t *testing.T) (*Room, *fakeStore, *fakeBroadcaster) {
	t.Helper()
	fs := newFakeStore(tinyPuzzle())
	fb := &fakeBroadcaster{}
	sched := scheduler.New()
	r, err := NewRoom(context.Background(), "2026-01-01", fs, fb, sched)
	require.NoError(t, err)
	return r, fs, fb
}

func TestCorrectFillAwardsPointsAndGuess(t *testing.T) {
	r, _, _ := newTestRoom(t)
	r.Join("s1", "u1", "alice", "", false)

	r.CellUpdate("s1", 0, 0, "C")

	assert.Equal(t, correctBase, r.points["alice"])
	assert.Equal(t, 1, r.guesses["alice"].Total)
	assert.Equal(t, 0, r.guesses["alice"].Incorrect)
}

func TestIncorrectFillPenalizesAndCountsIncorrect(t *testing.T) {
	r, _, _ := newTestRoom(t)
	r.Join("s1", "u1", "alice", "", false)

	r.CellUpdate("s1", 0, 0, "X")

	assert.Equal(t, wrongDelta, r.points["alice"])
	assert.Equal(t, 1, r.guesses["alice"].Total)
	assert.Equal(t, 1, r.guesses["alice"].Incorrect)
}

func TestWordCompletionAwardsBonusOnce(t *testing.T) {
	r, _, _ := newTestRoom(t)
	r.Join("s1", "u1", "alice", "", false)

	r.CellUpdate("s1", 0, 1, "A")
	r.CellUpdate("s1", 0, 2, "T")
	r.CellUpdate("s1", 1, 0, "O")
	r.CellUpdate("s1", 2, 0, "G")
	before := r.points["alice"]
	r.CellUpdate("s1", 0, 0, "C")

	// completing CAT (1 word) and COG (1 word) simultaneously -> completed==2 -> wordBonusTwo,
	// plus the base correct-fill points for the final cell, plus the
	// last-square bonus since the whole 3x3 (minus blocked cells) is
	// now solved.
	after := r.points["alice"]
	assert.Equal(t, correctBase+wordBonusTwo+lastSquareBonus, after-before)
	assert.True(t, r.completed)
}

func TestFireIgnitesAfterThreeWordCompletionsWithin30s(t *testing.T) {
	r, _, _ := newTestRoom(t)
	r.Join("s1", "u1", "alice", "", false)
	m := r.memberships["s1"]

	// Fabricate three already-counted word completions directly to
	// exercise the ignition threshold without needing three separate
	// multi-word puzzles.
	r.mu.Lock()
	m.Fire.Recent = append(m.Fire.Recent,
		WordCompletion{At: time.Now(), Count: 1},
		WordCompletion{At: time.Now(), Count: 1},
	)
	r.mu.Unlock()

	r.CellUpdate("s1", 0, 1, "A")
	r.CellUpdate("s1", 0, 2, "T")
	r.CellUpdate("s1", 0, 0, "C")

	assert.True(t, m.Fire.OnFire || r.completed)
}

func TestLeaveLastHumanStopsTimer(t *testing.T) {
	r, fs, _ := newTestRoom(t)
	r.Join("s1", "u1", "alice", "", false)
	require.NotNil(t, r.timerStartedAt)

	r.Leave("s1")

	assert.Nil(t, r.timerStartedAt)
	assert.Equal(t, 0, fs.timer)
}

func TestBotJoinDoesNotStartTimerOrCountAsHuman(t *testing.T) {
	r, _, _ := newTestRoom(t)

	r.Join("bot-1", "bot-1", "Bot (std) bot-1", "", true)

	assert.Nil(t, r.timerStartedAt, "a bot joining alone must not start the solve timer")
	assert.Equal(t, 0, r.humanCount())
	assert.True(t, r.memberships["bot-1"].IsBot)

	r.Join("s1", "u1", "alice", "", false)
	assert.NotNil(t, r.timerStartedAt)
}

func TestCompletionEvictsBots(t *testing.T) {
	r, _, fb := newTestRoom(t)
	r.Join("s1", "u1", "alice", "", false)
	r.Join("bot-1", "bot-1", "Bot (std) bot-1", "", true)

	// alice solves everything; the last square triggers completion.
	for _, fill := range []struct {
		row, col int
		letter   string
	}{{0, 1, "A"}, {0, 2, "T"}, {1, 0, "O"}, {2, 0, "G"}, {0, 0, "C"}} {
		r.CellUpdate("s1", fill.row, fill.col, fill.letter)
	}

	require.True(t, r.completed)
	_, botStillSeated := r.Membership("bot-1")
	assert.False(t, botStillSeated, "completing the puzzle must evict every bot")

	var counts []int
	for _, e := range fb.events {
		if e.event == "room-count" {
			counts = append(counts, e.payload.(map[string]interface{})["count"].(int))
		}
	}
	require.NotEmpty(t, counts)
	assert.Equal(t, 1, counts[len(counts)-1], "the final room-count must reflect the evicted bot")
}

func TestHintVoteRevealsOnceAllHumansVote(t *testing.T) {
	r, _, fb := newTestRoom(t)
	r.Join("s1", "u1", "alice", "", false)

	r.HintVote("s1")

	var reveal map[string]interface{}
	for _, e := range fb.events {
		if e.event == "hint-reveal" {
			reveal = e.payload.(map[string]interface{})
		}
	}
	require.NotNil(t, reveal)

	// the tiny puzzle has exactly five open cells, so a single
	// full-room vote reveals the whole board and must tell clients
	// the puzzle finished.
	assert.Equal(t, true, reveal["completed"])
	assert.True(t, r.completed)
	assert.Equal(t, 0, r.points["alice"], "hint fills must not score")
}
