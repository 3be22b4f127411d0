package jeopardy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blarphus/crossword/internal/scheduler"
	"github.com/blarphus/crossword/internal/store"
)

// fakeStore is a minimal in-memory Store for jeopardy engine tests.
// Only the jeopardy-relevant methods are exercised; the rest satisfy
// the interface with no-ops.
type fakeStore struct {
	game *store.JeopardyGame
}

func (f *fakeStore) GetPuzzle(ctx context.Context, date string) (*store.Puzzle, error) { return nil, nil }
func (f *fakeStore) HasPuzzle(ctx context.Context, date string) (bool, error)          { return false, nil }
func (f *fakeStore) GetState(ctx context.Context, date string) (*store.SharedState, error) {
	return &store.SharedState{}, nil
}
func (f *fakeStore) UpsertCell(ctx context.Context, date string, row, col int, letter string) error {
	return nil
}
func (f *fakeStore) UpsertCellFiller(ctx context.Context, date string, row, col int, name string) error {
	return nil
}
func (f *fakeStore) ClearState(ctx context.Context, date string) error { return nil }
func (f *fakeStore) GetCellFillers(ctx context.Context, date string) (map[store.CellKey]string, error) {
	return map[store.CellKey]string{}, nil
}
func (f *fakeStore) AddPoints(ctx context.Context, date, name string, delta int) error { return nil }
func (f *fakeStore) AddGuess(ctx context.Context, date, name string, correct bool) error {
	return nil
}
func (f *fakeStore) GetTimer(ctx context.Context, date string) (int, error) { return 0, nil }
func (f *fakeStore) SaveTimer(ctx context.Context, date string, seconds int) error { return nil }
func (f *fakeStore) GetUserColors(ctx context.Context, names []string) (map[string]string, error) {
	return map[string]string{}, nil
}
func (f *fakeStore) GetRandomJeopardyGame(ctx context.Context) (*store.JeopardyGame, error) {
	return f.game, nil
}
func (f *fakeStore) GetJeopardyGame(ctx context.Context, id string) (*store.JeopardyGame, error) {
	return f.game, nil
}
func (f *fakeStore) SaveJeopardyProgress(ctx context.Context, gameID string, cluesAnswered, totalClues int, round string, completed bool) error {
	return nil
}

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

func (b *fakeBroadcaster) last(event string) *emitted {
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].event == event {
			return &b.events[i]
		}
	}
	return nil
}

// tinyGame is a 2-category, 2-row game (plus a final clue) small
// enough to drive through every phase in a test.
func tinyGame() *store.JeopardyGame {
	round := store.JRound{
		Categories: []string{"ANIMALS", "COLORS"},
		Clues: []store.JClue{
			{Category: "ANIMALS", Row: 1, Value: 200, Clue: "man's best friend", Answer: "dog"},
			{Category: "ANIMALS", Row: 2, Value: 400, Clue: "king of the jungle", Answer: "lion", DailyDouble: true},
			{Category: "COLORS", Row: 1, Value: 200, Clue: "color of the sky", Answer: "blue"},
			{Category: "COLORS", Row: 2, Value: 400, Clue: "color of grass", Answer: "green"},
		},
	}
	return &store.JeopardyGame{
		GameID: "test-game",
		JRound: round,
		DJRound: store.JRound{Categories: []string{"ANIMALS", "COLORS"}},
		FJ:     &store.FinalClue{Category: "GEOGRAPHY", Clue: "largest ocean", Answer: "pacific"},
	}
}

func newTestRoom(t *testing.T) (*Room, *fakeBroadcaster) {
	t.Helper()
	fs := &fakeStore{game: tinyGame()}
	fb := &fakeBroadcaster{}
	sched := scheduler.New()
	r, err := CreateRoom(context.Background(), "TEST", "host", "Host", "dev-host", fs, fb, sched)
	require.NoError(t, err)
	return r, fb
}

func TestStartGameSeedsUsedCluesForEmptySlots(t *testing.T) {
	r, _ := newTestRoom(t)
	r.StartGame("host")

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, PhaseSelectingClue, r.Phase)
	// row 1..5 per category, only 2 rows have real clues per category.
	assert.True(t, r.UsedClues[ClueRef{Category: 0, Row: 3}])
	assert.True(t, r.UsedClues[ClueRef{Category: 0, Row: 4}])
	assert.True(t, r.UsedClues[ClueRef{Category: 0, Row: 5}])
	assert.False(t, r.UsedClues[ClueRef{Category: 0, Row: 1}])
}

func TestSelectClueTransitionsToReadingClue(t *testing.T) {
	r, fb := newTestRoom(t)
	r.StartGame("host")

	r.SelectClue("host", 0, 1)

	r.mu.RLock()
	phase := r.Phase
	r.mu.RUnlock()
	assert.Equal(t, PhaseReadingClue, phase)
	assert.NotNil(t, fb.last("clue-selected"))
}

func TestSelectClueOnDailyDoubleGoesToWager(t *testing.T) {
	r, _ := newTestRoom(t)
	r.StartGame("host")

	r.SelectClue("host", 0, 2) // the lion clue is a daily double.

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, PhaseDailyDoubleWager, r.Phase)
	assert.Equal(t, "host", r.AnsweringPlayer)
}

func TestDailyDoubleWagerClampsToScoreBounds(t *testing.T) {
	r, _ := newTestRoom(t)
	r.StartGame("host")
	r.SelectClue("host", 0, 2)

	r.mu.Lock()
	r.Players["host"].Score = 500
	r.mu.Unlock()

	r.DailyDoubleWager("host", 9999)

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, roundMinJeopardy, r.DDWagerAmount)
	assert.Equal(t, PhaseDailyDoubleAnswer, r.Phase)
}

func TestBuzzInSeatsFirstPlayerAndAnswerScores(t *testing.T) {
	r, _ := newTestRoom(t)
	require.NoError(t, r.JoinRoom("p2", "Player Two", "dev-p2"))
	r.StartGame("host")
	r.SelectClue("host", 0, 1)

	r.mu.Lock()
	r.Phase = PhaseBuzzerOpen
	r.BuzzedPlayers = map[string]bool{}
	r.mu.Unlock()

	r.BuzzIn("p2")
	r.mu.RLock()
	assert.Equal(t, "p2", r.AnsweringPlayer)
	r.mu.RUnlock()

	r.SubmitAnswer("p2", "dog")

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, 200, r.Players["p2"].Score)
	assert.Equal(t, "p2", r.Controlling)
	assert.Equal(t, PhaseShowingResult, r.Phase)
}

func TestWrongAnswerWithOthersRemainingGoesToRebuzz(t *testing.T) {
	r, _ := newTestRoom(t)
	require.NoError(t, r.JoinRoom("p2", "Player Two", "dev-p2"))
	r.StartGame("host")
	r.SelectClue("host", 0, 1)

	r.mu.Lock()
	r.Phase = PhaseBuzzerOpen
	r.BuzzedPlayers = map[string]bool{}
	r.mu.Unlock()

	r.BuzzIn("host")
	r.SubmitAnswer("host", "wrong guess")

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, -200, r.Players["host"].Score)
	assert.Equal(t, PhaseShowingResult, r.Phase)
}

func TestLeaveRoomReassignsHostToNextJoined(t *testing.T) {
	r, _ := newTestRoom(t)
	require.NoError(t, r.JoinRoom("p2", "Player Two", "dev-p2"))

	r.LeaveRoom("host")

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, "p2", r.HostSocket)
	assert.Equal(t, "p2", r.Controlling)
}

func TestFinalResultsRevealsInAscendingScoreOrder(t *testing.T) {
	r, _ := newTestRoom(t)
	require.NoError(t, r.JoinRoom("p2", "Player Two", "dev-p2"))

	r.mu.Lock()
	r.Players["host"].Score = 1000
	r.Players["p2"].Score = 500
	r.Final = FinalState{Wagers: map[string]int{"host": 500, "p2": 200}, Answers: map[string]string{"host": "atlantic", "p2": "pacific"}}
	r.mu.Unlock()

	r.enterFinalResults()

	// enterFinalResults only orders the reveal and arms a 3s delay
	// before the first reveal (spec §8 scenario 6); drive the reveal
	// step directly rather than sleeping in the test.
	r.mu.RLock()
	fj := r.game.FJ
	order := r.Final.Order
	r.mu.RUnlock()
	assert.Equal(t, []string{"p2", "host"}, order)

	r.revealNextFinal(fj)

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, 1, r.Final.RevealIdx)
	assert.Equal(t, 700, r.Players["p2"].Score) // 500 + the 200 wager, answered correctly.
}

func TestAddCPURequiresHostAndLobbyPhase(t *testing.T) {
	r, _ := newTestRoom(t)

	id, err := r.AddCPU("host", "hard")
	require.NoError(t, err)
	assert.Contains(t, id, "cpu-")

	r.mu.RLock()
	assert.True(t, r.Players[id].IsAI)
	assert.Equal(t, "hard", r.Players[id].AIDifficulty)
	r.mu.RUnlock()

	_, err = r.AddCPU("p2", "easy")
	assert.Error(t, err)
}
