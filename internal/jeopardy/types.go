// Package jeopardy implements the turn-based trivia room: a strict
// multi-phase state machine with buzzer arbitration, daily-double
// wagering, a final round, and CPU opponents.
package jeopardy

import (
	"sync"

	"github.com/blarphus/crossword/internal/scheduler"
	"github.com/blarphus/crossword/internal/store"
	"github.com/blarphus/crossword/internal/transport"
)

// Phase is one node in the trivia state machine.
type Phase string

const (
	PhaseLobby             Phase = "lobby"
	PhaseSelectingClue      Phase = "selectingClue"
	PhaseReadingClue        Phase = "readingClue"
	PhaseBuzzerOpen         Phase = "buzzerOpen"
	PhasePlayerAnswering    Phase = "playerAnswering"
	PhaseShowingResult      Phase = "showingResult"
	PhaseDailyDoubleWager   Phase = "dailyDoubleWager"
	PhaseDailyDoubleAnswer  Phase = "dailyDoubleAnswer"
	PhaseFinalCategory      Phase = "finalCategory"
	PhaseFinalWager         Phase = "finalWager"
	PhaseFinalClue          Phase = "finalClue"
	PhaseFinalResults       Phase = "finalResults"
	PhaseGameOver           Phase = "gameOver"
)

// RoundName is which board is in play.
type RoundName string

const (
	RoundJeopardy RoundName = "jeopardy"
	RoundDouble   RoundName = "doubleJeopardy"
	RoundFinal    RoundName = "finalJeopardy"
)

const (
	roundMinJeopardy = 1000
	roundMinDouble   = 2000
	maxPlayers       = 4
)

// ClueRef addresses a single board slot.
type ClueRef struct {
	Category int
	Row      int
}

// Player is one seat at the table, human or CPU.
type Player struct {
	SocketID     string
	Name         string
	Color        string
	Score        int
	IsAI         bool
	AIDifficulty string
	DeviceID     string
}

// FinalState tracks Final Jeopardy wagers, answers, and reveal order.
type FinalState struct {
	Wagers    map[string]int
	Answers   map[string]string
	Order     []string
	RevealIdx int
}

// Room is one trivia game instance, keyed by a 4-character room id.
type Room struct {
	RoomID string

	store     store.Store
	transport transport.Broadcaster
	sched     *scheduler.Scheduler

	mu sync.RWMutex

	game *store.JeopardyGame

	Phase        Phase
	CurrentRound RoundName
	UsedClues    map[ClueRef]bool

	Players      map[string]*Player
	JoinOrder    []string
	HostSocket   string
	Controlling  string

	CurrentClue     *ClueRef
	BuzzedPlayers   map[string]bool
	AnsweringPlayer string
	DDWagerAmount int

	Final FinalState

	// OnEvict is invoked once, 5 minutes after gameOver, so the
	// EventRouter's room registry can drop this instance.
	OnEvict func()
}

var eightColorPalette = []string{
	"#E53935", "#1E88E5", "#43A047", "#FDD835",
	"#8E24AA", "#FB8C00", "#00ACC1", "#D81B60",
}

// RoomName is the transport-layer room identifier.
func (r *Room) RoomName() string {
	return "jeopardy:" + r.RoomID
}
