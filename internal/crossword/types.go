// Package crossword implements the collaborative crossword room:
// authoritative editing, scoring, fire streaks, hint voting, puzzle
// completion, and the per-room solve timer.
package crossword

import (
	"sync"
	"time"

	"github.com/blarphus/crossword/internal/scheduler"
	"github.com/blarphus/crossword/internal/store"
	"github.com/blarphus/crossword/internal/transport"
)

// Direction is the cursor's current word orientation.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// FillerKind distinguishes who last filled a cell. A tagged union
// instead of the original sentinel string (spec §9 design note:
// "model it as a tagged union Filler = Human(name) | Hint").
type FillerKind int

const (
	FillerNone FillerKind = iota
	FillerHuman
	FillerHint
)

// Filler records who (or what) last wrote a cell.
type Filler struct {
	Kind FillerKind
	Name string
}

// WordCompletion is one entry in a membership's rolling fire-streak
// window.
type WordCompletion struct {
	At    time.Time
	Count int
	Cells []store.CellKey
}

// FireStreak is the per-membership streak-bonus state. It lives on
// the Membership itself (spec §9 design note: "colocate it in the
// membership record rather than a sidecar map, so eviction can't leak
// a live expiry timer").
type FireStreak struct {
	Recent               []WordCompletion
	OnFire               bool
	ExpiresAt             time.Time
	FireCells             map[store.CellKey]bool
	Multiplier            float64
	WordsCompletedOnFire  int
}

// Membership is one socket's (human or bot) presence in the room.
type Membership struct {
	SocketID  string
	UserID    string
	UserName  string
	Color     string
	CursorRow int
	CursorCol int
	Direction Direction
	IsBot     bool
	Fire      FireStreak
}

// HintState tracks the group-hint vote and the cells it has revealed.
type HintState struct {
	Votes     map[string]bool
	HintCells map[store.CellKey]bool
	Available bool
}

// Room is one collaborative crossword session, keyed by puzzle date.
type Room struct {
	Date string

	store     store.Store
	transport transport.Broadcaster
	sched     *scheduler.Scheduler

	mu sync.RWMutex

	puzzle      *store.Puzzle
	memberships map[string]*Membership
	sharedGrid  map[store.CellKey]string
	cellFillers map[store.CellKey]Filler
	points      map[string]int
	guesses     map[string]store.GuessStat
	hint        HintState
	paused      map[string]bool

	timerAccumulated int
	timerStartedAt   *time.Time

	completed bool
}

// RoomName is the transport-layer room identifier.
func (r *Room) RoomName() string {
	return "crossword:" + r.Date
}

// humanColors is the palette human joiners cycle through.
// It's extended to eight entries, matching §4.2's "eight-color
// palette" language over the six colors the fixed table enumerates —
// see DESIGN.md for the reconciliation.
var humanColors = []string{
	"#4CAF50", "#222222", "#FF9800", "#E91E63",
	"#9C27B0", "#FF00FF", "#2196F3", "#795548",
}

// botColors is a distinct palette so bots are visually identifiable.
var botColors = []string{
	"#B0BEC5", "#90A4AE", "#78909C", "#607D8B",
	"#546E7A", "#455A64", "#37474F", "#263238",
}
