package crossword

import (
	"context"
	"log"
	"time"

	"github.com/blarphus/crossword/internal/scheduler"
	"github.com/blarphus/crossword/internal/store"
	"github.com/blarphus/crossword/internal/transport"
)

// NewRoom loads (or lazily creates) the room state for date and
// returns a ready-to-use engine. Grounded in the teacher's
// newRoom/loadFromRedis pair in room.go, collapsed into one
// constructor since crossword state has no "not yet started" phase
// distinct from "empty".
func NewRoom(ctx context.Context, date string, st store.Store, bcast transport.Broadcaster, sched *scheduler.Scheduler) (*Room, error) {
	puzzle, err := st.GetPuzzle(ctx, date)
	if err != nil {
		return nil, err
	}
	prepareCells(puzzle)

	state, err := st.GetState(ctx, date)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &store.SharedState{}
	}
	fillers, err := st.GetCellFillers(ctx, date)
	if err != nil {
		return nil, err
	}
	accumulated, err := st.GetTimer(ctx, date)
	if err != nil {
		return nil, err
	}

	cellFillers := make(map[store.CellKey]Filler, len(fillers))
	hintCells := make(map[store.CellKey]bool)
	for key, name := range fillers {
		if name == "(hint)" {
			cellFillers[key] = Filler{Kind: FillerHint}
			hintCells[key] = true
		} else {
			cellFillers[key] = Filler{Kind: FillerHuman, Name: name}
		}
	}

	r := &Room{
		Date:             date,
		store:            st,
		transport:        bcast,
		sched:            sched,
		puzzle:           puzzle,
		memberships:      make(map[string]*Membership),
		sharedGrid:       state.UserGrid,
		cellFillers:      cellFillers,
		points:           state.Points,
		guesses:          state.Guesses,
		hint:             HintState{Votes: map[string]bool{}, HintCells: hintCells},
		paused:           make(map[string]bool),
		timerAccumulated: accumulated,
	}
	if r.sharedGrid == nil {
		r.sharedGrid = make(map[store.CellKey]string)
	}
	if r.points == nil {
		r.points = make(map[string]int)
	}
	if r.guesses == nil {
		r.guesses = make(map[string]store.GuessStat)
	}
	r.completed = r.allCellsFilledCorrectly()
	return r, nil
}

// Join registers socketID as a crossword participant (spec §4.2
// join). isBot skips the human color palette in favor of the bot
// palette and isn't counted toward hint-vote totals or timer-pause
// gating.
func (r *Room) Join(socketID, userID, userName string, color string, isBot bool) {
	r.mu.Lock()

	if color == "" {
		color = r.pickColor(isBot)
	}

	r.memberships[socketID] = &Membership{
		SocketID:  socketID,
		UserID:    userID,
		UserName:  userName,
		Color:     color,
		Direction: Across,
		IsBot:     isBot,
	}

	if !isBot && r.humanCount() == 1 {
		r.startTimer()
	}

	snapshot := r.stateSnapshotLocked()
	timerSync := r.timerSyncLocked()
	count := len(r.memberships)
	r.mu.Unlock()

	r.transport.Join(r.RoomName(), socketID)
	r.transport.EmitToRoom(r.RoomName(), "user-joined", map[string]interface{}{
		"socketId": socketID,
		"userId":   userID,
		"userName": userName,
		"color":    color,
		"isBot":    isBot,
	})
	r.transport.EmitToRoom(r.RoomName(), "room-count", map[string]interface{}{"count": count})
	r.transport.EmitToSocket(socketID, "room-state", snapshot)
	r.transport.EmitToSocket(socketID, "timer-sync", timerSync)
}

// Leave removes a membership (spec §4.2 leave).
func (r *Room) Leave(socketID string) {
	r.mu.Lock()

	m, ok := r.memberships[socketID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.memberships, socketID)
	delete(r.paused, socketID)

	if m.Fire.OnFire {
		r.clearFireLocked(m)
		r.mu.Unlock()
		r.transport.EmitToRoom(r.RoomName(), "fire-expired", map[string]interface{}{"socketId": socketID})
		r.mu.Lock()
	}

	var evictBots []string
	lastHuman := !m.IsBot && r.humanCount() == 0
	if lastHuman {
		r.stopAndPersistTimerLocked()
		for sid, mem := range r.memberships {
			if mem.IsBot {
				evictBots = append(evictBots, sid)
			}
		}
		r.hint = HintState{Votes: map[string]bool{}, HintCells: r.hint.HintCells}
	} else if !m.IsBot && r.allHumansPausedLocked() {
		r.stopAndPersistTimerLocked()
	}
	if len(evictBots) > 0 {
		r.sched.CancelPrefix("bot:")
	}
	count := len(r.memberships)
	r.mu.Unlock()

	r.transport.Leave(r.RoomName(), socketID)
	r.transport.EmitToRoom(r.RoomName(), "user-left", map[string]interface{}{"socketId": socketID})
	r.transport.EmitToRoom(r.RoomName(), "room-count", map[string]interface{}{"count": count})

	for _, sid := range evictBots {
		r.RemoveBot(sid)
	}
}

// RemoveBot evicts a synthetic participant (used directly on puzzle
// completion/emptiness and exported for the bots package's removeBot
// flow, which cancels the bot's own timers first).
func (r *Room) RemoveBot(socketID string) {
	r.mu.Lock()
	m, ok := r.memberships[socketID]
	if !ok || !m.IsBot {
		r.mu.Unlock()
		return
	}
	delete(r.memberships, socketID)
	onFire := m.Fire.OnFire
	if onFire {
		r.clearFireLocked(m)
	}
	count := len(r.memberships)
	r.mu.Unlock()

	r.transport.Leave(r.RoomName(), socketID)
	if onFire {
		r.transport.EmitToRoom(r.RoomName(), "fire-expired", map[string]interface{}{"socketId": socketID})
	}
	r.transport.EmitToRoom(r.RoomName(), "user-left", map[string]interface{}{"socketId": socketID})
	r.transport.EmitToRoom(r.RoomName(), "room-count", map[string]interface{}{"count": count})
}

// CursorMove updates a membership's cursor and broadcasts it to
// peers (spec §4.2 cursor-move).
func (r *Room) CursorMove(socketID string, row, col int, dir Direction) {
	r.mu.Lock()
	m, ok := r.memberships[socketID]
	if !ok {
		r.mu.Unlock()
		return
	}
	m.CursorRow = row
	m.CursorCol = col
	m.Direction = dir
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "cursor-moved", map[string]interface{}{
		"socketId":  socketID,
		"row":       row,
		"col":       col,
		"direction": dir,
	})
}

// Puzzle exposes the immutable puzzle content for read-only consumers
// (the bot solver).
func (r *Room) Puzzle() *store.Puzzle {
	return r.puzzle
}

// SnapshotGrid returns a defensive copy of the current authoritative
// grid, for the bot solver to decide which cells still need filling.
func (r *Room) SnapshotGrid() map[store.CellKey]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[store.CellKey]string, len(r.sharedGrid))
	for k, v := range r.sharedGrid {
		out[k] = v
	}
	return out
}

// Membership returns a copy of the membership record, or false if the
// socket isn't present.
func (r *Room) Membership(socketID string) (Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.memberships[socketID]
	if !ok {
		return Membership{}, false
	}
	return *m, true
}

// Empty reports whether no human members remain (bots may still be
// present for a moment before their own eviction completes); the
// EventRouter uses this to drop the room registry entry immediately,
// per spec §3's "destroyed 0 ms ... after the last human departs".
func (r *Room) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.humanCount() == 0
}

func (r *Room) humanCount() int {
	n := 0
	for _, m := range r.memberships {
		if !m.IsBot {
			n++
		}
	}
	return n
}

func (r *Room) allHumansPausedLocked() bool {
	for sid, m := range r.memberships {
		if m.IsBot {
			continue
		}
		if !r.paused[sid] {
			return false
		}
	}
	return true
}

func (r *Room) pickColor(isBot bool) string {
	palette := humanColors
	if isBot {
		palette = botColors
	}
	used := make(map[string]bool)
	for _, m := range r.memberships {
		if m.IsBot == isBot {
			used[m.Color] = true
		}
	}
	for _, c := range palette {
		if !used[c] {
			return c
		}
	}
	return palette[len(r.memberships)%len(palette)]
}

func (r *Room) startTimer() {
	if r.timerStartedAt == nil {
		now := time.Now()
		r.timerStartedAt = &now
	}
}

func (r *Room) stopAndPersistTimerLocked() {
	if r.timerStartedAt != nil {
		r.timerAccumulated += int(time.Since(*r.timerStartedAt).Seconds())
		r.timerStartedAt = nil
	}
	accumulated := r.timerAccumulated
	date := r.Date
	go func() {
		if err := r.store.SaveTimer(context.Background(), date, accumulated); err != nil {
			log.Printf("crossword: persist timer %s: %v", date, err)
		}
	}()
}

func (r *Room) timerSyncLocked() map[string]interface{} {
	elapsed := r.timerAccumulated
	running := r.timerStartedAt != nil
	if running {
		elapsed += int(time.Since(*r.timerStartedAt).Seconds())
	}
	return map[string]interface{}{"accumulated": elapsed, "running": running}
}

func (r *Room) stateSnapshotLocked() map[string]interface{} {
	members := make([]map[string]interface{}, 0, len(r.memberships))
	for _, m := range r.memberships {
		members = append(members, map[string]interface{}{
			"socketId":  m.SocketID,
			"userName":  m.UserName,
			"color":     m.Color,
			"cursorRow": m.CursorRow,
			"cursorCol": m.CursorCol,
			"direction": m.Direction,
			"isBot":     m.IsBot,
			"onFire":    m.Fire.OnFire,
		})
	}
	grid := make(map[store.CellKey]string, len(r.sharedGrid))
	for k, v := range r.sharedGrid {
		grid[k] = v
	}
	fillers := make(map[store.CellKey]Filler, len(r.cellFillers))
	for k, v := range r.cellFillers {
		fillers[k] = v
	}
	return map[string]interface{}{
		"puzzle":      r.puzzle,
		"members":     members,
		"sharedGrid":  grid,
		"cellFillers": fillers,
		"points":      r.points,
		"guesses":     r.guesses,
		"hintState": map[string]interface{}{
			"votes":     len(r.hint.Votes),
			"available": r.hint.Available,
		},
		"completed": r.completed,
	}
}
