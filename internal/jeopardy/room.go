package jeopardy

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/blarphus/crossword/internal/scheduler"
	"github.com/blarphus/crossword/internal/store"
	"github.com/blarphus/crossword/internal/transport"
)

const roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewRoomID mints a 4-character room code from an alphabet excluding
// easily-confused characters I/O/0/1.
func NewRoomID() string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = roomIDAlphabet[rand.Intn(len(roomIDAlphabet))]
	}
	return string(b)
}

// CreateRoom mints a new trivia room, loads a random unplayed game,
// and seats the creator as host and controlling player (spec §4.4
// "create-room").
func CreateRoom(ctx context.Context, roomID, hostSocket, hostName, hostDeviceID string, st store.Store, bcast transport.Broadcaster, sched *scheduler.Scheduler) (*Room, error) {
	game, err := st.GetRandomJeopardyGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("jeopardy: pick game: %w", err)
	}

	r := &Room{
		RoomID:       roomID,
		store:        st,
		transport:    bcast,
		sched:        sched,
		game:         game,
		Phase:        PhaseLobby,
		CurrentRound: RoundJeopardy,
		UsedClues:    make(map[ClueRef]bool),
		Players:      make(map[string]*Player),
		BuzzedPlayers: make(map[string]bool),
		Final: FinalState{
			Wagers:  make(map[string]int),
			Answers: make(map[string]string),
		},
	}

	r.addPlayerLocked(hostSocket, hostName, hostDeviceID, false, "")
	r.HostSocket = hostSocket
	r.Controlling = hostSocket

	bcast.Join(r.RoomName(), hostSocket)
	bcast.EmitToSocket(hostSocket, "room-state", r.stateSnapshotLocked())
	return r, nil
}

// JoinRoom seats a new human player. deviceID is stored on the seated
// Player; a reconnecting socket is seated as a new player and is not
// matched to an earlier seat by deviceID.
func (r *Room) JoinRoom(socketID, name, deviceID string) error {
	r.mu.Lock()
	if len(r.Players) >= maxPlayers {
		r.mu.Unlock()
		return fmt.Errorf("jeopardy: room %s is full", r.RoomID)
	}
	r.addPlayerLocked(socketID, name, deviceID, false, "")
	snapshot := r.stateSnapshotLocked()
	r.mu.Unlock()

	r.transport.Join(r.RoomName(), socketID)
	r.transport.EmitToRoom(r.RoomName(), "player-joined", map[string]interface{}{"socketId": socketID, "name": name})
	r.transport.EmitToSocket(socketID, "room-state", snapshot)
	return nil
}

func (r *Room) addPlayerLocked(socketID, name, deviceID string, isAI bool, difficulty string) {
	used := make(map[string]bool)
	for _, p := range r.Players {
		used[p.Color] = true
	}
	color := eightColorPalette[len(r.Players)%len(eightColorPalette)]
	for _, c := range eightColorPalette {
		if !used[c] {
			color = c
			break
		}
	}
	r.Players[socketID] = &Player{SocketID: socketID, Name: name, Color: color, IsAI: isAI, AIDifficulty: difficulty, DeviceID: deviceID}
	r.JoinOrder = append(r.JoinOrder, socketID)
}

// LeaveRoom removes a player, reassigning host/controller and
// resolving any mid-phase gap left by the departing player (spec
// §4.4 "Disconnect handling").
func (r *Room) LeaveRoom(socketID string) {
	r.mu.Lock()
	if _, ok := r.Players[socketID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.Players, socketID)
	for i, sid := range r.JoinOrder {
		if sid == socketID {
			r.JoinOrder = append(r.JoinOrder[:i], r.JoinOrder[i+1:]...)
			break
		}
	}
	delete(r.BuzzedPlayers, socketID)

	if r.HostSocket == socketID {
		r.HostSocket = r.firstRemainingLocked()
	}
	if r.Controlling == socketID {
		r.Controlling = r.firstRemainingLocked()
	}

	var needsResolution bool
	if r.AnsweringPlayer == socketID {
		needsResolution = true
	}
	empty := len(r.Players) == 0
	r.mu.Unlock()

	r.transport.Leave(r.RoomName(), socketID)
	r.transport.EmitToRoom(r.RoomName(), "player-left", map[string]interface{}{"socketId": socketID})

	if empty {
		r.sched.CancelAll()
		return
	}
	if needsResolution {
		r.resolveAnsweringPlayerDisconnect(socketID)
	}
}

// Empty reports whether every seat has been vacated; the EventRouter
// drops the room registry entry as soon as the last player leaves, in
// any phase. The 5-minute game-over eviction goes through OnEvict.
func (r *Room) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Players) == 0
}

func (r *Room) firstRemainingLocked() string {
	for _, sid := range r.JoinOrder {
		if _, ok := r.Players[sid]; ok {
			return sid
		}
	}
	return ""
}

// currentBoard returns the round data for the in-progress round.
func (r *Room) currentBoard() *store.JRound {
	if r.CurrentRound == RoundDouble {
		return &r.game.DJRound
	}
	return &r.game.JRound
}

func clueAt(round *store.JRound, catIdx, row int) (*store.JClue, bool) {
	if catIdx < 0 || catIdx >= len(round.Categories) {
		return nil, false
	}
	cat := round.Categories[catIdx]
	for i := range round.Clues {
		if round.Clues[i].Category == cat && round.Clues[i].Row == row {
			return &round.Clues[i], true
		}
	}
	return nil, false
}

// StartGame transitions lobby -> selectingClue and seeds usedClues
// with board slots that have no clue content (spec §4.4 transition
// table, "seeds usedClues with missing slots").
func (r *Room) StartGame(socketID string) {
	r.mu.Lock()
	if r.Phase != PhaseLobby || socketID != r.HostSocket {
		r.mu.Unlock()
		return
	}
	board := r.currentBoard()
	for catIdx := range board.Categories {
		for row := 1; row <= 5; row++ {
			if _, ok := clueAt(board, catIdx, row); !ok {
				r.UsedClues[ClueRef{Category: catIdx, Row: row}] = true
			}
		}
	}
	r.Phase = PhaseSelectingClue
	snapshot := r.stateSnapshotLocked()
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "round-change", map[string]interface{}{"round": RoundJeopardy})
	r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseSelectingClue})
	r.transport.EmitToRoom(r.RoomName(), "room-state", snapshot)

	r.scheduleAIClueSelection()
}

// ChangeGame lets the host swap in a specific game by id while the
// room sits in the lobby (spec §6 inbound "change-game"). Whether the
// game has already been played is not checked.
func (r *Room) ChangeGame(ctx context.Context, socketID, gameID string) error {
	r.mu.Lock()
	if r.Phase != PhaseLobby || socketID != r.HostSocket {
		r.mu.Unlock()
		return fmt.Errorf("jeopardy: cannot change game now")
	}
	r.mu.Unlock()

	game, err := r.store.GetJeopardyGame(ctx, gameID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.game = game
	r.UsedClues = make(map[ClueRef]bool)
	snapshot := r.stateSnapshotLocked()
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "room-state", snapshot)
	return nil
}

// RandomGame lets the host re-roll to a fresh random game while the
// room sits in the lobby (spec §6 inbound "random-game").
func (r *Room) RandomGame(ctx context.Context, socketID string) error {
	r.mu.Lock()
	if r.Phase != PhaseLobby || socketID != r.HostSocket {
		r.mu.Unlock()
		return fmt.Errorf("jeopardy: cannot change game now")
	}
	r.mu.Unlock()

	game, err := r.store.GetRandomJeopardyGame(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.game = game
	r.UsedClues = make(map[ClueRef]bool)
	snapshot := r.stateSnapshotLocked()
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "room-state", snapshot)
	return nil
}

func (r *Room) stateSnapshotLocked() map[string]interface{} {
	players := make([]map[string]interface{}, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, map[string]interface{}{
			"socketId": p.SocketID,
			"name":     p.Name,
			"color":    p.Color,
			"score":    p.Score,
			"isAI":     p.IsAI,
		})
	}
	usedClues := make([]ClueRef, 0, len(r.UsedClues))
	for ref := range r.UsedClues {
		usedClues = append(usedClues, ref)
	}
	return map[string]interface{}{
		"roomId":       r.RoomID,
		"phase":        r.Phase,
		"currentRound": r.CurrentRound,
		"board":        r.currentBoard(),
		"usedClues":    usedClues,
		"players":      players,
		"hostSocket":   r.HostSocket,
		"controlling":  r.Controlling,
	}
}
