package jeopardy

import (
	"fmt"
	"time"
)

// resolveAnsweringPlayerDisconnect fills the gap left when the player
// currently on the clock disconnects mid-answer.
func (r *Room) resolveAnsweringPlayerDisconnect(socketID string) {
	r.mu.RLock()
	phase := r.Phase
	r.mu.RUnlock()

	switch phase {
	case PhasePlayerAnswering:
		r.sched.Cancel("answer")
		r.SubmitAnswer(socketID, "")
	case PhaseDailyDoubleAnswer:
		r.sched.Cancel("answer")
		r.mu.Lock()
		r.Phase = PhaseShowingResult
		r.AnsweringPlayer = ""
		clue := r.currentClueLocked()
		r.mu.Unlock()

		r.transport.EmitToRoom(r.RoomName(), "answer-result", map[string]interface{}{
			"correct": false, "answer": clue.Answer, "disconnected": true,
		})
		r.transport.EmitToRoom(r.RoomName(), "phase-change", map[string]interface{}{"phase": PhaseShowingResult})

		r.sched.Arm("phase", 3*time.Second, func(epoch uint64) {
			if !r.sched.IsCurrent("phase", epoch) {
				return
			}
			r.advanceAfterResult()
		})
	}
}

func difficultyDisplayName(difficulty string) string {
	switch difficulty {
	case "easy":
		return "CPU Easy"
	case "hard":
		return "CPU Hard"
	default:
		return "CPU Medium"
	}
}

// AddCPU seats a CPU opponent while the room is still in the lobby
//.
func (r *Room) AddCPU(requesterSocket, difficulty string) (string, error) {
	r.mu.Lock()
	if r.Phase != PhaseLobby || requesterSocket != r.HostSocket {
		r.mu.Unlock()
		return "", fmt.Errorf("jeopardy: cannot add a CPU opponent now")
	}
	if len(r.Players) >= maxPlayers {
		r.mu.Unlock()
		return "", fmt.Errorf("jeopardy: room %s is full", r.RoomID)
	}
	if _, ok := aiProfiles[difficulty]; !ok {
		difficulty = "medium"
	}
	id := fmt.Sprintf("cpu-%d", len(r.Players)+1)
	name := difficultyDisplayName(difficulty)
	r.addPlayerLocked(id, name, "", true, difficulty)
	snapshot := r.stateSnapshotLocked()
	r.mu.Unlock()

	r.transport.EmitToRoom(r.RoomName(), "player-joined", map[string]interface{}{"socketId": id, "name": name, "isAI": true})
	r.transport.EmitToRoom(r.RoomName(), "room-state", snapshot)
	return id, nil
}

// RemoveCPU evicts a seated CPU opponent, host-only and lobby-only.
func (r *Room) RemoveCPU(requesterSocket, socketID string) {
	r.mu.Lock()
	if r.Phase != PhaseLobby || requesterSocket != r.HostSocket {
		r.mu.Unlock()
		return
	}
	player, ok := r.Players[socketID]
	if !ok || !player.IsAI {
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
	r.mu.Unlock()

	r.sched.Cancel(aiTimerName(socketID))
	r.transport.EmitToRoom(r.RoomName(), "player-left", map[string]interface{}{"socketId": socketID})
}
