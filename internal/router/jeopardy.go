package router

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/blarphus/crossword/internal/jeopardy"
	"github.com/blarphus/crossword/internal/scheduler"
)

func (rt *Router) handleJeopardyMessage(socketID string, st *socketState, msgType string, data json.RawMessage) {
	if msgType == "create-room" {
		rt.handleCreateRoom(socketID, st, data)
		return
	}
	if msgType == "join-room" {
		rt.handleJoinRoom(socketID, st, data)
		return
	}

	room := rt.jeopardyRoom(st.room)
	if room == nil {
		logDropped("no joined jeopardy room", socketID, msgType)
		return
	}

	switch msgType {
	case "leave-room":
		roomID := st.room
		room.LeaveRoom(socketID)
		rt.mu.Lock()
		st.room = ""
		rt.mu.Unlock()
		if room.Empty() {
			rt.mu.Lock()
			delete(rt.jeopardies, roomID)
			rt.mu.Unlock()
		}

	case "start-game":
		room.StartGame(socketID)

	case "change-game":
		var p struct {
			GameID string `json:"gameId"`
		}
		if err := json.Unmarshal(data, &p); err != nil || p.GameID == "" {
			logDropped("bad payload", socketID, msgType)
			return
		}
		if err := room.ChangeGame(context.Background(), socketID, p.GameID); err != nil {
			logDropped(err.Error(), socketID, msgType)
		}

	case "random-game":
		if err := room.RandomGame(context.Background(), socketID); err != nil {
			logDropped(err.Error(), socketID, msgType)
		}

	case "select-clue":
		var p struct {
			Category int `json:"category"`
			Row      int `json:"row"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			logDropped("bad payload", socketID, msgType)
			return
		}
		if p.Category < 0 || p.Category >= 6 || p.Row < 1 || p.Row > 5 {
			logDropped("clue slot out of bounds", socketID, msgType)
			return
		}
		room.SelectClue(socketID, p.Category, p.Row)

	case "buzz-in":
		room.BuzzIn(socketID)

	case "submit-answer":
		var p struct {
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			logDropped("bad payload", socketID, msgType)
			return
		}
		room.SubmitAnswer(socketID, p.Answer)

	case "daily-double-wager":
		var p struct {
			Wager int `json:"wager"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			logDropped("bad payload", socketID, msgType)
			return
		}
		room.DailyDoubleWager(socketID, p.Wager)

	case "final-jeopardy-wager":
		var p struct {
			Wager int `json:"wager"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			logDropped("bad payload", socketID, msgType)
			return
		}
		room.FinalWager(socketID, p.Wager)

	case "final-jeopardy-answer":
		var p struct {
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			logDropped("bad payload", socketID, msgType)
			return
		}
		room.FinalAnswer(socketID, p.Answer)

	case "add-cpu":
		var p struct {
			Difficulty string `json:"difficulty"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			logDropped("bad payload", socketID, msgType)
			return
		}
		if _, err := room.AddCPU(socketID, p.Difficulty); err != nil {
			logDropped(err.Error(), socketID, msgType)
		}

	case "remove-cpu":
		var p struct {
			SocketID string `json:"socketId"`
		}
		if err := json.Unmarshal(data, &p); err != nil || p.SocketID == "" {
			logDropped("bad payload", socketID, msgType)
			return
		}
		room.RemoveCPU(socketID, p.SocketID)

	default:
		logDropped("unknown message type", socketID, msgType)
	}
}

func (rt *Router) handleCreateRoom(socketID string, st *socketState, data json.RawMessage) {
	var p struct {
		Name     string `json:"name"`
		DeviceID string `json:"deviceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		logDropped("bad payload", socketID, "create-room")
		return
	}
	p.Name = trimName(p.Name)
	if p.DeviceID == "" {
		p.DeviceID = uuid.NewString()
	}

	roomID := jeopardy.NewRoomID()
	sched := scheduler.New()
	room, err := jeopardy.CreateRoom(context.Background(), roomID, socketID, p.Name, p.DeviceID, rt.store, rt.transport, sched)
	if err != nil {
		logDropped(err.Error(), socketID, "create-room")
		return
	}

	rt.mu.Lock()
	rt.jeopardies[roomID] = room
	rt.mu.Unlock()
	room.OnEvict = func() {
		rt.mu.Lock()
		delete(rt.jeopardies, roomID)
		rt.mu.Unlock()
	}

	rt.mu.Lock()
	st.room = roomID
	rt.mu.Unlock()
}

func (rt *Router) handleJoinRoom(socketID string, st *socketState, data json.RawMessage) {
	var p struct {
		RoomID   string `json:"roomId"`
		Name     string `json:"name"`
		DeviceID string `json:"deviceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		logDropped("bad payload", socketID, "join-room")
		return
	}
	p.Name = trimName(p.Name)
	if p.DeviceID == "" {
		p.DeviceID = uuid.NewString()
	}

	room := rt.jeopardyRoom(p.RoomID)
	if room == nil {
		logDropped("unknown room", socketID, "join-room")
		return
	}
	if err := room.JoinRoom(socketID, p.Name, p.DeviceID); err != nil {
		logDropped(err.Error(), socketID, "join-room")
		return
	}

	rt.mu.Lock()
	st.room = p.RoomID
	rt.mu.Unlock()
}
