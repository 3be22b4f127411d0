package router

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/blarphus/crossword/internal/bots"
	"github.com/blarphus/crossword/internal/crossword"
)

const maxNameRunes = 20

// trimName clamps a user-supplied display name to 20 code points
//.
func trimName(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxNameRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxNameRunes])
}

func (rt *Router) handleCrosswordMessage(socketID string, st *socketState, msgType string, data json.RawMessage) {
	if msgType == "join-puzzle" {
		rt.handleJoinPuzzle(socketID, st, data)
		return
	}

	room, mgr := rt.crosswordRoom(st.date)
	if room == nil {
		logDropped("no joined crossword room", socketID, msgType)
		return
	}

	switch msgType {
	case "leave-puzzle":
		date := st.date
		room.Leave(socketID)
		rt.mu.Lock()
		st.date = ""
		rt.mu.Unlock()
		if room.Empty() {
			rt.mu.Lock()
			delete(rt.crosswords, date)
			delete(rt.crossBots, date)
			rt.mu.Unlock()
		}

	case "cell-update":
		var p struct {
			Row    int    `json:"row"`
			Col    int    `json:"col"`
			Letter string `json:"letter"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			logDropped("bad payload", socketID, msgType)
			return
		}
		puzzle := room.Puzzle()
		if p.Row < 0 || p.Row >= puzzle.Rows || p.Col < 0 || p.Col >= puzzle.Cols {
			logDropped("cell out of bounds", socketID, msgType)
			return
		}
		room.CellUpdate(socketID, p.Row, p.Col, p.Letter)

	case "cursor-move":
		var p struct {
			Row       int    `json:"row"`
			Col       int    `json:"col"`
			Direction string `json:"direction"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			logDropped("bad payload", socketID, msgType)
			return
		}
		puzzle := room.Puzzle()
		if p.Row < 0 || p.Row >= puzzle.Rows || p.Col < 0 || p.Col >= puzzle.Cols {
			logDropped("cell out of bounds", socketID, msgType)
			return
		}
		dir := crossword.Across
		if p.Direction == string(crossword.Down) {
			dir = crossword.Down
		}
		room.CursorMove(socketID, p.Row, p.Col, dir)

	case "hint-vote":
		room.HintVote(socketID)

	case "hint-available":
		room.HintAvailable(socketID)

	case "pause-puzzle":
		room.PausePuzzle(socketID)

	case "resume-puzzle":
		room.ResumePuzzle(socketID)

	case "clear-puzzle":
		room.ClearPuzzle(socketID)

	case "add-ai":
		rt.handleAddAI(socketID, mgr, data)

	case "remove-ai":
		var p struct {
			BotID string `json:"botId"`
		}
		if err := json.Unmarshal(data, &p); err != nil || p.BotID == "" {
			logDropped("bad payload", socketID, msgType)
			return
		}
		mgr.RemoveBot(p.BotID)

	case "start-ai":
		// Bots start solving immediately on add-ai; start-ai exists
		// for client protocol compatibility and is a no-op here since
		// there is no staged/pending bot state to kick off.

	case "get-ai-bots":
		rt.transport.EmitToSocket(socketID, "ai-bot-list", map[string]interface{}{"bots": mgr.ListBots()})

	default:
		logDropped("unknown message type", socketID, msgType)
	}
}

func (rt *Router) handleJoinPuzzle(socketID string, st *socketState, data json.RawMessage) {
	var p struct {
		Date     string `json:"date"`
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
		Color    string `json:"color"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Date == "" {
		logDropped("bad payload", socketID, "join-puzzle")
		return
	}
	p.UserName = trimName(p.UserName)

	// Returning solvers keep the color they had in earlier sessions;
	// the room only assigns a fresh palette slot when nothing is
	// remembered for this name.
	if p.Color == "" && p.UserName != "" {
		if colors, err := rt.store.GetUserColors(context.Background(), []string{p.UserName}); err == nil {
			p.Color = colors[p.UserName]
		}
	}

	room, _, err := rt.getOrCreateCrosswordRoom(p.Date)
	if err != nil {
		logDropped(err.Error(), socketID, "join-puzzle")
		return
	}

	rt.mu.Lock()
	st.date = p.Date
	rt.mu.Unlock()

	room.Join(socketID, p.UserID, p.UserName, p.Color, false)
}

func (rt *Router) handleAddAI(socketID string, mgr *bots.Manager, data json.RawMessage) {
	var p struct {
		Difficulty string `json:"difficulty"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		logDropped("bad payload", socketID, "add-ai")
		return
	}
	diff := bots.ParseDifficulty(p.Difficulty)
	if _, err := mgr.AddBot(diff); err != nil {
		logDropped(err.Error(), socketID, "add-ai")
	}
}
