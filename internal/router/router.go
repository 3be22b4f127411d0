// Package router implements the EventRouter : it binds
// inbound socket events to the correct room engine, resolves each
// socket's current room by its own connection state, and validates
// sender role, phase applicability, and payload shape before handing
// anything to an engine. Invalid messages are dropped silently.
package router

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/blarphus/crossword/internal/bots"
	"github.com/blarphus/crossword/internal/crossword"
	"github.com/blarphus/crossword/internal/jeopardy"
	"github.com/blarphus/crossword/internal/scheduler"
	"github.com/blarphus/crossword/internal/store"
	"github.com/blarphus/crossword/internal/transport"
)

// socketKind distinguishes which namespace a connection belongs to,
// set from the `/ws/crossword` or `/ws/jeopardy` route it arrived on.
type socketKind int

const (
	kindCrossword socketKind = iota
	kindJeopardy
)

type socketState struct {
	kind socketKind
	date string // crossword room key
	room string // jeopardy room id
}

// Router is the process-wide EventRouter. It owns both room
// registries so the same process can host crossword and trivia rooms
// side by side, sharing nothing but the transport hub.
type Router struct {
	store     store.Store
	transport transport.Broadcaster

	mu          sync.Mutex
	sockets     map[string]*socketState
	crosswords  map[string]*crossword.Room
	crossBots   map[string]*bots.Manager
	jeopardies  map[string]*jeopardy.Room
}

// New creates an EventRouter backed by st for persistence and bcast
// for broadcast fan-out.
func New(st store.Store, bcast transport.Broadcaster) *Router {
	return &Router{
		store:      st,
		transport:  bcast,
		sockets:    make(map[string]*socketState),
		crosswords: make(map[string]*crossword.Room),
		crossBots:  make(map[string]*bots.Manager),
		jeopardies: make(map[string]*jeopardy.Room),
	}
}

// HandleConnect records which namespace a fresh socket belongs to.
// The query's "kind" parameter is set by cmd/server's route
// registration (crossword vs jeopardy), not client-supplied.
func (rt *Router) HandleConnect(socketID string, query map[string]string) {
	kind := kindCrossword
	if query["kind"] == "jeopardy" {
		kind = kindJeopardy
	}
	rt.mu.Lock()
	rt.sockets[socketID] = &socketState{kind: kind}
	rt.mu.Unlock()
}

// HandleDisconnect evicts the socket from whatever room it had
// joined, then drops empty room registry entries (spec §3 lifecycle).
func (rt *Router) HandleDisconnect(socketID string) {
	rt.mu.Lock()
	st, ok := rt.sockets[socketID]
	delete(rt.sockets, socketID)
	rt.mu.Unlock()
	if !ok {
		return
	}

	switch st.kind {
	case kindCrossword:
		if st.date == "" {
			return
		}
		room, _ := rt.crosswordRoom(st.date)
		if room == nil {
			return
		}
		room.Leave(socketID)
		if room.Empty() {
			rt.mu.Lock()
			delete(rt.crosswords, st.date)
			delete(rt.crossBots, st.date)
			rt.mu.Unlock()
		}
	case kindJeopardy:
		if st.room == "" {
			return
		}
		room := rt.jeopardyRoom(st.room)
		if room == nil {
			return
		}
		room.LeaveRoom(socketID)
		if room.Empty() {
			rt.mu.Lock()
			delete(rt.jeopardies, st.room)
			rt.mu.Unlock()
		}
	}
}

// HandleMessage validates and dispatches one inbound envelope.
func (rt *Router) HandleMessage(socketID string, msgType string, data json.RawMessage) {
	rt.mu.Lock()
	st, ok := rt.sockets[socketID]
	rt.mu.Unlock()
	if !ok {
		return
	}

	switch st.kind {
	case kindCrossword:
		rt.handleCrosswordMessage(socketID, st, msgType, data)
	case kindJeopardy:
		rt.handleJeopardyMessage(socketID, st, msgType, data)
	}
}

func (rt *Router) crosswordRoom(date string) (*crossword.Room, *bots.Manager) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.crosswords[date], rt.crossBots[date]
}

func (rt *Router) jeopardyRoom(roomID string) *jeopardy.Room {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.jeopardies[roomID]
}

func (rt *Router) getOrCreateCrosswordRoom(date string) (*crossword.Room, *bots.Manager, error) {
	rt.mu.Lock()
	room, ok := rt.crosswords[date]
	if ok {
		mgr := rt.crossBots[date]
		rt.mu.Unlock()
		return room, mgr, nil
	}
	rt.mu.Unlock()

	sched := scheduler.New()
	room, err := crossword.NewRoom(context.Background(), date, rt.store, rt.transport, sched)
	if err != nil {
		return nil, nil, err
	}
	mgr := bots.NewManager(room, sched)

	rt.mu.Lock()
	if existing, ok := rt.crosswords[date]; ok {
		rt.mu.Unlock()
		return existing, rt.crossBots[date], nil
	}
	rt.crosswords[date] = room
	rt.crossBots[date] = mgr
	rt.mu.Unlock()
	return room, mgr, nil
}

// CrosswordRoomCount reports how many crossword rooms are currently
// registered, for the /metrics endpoint.
func (rt *Router) CrosswordRoomCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.crosswords)
}

// JeopardyRoomCount reports how many trivia rooms are currently
// registered, for the /metrics endpoint.
func (rt *Router) JeopardyRoomCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.jeopardies)
}

func logDropped(reason string, socketID, msgType string) {
	log.Printf("router: dropping %s from %s (%s)", msgType, socketID, reason)
}
