// Package transport implements the namespaced publish/subscribe socket
// layer described in spec §2 component 3: clients join named rooms,
// the server emits authoritative events to a room or a single socket.
// It is deliberately ignorant of game rules — rooms here are just
// membership sets bots and humans share alike (design note in spec
// §9: "Abstract the transport so bots share the crossword-edit
// pipeline with humans").
package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Envelope is the wire format for every inbound and outbound message:
// a type tag plus an arbitrary JSON payload.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundHandler is notified of connection lifecycle and message
// traffic. Implementations (the EventRouter) are responsible for all
// game-specific validation and dispatch.
type InboundHandler interface {
	HandleConnect(socketID string, query map[string]string)
	HandleMessage(socketID string, msgType string, data json.RawMessage)
	HandleDisconnect(socketID string)
}

// Broadcaster is the narrow surface the room engines depend on; it's
// satisfied by *Hub but kept as an interface so engines and tests
// don't need a real socket.
type Broadcaster interface {
	Join(room, socketID string)
	Leave(room, socketID string)
	EmitToRoom(room, event string, payload interface{})
	EmitToSocket(socketID, event string, payload interface{})
}

// Hub is the process-wide socket registry. Reads (broadcast fan-out)
// happen far more often than writes (join/leave), so it's guarded by
// an RWMutex rather than serialized through a single goroutine (spec
// §9 design note: "a read-mostly concurrent map suffices").
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client          // socketID -> client
	rooms   map[string]map[string]bool  // room -> set of socketIDs
}

// NewHub creates an empty transport hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]bool),
	}
}

// Join adds socketID's membership to room. Ordering within a room per
// single emitter is preserved by each client's own send channel; this
// call only affects fan-out membership.
func (h *Hub) Join(room, socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.rooms[room]
	if !ok {
		set = make(map[string]bool)
		h.rooms[room] = set
	}
	set[socketID] = true
}

// Leave removes socketID's membership from room.
func (h *Hub) Leave(room, socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(set, socketID)
	if len(set) == 0 {
		delete(h.rooms, room)
	}
}

// EmitToRoom broadcasts payload under event to every socket currently
// joined to room.
func (h *Hub) EmitToRoom(room, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{Type: event, Data: payload})
	if err != nil {
		log.Printf("transport: failed to encode %s for room %s: %v", event, room, err)
		return
	}

	h.mu.RLock()
	set := h.rooms[room]
	targets := make([]*Client, 0, len(set))
	for sid := range set {
		if c, ok := h.clients[sid]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
}

// EmitToSocket sends payload under event to exactly one socket.
func (h *Hub) EmitToSocket(socketID, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{Type: event, Data: payload})
	if err != nil {
		log.Printf("transport: failed to encode %s for socket %s: %v", event, socketID, err)
		return
	}

	h.mu.RLock()
	c, ok := h.clients[socketID]
	h.mu.RUnlock()
	if ok {
		c.enqueue(data)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.socketID] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.socketID)
	for room, set := range h.rooms {
		if set[c.socketID] {
			delete(set, c.socketID)
			if len(set) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()
}

// Client wraps one websocket connection and its read/write pump pair.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	socketID string
	router   InboundHandler
}

// Serve upgrades an HTTP connection to a websocket, registers it with
// the hub under a fresh or caller-supplied socket id, and runs its
// pumps until the connection closes.
func Serve(hub *Hub, router InboundHandler, w http.ResponseWriter, r *http.Request, query map[string]string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("transport: upgrade error: %v", err)
		return
	}

	socketID := query["socketId"]
	if socketID == "" {
		socketID = uuid.New().String()
	}

	c := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		socketID: socketID,
		router:   router,
	}

	hub.register(c)
	router.HandleConnect(socketID, query)

	go c.writePump()
	go c.readPump()
}

func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("transport: dropping message to slow socket %s", c.socketID)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.router.HandleDisconnect(c.socketID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("transport: socket %s closed unexpectedly: %v", c.socketID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("transport: malformed message from %s: %v", c.socketID, err)
			continue
		}

		var raw json.RawMessage
		if b, err := json.Marshal(env.Data); err == nil {
			raw = b
		}
		c.router.HandleMessage(c.socketID, env.Type, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
