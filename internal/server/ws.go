package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// controlMessage is what a client may send on the pose socket.
type controlMessage struct {
	HandControl *bool `json:"handControl"`
}

// PoseHandler streams every tick's snapshot to WebSocket clients.
type PoseHandler struct {
	source  Source
	control func(bool) error
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewPoseHandler creates a PoseHandler over source. control, when not nil,
// applies hand control toggles sent by clients.
func NewPoseHandler(source Source, control func(bool) error) *PoseHandler {
	return &PoseHandler{
		source:  source,
		control: control,
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *PoseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	snaps, cancel := h.source.Subscribe()
	defer cancel()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	done := make(chan struct{})
	go h.readLoop(conn, done)

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(h.source.Latest()); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case snap, ok := <-snaps:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}

// readLoop applies control messages until the client goes away. Messages
// that are not valid JSON are ignored.
func (h *PoseHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.HandControl == nil || h.control == nil {
			continue
		}
		if err := h.control(*msg.HandControl); err != nil {
			log.Printf("server: hand control update failed: %v", err)
		}
	}
}

// Clients returns the number of connected clients.
func (h *PoseHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
