// Package server hosts the HTTP server wrapper and the websocket feed hub
// that pushes row-level change events to every subscribed device of an
// owner.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/models"
)

const writeTimeout = 10 * time.Second

// Hub fans change events out to subscribed feed connections, keyed by
// owner so one user's events never reach another's devices. It implements
// service.ChangeNotifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*websocket.Conn]struct{}
	closed  bool

	logger *logger.Logger
}

// NewHub constructs an empty Hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*websocket.Conn]struct{}),
		logger:  log,
	}
}

// Register adds a connection to the owner's broadcast set.
func (h *Hub) Register(ownerID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	set, ok := h.clients[ownerID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.clients[ownerID] = set
	}
	set[conn] = struct{}{}

	h.logger.Debug().Int64("owner_id", ownerID).Int("connections", len(set)).Msg("feed connection registered")
}

// Unregister removes a connection from the owner's broadcast set.
func (h *Hub) Unregister(ownerID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[ownerID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.clients, ownerID)
	}
}

// Notify implements service.ChangeNotifier: the event is written to every
// connection of the owner, including the originating device — the client's
// device filter handles the echo. A connection that fails to accept the
// write is dropped from the set; its read loop notices on its own.
func (h *Hub) Notify(ownerID int64, event models.ChangeEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Err(err).Msg("marshal change event")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[ownerID]))
	for conn := range h.clients[ownerID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.logger.Debug().Int64("owner_id", ownerID).Err(err).Msg("dropping dead feed connection")
			h.Unregister(ownerID, conn)
		}
	}
}

// Shutdown closes every connection and refuses further registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	all := make([]*websocket.Conn, 0)
	for _, set := range h.clients {
		for conn := range set {
			all = append(all, conn)
		}
	}
	h.clients = make(map[int64]map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range all {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}
