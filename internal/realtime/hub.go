package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/shannu2342/wholexale-backend/pkg/logger"
)

// Hub tracks the live websocket connections of this api instance, keyed by
// user. A user may hold several connections (phone and desktop); a frame
// sent to the user reaches all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	logg    *logger.Logger
}

// NewHub builds an empty connection registry.
func NewHub(logg *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		logg:    logg,
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[client.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[client.userID] = conns
	}
	conns[client] = struct{}{}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, present := conns[client]; !present {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
}

// SendToUser queues a frame for every live connection of the user on this
// instance. A connection that cannot keep up is dropped rather than allowed
// to stall the rest.
func (h *Hub) SendToUser(ctx context.Context, userID uuid.UUID, frame Frame) {
	encoded, err := frame.Encode()
	if err != nil {
		h.logg.Error(ctx, "encode realtime frame", err)
		return
	}
	h.SendRawToUser(ctx, userID, encoded)
}

// SendRawToUser queues already-encoded frame bytes for the user. The sends
// happen under the hub lock so a concurrent unregister cannot close a send
// channel mid-delivery; the sends are non-blocking, so the lock is held only
// briefly.
func (h *Hub) SendRawToUser(ctx context.Context, userID uuid.UUID, payload []byte) {
	var dropped []*Client

	h.mu.Lock()
	conns := h.clients[userID]
	for client := range conns {
		select {
		case client.send <- payload:
		default:
			delete(conns, client)
			close(client.send)
			dropped = append(dropped, client)
		}
	}
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	h.mu.Unlock()

	for _, client := range dropped {
		h.logg.Warn(ctx, "dropping slow realtime connection")
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

// Connected reports whether the user has at least one live connection here.
func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}
