package realtime

import (
	"encoding/json"
	"strings"
	"sync"

	"agrirent/internal/domain"
	"agrirent/internal/metrics"
	"agrirent/internal/pkg/logger"
)

// Hub is the registry of connected clients and the district rooms they joined.
// All access goes through mu; a client's send channel is only closed under the
// write lock, so enqueueing under the read lock never hits a closed channel.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// Join adds c to the room of district and returns the room name. Joining the
// same room again changes nothing. ok is false for a blank district or a
// client that already left.
func (h *Hub) Join(c *Client, district string) (room string, ok bool) {
	if strings.TrimSpace(district) == "" {
		return "", false
	}
	room = domain.RoomKey(district)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, registered := h.clients[c]; !registered {
		return "", false
	}
	members, exists := h.rooms[room]
	if !exists {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	return room, true
}

// Leave drops c from every room and closes its outbound queue. Safe to call
// more than once.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, registered := h.clients[c]; !registered {
		return
	}
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = make(map[string]struct{})
	delete(h.clients, c)
	close(c.send)
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// NotifyRoom queues event for every member of the district's room except
// exclude (which may be nil) and returns how many clients it reached. A
// client whose queue is full misses the event.
func (h *Hub) NotifyRoom(district string, event Event, exclude *Client) int {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("type", event.Type).Msg("marshal room event")
		return 0
	}
	room := domain.RoomKey(district)

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.rooms[room] {
		if c == exclude {
			continue
		}
		select {
		case c.send <- data:
			delivered++
			metrics.RoomNotifications.WithLabelValues("delivered").Inc()
		default:
			metrics.RoomNotifications.WithLabelValues("dropped").Inc()
			logger.Warn().Str("client_id", c.id).Str("room", room).Msg("client too slow, event dropped")
		}
	}
	return delivered
}

// Send queues event for a single client. It reports false when the client
// has left or its queue is full.
func (h *Hub) Send(c *Client, event Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("type", event.Type).Msg("marshal event")
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, registered := h.clients[c]; !registered {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		logger.Warn().Str("client_id", c.id).Str("type", event.Type).Msg("client too slow, event dropped")
		return false
	}
}

func (h *Hub) RoomSize(district string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[domain.RoomKey(district)])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client; used on shutdown.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Leave(c)
	}
}
