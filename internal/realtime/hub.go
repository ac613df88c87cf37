package realtime

import (
	"encoding/json"
	"sync"

	"lms-realtime/internal/models"
	"lms-realtime/pkg/logger"
)

// roomEvent is a marshaled frame addressed to one room, or to every
// connected client when room is empty.
type roomEvent struct {
	room string
	data []byte
}

// Hub tracks connected clients and their room memberships. Rooms are
// plain string keys (batch_<id>, user_<id>, role_<role>); membership is
// transport-level only and vanishes with the connection.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomEvent
	shutdown   chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		shutdown:   make(chan struct{}),
	}
}

// Run processes connection lifecycle and broadcast events. Delivery to a
// room happens in the order frames were queued, from this single
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Info("Client %s connected", client.socketID)

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.deliver(event)

		case <-h.shutdown:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.rooms = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join adds the client to a room. Joining a room twice is a no-op.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropMembership(client, room)
}

// Broadcast sends an event to every member of the room, including the
// originating client if it is a member.
func (h *Hub) Broadcast(room, event string, payload interface{}) {
	data, err := json.Marshal(models.OutgoingEvent{Event: event, Data: payload})
	if err != nil {
		logger.Error("Error marshaling %s event: %v", event, err)
		return
	}
	h.broadcast <- &roomEvent{room: room, data: data}
}

// BroadcastAll sends an event to every connected client.
func (h *Hub) BroadcastAll(event string, payload interface{}) {
	data, err := json.Marshal(models.OutgoingEvent{Event: event, Data: payload})
	if err != nil {
		logger.Error("Error marshaling %s event: %v", event, err)
		return
	}
	h.broadcast <- &roomEvent{room: "", data: data}
}

// RoomSize reports the current member count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) deliver(event *roomEvent) {
	h.mu.RLock()
	var targets []*Client
	if event.room == "" {
		for client := range h.clients {
			targets = append(targets, client)
		}
	} else {
		for client := range h.rooms[event.room] {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- event.data:
		default:
			// Slow consumer: drop the connection rather than block the hub.
			h.removeClient(client)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	for room := range client.rooms {
		h.dropMembership(client, room)
	}
	logger.Info("Client %s disconnected", client.socketID)
}

// dropMembership must be called with h.mu held.
func (h *Hub) dropMembership(client *Client, room string) {
	delete(client.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}
