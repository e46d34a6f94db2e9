// Package ws implements the room-based real-time channel: one room per
// project, sockets subscribe and receive message and typing broadcasts.
package ws

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/collabnest/backend/internal/models"
)

// Event is the wire format in both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client-originated event names.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
)

// Server-originated event names.
const (
	EventNewMessage = "new_message"
	EventError      = "error"
)

type roomEvent struct {
	room    string
	payload []byte
	exclude *Client // optional: do not echo to this client
}

type subscription struct {
	client *Client
	room   string
}

// Hub is the in-process room registry. All room membership changes and
// fan-outs funnel through Run's single goroutine, so no locking is needed.
type Hub struct {
	rooms map[string]map[*Client]bool

	join       chan subscription
	leave      chan subscription
	disconnect chan *Client
	broadcast  chan roomEvent

	log zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		join:       make(chan subscription),
		leave:      make(chan subscription),
		disconnect: make(chan *Client),
		broadcast:  make(chan roomEvent, 64),
		log:        log,
	}
}

// Run dispatches hub events until the process exits. Start it once, in its
// own goroutine, before serving connections.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.join:
			clients := h.rooms[sub.room]
			if clients == nil {
				clients = make(map[*Client]bool)
				h.rooms[sub.room] = clients
			}
			clients[sub.client] = true

		case sub := <-h.leave:
			h.removeFromRoom(sub.client, sub.room)

		case client := <-h.disconnect:
			for room := range client.rooms {
				h.removeFromRoom(client, room)
			}
			close(client.send)

		case ev := <-h.broadcast:
			for client := range h.rooms[ev.room] {
				if client == ev.exclude {
					continue
				}
				select {
				case client.send <- ev.payload:
				default:
					// Slow consumer: drop the event rather than block the hub.
					h.log.Warn().Str("room", ev.room).Msg("dropping event for slow socket")
				}
			}
		}
	}
}

func (h *Hub) removeFromRoom(client *Client, room string) {
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// BroadcastMessage implements services.Broadcaster: it fans a persisted chat
// message out to every socket in the project's room. Failures here never
// affect the durable write.
func (h *Hub) BroadcastMessage(projectID string, msg *models.Message) {
	payload, err := marshalEvent(EventNewMessage, msg)
	if err != nil {
		h.log.Error().Err(err).Str("project_id", projectID).Msg("failed to encode broadcast")
		return
	}
	h.broadcast <- roomEvent{room: projectID, payload: payload}
}

func marshalEvent(name string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: name, Data: raw})
}
