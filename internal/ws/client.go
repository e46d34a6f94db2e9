package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/apperr"
	"github.com/collabnest/backend/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one connected socket tied to an authenticated user.
type Client struct {
	id     string
	userID primitive.ObjectID
	conn   *websocket.Conn
	send   chan []byte
	rooms  map[string]bool

	hub      *Hub
	messages *services.MessageService
}

func newClient(hub *Hub, conn *websocket.Conn, userID primitive.ObjectID, messages *services.MessageService) *Client {
	return &Client{
		id:       uuid.NewString(),
		userID:   userID,
		conn:     conn,
		send:     make(chan []byte, 32),
		rooms:    make(map[string]bool),
		hub:      hub,
		messages: messages,
	}
}

type joinPayload struct {
	ProjectID string `json:"project_id"`
}

type sendPayload struct {
	ProjectID string `json:"project_id"`
	Content   string `json:"content"`
}

type typingOut struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
}

type errorOut struct {
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// readPump consumes client events until the socket closes. Errors go back as
// an error event on the same socket; the connection is never dropped for a
// rejected operation.
func (c *Client) readPump() {
	defer func() {
		c.hub.disconnect <- c
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.sendError("malformed event", "")
			continue
		}
		c.handleEvent(ev)
	}
}

func (c *Client) handleEvent(ev Event) {
	switch ev.Event {
	case EventJoinRoom:
		var p joinPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			c.sendError("malformed join_room payload", "")
			return
		}
		projectID, err := primitive.ObjectIDFromHex(p.ProjectID)
		if err != nil {
			c.sendError("invalid project id", "")
			return
		}
		if err := c.messages.CanJoinRoom(context.Background(), projectID, c.userID); err != nil {
			c.sendAppError(err)
			return
		}
		c.rooms[p.ProjectID] = true
		c.hub.join <- subscription{client: c, room: p.ProjectID}

	case EventLeaveRoom:
		var p joinPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			c.sendError("malformed leave_room payload", "")
			return
		}
		delete(c.rooms, p.ProjectID)
		c.hub.leave <- subscription{client: c, room: p.ProjectID}

	case EventSendMessage:
		var p sendPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			c.sendError("malformed send_message payload", "")
			return
		}
		projectID, err := primitive.ObjectIDFromHex(p.ProjectID)
		if err != nil {
			c.sendError("invalid project id", "")
			return
		}
		// Send persists and then broadcasts through the hub, which delivers
		// the new_message event back to this room, sender included.
		if _, err := c.messages.Send(context.Background(), projectID, c.userID, p.Content); err != nil {
			c.sendAppError(err)
		}

	case EventTyping:
		var p joinPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			c.sendError("malformed typing payload", "")
			return
		}
		if !c.rooms[p.ProjectID] {
			c.sendError("not subscribed to this room", apperr.HintRequiresJoin)
			return
		}
		payload, err := marshalEvent(EventTyping, typingOut{
			ProjectID: p.ProjectID,
			UserID:    c.userID.Hex(),
		})
		if err != nil {
			return
		}
		c.hub.broadcast <- roomEvent{room: p.ProjectID, payload: payload, exclude: c}

	default:
		c.sendError("unknown event", "")
	}
}

func (c *Client) sendError(message, hint string) {
	payload, err := marshalEvent(EventError, errorOut{Message: message, Hint: hint})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) sendAppError(err error) {
	if appErr := apperr.As(err); appErr != nil && appErr.Kind != apperr.KindInternal {
		c.sendError(appErr.Message, appErr.Hint)
		return
	}
	c.sendError("internal error", "")
}

// writePump drains the send channel onto the socket and keeps it alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
