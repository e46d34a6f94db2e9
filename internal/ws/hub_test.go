package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/models"
)

func newTestClient() *Client {
	return &Client{
		id:     "test",
		userID: primitive.NewObjectID(),
		send:   make(chan []byte, 8),
		rooms:  make(map[string]bool),
	}
}

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected event: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastReachesRoomSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	room := primitive.NewObjectID().Hex()
	a, b, outsider := newTestClient(), newTestClient(), newTestClient()
	hub.join <- subscription{client: a, room: room}
	hub.join <- subscription{client: b, room: room}
	hub.join <- subscription{client: outsider, room: "other-room"}

	msg := &models.Message{
		ID:        primitive.NewObjectID(),
		Content:   "hello room",
		Type:      models.MessageTypeText,
		CreatedAt: time.Now(),
	}
	hub.BroadcastMessage(room, msg)

	for _, c := range []*Client{a, b} {
		ev := recvEvent(t, c)
		assert.Equal(t, EventNewMessage, ev.Event)

		var got models.Message
		require.NoError(t, json.Unmarshal(ev.Data, &got))
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, "hello room", got.Content)
	}
	assertNoEvent(t, outsider)
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	room := "room-1"
	sender, other := newTestClient(), newTestClient()
	hub.join <- subscription{client: sender, room: room}
	hub.join <- subscription{client: other, room: room}

	payload, err := marshalEvent(EventTyping, typingOut{ProjectID: room, UserID: sender.userID.Hex()})
	require.NoError(t, err)
	hub.broadcast <- roomEvent{room: room, payload: payload, exclude: sender}

	ev := recvEvent(t, other)
	assert.Equal(t, EventTyping, ev.Event)
	assertNoEvent(t, sender)
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	room := "room-2"
	c := newTestClient()
	hub.join <- subscription{client: c, room: room}
	hub.leave <- subscription{client: c, room: room}

	hub.BroadcastMessage(room, &models.Message{ID: primitive.NewObjectID()})
	assertNoEvent(t, c)
}

func TestDisconnectClosesSendAndLeavesRooms(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	c := newTestClient()
	c.rooms["room-3"] = true
	hub.join <- subscription{client: c, room: "room-3"}
	hub.disconnect <- c

	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "send channel must be closed on disconnect")
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}
