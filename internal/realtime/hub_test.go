package realtime

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"lms-realtime/internal/models"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func newTestClient(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := &Client{
		hub:      h,
		send:     make(chan []byte, 16),
		socketID: id,
		rooms:    make(map[string]bool),
	}
	h.Register(c)
	return c
}

func recvEvent(t *testing.T, c *Client) models.OutgoingEvent {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatalf("send channel of %s closed", c.socketID)
		}
		var ev models.OutgoingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.socketID)
	}
	return models.OutgoingEvent{}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("client %s unexpectedly received %s", c.socketID, data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastIsScopedToRoom(t *testing.T) {
	h := newTestHub(t)
	inBatchA := newTestClient(t, h, "a")
	inBatchB := newTestClient(t, h, "b")

	h.Join(inBatchA, BatchRoom("A"))
	h.Join(inBatchB, BatchRoom("B"))

	h.Broadcast(BatchRoom("A"), models.EventReceiveMessage, map[string]string{"id": "m1"})

	ev := recvEvent(t, inBatchA)
	if ev.Event != models.EventReceiveMessage {
		t.Errorf("event = %q", ev.Event)
	}
	assertSilent(t, inBatchB)
}

func TestSenderIsAlsoARecipient(t *testing.T) {
	h := newTestHub(t)
	sender := newTestClient(t, h, "sender")
	peer := newTestClient(t, h, "peer")

	h.Join(sender, BatchRoom("A"))
	h.Join(peer, BatchRoom("A"))

	// The hub has no notion of origin: a room broadcast reaches every
	// member, which is what gives the sender its authoritative echo.
	h.Broadcast(BatchRoom("A"), models.EventReceiveMessage, map[string]string{"id": "m1"})

	recvEvent(t, sender)
	recvEvent(t, peer)
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient(t, h, "a")

	h.Join(c, BatchRoom("A"))
	h.Join(c, BatchRoom("A"))

	if got := h.RoomSize(BatchRoom("A")); got != 1 {
		t.Fatalf("room size = %d, want 1", got)
	}

	h.Broadcast(BatchRoom("A"), models.EventReceiveMessage, nil)
	recvEvent(t, c)
	assertSilent(t, c)
}

func TestDeliveryPreservesBroadcastOrder(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient(t, h, "a")
	h.Join(c, BatchRoom("A"))

	for i := 0; i < 5; i++ {
		h.Broadcast(BatchRoom("A"), models.EventReceiveMessage, map[string]int{"seq": i})
	}

	for i := 0; i < 5; i++ {
		ev := recvEvent(t, c)
		data, _ := json.Marshal(ev.Data)
		want := fmt.Sprintf(`{"seq":%d}`, i)
		if string(data) != want {
			t.Fatalf("frame %d = %s, want %s", i, data, want)
		}
	}
}

func TestBroadcastAllReachesEveryClient(t *testing.T) {
	h := newTestHub(t)
	clients := []*Client{
		newTestClient(t, h, "a"),
		newTestClient(t, h, "b"),
		newTestClient(t, h, "c"),
	}
	h.Join(clients[0], RoleRoom("trainer"))

	h.BroadcastAll(models.EventReceiveNotification, map[string]string{"id": "n1"})

	for _, c := range clients {
		ev := recvEvent(t, c)
		if ev.Event != models.EventReceiveNotification {
			t.Errorf("client %s event = %q", c.socketID, ev.Event)
		}
	}
}

func TestUnregisterDropsRoomMemberships(t *testing.T) {
	h := newTestHub(t)
	leaving := newTestClient(t, h, "a")
	staying := newTestClient(t, h, "b")

	h.Join(leaving, BatchRoom("A"))
	h.Join(staying, BatchRoom("A"))

	h.Unregister(leaving)

	deadline := time.Now().Add(time.Second)
	for h.RoomSize(BatchRoom("A")) != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("room size = %d, want 1", h.RoomSize(BatchRoom("A")))
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.Broadcast(BatchRoom("A"), models.EventReceiveMessage, nil)
	recvEvent(t, staying)
}

func TestLeaveRemovesOnlyThatRoom(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient(t, h, "a")

	h.Join(c, BatchRoom("A"))
	h.Join(c, UserRoom("u1"))
	h.Leave(c, BatchRoom("A"))

	if h.RoomSize(BatchRoom("A")) != 0 {
		t.Error("batch room should be empty")
	}

	h.Broadcast(UserRoom("u1"), models.EventReceiveNotification, nil)
	recvEvent(t, c)
}

func TestRoomKeys(t *testing.T) {
	if got := BatchRoom("42"); got != "batch_42" {
		t.Errorf("BatchRoom = %q", got)
	}
	if got := UserRoom("u-1"); got != "user_u-1" {
		t.Errorf("UserRoom = %q", got)
	}
	if got := RoleRoom("Trainer"); got != "role_trainer" {
		t.Errorf("RoleRoom must lowercase, got %q", got)
	}
}
