package notifications

import (
	"fmt"
	"testing"
)

func recvOne(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	default:
		t.Fatal("expected a queued message")
		return ""
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message queued: %s", msg)
	default:
	}
}

func TestHubRegisterPerUserCap(t *testing.T) {
	h := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		if _, err := h.Register(1, nil); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	if _, err := h.Register(1, nil); err == nil {
		t.Fatal("expected per-user limit error")
	}

	// Other users are unaffected by one user's cap.
	if _, err := h.Register(2, nil); err != nil {
		t.Fatalf("register other user: %v", err)
	}
}

func TestHubUnregisterFreesSlot(t *testing.T) {
	h := NewHub()

	clients := make([]*Client, 0, maxConnsPerUser)
	for i := 0; i < maxConnsPerUser; i++ {
		c, err := h.Register(1, nil)
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		clients = append(clients, c)
	}

	h.UnregisterClient(clients[0])
	if _, err := h.Register(1, nil); err != nil {
		t.Fatalf("register after unregister: %v", err)
	}

	// Double unregister is a no-op.
	h.UnregisterClient(clients[0])
	if !h.IsOnline(1) {
		t.Fatal("user should still be online")
	}
}

func TestHubIsOnline(t *testing.T) {
	h := NewHub()

	if h.IsOnline(1) {
		t.Fatal("should be offline before register")
	}

	c, err := h.Register(1, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !h.IsOnline(1) {
		t.Fatal("should be online after register")
	}

	h.UnregisterClient(c)
	if h.IsOnline(1) {
		t.Fatal("should be offline after last unregister")
	}
}

func TestHubBroadcastScopedToUser(t *testing.T) {
	h := NewHub()

	a1, _ := h.Register(1, nil)
	a2, _ := h.Register(1, nil)
	b, _ := h.Register(2, nil)

	h.Broadcast(1, `{"type":"friend_request"}`)

	if got := recvOne(t, a1); got != `{"type":"friend_request"}` {
		t.Fatalf("unexpected payload: %s", got)
	}
	recvOne(t, a2)
	assertEmpty(t, b)

	// Broadcast to an unknown user is a no-op.
	h.Broadcast(99, "ignored")
}

func TestHubBroadcastAll(t *testing.T) {
	h := NewHub()

	a, _ := h.Register(1, nil)
	b, _ := h.Register(2, nil)

	h.BroadcastAll("maintenance")

	if got := recvOne(t, a); got != "maintenance" {
		t.Fatalf("unexpected payload: %s", got)
	}
	if got := recvOne(t, b); got != "maintenance" {
		t.Fatalf("unexpected payload: %s", got)
	}
}

func TestPartyHubRoomCap(t *testing.T) {
	h := NewPartyHub()

	for i := 0; i < maxConnsPerParty; i++ {
		if _, err := h.Register("ABC234", fmt.Sprintf("sess-%d", i), nil); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	if _, err := h.Register("ABC234", "sess-over", nil); err == nil {
		t.Fatal("expected party limit error")
	}

	// A different room has its own cap.
	if _, err := h.Register("XYZ789", "sess-0", nil); err != nil {
		t.Fatalf("register other room: %v", err)
	}
}

func TestPartyHubUnregisterCleansRoom(t *testing.T) {
	h := NewPartyHub()

	a, err := h.Register("ABC234", "sess-a", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	b, err := h.Register("ABC234", "sess-b", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if got := h.RoomSize("ABC234"); got != 2 {
		t.Fatalf("room size = %d, want 2", got)
	}

	h.UnregisterClient(a)
	if got := h.RoomSize("ABC234"); got != 1 {
		t.Fatalf("room size = %d, want 1", got)
	}

	h.UnregisterClient(b)
	if got := h.RoomSize("ABC234"); got != 0 {
		t.Fatalf("room size = %d, want 0", got)
	}

	// Unregistering a client the hub never saw is a no-op.
	h.UnregisterClient(&Client{Hub: h})
}

func TestPartyHubBroadcastScopedToRoom(t *testing.T) {
	h := NewPartyHub()

	a, _ := h.Register("ABC234", "sess-a", nil)
	b, _ := h.Register("XYZ789", "sess-b", nil)

	h.Broadcast("ABC234", `{"type":"member_joined"}`)

	if got := recvOne(t, a); got != `{"type":"member_joined"}` {
		t.Fatalf("unexpected payload: %s", got)
	}
	assertEmpty(t, b)
}

func TestPartyHubSessionIDCarried(t *testing.T) {
	h := NewPartyHub()

	c, err := h.Register("ABC234", "sess-a", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.SessionID != "sess-a" {
		t.Fatalf("session id = %q, want sess-a", c.SessionID)
	}
	if c.UserID != 0 {
		t.Fatalf("party clients are anonymous, got user %d", c.UserID)
	}
}
