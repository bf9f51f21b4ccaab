package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb)
}

func TestChannelNames(t *testing.T) {
	if got := UserChannel(42); got != "notifications:user:42" {
		t.Fatalf("user channel = %q", got)
	}
	if got := PartyChannel("ABC234"); got != "party:room:ABC234" {
		t.Fatalf("party channel = %q", got)
	}
}

func TestNilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	ctx := context.Background()

	if err := n.PublishUser(ctx, 1, "x"); err != nil {
		t.Fatalf("publish user: %v", err)
	}
	if err := n.PublishParty(ctx, "ABC234", "x"); err != nil {
		t.Fatalf("publish party: %v", err)
	}
	if err := n.StartPatternSubscriber(ctx, nil); err != nil {
		t.Fatalf("start subscriber: %v", err)
	}
}

func TestUserPublishReachesHub(t *testing.T) {
	n := newTestNotifier(t)
	h := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.StartWiring(ctx, n); err != nil {
		t.Fatalf("start wiring: %v", err)
	}

	target, _ := h.Register(7, nil)
	other, _ := h.Register(8, nil)

	// Subscriber registration races the publish, so retry until delivery.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := n.PublishUser(ctx, 7, `{"type":"friend_request"}`); err != nil {
			t.Fatalf("publish: %v", err)
		}
		select {
		case msg := <-target.Send:
			if string(msg) != `{"type":"friend_request"}` {
				t.Fatalf("unexpected payload: %s", msg)
			}
			assertEmpty(t, other)
			return
		case <-time.After(50 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("timed out waiting for delivery")
			}
		}
	}
}

func TestPartyPublishReachesRoom(t *testing.T) {
	n := newTestNotifier(t)
	h := NewPartyHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.StartWiring(ctx, n); err != nil {
		t.Fatalf("start wiring: %v", err)
	}

	member, _ := h.Register("ABC234", "sess-a", nil)
	outsider, _ := h.Register("XYZ789", "sess-b", nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := n.PublishParty(ctx, "ABC234", `{"type":"member_joined"}`); err != nil {
			t.Fatalf("publish: %v", err)
		}
		select {
		case msg := <-member.Send:
			if string(msg) != `{"type":"member_joined"}` {
				t.Fatalf("unexpected payload: %s", msg)
			}
			assertEmpty(t, outsider)
			return
		case <-time.After(50 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("timed out waiting for delivery")
			}
		}
	}
}
