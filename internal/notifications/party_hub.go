package notifications

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per party room
	maxConnsPerParty = 40
	// Max total party connections
	maxTotalPartyConns = 10000
)

// PartyHub is a websocket hub that maps party code -> connected sessions.
// Unlike the notification hub it is keyed by code rather than user ID, since
// party members may be anonymous guests.
type PartyHub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	byClient   map[*Client]string
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}
}

// NewPartyHub creates a new PartyHub instance.
func NewPartyHub() *PartyHub {
	return &PartyHub{
		rooms:    make(map[string]map[*Client]struct{}),
		byClient: make(map[*Client]string),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *PartyHub) Name() string { return "party hub" }

// Register adds a connection to a party room. Returns the Client or error if
// limits exceeded.
func (h *PartyHub) Register(code, sessionID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalPartyConns {
		return nil, errors.New("server connection limit reached")
	}

	room, ok := h.rooms[code]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[code] = room
	}

	if len(room) >= maxConnsPerParty {
		return nil, errors.New("party connection limit reached")
	}

	client := NewClient(h, conn, 0)
	client.SessionID = sessionID
	room[client] = struct{}{}
	h.byClient[client] = code
	h.totalConns++

	return client, nil
}

// UnregisterClient removes a client from its room.
func (h *PartyHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	code, ok := h.byClient[client]
	if !ok {
		return
	}
	delete(h.byClient, client)
	if room, ok := h.rooms[code]; ok {
		if _, exists := room[client]; exists {
			delete(room, client)
			h.totalConns--
		}
		if len(room) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Broadcast sends message to every connection in the party room.
func (h *PartyHub) Broadcast(code, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[code]; ok {
		data := []byte(message)
		for c := range room {
			c.TrySend(data)
		}
	}
}

// RoomSize reports the number of live connections in a party room.
func (h *PartyHub) RoomSize(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// StartWiring connects the Notifier to this hub: party room events published
// on any instance reach every member's socket.
func (h *PartyHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPartySubscriber(ctx, func(channel, payload string) {
		code, ok := strings.CutPrefix(channel, "party:room:")
		if !ok {
			log.Printf("invalid party channel: %s", channel)
			return
		}
		h.Broadcast(code, payload)
	})
}

// Shutdown gracefully closes all party websocket connections.
func (h *PartyHub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	h.mu.Lock()
	for code, room := range h.rooms {
		for client := range room {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for party %s: %v", code, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for party %s: %v", code, err)
			}
		}
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.byClient = make(map[*Client]string)
	h.mu.Unlock()

	close(h.done)

	return nil
}
