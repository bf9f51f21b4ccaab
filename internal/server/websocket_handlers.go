package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"linkparty/internal/middleware"
	"linkparty/internal/models"
	"linkparty/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 30 * time.Second

// IssueWSTicket issues a short-lived single-use ticket for websocket
// authentication. Browsers cannot set an Authorization header on a websocket
// upgrade, so the client trades its JWT for a ticket first.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("ticket store unavailable")))
	}

	userID := mustUserID(c)
	ticket := uuid.NewString()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	if err := s.redis.Set(c.Context(), key, fmt.Sprintf("%d", userID), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebsocketHandler handles notification websocket connections.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		if s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime unavailable"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// PartyWebsocketHandler handles party room websocket connections. Party
// sockets are session-scoped, not account-scoped: the caller must already be
// a member of the party.
func (s *Server) PartyWebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		code, err := validation.PartyCode(conn.Params("code"))
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid party code"}`))
			_ = conn.Close()
			return
		}
		sid := conn.Query("session_id")
		if sid == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"session_id required"}`))
			_ = conn.Close()
			return
		}

		if s.partyHub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime unavailable"}`))
			_ = conn.Close()
			return
		}

		// Only members may listen in.
		ctx := context.Background()
		party, err := s.partyRepo.GetByCode(ctx, code)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"party not found"}`))
			_ = conn.Close()
			return
		}
		member, err := s.partyRepo.GetMember(ctx, party.ID, sid)
		if err != nil || member == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"not a party member"}`))
			_ = conn.Close()
			return
		}

		client, err := s.partyHub.Register(code, sid, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register session %s in party %s: %v", sid, code, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
