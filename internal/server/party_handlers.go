package server

import (
	"strconv"
	"strings"

	"linkparty/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type createPartyRequest struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Password    string `json:"password"`
}

type joinPartyRequest struct {
	Code        string `json:"code"`
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type leavePartyRequest struct {
	SessionID string `json:"session_id"`
}

// CreateParty creates a new party room hosted by the caller's session.
func (s *Server) CreateParty(c *fiber.Ctx) error {
	var req createPartyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := s.optionalUserID(c)
	party, err := s.partyService.CreateParty(c.UserContext(),
		sessionID(c, req.SessionID), req.DisplayName, req.Name, req.Password, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(partyResponse(party))
}

// JoinParty joins an existing party by code.
func (s *Server) JoinParty(c *fiber.Ctx) error {
	var req joinPartyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := s.optionalUserID(c)
	party, err := s.partyService.JoinParty(c.UserContext(),
		req.Code, sessionID(c, req.SessionID), req.DisplayName, req.Password, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(partyResponse(party))
}

// GetParty returns a party and its members.
func (s *Server) GetParty(c *fiber.Ctx) error {
	party, err := s.partyService.GetParty(c.UserContext(), c.Params("code"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(partyResponse(party))
}

// LeaveParty removes the caller's session from the party. The host leaving
// closes the party for everyone.
func (s *Server) LeaveParty(c *fiber.Ctx) error {
	var req leavePartyRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sid := sessionID(c, req.SessionID)
	if sid == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("session id is required"))
	}

	if err := s.partyService.LeaveParty(c.UserContext(), c.Params("code"), sid); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "left party"})
}

// CronCleanup runs the expiry sweep. It is guarded by a bearer secret so
// only the scheduler can trigger it.
func (s *Server) CronCleanup(c *fiber.Ctx) error {
	auth := c.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || s.config.CronSecret == "" || token != s.config.CronSecret {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid cron secret"))
	}

	result, err := s.partyService.Sweep(c.UserContext())
	if err != nil {
		// Report partial progress alongside the failure.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "sweep aborted",
			"result": result,
		})
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// optionalUserID attempts to extract a user ID from the Authorization header
// but does not enforce it. Party routes are public; a logged-in caller still
// gets their member row linked to their account.
func (s *Server) optionalUserID(c *fiber.Ctx) *uint {
	if uid := currentUserID(c); uid != nil {
		return uid
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil
	}
	id64, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(id64)
	return &id
}

// partyResponse shapes a party for the wire: the password hash never leaves
// the server, only whether one is set.
func partyResponse(p *models.Party) fiber.Map {
	members := make([]fiber.Map, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, fiber.Map{
			"session_id":   m.SessionID,
			"display_name": m.DisplayName,
			"avatar":       m.Avatar,
			"is_host":      m.IsHost,
		})
	}

	queue := make([]fiber.Map, 0, len(p.QueueItems))
	for _, q := range p.QueueItems {
		queue = append(queue, fiber.Map{
			"id":       q.ID,
			"url":      q.URL,
			"title":    q.Title,
			"position": q.Position,
		})
	}

	return fiber.Map{
		"code":         p.Code,
		"name":         p.Name,
		"has_password": p.HasPassword(),
		"expires_at":   p.ExpiresAt,
		"members":      members,
		"queue":        queue,
		"created_at":   p.CreatedAt,
	}
}
