package server

import (
	"linkparty/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createInviteRequest struct {
	Email string `json:"email"`
}

type claimInvitesRequest struct {
	PartyCode string `json:"party_code"`
}

// CreateInvite emails a party invite. The token later claims into a
// friendship when the recipient signs in.
func (s *Server) CreateInvite(c *fiber.Ctx) error {
	var req createInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	invite, err := s.inviteService.CreateInvite(c.UserContext(), mustUserID(c), c.Params("code"), req.Email)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"party_code": invite.PartyCode,
		"email":      invite.Email,
		"expires_at": invite.ExpiresAt,
	})
}

// ClaimInvites claims all outstanding invites addressed to the caller's
// email, optionally scoped to a party code.
func (s *Server) ClaimInvites(c *fiber.Ctx) error {
	var req claimInvitesRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	email, _ := c.Locals("userEmail").(string)
	if email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token carries no email address"))
	}

	created, err := s.inviteService.ClaimInvites(c.UserContext(), mustUserID(c), email, req.PartyCode)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"friendships_created": created})
}
