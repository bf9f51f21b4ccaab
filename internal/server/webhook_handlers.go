package server

import (
	"encoding/json"

	"linkparty/internal/models"

	"github.com/gofiber/fiber/v2"
)

// emailWebhookPayload is the provider's event envelope. The raw body is
// stored alongside the extracted fields.
type emailWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		EmailID string   `json:"email_id"`
		To      []string `json:"to"`
	} `json:"data"`
}

// EmailWebhook ingests signed email delivery events. The signature covers
// the raw body, so verification happens before any parsing.
func (s *Server) EmailWebhook(c *fiber.Ctx) error {
	body := c.Body()

	err := s.webhookService.VerifySignature(
		c.Get("svix-id"),
		c.Get("svix-timestamp"),
		body,
		c.Get("svix-signature"),
	)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var payload emailWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid webhook payload"))
	}

	recipient := ""
	if len(payload.Data.To) > 0 {
		recipient = payload.Data.To[0]
	}

	if err := s.webhookService.Ingest(c.UserContext(),
		models.EmailEventType(payload.Type), payload.Data.EmailID, recipient, body); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
