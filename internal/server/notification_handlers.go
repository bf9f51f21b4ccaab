package server

import (
	"encoding/json"

	"linkparty/internal/models"

	"github.com/gofiber/fiber/v2"
)

type pushSubscribeRequest struct {
	Endpoint string          `json:"endpoint"`
	Keys     json.RawMessage `json:"keys"`
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// GetNotifications returns a page of the caller's notifications, newest
// first, plus the unread count.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID := mustUserID(c)
	page := parsePagination(c, 50)
	unreadOnly := c.QueryBool("unread", false)

	items, err := s.notifService.List(c.UserContext(), userID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	unread, err := s.notifService.CountUnread(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"notifications": items,
		"unread_count":  unread,
	})
}

// MarkNotificationRead marks one notification as read.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notifService.MarkRead(c.UserContext(), mustUserID(c), notificationID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "marked read"})
}

// MarkAllNotificationsRead marks every unread notification as read.
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	updated, err := s.notifService.MarkAllRead(c.UserContext(), mustUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"updated": updated})
}

// PushSubscribe stores a browser push subscription for the caller.
func (s *Server) PushSubscribe(c *fiber.Ctx) error {
	var req pushSubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.notifService.Subscribe(c.UserContext(), mustUserID(c), req.Endpoint, req.Keys); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "subscribed"})
}

// PushUnsubscribe removes a push subscription by endpoint.
func (s *Server) PushUnsubscribe(c *fiber.Ctx) error {
	var req pushUnsubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.notifService.Unsubscribe(c.UserContext(), mustUserID(c), req.Endpoint); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "unsubscribed"})
}

// PushTest sends the caller a test notification through the full dispatch
// pipeline (inbox row, websocket, push).
func (s *Server) PushTest(c *fiber.Ctx) error {
	userID := mustUserID(c)
	err := s.notifService.Notify(c.UserContext(), userID, models.NotificationTypePartyInvite,
		"Test notification", "Push notifications are working.", map[string]any{"test": true})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "test notification sent"})
}
