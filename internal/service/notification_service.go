package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"linkparty/internal/middleware"
	"linkparty/internal/models"
	"linkparty/internal/notifications"
	"linkparty/internal/observability"
	"linkparty/internal/push"
	"linkparty/internal/repository"

	"gorm.io/datatypes"
)

// NotificationService records notifications and fans them out to side
// channels. The inbox row is the source of truth: once it is written the
// operation has succeeded, and websocket or push delivery failures are logged
// and counted but never surfaced to the caller.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	pushRepo         repository.PushRepository
	notifier         *notifications.Notifier
	pushSender       push.Sender
}

// NewNotificationService returns a new NotificationService. notifier and
// pushSender may be nil; the corresponding channel is then skipped.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	pushRepo repository.PushRepository,
	notifier *notifications.Notifier,
	pushSender push.Sender,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		pushRepo:         pushRepo,
		notifier:         notifier,
		pushSender:       pushSender,
	}
}

// Notify validates the type, writes the inbox row, then fans out.
func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType models.NotificationType, title, body string, data map[string]any) error {
	if !models.ValidNotificationType(notifType) {
		return models.NewValidationError(fmt.Sprintf("unknown notification type %q", notifType))
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return models.NewInternalError(fmt.Errorf("marshal notification data: %w", err))
	}

	notification := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   datatypes.JSON(dataJSON),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	s.fanOut(ctx, notification)
	return nil
}

// fanOut delivers the notification over websocket pub/sub and web push.
func (s *NotificationService) fanOut(ctx context.Context, n *models.Notification) {
	payload, err := json.Marshal(map[string]any{
		"type": "notification",
		"payload": map[string]any{
			"id":    n.ID,
			"kind":  string(n.Type),
			"title": n.Title,
			"body":  n.Body,
			"data":  n.Data,
		},
	})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "marshal notification payload", "error", err)
		return
	}

	if s.notifier != nil {
		if err := s.notifier.PublishUser(ctx, n.UserID, string(payload)); err != nil {
			observability.NotificationFanout.WithLabelValues("websocket", "error").Inc()
			middleware.Logger.WarnContext(ctx, "websocket fan-out failed", "user_id", n.UserID, "error", err)
		} else {
			observability.NotificationFanout.WithLabelValues("websocket", "ok").Inc()
		}
	}

	if s.pushSender == nil || s.pushRepo == nil {
		return
	}
	subs, err := s.pushRepo.ListForUser(ctx, n.UserID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "list push subscriptions failed", "user_id", n.UserID, "error", err)
		return
	}
	for _, sub := range subs {
		if err := s.pushSender.Send(ctx, sub.Endpoint, payload); err != nil {
			if errors.Is(err, push.ErrStaleSubscription) {
				observability.NotificationFanout.WithLabelValues("push", "stale").Inc()
				if err := s.pushRepo.DeleteByID(ctx, sub.ID); err != nil {
					middleware.Logger.WarnContext(ctx, "delete stale push subscription failed", "id", sub.ID, "error", err)
				}
				continue
			}
			observability.NotificationFanout.WithLabelValues("push", "error").Inc()
			middleware.Logger.WarnContext(ctx, "push fan-out failed", "user_id", n.UserID, "error", err)
			continue
		}
		observability.NotificationFanout.WithLabelValues("push", "ok").Inc()
	}
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

// CountUnread returns the user's unread notification count.
func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	updated, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return models.NewNotFoundError("Notification", notificationID)
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read and returns the
// number updated.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Subscribe stores or refreshes a push subscription for the user.
func (s *NotificationService) Subscribe(ctx context.Context, userID uint, endpoint string, keys json.RawMessage) error {
	if endpoint == "" {
		return models.NewValidationError("endpoint is required")
	}
	sub := &models.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		Keys:     datatypes.JSON(keys),
	}
	return s.pushRepo.Upsert(ctx, sub)
}

// Unsubscribe removes the user's push subscription for an endpoint.
func (s *NotificationService) Unsubscribe(ctx context.Context, userID uint, endpoint string) error {
	removed, err := s.pushRepo.DeleteByEndpoint(ctx, userID, endpoint)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundMessageError("Subscription not found")
	}
	return nil
}
