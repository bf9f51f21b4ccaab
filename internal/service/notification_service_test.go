package service

import (
	"context"
	"testing"

	"linkparty/internal/models"
	"linkparty/internal/push"
)

type notificationRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	getByIDFn     func(context.Context, uint) (*models.Notification, error)
	listForUserFn func(context.Context, uint, bool, int, int) ([]models.Notification, error)
	countUnreadFn func(context.Context, uint) (int64, error)
	markReadFn    func(context.Context, uint, uint) (bool, error)
	markAllReadFn func(context.Context, uint) (int64, error)
	deleteFn      func(context.Context, uint, uint) (bool, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	return s.createFn(ctx, notification)
}
func (s *notificationRepoStub) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.getByIDFn(ctx, id)
}
func (s *notificationRepoStub) ListForUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	return s.listForUserFn(ctx, userID, unreadOnly, limit, offset)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, userID, notificationID uint) (bool, error) {
	return s.markReadFn(ctx, userID, notificationID)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.markAllReadFn(ctx, userID)
}
func (s *notificationRepoStub) Delete(ctx context.Context, userID, notificationID uint) (bool, error) {
	return s.deleteFn(ctx, userID, notificationID)
}

type pushRepoStub struct {
	upsertFn           func(context.Context, *models.PushSubscription) error
	listForUserFn      func(context.Context, uint) ([]models.PushSubscription, error)
	deleteByEndpointFn func(context.Context, uint, string) (bool, error)
	deleteByIDFn       func(context.Context, uint) error
}

func (s *pushRepoStub) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	return s.upsertFn(ctx, sub)
}
func (s *pushRepoStub) ListForUser(ctx context.Context, userID uint) ([]models.PushSubscription, error) {
	return s.listForUserFn(ctx, userID)
}
func (s *pushRepoStub) DeleteByEndpoint(ctx context.Context, userID uint, endpoint string) (bool, error) {
	return s.deleteByEndpointFn(ctx, userID, endpoint)
}
func (s *pushRepoStub) DeleteByID(ctx context.Context, id uint) error {
	return s.deleteByIDFn(ctx, id)
}

type pushSenderStub struct {
	sendFn func(context.Context, string, []byte) error
}

func (s *pushSenderStub) Send(ctx context.Context, endpoint string, payload []byte) error {
	return s.sendFn(ctx, endpoint, payload)
}

func noopNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		createFn:      func(context.Context, *models.Notification) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Notification, error) { return &models.Notification{ID: id}, nil },
		listForUserFn: func(context.Context, uint, bool, int, int) ([]models.Notification, error) { return nil, nil },
		countUnreadFn: func(context.Context, uint) (int64, error) { return 0, nil },
		markReadFn:    func(context.Context, uint, uint) (bool, error) { return true, nil },
		markAllReadFn: func(context.Context, uint) (int64, error) { return 0, nil },
		deleteFn:      func(context.Context, uint, uint) (bool, error) { return true, nil },
	}
}

func noopPushRepo() *pushRepoStub {
	return &pushRepoStub{
		upsertFn:           func(context.Context, *models.PushSubscription) error { return nil },
		listForUserFn:      func(context.Context, uint) ([]models.PushSubscription, error) { return nil, nil },
		deleteByEndpointFn: func(context.Context, uint, string) (bool, error) { return true, nil },
		deleteByIDFn:       func(context.Context, uint) error { return nil },
	}
}

func TestNotificationServiceNotifyRejectsUnknownType(t *testing.T) {
	svc := NewNotificationService(noopNotificationRepo(), noopPushRepo(), nil, nil)
	err := svc.Notify(context.Background(), 1, "mystery", "t", "b", nil)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestNotificationServiceNotifyWritesInboxRow(t *testing.T) {
	var stored *models.Notification
	repo := noopNotificationRepo()
	repo.createFn = func(_ context.Context, n *models.Notification) error {
		stored = n
		return nil
	}
	svc := NewNotificationService(repo, noopPushRepo(), nil, nil)

	err := svc.Notify(context.Background(), 7, models.NotificationTypeFriendRequest,
		"New friend request", "alice sent you a friend request", map[string]any{"request_id": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.UserID != 7 || stored.Type != models.NotificationTypeFriendRequest {
		t.Fatalf("unexpected stored notification: %+v", stored)
	}
}

func TestNotificationServicePushFanoutDropsStaleSubscription(t *testing.T) {
	var deletedSub uint
	pushRepo := noopPushRepo()
	pushRepo.listForUserFn = func(context.Context, uint) ([]models.PushSubscription, error) {
		return []models.PushSubscription{
			{ID: 1, Endpoint: "https://push.example/stale"},
			{ID: 2, Endpoint: "https://push.example/live"},
		}, nil
	}
	pushRepo.deleteByIDFn = func(_ context.Context, id uint) error {
		deletedSub = id
		return nil
	}
	var delivered []string
	sender := &pushSenderStub{
		sendFn: func(_ context.Context, endpoint string, _ []byte) error {
			if endpoint == "https://push.example/stale" {
				return push.ErrStaleSubscription
			}
			delivered = append(delivered, endpoint)
			return nil
		},
	}
	svc := NewNotificationService(noopNotificationRepo(), pushRepo, nil, sender)

	err := svc.Notify(context.Background(), 7, models.NotificationTypePartyInvite, "t", "b", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedSub != 1 {
		t.Fatalf("expected stale subscription 1 to be deleted, got %d", deletedSub)
	}
	if len(delivered) != 1 || delivered[0] != "https://push.example/live" {
		t.Fatalf("expected delivery to the live endpoint only, got %v", delivered)
	}
}

func TestNotificationServiceMarkReadNotFound(t *testing.T) {
	repo := noopNotificationRepo()
	repo.markReadFn = func(context.Context, uint, uint) (bool, error) { return false, nil }
	svc := NewNotificationService(repo, noopPushRepo(), nil, nil)
	err := svc.MarkRead(context.Background(), 1, 99)
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestNotificationServiceListClampsLimit(t *testing.T) {
	var gotLimit int
	repo := noopNotificationRepo()
	repo.listForUserFn = func(_ context.Context, _ uint, _ bool, limit, _ int) ([]models.Notification, error) {
		gotLimit = limit
		return nil, nil
	}
	svc := NewNotificationService(repo, noopPushRepo(), nil, nil)

	if _, err := svc.List(context.Background(), 1, false, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 50 {
		t.Fatalf("expected limit clamped to 50, got %d", gotLimit)
	}
}

func TestNotificationServiceSubscribeRequiresEndpoint(t *testing.T) {
	svc := NewNotificationService(noopNotificationRepo(), noopPushRepo(), nil, nil)
	err := svc.Subscribe(context.Background(), 1, "", nil)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestNotificationServiceUnsubscribeNotFound(t *testing.T) {
	pushRepo := noopPushRepo()
	pushRepo.deleteByEndpointFn = func(context.Context, uint, string) (bool, error) { return false, nil }
	svc := NewNotificationService(noopNotificationRepo(), pushRepo, nil, nil)
	err := svc.Unsubscribe(context.Background(), 1, "https://push.example/x")
	assertAppErrorCode(t, err, "NOT_FOUND")
}
