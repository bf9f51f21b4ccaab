package service

import (
	"context"
	"errors"
	"testing"

	"linkparty/internal/models"
	"linkparty/internal/repository"
)

type friendRepoStub struct {
	createFn             func(context.Context, *models.Friendship) error
	getByIDFn            func(context.Context, uint) (*models.Friendship, error)
	getBetweenUsersFn    func(context.Context, uint, uint) ([]models.Friendship, error)
	getFriendsFn         func(context.Context, uint) ([]models.User, error)
	getPendingRequestsFn func(context.Context, uint) ([]models.Friendship, error)
	getSentRequestsFn    func(context.Context, uint) ([]models.Friendship, error)
	acceptFn             func(context.Context, uint) error
	deleteFn             func(context.Context, uint) error
	deletePairFn         func(context.Context, uint, uint) error
	deleteBetweenFn      func(context.Context, uint, uint) error
	createAcceptedPairFn func(context.Context, uint, uint) error
}

func (s *friendRepoStub) Create(ctx context.Context, friendship *models.Friendship) error {
	return s.createFn(ctx, friendship)
}
func (s *friendRepoStub) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	return s.getByIDFn(ctx, id)
}
func (s *friendRepoStub) GetBetweenUsers(ctx context.Context, userID1, userID2 uint) ([]models.Friendship, error) {
	return s.getBetweenUsersFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getFriendsFn(ctx, userID)
}
func (s *friendRepoStub) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.getPendingRequestsFn(ctx, userID)
}
func (s *friendRepoStub) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.getSentRequestsFn(ctx, userID)
}
func (s *friendRepoStub) Accept(ctx context.Context, friendshipID uint) error {
	return s.acceptFn(ctx, friendshipID)
}
func (s *friendRepoStub) Delete(ctx context.Context, friendshipID uint) error {
	return s.deleteFn(ctx, friendshipID)
}
func (s *friendRepoStub) DeletePair(ctx context.Context, userID, friendID uint) error {
	return s.deletePairFn(ctx, userID, friendID)
}
func (s *friendRepoStub) DeleteBetween(ctx context.Context, userID1, userID2 uint) error {
	return s.deleteBetweenFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) CreateAcceptedPair(ctx context.Context, userID1, userID2 uint) error {
	return s.createAcceptedPairFn(ctx, userID1, userID2)
}

type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	upsertFn     func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Upsert(ctx context.Context, user *models.User) error {
	return s.upsertFn(ctx, user)
}

type blockRepoStub struct {
	createFn        func(context.Context, *models.UserBlock) error
	deleteFn        func(context.Context, uint, uint) (bool, error)
	existsBetweenFn func(context.Context, uint, uint) (bool, error)
	listBlockedFn   func(context.Context, uint) ([]models.UserBlock, error)
}

func (s *blockRepoStub) Create(ctx context.Context, block *models.UserBlock) error {
	return s.createFn(ctx, block)
}
func (s *blockRepoStub) Delete(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	return s.deleteFn(ctx, blockerID, blockedID)
}
func (s *blockRepoStub) ExistsBetween(ctx context.Context, userID1, userID2 uint) (bool, error) {
	return s.existsBetweenFn(ctx, userID1, userID2)
}
func (s *blockRepoStub) ListBlocked(ctx context.Context, blockerID uint) ([]models.UserBlock, error) {
	return s.listBlockedFn(ctx, blockerID)
}

type dispatcherStub struct {
	notifyFn func(context.Context, uint, models.NotificationType, string, string, map[string]any) error
}

func (s *dispatcherStub) Notify(ctx context.Context, userID uint, notifType models.NotificationType, title, body string, data map[string]any) error {
	if s.notifyFn == nil {
		return nil
	}
	return s.notifyFn(ctx, userID, notifType, title, body, data)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "someone"}, nil
		},
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		upsertFn:     func(context.Context, *models.User) error { return nil },
	}
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		createFn: func(context.Context, *models.Friendship) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Friendship, error) {
			return &models.Friendship{ID: id}, nil
		},
		getBetweenUsersFn:    func(context.Context, uint, uint) ([]models.Friendship, error) { return nil, nil },
		getFriendsFn:         func(context.Context, uint) ([]models.User, error) { return nil, nil },
		getPendingRequestsFn: func(context.Context, uint) ([]models.Friendship, error) { return nil, nil },
		getSentRequestsFn:    func(context.Context, uint) ([]models.Friendship, error) { return nil, nil },
		acceptFn:             func(context.Context, uint) error { return nil },
		deleteFn:             func(context.Context, uint) error { return nil },
		deletePairFn:         func(context.Context, uint, uint) error { return nil },
		deleteBetweenFn:      func(context.Context, uint, uint) error { return nil },
		createAcceptedPairFn: func(context.Context, uint, uint) error { return nil },
	}
}

func noopBlockRepo() *blockRepoStub {
	return &blockRepoStub{
		createFn:        func(context.Context, *models.UserBlock) error { return nil },
		deleteFn:        func(context.Context, uint, uint) (bool, error) { return true, nil },
		existsBetweenFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		listBlockedFn:   func(context.Context, uint) ([]models.UserBlock, error) { return nil, nil },
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s app error, got %#v", code, err)
	}
}

func TestFriendServiceSendFriendRequestSelf(t *testing.T) {
	svc := NewFriendService(noopFriendRepo(), noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.SendFriendRequest(context.Background(), 3, 3)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestFriendServiceSendFriendRequestAlreadyFriends(t *testing.T) {
	repo := noopFriendRepo()
	repo.getBetweenUsersFn = func(context.Context, uint, uint) ([]models.Friendship, error) {
		return []models.Friendship{
			{UserID: 1, FriendID: 2, Status: models.FriendshipStatusAccepted},
			{UserID: 2, FriendID: 1, Status: models.FriendshipStatusAccepted},
		}, nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.SendFriendRequest(context.Background(), 1, 2)
	assertAppErrorCode(t, err, "CONFLICT")
}

func TestFriendServiceSendFriendRequestAlreadySent(t *testing.T) {
	repo := noopFriendRepo()
	repo.getBetweenUsersFn = func(context.Context, uint, uint) ([]models.Friendship, error) {
		return []models.Friendship{{UserID: 1, FriendID: 2, Status: models.FriendshipStatusPending}}, nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.SendFriendRequest(context.Background(), 1, 2)
	assertAppErrorCode(t, err, "CONFLICT")
}

func TestFriendServiceSendFriendRequestReversePending(t *testing.T) {
	repo := noopFriendRepo()
	repo.getBetweenUsersFn = func(context.Context, uint, uint) ([]models.Friendship, error) {
		return []models.Friendship{{UserID: 2, FriendID: 1, Status: models.FriendshipStatusPending}}, nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.SendFriendRequest(context.Background(), 1, 2)
	assertAppErrorCode(t, err, "CONFLICT")
}

func TestFriendServiceSendFriendRequestRacedDuplicate(t *testing.T) {
	repo := noopFriendRepo()
	repo.createFn = func(context.Context, *models.Friendship) error {
		return repository.ErrDuplicateEdge
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.SendFriendRequest(context.Background(), 1, 2)
	assertAppErrorCode(t, err, "CONFLICT")
}

func TestFriendServiceSendFriendRequestBlocked(t *testing.T) {
	blocks := noopBlockRepo()
	blocks.existsBetweenFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
	svc := NewFriendService(noopFriendRepo(), noopUserRepo(), blocks, nil)
	_, err := svc.SendFriendRequest(context.Background(), 1, 2)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestFriendServiceSendFriendRequestNotifiesRecipient(t *testing.T) {
	var notifiedUser uint
	var notifiedType models.NotificationType
	dispatcher := &dispatcherStub{
		notifyFn: func(_ context.Context, userID uint, notifType models.NotificationType, _, _ string, _ map[string]any) error {
			notifiedUser = userID
			notifiedType = notifType
			return nil
		},
	}
	svc := NewFriendService(noopFriendRepo(), noopUserRepo(), noopBlockRepo(), dispatcher)
	if _, err := svc.SendFriendRequest(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifiedUser != 2 || notifiedType != models.NotificationTypeFriendRequest {
		t.Fatalf("expected friend_request notification for user 2, got %s for user %d", notifiedType, notifiedUser)
	}
}

func TestFriendServiceAcceptOnlyRecipient(t *testing.T) {
	repo := noopFriendRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 5, UserID: 1, FriendID: 2, Status: models.FriendshipStatusPending}, nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)

	// The sender cannot accept their own request.
	_, err := svc.AcceptFriendRequest(context.Background(), 1, 5)
	assertAppErrorCode(t, err, "UNAUTHORIZED")

	// The recipient can.
	if _, err := svc.AcceptFriendRequest(context.Background(), 2, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFriendServiceAcceptNotPending(t *testing.T) {
	repo := noopFriendRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 5, UserID: 1, FriendID: 2, Status: models.FriendshipStatusAccepted}, nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.AcceptFriendRequest(context.Background(), 2, 5)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestFriendServiceDeclineOnlyRecipient(t *testing.T) {
	repo := noopFriendRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 5, UserID: 1, FriendID: 2, Status: models.FriendshipStatusPending}, nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.DeclineFriendRequest(context.Background(), 1, 5)
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}

func TestFriendServiceCancelOnlySender(t *testing.T) {
	repo := noopFriendRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 5, UserID: 1, FriendID: 2, Status: models.FriendshipStatusPending}, nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.CancelFriendRequest(context.Background(), 2, 5)
	assertAppErrorCode(t, err, "UNAUTHORIZED")

	if _, err := svc.CancelFriendRequest(context.Background(), 1, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFriendServiceUnfriendRemovesPair(t *testing.T) {
	var pairDeleted bool
	repo := noopFriendRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 5, UserID: 1, FriendID: 2, Status: models.FriendshipStatusAccepted}, nil
	}
	repo.deletePairFn = func(_ context.Context, userID, friendID uint) error {
		if userID != 1 || friendID != 2 {
			t.Fatalf("unexpected pair (%d, %d)", userID, friendID)
		}
		pairDeleted = true
		return nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)

	if _, err := svc.Unfriend(context.Background(), 2, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pairDeleted {
		t.Fatal("expected both directed rows to be deleted")
	}
}

func TestFriendServiceUnfriendOnlyParticipants(t *testing.T) {
	repo := noopFriendRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 5, UserID: 1, FriendID: 2, Status: models.FriendshipStatusAccepted}, nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
	_, err := svc.Unfriend(context.Background(), 9, 5)
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}

func TestFriendServiceBlockSeversRelationship(t *testing.T) {
	var severed bool
	repo := noopFriendRepo()
	repo.deleteBetweenFn = func(_ context.Context, a, b uint) error {
		severed = true
		return nil
	}
	svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)

	if err := svc.BlockUser(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !severed {
		t.Fatal("expected friendship rows to be deleted on block")
	}
}

func TestFriendServiceBlockDuplicate(t *testing.T) {
	blocks := noopBlockRepo()
	blocks.createFn = func(context.Context, *models.UserBlock) error {
		return repository.ErrDuplicateEdge
	}
	svc := NewFriendService(noopFriendRepo(), noopUserRepo(), blocks, nil)
	err := svc.BlockUser(context.Background(), 1, 2)
	assertAppErrorCode(t, err, "CONFLICT")
}

func TestFriendServiceStatusClassification(t *testing.T) {
	cases := []struct {
		name  string
		edges []models.Friendship
		want  string
	}{
		{"none", nil, "none"},
		{"friends", []models.Friendship{
			{ID: 1, UserID: 1, FriendID: 2, Status: models.FriendshipStatusAccepted},
			{ID: 2, UserID: 2, FriendID: 1, Status: models.FriendshipStatusAccepted},
		}, "friends"},
		{"pending sent", []models.Friendship{
			{ID: 3, UserID: 1, FriendID: 2, Status: models.FriendshipStatusPending},
		}, "pending_sent"},
		{"pending received", []models.Friendship{
			{ID: 4, UserID: 2, FriendID: 1, Status: models.FriendshipStatusPending},
		}, "pending_received"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := noopFriendRepo()
			repo.getBetweenUsersFn = func(context.Context, uint, uint) ([]models.Friendship, error) {
				return tc.edges, nil
			}
			svc := NewFriendService(repo, noopUserRepo(), noopBlockRepo(), nil)
			status, _, err := svc.GetFriendshipStatus(context.Background(), 1, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tc.want {
				t.Fatalf("expected status %q, got %q", tc.want, status)
			}
		})
	}
}
