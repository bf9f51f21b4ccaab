// Package service contains the business logic layer.
package service

import (
	"context"
	"errors"
	"fmt"

	"linkparty/internal/middleware"
	"linkparty/internal/models"
	"linkparty/internal/repository"
)

// Dispatcher records a notification and fans it out best-effort. Implemented
// by NotificationService; stubbed in tests.
type Dispatcher interface {
	Notify(ctx context.Context, userID uint, notifType models.NotificationType, title, body string, data map[string]any) error
}

// FriendService provides friend-request and friendship business logic.
//
// The relationship between any two users is one of four states: none, a
// pending request in one direction, or mutual friends. Mutual friendship is
// stored as a matched pair of accepted rows, one per direction; a pending
// request is a single row from sender to recipient.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	blockRepo  repository.BlockRepository
	dispatcher Dispatcher
}

// NewFriendService returns a new FriendService. The dispatcher may be nil,
// in which case no notifications are sent.
func NewFriendService(
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
	blockRepo repository.BlockRepository,
	dispatcher Dispatcher,
) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		blockRepo:  blockRepo,
		dispatcher: dispatcher,
	}
}

// SendFriendRequest sends a friend request to the target user.
func (s *FriendService) SendFriendRequest(ctx context.Context, userID, targetUserID uint) (*models.Friendship, error) {
	if userID == targetUserID {
		return nil, models.NewValidationError("Cannot send friend request to yourself")
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, targetUserID); err != nil {
		return nil, err
	}

	blocked, err := s.blockRepo.ExistsBetween(ctx, userID, targetUserID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, models.NewValidationError("Cannot send friend request to this user")
	}

	edges, err := s.friendRepo.GetBetweenUsers(ctx, userID, targetUserID)
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		switch edge.Status {
		case models.FriendshipStatusAccepted:
			return nil, models.NewConflictError("You are already friends")
		case models.FriendshipStatusPending:
			if edge.UserID == userID {
				return nil, models.NewConflictError("Friend request already sent")
			}
			return nil, models.NewConflictError("This user already sent you a friend request. Accept it instead.")
		}
	}

	friendship := &models.Friendship{
		UserID:   userID,
		FriendID: targetUserID,
		Status:   models.FriendshipStatusPending,
	}
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		// A raced duplicate request lands on the unique index and reads
		// the same as a pre-existing one.
		if errors.Is(err, repository.ErrDuplicateEdge) {
			return nil, models.NewConflictError("Friend request already sent")
		}
		return nil, err
	}

	s.notify(ctx, targetUserID, models.NotificationTypeFriendRequest,
		"New friend request",
		fmt.Sprintf("%s sent you a friend request", sender.Username),
		map[string]any{"friendship_id": friendship.ID, "from_user_id": userID})

	return s.friendRepo.GetByID(ctx, friendship.ID)
}

// AcceptFriendRequest accepts a pending friend request addressed to userID.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, userID, requestID uint) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if friendship.FriendID != userID {
		return nil, models.NewUnauthorizedError("You can only accept friend requests sent to you")
	}
	if friendship.Status != models.FriendshipStatusPending {
		return nil, models.NewValidationError("Friend request is not pending")
	}

	if err := s.friendRepo.Accept(ctx, requestID); err != nil {
		return nil, err
	}

	s.notify(ctx, friendship.UserID, models.NotificationTypeFriendAccepted,
		"Friend request accepted",
		"Your friend request was accepted",
		map[string]any{"friendship_id": friendship.ID, "by_user_id": userID})

	return s.friendRepo.GetByID(ctx, requestID)
}

// DeclineFriendRequest declines a pending request addressed to userID.
func (s *FriendService) DeclineFriendRequest(ctx context.Context, userID, requestID uint) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if friendship.FriendID != userID {
		return nil, models.NewUnauthorizedError("You can only decline friend requests sent to you")
	}
	if friendship.Status != models.FriendshipStatusPending {
		return nil, models.NewValidationError("Friend request is not pending")
	}

	if err := s.friendRepo.Delete(ctx, requestID); err != nil {
		return nil, err
	}
	return friendship, nil
}

// CancelFriendRequest withdraws a pending request sent by userID.
func (s *FriendService) CancelFriendRequest(ctx context.Context, userID, requestID uint) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if friendship.UserID != userID {
		return nil, models.NewUnauthorizedError("You can only cancel friend requests you sent")
	}
	if friendship.Status != models.FriendshipStatusPending {
		return nil, models.NewValidationError("Friend request is not pending")
	}

	if err := s.friendRepo.Delete(ctx, requestID); err != nil {
		return nil, err
	}
	return friendship, nil
}

// Unfriend removes an accepted friendship. Either participant may call it;
// both directed rows are removed together.
func (s *FriendService) Unfriend(ctx context.Context, userID, friendshipID uint) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}

	if friendship.UserID != userID && friendship.FriendID != userID {
		return nil, models.NewUnauthorizedError("You can only remove your own friendships")
	}
	if friendship.Status != models.FriendshipStatusAccepted {
		return nil, models.NewValidationError("Not an accepted friendship")
	}

	if err := s.friendRepo.DeletePair(ctx, friendship.UserID, friendship.FriendID); err != nil {
		return nil, err
	}
	return friendship, nil
}

// BlockUser blocks the target user and severs any existing relationship,
// pending or accepted, in both directions.
func (s *FriendService) BlockUser(ctx context.Context, userID, targetUserID uint) error {
	if userID == targetUserID {
		return models.NewValidationError("Cannot block yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, targetUserID); err != nil {
		return err
	}

	block := &models.UserBlock{BlockerID: userID, BlockedID: targetUserID}
	if err := s.blockRepo.Create(ctx, block); err != nil {
		if errors.Is(err, repository.ErrDuplicateEdge) {
			return models.NewConflictError("User already blocked")
		}
		return err
	}

	return s.friendRepo.DeleteBetween(ctx, userID, targetUserID)
}

// UnblockUser removes a block userID placed on the target.
func (s *FriendService) UnblockUser(ctx context.Context, userID, targetUserID uint) error {
	removed, err := s.blockRepo.Delete(ctx, userID, targetUserID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundMessageError("Block not found")
	}
	return nil
}

// GetFriends returns the list of friends for the user.
func (s *FriendService) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.friendRepo.GetFriends(ctx, userID)
}

// GetPendingRequests returns pending friend requests addressed to the user.
func (s *FriendService) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.GetPendingRequests(ctx, userID)
}

// GetSentRequests returns friend requests sent by the user.
func (s *FriendService) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.GetSentRequests(ctx, userID)
}

// GetFriendshipStatus returns the relationship state between two users:
// "none", "friends", "pending_sent", "pending_received" or "blocked".
func (s *FriendService) GetFriendshipStatus(ctx context.Context, userID, targetUserID uint) (string, uint, error) {
	blocked, err := s.blockRepo.ExistsBetween(ctx, userID, targetUserID)
	if err != nil {
		return "", 0, err
	}
	if blocked {
		return "blocked", 0, nil
	}

	edges, err := s.friendRepo.GetBetweenUsers(ctx, userID, targetUserID)
	if err != nil {
		return "", 0, err
	}

	for _, edge := range edges {
		switch edge.Status {
		case models.FriendshipStatusAccepted:
			return "friends", edge.ID, nil
		case models.FriendshipStatusPending:
			if edge.UserID == userID {
				return "pending_sent", edge.ID, nil
			}
			return "pending_received", edge.ID, nil
		}
	}
	return "none", 0, nil
}

// notify dispatches best-effort. Notification failures never fail the
// mutation that triggered them.
func (s *FriendService) notify(ctx context.Context, userID uint, notifType models.NotificationType, title, body string, data map[string]any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Notify(ctx, userID, notifType, title, body, data); err != nil {
		middleware.Logger.WarnContext(ctx, "notification dispatch failed",
			"user_id", userID, "type", string(notifType), "error", err)
	}
}
