package repository

import (
	"context"
	"errors"

	"linkparty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository defines the interface for friendship-edge data operations.
//
// The mutual-friendship invariant (a matched pair of accepted rows, or a lone
// pending row, and nothing else) is maintained here by running the multi-row
// mutations (Accept, DeletePair, DeleteBetween) inside transactions.
type FriendRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id uint) (*models.Friendship, error)
	GetBetweenUsers(ctx context.Context, userID1, userID2 uint) ([]models.Friendship, error)
	GetFriends(ctx context.Context, userID uint) ([]models.User, error)
	GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
	GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
	Accept(ctx context.Context, friendshipID uint) error
	Delete(ctx context.Context, friendshipID uint) error
	DeletePair(ctx context.Context, userID, friendID uint) error
	DeleteBetween(ctx context.Context, userID1, userID2 uint) error
	CreateAcceptedPair(ctx context.Context, userID1, userID2 uint) error
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	if err := r.db.WithContext(ctx).Create(friendship).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEdge
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).Preload("User").Preload("Friend").First(&friendship, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Friendship", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &friendship, nil
}

// GetBetweenUsers returns every edge between the two users, in either
// direction. Zero rows means no relationship; one pending row means an open
// request; two accepted rows mean a mutual friendship.
func (r *friendRepository) GetBetweenUsers(ctx context.Context, userID1, userID2 uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID1, userID2, userID2, userID1).
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friendships, nil
}

func (r *friendRepository) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User

	// The directed model makes a friend list a single indexed lookup:
	// accepted rows owned by the user, joined to the friend column.
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN friendships f ON users.id = f.friend_id").
		Where("f.user_id = ? AND f.status = ?", userID, models.FriendshipStatusAccepted).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return users, nil
}

func (r *friendRepository) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship

	// Pending requests where the user is the recipient
	if err := r.db.WithContext(ctx).
		Where("friend_id = ? AND status = ?", userID, models.FriendshipStatusPending).
		Preload("User").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return friendships, nil
}

func (r *friendRepository) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship

	// Pending requests where the user is the sender
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.FriendshipStatusPending).
		Preload("Friend").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return friendships, nil
}

// Accept promotes the pending row to accepted and inserts the mirror row in
// one transaction, so a half-mutual state is never committed. The mirror
// insert ignores duplicates to tolerate a raced accept.
func (r *friendRepository) Accept(ctx context.Context, friendshipID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var friendship models.Friendship
		if err := tx.First(&friendship, friendshipID).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Friendship{}).
			Where("id = ?", friendshipID).
			Update("status", models.FriendshipStatusAccepted).Error; err != nil {
			return err
		}

		mirror := models.Friendship{
			UserID:   friendship.FriendID,
			FriendID: friendship.UserID,
			Status:   models.FriendshipStatusAccepted,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&mirror).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) Delete(ctx context.Context, friendshipID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Friendship{}, friendshipID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeletePair removes the directed edge and its mirror in one transaction.
// A missing mirror is tolerated.
func (r *friendRepository) DeletePair(ctx context.Context, userID, friendID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND friend_id = ?", userID, friendID).
			Delete(&models.Friendship{}).Error; err != nil {
			return err
		}
		return tx.
			Where("user_id = ? AND friend_id = ?", friendID, userID).
			Delete(&models.Friendship{}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteBetween removes every edge between the two users, both directions.
func (r *friendRepository) DeleteBetween(ctx context.Context, userID1, userID2 uint) error {
	if err := r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID1, userID2, userID2, userID1).
		Delete(&models.Friendship{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CreateAcceptedPair inserts both accepted rows in one transaction, used by
// the invite-claim flow where clicking the invite is the acceptance. Both
// inserts ignore duplicates so a raced claim cannot fail the pair.
func (r *friendRepository) CreateAcceptedPair(ctx context.Context, userID1, userID2 uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edges := []models.Friendship{
			{UserID: userID1, FriendID: userID2, Status: models.FriendshipStatusAccepted},
			{UserID: userID2, FriendID: userID1, Status: models.FriendshipStatusAccepted},
		}
		for i := range edges {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
