package repository

import (
	"context"
	"time"

	"linkparty/internal/models"

	"gorm.io/gorm"
)

// InviteRepository defines the interface for invite token data operations.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.InviteToken) error
	GetByToken(ctx context.Context, token string) (*models.InviteToken, error)
	ListClaimable(ctx context.Context, email string, now time.Time, limit int) ([]models.InviteToken, error)
	MarkClaimed(ctx context.Context, inviteID uint) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new invite repository.
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *models.InviteToken) error {
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEdge
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*models.InviteToken, error) {
	var invite models.InviteToken
	if err := r.db.WithContext(ctx).
		Preload("Inviter").
		Where("token = ?", token).
		First(&invite).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundMessageError("Invite not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &invite, nil
}

// ListClaimable returns unclaimed, unexpired invites addressed to the email,
// oldest first, capped so a flood of invites cannot stall sign-in.
func (r *inviteRepository) ListClaimable(ctx context.Context, email string, now time.Time, limit int) ([]models.InviteToken, error) {
	var invites []models.InviteToken
	if err := r.db.WithContext(ctx).
		Where("email = ? AND claimed = ? AND expires_at > ?", email, false, now).
		Order("created_at ASC").
		Limit(limit).
		Find(&invites).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return invites, nil
}

// MarkClaimed flips the claimed flag with a guarded update. The WHERE clause
// on claimed = false makes concurrent claims race safely: exactly one caller
// sees a row affected.
func (r *inviteRepository) MarkClaimed(ctx context.Context, inviteID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InviteToken{}).
		Where("id = ? AND claimed = ?", inviteID, false).
		Update("claimed", true)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *inviteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.InviteToken{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
