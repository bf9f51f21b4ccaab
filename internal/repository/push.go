package repository

import (
	"context"

	"linkparty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PushRepository defines the interface for push subscription data operations.
type PushRepository interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	ListForUser(ctx context.Context, userID uint) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, userID uint, endpoint string) (bool, error)
	DeleteByID(ctx context.Context, id uint) error
}

type pushRepository struct {
	db *gorm.DB
}

// NewPushRepository creates a new push subscription repository.
func NewPushRepository(db *gorm.DB) PushRepository {
	return &pushRepository{db: db}
}

// Upsert registers the subscription, adopting the endpoint if a previous
// session on the same browser registered it under another user.
func (r *pushRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "keys", "updated_at"}),
		}).
		Create(sub).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *pushRepository) ListForUser(ctx context.Context, userID uint) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

func (r *pushRepository) DeleteByEndpoint(ctx context.Context, userID uint, endpoint string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *pushRepository) DeleteByID(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.PushSubscription{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
