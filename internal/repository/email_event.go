package repository

import (
	"context"

	"linkparty/internal/models"

	"gorm.io/gorm"
)

// EmailEventRepository defines the interface for email delivery event storage.
type EmailEventRepository interface {
	Create(ctx context.Context, event *models.EmailEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.EmailEvent, error)
	CountByType(ctx context.Context, eventType models.EmailEventType) (int64, error)
}

type emailEventRepository struct {
	db *gorm.DB
}

// NewEmailEventRepository creates a new email event repository.
func NewEmailEventRepository(db *gorm.DB) EmailEventRepository {
	return &emailEventRepository{db: db}
}

func (r *emailEventRepository) Create(ctx context.Context, event *models.EmailEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *emailEventRepository) ListRecent(ctx context.Context, limit int) ([]models.EmailEvent, error) {
	var events []models.EmailEvent
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}

func (r *emailEventRepository) CountByType(ctx context.Context, eventType models.EmailEventType) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.EmailEvent{}).
		Where("type = ?", eventType).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
