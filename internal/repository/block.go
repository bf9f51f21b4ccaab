package repository

import (
	"context"

	"linkparty/internal/models"

	"gorm.io/gorm"
)

// BlockRepository defines the interface for user-block data operations.
type BlockRepository interface {
	Create(ctx context.Context, block *models.UserBlock) error
	Delete(ctx context.Context, blockerID, blockedID uint) (bool, error)
	ExistsBetween(ctx context.Context, userID1, userID2 uint) (bool, error)
	ListBlocked(ctx context.Context, blockerID uint) ([]models.UserBlock, error)
}

type blockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new block repository.
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) Create(ctx context.Context, block *models.UserBlock) error {
	if err := r.db.WithContext(ctx).Create(block).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEdge
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.UserBlock{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ExistsBetween reports whether either user has blocked the other.
func (r *blockRepository) ExistsBetween(ctx context.Context, userID1, userID2 uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userID1, userID2, userID2, userID1).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *blockRepository) ListBlocked(ctx context.Context, blockerID uint) ([]models.UserBlock, error) {
	var blocks []models.UserBlock
	if err := r.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Find(&blocks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return blocks, nil
}
