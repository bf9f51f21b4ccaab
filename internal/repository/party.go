package repository

import (
	"context"
	"errors"
	"time"

	"linkparty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartyRepository defines the interface for party data operations.
type PartyRepository interface {
	CreateWithHost(ctx context.Context, party *models.Party, host *models.PartyMember) error
	GetByCode(ctx context.Context, code string) (*models.Party, error)
	GetWithMembers(ctx context.Context, code string) (*models.Party, error)
	CountActiveByHost(ctx context.Context, hostSessionID string, now time.Time) (int64, error)
	Delete(ctx context.Context, partyID uint) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Party, error)
	QueueImagePaths(ctx context.Context, partyID uint) ([]string, error)

	GetMember(ctx context.Context, partyID uint, sessionID string) (*models.PartyMember, error)
	CountMembers(ctx context.Context, partyID uint) (int64, error)
	UpsertMember(ctx context.Context, member *models.PartyMember) error
	DeleteMember(ctx context.Context, partyID uint, sessionID string) (bool, error)
}

// partyRepository implements PartyRepository
type partyRepository struct {
	db *gorm.DB
}

// NewPartyRepository creates a new party repository
func NewPartyRepository(db *gorm.DB) PartyRepository {
	return &partyRepository{db: db}
}

// CreateWithHost inserts the party row and its host member in one
// transaction. A code collision surfaces as ErrDuplicateEdge so the caller
// can retry with a fresh code.
func (r *partyRepository) CreateWithHost(ctx context.Context, party *models.Party, host *models.PartyMember) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(party).Error; err != nil {
			return err
		}
		host.PartyID = party.ID
		return tx.Create(host).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEdge
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *partyRepository) GetByCode(ctx context.Context, code string) (*models.Party, error) {
	var party models.Party
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Party not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &party, nil
}

func (r *partyRepository) GetWithMembers(ctx context.Context, code string) (*models.Party, error) {
	var party models.Party
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("QueueItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("code = ?", code).
		First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Party not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &party, nil
}

func (r *partyRepository) CountActiveByHost(ctx context.Context, hostSessionID string, now time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("host_session_id = ? AND expires_at > ?", hostSessionID, now).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *partyRepository) Delete(ctx context.Context, partyID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Party{}, partyID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListExpired returns a page of parties past their expiry, oldest first, so
// the sweeper makes progress even when a run is interrupted.
func (r *partyRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Party, error) {
	var parties []models.Party
	if err := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&parties).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return parties, nil
}

// QueueImagePaths returns the stored image paths for a party's queue items,
// collected before deletion so the sweeper can remove the blobs afterwards.
func (r *partyRepository) QueueImagePaths(ctx context.Context, partyID uint) ([]string, error) {
	var paths []string
	if err := r.db.WithContext(ctx).
		Model(&models.PartyQueueItem{}).
		Where("party_id = ? AND image_path <> ''", partyID).
		Pluck("image_path", &paths).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return paths, nil
}

func (r *partyRepository) GetMember(ctx context.Context, partyID uint, sessionID string) (*models.PartyMember, error) {
	var member models.PartyMember
	if err := r.db.WithContext(ctx).
		Where("party_id = ? AND session_id = ?", partyID, sessionID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &member, nil
}

func (r *partyRepository) CountMembers(ctx context.Context, partyID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PartyMember{}).
		Where("party_id = ?", partyID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// UpsertMember makes joining idempotent per session: rejoining refreshes the
// display name and avatar instead of inserting a second row.
func (r *partyRepository) UpsertMember(ctx context.Context, member *models.PartyMember) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "party_id"}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "avatar", "updated_at"}),
		}).
		Create(member).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *partyRepository) DeleteMember(ctx context.Context, partyID uint, sessionID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("party_id = ? AND session_id = ?", partyID, sessionID).
		Delete(&models.PartyMember{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
