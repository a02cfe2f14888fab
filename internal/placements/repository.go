package placements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrConcurrentModification signals that another writer (typically a second
// scheduler instance) advanced the placement since it was read.
var ErrConcurrentModification = errors.New("placement was modified concurrently; re-read and retry")

// Repository interface defines the contract for placement persistence
type Repository interface {
	Create(ctx context.Context, placement *PremiumPlacement) error
	GetByID(ctx context.Context, id uuid.UUID) (*PremiumPlacement, error)
	GetActiveByPriestID(ctx context.Context, priestID uuid.UUID) (*PremiumPlacement, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]PremiumPlacement, error)
	ListDueForReminder(ctx context.Context, now time.Time, window time.Duration, limit int) ([]PremiumPlacement, error)
	SaveWithVersion(ctx context.Context, placement *PremiumPlacement, readVersion int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, placement *PremiumPlacement) error {
	if placement.Version == 0 {
		placement.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(placement).Error; err != nil {
		return fmt.Errorf("failed to create placement: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*PremiumPlacement, error) {
	var placement PremiumPlacement
	err := r.db.WithContext(ctx).First(&placement, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("placement not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get placement: %w", err)
	}
	return &placement, nil
}

func (r *repository) GetActiveByPriestID(ctx context.Context, priestID uuid.UUID) (*PremiumPlacement, error) {
	var placement PremiumPlacement
	err := r.db.WithContext(ctx).
		Where("priest_id = ? AND status = ?", priestID, StatusActive).
		Order("expires_at DESC").
		First(&placement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no active placement for priest: %s", priestID)
		}
		return nil, fmt.Errorf("failed to get active placement: %w", err)
	}
	return &placement, nil
}

func (r *repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]PremiumPlacement, error) {
	var placements []PremiumPlacement
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", StatusActive, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&placements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired placements: %w", err)
	}
	return placements, nil
}

func (r *repository) ListDueForReminder(ctx context.Context, now time.Time, window time.Duration, limit int) ([]PremiumPlacement, error) {
	var placements []PremiumPlacement
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent_at IS NULL AND expires_at > ? AND expires_at <= ?",
			StatusActive, now, now.Add(window)).
		Order("expires_at ASC").
		Limit(limit).
		Find(&placements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list placements due for reminder: %w", err)
	}
	return placements, nil
}

// SaveWithVersion writes the placement guarded by the version read earlier.
func (r *repository) SaveWithVersion(ctx context.Context, placement *PremiumPlacement, readVersion int64) error {
	placement.Version = readVersion + 1
	placement.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&PremiumPlacement{}).
		Where("id = ? AND version = ?", placement.ID, readVersion).
		Updates(map[string]interface{}{
			"status":           placement.Status,
			"boost_applied":    placement.BoostApplied,
			"expires_at":       placement.ExpiresAt,
			"reminder_sent_at": placement.ReminderSentAt,
			"version":          placement.Version,
			"updated_at":       placement.UpdatedAt,
		})
	if result.Error != nil {
		placement.Version = readVersion
		return fmt.Errorf("failed to update placement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		placement.Version = readVersion
		return ErrConcurrentModification
	}
	return nil
}
