package cancellation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface defines the contract for cancellation policy storage
type Repository interface {
	CreatePolicy(ctx context.Context, policy *CancellationPolicy) error
	GetPolicyByPriestID(ctx context.Context, priestID uuid.UUID) (*CancellationPolicy, error)
	UpdatePolicy(ctx context.Context, policy *CancellationPolicy) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new cancellation repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePolicy(ctx context.Context, policy *CancellationPolicy) error {
	if err := r.db.WithContext(ctx).Create(policy).Error; err != nil {
		return fmt.Errorf("failed to create cancellation policy: %w", err)
	}
	return nil
}

func (r *repository) GetPolicyByPriestID(ctx context.Context, priestID uuid.UUID) (*CancellationPolicy, error) {
	var policy CancellationPolicy
	err := r.db.WithContext(ctx).First(&policy, "priest_id = ?", priestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cancellation policy not found for priest: %s", priestID)
		}
		return nil, fmt.Errorf("failed to get cancellation policy: %w", err)
	}
	return &policy, nil
}

func (r *repository) UpdatePolicy(ctx context.Context, policy *CancellationPolicy) error {
	if err := r.db.WithContext(ctx).Save(policy).Error; err != nil {
		return fmt.Errorf("failed to update cancellation policy: %w", err)
	}
	return nil
}
