package cancellation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Service interface defines the contract for cancellation policy management
type Service interface {
	CreatePolicy(ctx context.Context, priestID uuid.UUID, req PolicyRequest) (*CancellationPolicy, error)
	GetPolicy(ctx context.Context, priestID uuid.UUID) (*CancellationPolicy, error)
	UpdatePolicy(ctx context.Context, priestID uuid.UUID, req PolicyRequest) (*CancellationPolicy, error)
}

// PolicyRequest represents a request to create/update a cancellation policy
type PolicyRequest struct {
	FreeCancellationHours int      `json:"free_cancellation_hours" binding:"required,min=1,max=720"`
	NoRefundHours         int      `json:"no_refund_hours" binding:"min=0,max=720"`
	Tiers                 []Tier   `json:"tiers" binding:"required,dive"`
	EmergencyReasonCodes  []string `json:"emergency_reason_codes"`
}

type service struct {
	repo Repository
}

// NewService creates a new cancellation policy service instance
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreatePolicy(ctx context.Context, priestID uuid.UUID, req PolicyRequest) (*CancellationPolicy, error) {
	if _, err := s.repo.GetPolicyByPriestID(ctx, priestID); err == nil {
		return nil, fmt.Errorf("cancellation policy already exists for this priest")
	}

	if err := validatePolicyRequest(req); err != nil {
		return nil, fmt.Errorf("invalid policy request: %w", err)
	}

	policy := &CancellationPolicy{
		PriestID:              priestID,
		FreeCancellationHours: req.FreeCancellationHours,
		NoRefundHours:         req.NoRefundHours,
		Tiers:                 req.Tiers,
		EmergencyReasonCodes:  req.EmergencyReasonCodes,
	}

	if err := s.repo.CreatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to create cancellation policy: %w", err)
	}

	return policy, nil
}

func (s *service) GetPolicy(ctx context.Context, priestID uuid.UUID) (*CancellationPolicy, error) {
	return s.repo.GetPolicyByPriestID(ctx, priestID)
}

func (s *service) UpdatePolicy(ctx context.Context, priestID uuid.UUID, req PolicyRequest) (*CancellationPolicy, error) {
	policy, err := s.repo.GetPolicyByPriestID(ctx, priestID)
	if err != nil {
		return nil, fmt.Errorf("cancellation policy not found: %w", err)
	}

	if err := validatePolicyRequest(req); err != nil {
		return nil, fmt.Errorf("invalid policy request: %w", err)
	}

	policy.FreeCancellationHours = req.FreeCancellationHours
	policy.NoRefundHours = req.NoRefundHours
	policy.Tiers = req.Tiers
	policy.EmergencyReasonCodes = req.EmergencyReasonCodes
	policy.UpdatedAt = time.Now()

	if err := s.repo.UpdatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to update cancellation policy: %w", err)
	}

	return policy, nil
}

// validatePolicyRequest checks the schedule is internally coherent so
// Evaluate never has to guess at configuration intent.
func validatePolicyRequest(req PolicyRequest) error {
	if req.NoRefundHours >= req.FreeCancellationHours {
		return fmt.Errorf("no-refund window (%dh) must be shorter than the free cancellation window (%dh)",
			req.NoRefundHours, req.FreeCancellationHours)
	}

	seen := make(map[int]bool, len(req.Tiers))
	for _, tier := range req.Tiers {
		if tier.HoursBeforeService < 0 {
			return fmt.Errorf("tier threshold must not be negative: %d", tier.HoursBeforeService)
		}
		if tier.FeePercentage < 0 || tier.FeePercentage > 100 {
			return fmt.Errorf("tier fee percentage out of range: %d", tier.FeePercentage)
		}
		if tier.HoursBeforeService >= req.FreeCancellationHours {
			return fmt.Errorf("tier at %dh overlaps the free cancellation window (%dh)",
				tier.HoursBeforeService, req.FreeCancellationHours)
		}
		if seen[tier.HoursBeforeService] {
			return fmt.Errorf("duplicate tier threshold: %dh", tier.HoursBeforeService)
		}
		seen[tier.HoursBeforeService] = true
	}

	// Fees must grow as notice shrinks, otherwise refunds would not be
	// monotonic in the notice given.
	sorted := make([]Tier, len(req.Tiers))
	copy(sorted, req.Tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].HoursBeforeService > sorted[j].HoursBeforeService
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].FeePercentage < sorted[i-1].FeePercentage {
			return fmt.Errorf("tier at %dh charges less (%d%%) than the %dh tier (%d%%)",
				sorted[i].HoursBeforeService, sorted[i].FeePercentage,
				sorted[i-1].HoursBeforeService, sorted[i-1].FeePercentage)
		}
	}

	return nil
}
