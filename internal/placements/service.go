package placements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pujasetu/internal/notifications"
	"pujasetu/pkg/logger"
)

// DefaultRankingDelta is the search boost a placement grants while active.
const DefaultRankingDelta = 10

// Service manages premium placements: purchase/extension by priests and the
// expiry and reminder sweeps run by the scheduler.
type Service interface {
	ExtendPlacement(ctx context.Context, priestID uuid.UUID, months int) (*PremiumPlacement, error)
	GetActivePlacement(ctx context.Context, priestID uuid.UUID) (*PremiumPlacement, error)
	// ExpireDue expires placements past their expiry and reverses each
	// boost exactly once. Returns the number expired by this call.
	ExpireDue(ctx context.Context, now time.Time, limit int) (int, error)
	// SendReminders notifies priests whose placement expires within the
	// window, at most once per placement. Returns the number sent.
	SendReminders(ctx context.Context, now time.Time, window time.Duration, limit int) (int, error)
}

type service struct {
	repo     Repository
	notifier notifications.Sender
	log      *logger.Logger
}

func NewService(repo Repository, notifier notifications.Sender, log *logger.Logger) Service {
	return &service{repo: repo, notifier: notifier, log: log}
}

// ExtendPlacement extends an active placement or starts a new one. An active
// placement extends from the later of its current expiry and now, so an
// expiry in the past can never shorten the paid period; the ranking boost is
// not reapplied when the placement is already boosted.
func (s *service) ExtendPlacement(ctx context.Context, priestID uuid.UUID, months int) (*PremiumPlacement, error) {
	if months < 1 || months > 12 {
		return nil, fmt.Errorf("extension must be between 1 and 12 months, got %d", months)
	}

	now := time.Now()

	current, err := s.repo.GetActiveByPriestID(ctx, priestID)
	if err != nil {
		// No active placement: start fresh with the boost applied.
		placement := &PremiumPlacement{
			PriestID:     priestID,
			Status:       StatusActive,
			RankingDelta: DefaultRankingDelta,
			BoostApplied: true,
			StartsAt:     now,
			ExpiresAt:    now.AddDate(0, months, 0),
			Version:      1,
		}
		if err := s.repo.Create(ctx, placement); err != nil {
			return nil, err
		}
		return placement, nil
	}

	base := current.ExpiresAt
	if base.Before(now) {
		base = now
	}
	current.ExpiresAt = base.AddDate(0, months, 0)
	// The renewal covers a fresh period; the old reminder no longer applies.
	current.ReminderSentAt = nil

	if err := s.repo.SaveWithVersion(ctx, current, current.Version); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *service) GetActivePlacement(ctx context.Context, priestID uuid.UUID) (*PremiumPlacement, error) {
	return s.repo.GetActiveByPriestID(ctx, priestID)
}

func (s *service) ExpireDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.repo.ListExpired(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		placement := &due[i]
		placement.Status = StatusExpired
		placement.BoostApplied = false

		if err := s.repo.SaveWithVersion(ctx, placement, placement.Version); err != nil {
			if errors.Is(err, ErrConcurrentModification) {
				// Another sweep instance already expired it; the boost was
				// reversed exactly once there.
				continue
			}
			s.log.ErrorWithContext(ctx, "failed to expire placement", err, map[string]interface{}{
				"placement_id": placement.ID.String(),
			})
			continue
		}

		expired++
		s.log.LogPlacementExpired(ctx, placement.ID.String(), placement.PriestID.String())
		s.notify(ctx, notifications.NewNotification(
			notifications.TypePlacementExpired,
			placement.PriestID,
			"Premium placement expired",
			"Your premium placement has expired and your listing has returned to standard ranking. Renew to regain the boost.",
		))
	}
	return expired, nil
}

func (s *service) SendReminders(ctx context.Context, now time.Time, window time.Duration, limit int) (int, error) {
	due, err := s.repo.ListDueForReminder(ctx, now, window, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		placement := &due[i]
		remindedAt := now
		placement.ReminderSentAt = &remindedAt

		if err := s.repo.SaveWithVersion(ctx, placement, placement.Version); err != nil {
			if errors.Is(err, ErrConcurrentModification) {
				continue
			}
			s.log.ErrorWithContext(ctx, "failed to mark reminder sent", err, map[string]interface{}{
				"placement_id": placement.ID.String(),
			})
			continue
		}

		sent++
		s.notify(ctx, notifications.NewNotification(
			notifications.TypePlacementExpiring,
			placement.PriestID,
			"Premium placement expiring soon",
			fmt.Sprintf("Your premium placement expires on %s. Renew now to keep your boosted ranking.",
				placement.ExpiresAt.Format("2 Jan 2006")),
		))
	}
	return sent, nil
}

func (s *service) notify(ctx context.Context, notification *notifications.Notification) {
	if err := s.notifier.Send(ctx, notification); err != nil {
		s.log.ErrorWithContext(ctx, "failed to send placement notification", err, map[string]interface{}{
			"notification_type": string(notification.Type),
		})
	}
}
