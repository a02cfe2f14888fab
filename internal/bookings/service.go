package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service exposes the slice of booking lifecycle the payment engine needs.
type Service interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	ConfirmBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	MarkServiceCompleted(ctx context.Context, id uuid.UUID) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

// ConfirmBooking locks the quote and moves the booking to CONFIRMED.
func (s *service) ConfirmBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status != StatusQuoteRequested {
		return nil, fmt.Errorf("booking %s cannot be confirmed from status %s", id, booking.Status)
	}
	if booking.TotalPriceCents <= 0 {
		return nil, fmt.Errorf("booking %s has no agreed price", id)
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, StatusConfirmed, nil); err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	booking.Status = StatusConfirmed
	return booking, nil
}

func (s *service) MarkServiceCompleted(ctx context.Context, id uuid.UUID) error {
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status != StatusConfirmed && booking.Status != StatusInProgress {
		return fmt.Errorf("booking %s cannot complete from status %s", id, booking.Status)
	}

	return s.repo.UpdateBookingStatus(ctx, id, StatusCompleted, nil)
}

func (s *service) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return err
	}

	if !booking.Status.CanBeCancelled() {
		return fmt.Errorf("booking %s cannot be cancelled from status %s", id, booking.Status)
	}

	now := time.Now()
	return s.repo.UpdateBookingStatus(ctx, id, StatusCancelled, &now)
}
