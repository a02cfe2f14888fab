package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrPriceLocked is returned when a caller tries to change the total of a
// confirmed booking.
var ErrPriceLocked = errors.New("booking total price is locked after confirmation")

type Repository interface {
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error
	// UpdateQuoteTotal changes the price of a booking still in quote stage.
	UpdateQuoteTotal(ctx context.Context, id uuid.UUID, totalCents int64, advancePercentage int) error
	GetPriestBookings(ctx context.Context, priestID uuid.UUID) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking not found: %s", id)
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}

	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateQuoteTotal enforces price immutability in the write itself: the
// UPDATE only matches rows still in quote stage.
func (r *repository) UpdateQuoteTotal(ctx context.Context, id uuid.UUID, totalCents int64, advancePercentage int) error {
	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, StatusQuoteRequested).
		Updates(map[string]interface{}{
			"total_price_cents":  totalCents,
			"advance_percentage": advancePercentage,
			"updated_at":         time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPriceLocked
	}
	return nil
}

func (r *repository) GetPriestBookings(ctx context.Context, priestID uuid.UUID) ([]Booking, error) {
	var list []Booking
	err := r.db.WithContext(ctx).
		Where("priest_id = ?", priestID).
		Order("service_at DESC").
		Find(&list).Error
	return list, err
}
