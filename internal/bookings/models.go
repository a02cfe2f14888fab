package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is a devotee's engagement of a priest for a ceremony. The payment
// engine reads it; only this package mutates it. All money columns are
// integer cents.
type Booking struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DevoteeID uuid.UUID  `gorm:"type:uuid;index;not null" json:"devotee_id"`
	PriestID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"priest_id"`
	TempleID  *uuid.UUID `gorm:"type:uuid;index" json:"temple_id,omitempty"`

	ServiceName       string    `gorm:"type:varchar(120);not null" json:"service_name"`
	TotalPriceCents   int64     `gorm:"not null" json:"total_price_cents"`
	AdvancePercentage int       `gorm:"not null;default:50" json:"advance_percentage"`
	ServiceAt         time.Time `gorm:"index;not null" json:"service_at"`

	Status      Status     `gorm:"type:varchar(20);check:status IN ('QUOTE_REQUESTED', 'CONFIRMED', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED');default:'QUOTE_REQUESTED'" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// IsConfirmed reports whether the booking has an accepted quote.
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// IsCancelled reports whether the booking was cancelled.
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// Cancel marks the booking cancelled.
func (b *Booking) Cancel() {
	b.Status = StatusCancelled
	now := time.Now()
	b.CancelledAt = &now
	b.UpdatedAt = now
}
