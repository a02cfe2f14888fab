package database

import (
	"pujasetu/internal/bookings"
	"pujasetu/internal/cancellation"
	"pujasetu/internal/escrow"
	"pujasetu/internal/placements"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&bookings.Booking{},
		&cancellation.CancellationPolicy{},
		&escrow.PaymentRecord{},
		&escrow.PaymentAudit{},
		&escrow.RefundTransaction{},
		&placements.PremiumPlacement{},
	)
}
