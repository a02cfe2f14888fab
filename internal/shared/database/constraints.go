package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the sweep and lookup indexes AutoMigrate does not
// produce. The one-record-per-booking uniqueness comes from the model's
// uniqueIndex on booking_id.
func MigrateConstraints(db *gorm.DB) error {
	// Audit rows are queried by record for dispute resolution.
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payment_audits_record_id
		ON payment_audits (payment_record_id);
	`).Error
	if err != nil {
		return err
	}

	// The release sweep scans by status and eligibility timestamp.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payment_records_release_due
		ON payment_records (status, escrow_release_at);
	`).Error
	if err != nil {
		return err
	}

	// The placement sweep scans by status and expiry.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_premium_placements_expiry
		ON premium_placements (status, expires_at);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
