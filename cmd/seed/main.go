package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pujasetu/internal/bookings"
	"pujasetu/internal/cancellation"
	"pujasetu/internal/placements"
	"pujasetu/internal/shared/config"
	"pujasetu/internal/shared/database"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting PujaSetu Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payment_audits",
		"refund_transactions",
		"payment_records",
		"premium_placements",
		"cancellation_policies",
		"bookings",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// Well-known IDs so curl scripts and local clients can target seeded rows.
var (
	priestIndependentID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	priestTempleID      = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	templeID            = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	devoteeID           = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func (s *Seeder) SeedAll() error {
	if err := s.seedPolicies(); err != nil {
		return err
	}
	if err := s.seedBookings(); err != nil {
		return err
	}
	if err := s.seedPlacements(); err != nil {
		return err
	}
	return nil
}

func (s *Seeder) seedPolicies() error {
	fmt.Println("  Seeding cancellation policies...")

	policies := []cancellation.CancellationPolicy{
		{
			PriestID:              priestIndependentID,
			FreeCancellationHours: 48,
			NoRefundHours:         6,
			Tiers: cancellation.TierList{
				{HoursBeforeService: 24, FeePercentage: 50},
				{HoursBeforeService: 6, FeePercentage: 75},
			},
			EmergencyReasonCodes: cancellation.ReasonCodeList{"medical_emergency", "bereavement"},
		},
		{
			PriestID:              priestTempleID,
			FreeCancellationHours: 72,
			NoRefundHours:         12,
			Tiers: cancellation.TierList{
				{HoursBeforeService: 48, FeePercentage: 25},
				{HoursBeforeService: 12, FeePercentage: 60},
			},
			EmergencyReasonCodes: cancellation.ReasonCodeList{"medical_emergency"},
		},
	}

	for i := range policies {
		if err := s.db.PostgreSQL.Create(&policies[i]).Error; err != nil {
			return fmt.Errorf("failed to seed policy for priest %s: %w", policies[i].PriestID, err)
		}
	}
	return nil
}

func (s *Seeder) seedBookings() error {
	fmt.Println("  Seeding bookings...")

	now := time.Now()
	rows := []bookings.Booking{
		{
			DevoteeID:         devoteeID,
			PriestID:          priestIndependentID,
			ServiceName:       "Griha Pravesh Puja",
			TotalPriceCents:   20000,
			AdvancePercentage: 50,
			ServiceAt:         now.Add(96 * time.Hour),
			Status:            bookings.StatusConfirmed,
		},
		{
			DevoteeID:         devoteeID,
			PriestID:          priestTempleID,
			TempleID:          &templeID,
			ServiceName:       "Satyanarayan Katha",
			TotalPriceCents:   35000,
			AdvancePercentage: 25,
			ServiceAt:         now.Add(30 * time.Hour),
			Status:            bookings.StatusConfirmed,
		},
		{
			DevoteeID:         devoteeID,
			PriestID:          priestIndependentID,
			ServiceName:       "Navagraha Shanti",
			TotalPriceCents:   15000,
			AdvancePercentage: 100,
			ServiceAt:         now.Add(240 * time.Hour),
			Status:            bookings.StatusQuoteRequested,
		},
	}

	for i := range rows {
		if err := s.db.PostgreSQL.Create(&rows[i]).Error; err != nil {
			return fmt.Errorf("failed to seed booking %q: %w", rows[i].ServiceName, err)
		}
	}
	return nil
}

func (s *Seeder) seedPlacements() error {
	fmt.Println("  Seeding premium placements...")

	now := time.Now()
	rows := []placements.PremiumPlacement{
		{
			PriestID:     priestIndependentID,
			Status:       placements.StatusActive,
			RankingDelta: placements.DefaultRankingDelta,
			BoostApplied: true,
			StartsAt:     now.AddDate(0, -1, 0),
			ExpiresAt:    now.Add(48 * time.Hour), // inside the reminder window
			Version:      1,
		},
		{
			PriestID:     priestTempleID,
			Status:       placements.StatusActive,
			RankingDelta: placements.DefaultRankingDelta,
			BoostApplied: true,
			StartsAt:     now.AddDate(0, -2, 0),
			ExpiresAt:    now.Add(-24 * time.Hour), // due for the expiry sweep
			Version:      1,
		},
	}

	for i := range rows {
		if err := s.db.PostgreSQL.Create(&rows[i]).Error; err != nil {
			return fmt.Errorf("failed to seed placement for priest %s: %w", rows[i].PriestID, err)
		}
	}
	return nil
}
