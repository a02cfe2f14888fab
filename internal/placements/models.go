package placements

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a premium placement.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// PremiumPlacement boosts a priest's search ranking until it expires. The
// scheduler reverses the boost exactly once on expiry; BoostApplied tracks
// whether the delta is currently counted in ranking.
type PremiumPlacement struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PriestID uuid.UUID `gorm:"type:uuid;index;not null" json:"priest_id"`

	Status       Status `gorm:"type:varchar(12);not null;default:'active'" json:"status"`
	RankingDelta int    `gorm:"not null" json:"ranking_delta"`
	BoostApplied bool   `gorm:"not null;default:true" json:"boost_applied"`

	StartsAt  time.Time `gorm:"not null" json:"starts_at"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`

	// ReminderSentAt marks the single renewal reminder; nil means not yet
	// reminded.
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	// Version is the optimistic-concurrency token shared with the sweep so
	// two scheduler instances cannot both reverse the same boost.
	Version int64 `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PremiumPlacement) TableName() string {
	return "premium_placements"
}

// IsActive reports whether the placement is live at the given instant.
func (p *PremiumPlacement) IsActive(now time.Time) bool {
	return p.Status == StatusActive && p.ExpiresAt.After(now)
}
