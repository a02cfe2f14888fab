package cancellation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tier is one rung of the fee schedule: cancelling at least
// HoursBeforeService ahead of the ceremony costs FeePercentage of the
// captured advance.
type Tier struct {
	HoursBeforeService int `json:"hours_before_service"`
	FeePercentage      int `json:"fee_percentage"`
}

// TierList stores tiers as a JSONB column.
type TierList []Tier

func (t TierList) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *TierList) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("tier list: cannot scan %T", value)
		}
	}
	return json.Unmarshal(b, t)
}

// ReasonCodeList stores emergency exception codes as a JSONB column.
type ReasonCodeList []string

func (r ReasonCodeList) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *ReasonCodeList) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("reason code list: cannot scan %T", value)
		}
	}
	return json.Unmarshal(b, r)
}

// CancellationPolicy is owned by a priest's service offering and read-only
// to the payment engine.
type CancellationPolicy struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PriestID uuid.UUID `gorm:"type:uuid;unique;not null" json:"priest_id"`

	// A cancellation at least this many hours out refunds 100%.
	FreeCancellationHours int `gorm:"not null;default:48" json:"free_cancellation_hours"`
	// A cancellation closer than this refunds nothing.
	NoRefundHours int `gorm:"not null;default:0" json:"no_refund_hours"`

	Tiers                TierList       `gorm:"type:jsonb" json:"tiers"`
	EmergencyReasonCodes ReasonCodeList `gorm:"type:jsonb" json:"emergency_reason_codes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for CancellationPolicy
func (CancellationPolicy) TableName() string {
	return "cancellation_policies"
}

// IsEmergencyReason reports whether the reason code bypasses the fee schedule.
func (p *CancellationPolicy) IsEmergencyReason(reasonCode string) bool {
	if reasonCode == "" {
		return false
	}
	for _, code := range p.EmergencyReasonCodes {
		if code == reasonCode {
			return true
		}
	}
	return false
}
