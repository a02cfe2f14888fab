package cancellation

import (
	"fmt"
	"sort"
	"time"
)

// Outcome is the evaluated refund decision. Explanation carries the
// user-facing reason for the applied percentage.
type Outcome struct {
	RefundPercentage  int    `json:"refund_percentage"`
	AppliedTier       *Tier  `json:"applied_tier,omitempty"`
	EmergencyOverride bool   `json:"emergency_override"`
	Explanation       string `json:"explanation"`
}

// Evaluate computes the refund percentage for a cancellation.
//
// Precedence: emergency exception codes refund 100% unconditionally; then
// the free-cancellation window; then the no-refund window; then the fee
// tier with the largest threshold not exceeding the notice given
// (most-generous matching tier). A gap in the tier schedule defaults to 0%
// and reports through warn rather than silently assuming a full refund.
func Evaluate(policy *CancellationPolicy, hoursUntilService int, reasonCode string, warn func(detail string)) Outcome {
	if hoursUntilService < 0 {
		hoursUntilService = 0
	}

	if policy.IsEmergencyReason(reasonCode) {
		return Outcome{
			RefundPercentage:  100,
			EmergencyOverride: true,
			Explanation:       fmt.Sprintf("emergency exception %q: full refund regardless of notice", reasonCode),
		}
	}

	if hoursUntilService >= policy.FreeCancellationHours {
		return Outcome{
			RefundPercentage: 100,
			Explanation: fmt.Sprintf("cancelled %dh before service, within the free cancellation window (%dh+)",
				hoursUntilService, policy.FreeCancellationHours),
		}
	}

	if hoursUntilService < policy.NoRefundHours {
		return Outcome{
			RefundPercentage: 0,
			Explanation: fmt.Sprintf("cancelled %dh before service, inside the no-refund window (<%dh)",
				hoursUntilService, policy.NoRefundHours),
		}
	}

	tier := matchTier(policy.Tiers, hoursUntilService)
	if tier == nil {
		if warn != nil {
			warn(fmt.Sprintf("no tier covers %dh notice (free=%dh, noRefund=%dh, %d tiers); defaulting to 0%% refund",
				hoursUntilService, policy.FreeCancellationHours, policy.NoRefundHours, len(policy.Tiers)))
		}
		return Outcome{
			RefundPercentage: 0,
			Explanation: fmt.Sprintf("no cancellation tier covers %dh notice; no refund applies",
				hoursUntilService),
		}
	}

	return Outcome{
		RefundPercentage: 100 - tier.FeePercentage,
		AppliedTier:      tier,
		Explanation: fmt.Sprintf("cancelled %dh before service: %dh tier applies with a %d%% cancellation fee",
			hoursUntilService, tier.HoursBeforeService, tier.FeePercentage),
	}
}

// matchTier picks the tier with the largest threshold <= hours. Sorting
// descending makes the first match the most generous one, which is also the
// tie-break when thresholds overlap.
func matchTier(tiers TierList, hours int) *Tier {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].HoursBeforeService > sorted[j].HoursBeforeService
	})

	for i := range sorted {
		if sorted[i].HoursBeforeService <= hours {
			return &sorted[i]
		}
	}
	return nil
}

// HoursUntilService computes whole hours of notice, floored, never negative.
// Cancelling after the service started counts as zero hours.
func HoursUntilService(serviceAt, now time.Time) int {
	if !serviceAt.After(now) {
		return 0
	}
	return int(serviceAt.Sub(now) / time.Hour)
}
