package cancellation

import (
	"testing"
	"time"
)

func standardPolicy() *CancellationPolicy {
	return &CancellationPolicy{
		FreeCancellationHours: 48,
		NoRefundHours:         0,
		Tiers: TierList{
			{HoursBeforeService: 24, FeePercentage: 50},
		},
		EmergencyReasonCodes: ReasonCodeList{"medical_emergency", "bereavement"},
	}
}

func TestEvaluate_TierApplies(t *testing.T) {
	// 30h notice: the 24h tier matches (30 >= 24), 50% fee
	out := Evaluate(standardPolicy(), 30, "", nil)

	if out.RefundPercentage != 50 {
		t.Errorf("refund = %d%%, want 50%%", out.RefundPercentage)
	}
	if out.AppliedTier == nil || out.AppliedTier.HoursBeforeService != 24 {
		t.Errorf("applied tier = %+v, want 24h tier", out.AppliedTier)
	}
}

func TestEvaluate_FreeCancellationWindow(t *testing.T) {
	out := Evaluate(standardPolicy(), 60, "", nil)

	if out.RefundPercentage != 100 {
		t.Errorf("refund = %d%%, want 100%%", out.RefundPercentage)
	}
	if out.AppliedTier != nil {
		t.Errorf("applied tier = %+v, want nil inside the free window", out.AppliedTier)
	}
}

func TestEvaluate_EmergencyOverridesTiers(t *testing.T) {
	out := Evaluate(standardPolicy(), 5, "medical_emergency", nil)

	if out.RefundPercentage != 100 {
		t.Errorf("refund = %d%%, want 100%%", out.RefundPercentage)
	}
	if !out.EmergencyOverride {
		t.Error("expected emergency override to be flagged")
	}

	// Even zero hours of notice
	if out := Evaluate(standardPolicy(), 0, "bereavement", nil); out.RefundPercentage != 100 {
		t.Errorf("refund at 0h = %d%%, want 100%%", out.RefundPercentage)
	}
}

func TestEvaluate_UnknownReasonDoesNotOverride(t *testing.T) {
	out := Evaluate(standardPolicy(), 30, "changed_my_mind", nil)

	if out.EmergencyOverride {
		t.Error("non-emergency reason must not override tiers")
	}
	if out.RefundPercentage != 50 {
		t.Errorf("refund = %d%%, want 50%%", out.RefundPercentage)
	}
}

func TestEvaluate_NoRefundWindow(t *testing.T) {
	policy := standardPolicy()
	policy.NoRefundHours = 6

	out := Evaluate(policy, 3, "", nil)
	if out.RefundPercentage != 0 {
		t.Errorf("refund = %d%%, want 0%%", out.RefundPercentage)
	}
}

func TestEvaluate_GapDefaultsToZeroWithWarning(t *testing.T) {
	// Tiers start at 24h but no-refund window ends at 0h: 10h notice falls
	// in the gap.
	var warned string
	out := Evaluate(standardPolicy(), 10, "", func(detail string) { warned = detail })

	if out.RefundPercentage != 0 {
		t.Errorf("refund = %d%%, want 0%% in configuration gap", out.RefundPercentage)
	}
	if warned == "" {
		t.Error("expected a configuration warning for the tier gap")
	}
}

func TestEvaluate_MostGenerousTierWins(t *testing.T) {
	policy := standardPolicy()
	policy.Tiers = TierList{
		{HoursBeforeService: 12, FeePercentage: 75},
		{HoursBeforeService: 24, FeePercentage: 50},
		{HoursBeforeService: 36, FeePercentage: 25},
	}

	// 40h notice: all three thresholds qualify; the largest (36h) must win.
	out := Evaluate(policy, 40, "", nil)
	if out.AppliedTier == nil || out.AppliedTier.HoursBeforeService != 36 {
		t.Fatalf("applied tier = %+v, want 36h tier", out.AppliedTier)
	}
	if out.RefundPercentage != 75 {
		t.Errorf("refund = %d%%, want 75%%", out.RefundPercentage)
	}
}

func TestEvaluate_MonotonicInNotice(t *testing.T) {
	policy := standardPolicy()
	policy.NoRefundHours = 6
	policy.Tiers = TierList{
		{HoursBeforeService: 6, FeePercentage: 80},
		{HoursBeforeService: 12, FeePercentage: 60},
		{HoursBeforeService: 24, FeePercentage: 50},
		{HoursBeforeService: 36, FeePercentage: 25},
	}

	prev := -1
	for hours := 0; hours <= 72; hours++ {
		out := Evaluate(policy, hours, "", nil)
		if out.RefundPercentage < prev {
			t.Fatalf("refund dropped from %d%% to %d%% at %dh notice", prev, out.RefundPercentage, hours)
		}
		prev = out.RefundPercentage
	}
}

func TestEvaluate_NegativeHoursClampedToZero(t *testing.T) {
	out := Evaluate(standardPolicy(), -4, "", nil)
	if out.RefundPercentage != 0 {
		t.Errorf("refund = %d%%, want 0%% after service start", out.RefundPercentage)
	}
}

func TestHoursUntilService(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		serviceAt time.Time
		want      int
	}{
		{now.Add(30 * time.Hour), 30},
		{now.Add(30*time.Hour + 59*time.Minute), 30}, // floored
		{now.Add(59 * time.Minute), 0},
		{now, 0},
		{now.Add(-2 * time.Hour), 0}, // after service start
	}

	for _, c := range cases {
		if got := HoursUntilService(c.serviceAt, now); got != c.want {
			t.Errorf("HoursUntilService(%v) = %d, want %d", c.serviceAt, got, c.want)
		}
	}
}
