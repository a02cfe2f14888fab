package pricing

import (
	"errors"
	"testing"

	"pujasetu/internal/shared/money"
)

func TestComputeSplit_IndependentPriest(t *testing.T) {
	// $200 booking, 50% advance, independent priest, 5% platform fee
	split, err := ComputeSplit(SplitInput{
		Total:                 money.FromCents(20000),
		AdvancePercentage:     50,
		PriestType:            PriestTypeIndependent,
		TempleSharePercentage: 20, // must be ignored for non temple employees
		PlatformFeePercentage: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.Advance != 10000 {
		t.Errorf("advance = %d, want 10000", split.Advance)
	}
	if split.Remaining != 10000 {
		t.Errorf("remaining = %d, want 10000", split.Remaining)
	}
	if split.PriestShare != 19000 {
		t.Errorf("priest share = %d, want 19000", split.PriestShare)
	}
	if split.TempleShare != 0 {
		t.Errorf("temple share = %d, want 0", split.TempleShare)
	}
	if split.PlatformFee != 1000 {
		t.Errorf("platform fee = %d, want 1000", split.PlatformFee)
	}
}

func TestComputeSplit_TempleEmployee(t *testing.T) {
	split, err := ComputeSplit(SplitInput{
		Total:                 money.FromCents(20000),
		AdvancePercentage:     25,
		PriestType:            PriestTypeTempleEmployee,
		TempleSharePercentage: 20,
		PlatformFeePercentage: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.TempleShare != 4000 {
		t.Errorf("temple share = %d, want 4000", split.TempleShare)
	}
	if split.PriestShare != 15000 {
		t.Errorf("priest share = %d, want 15000", split.PriestShare)
	}
	if split.Advance != 5000 || split.Remaining != 15000 {
		t.Errorf("advance/remaining = %d/%d, want 5000/15000", split.Advance, split.Remaining)
	}
}

func TestComputeSplit_ShareInvariants(t *testing.T) {
	totals := []int64{1, 99, 101, 9999, 20000, 123457, 1000001}
	priestTypes := []PriestType{PriestTypeIndependent, PriestTypeTempleEmployee, PriestTypeFreelance}
	advances := []int{25, 50, 75, 100}

	for _, total := range totals {
		for _, pt := range priestTypes {
			for _, adv := range advances {
				split, err := ComputeSplit(SplitInput{
					Total:                 money.FromCents(total),
					AdvancePercentage:     adv,
					PriestType:            pt,
					TempleSharePercentage: 15,
					PlatformFeePercentage: 7,
				})
				if err != nil {
					t.Fatalf("total=%d type=%s adv=%d: unexpected error: %v", total, pt, adv, err)
				}

				if sum := split.PriestShare + split.TempleShare + split.PlatformFee; sum != split.Total {
					t.Errorf("total=%d type=%s: shares sum to %d, want %d", total, pt, sum, split.Total)
				}
				if split.Advance+split.Remaining != split.Total {
					t.Errorf("total=%d adv=%d: advance %d + remaining %d != total", total, adv, split.Advance, split.Remaining)
				}
				for name, v := range map[string]money.Money{
					"advance": split.Advance, "remaining": split.Remaining,
					"priest": split.PriestShare, "temple": split.TempleShare, "fee": split.PlatformFee,
				} {
					if v.IsNegative() {
						t.Errorf("total=%d type=%s: %s component negative: %d", total, pt, name, v)
					}
				}
				if pt != PriestTypeTempleEmployee && split.TempleShare != 0 {
					t.Errorf("type=%s: temple share %d, want 0", pt, split.TempleShare)
				}
			}
		}
	}
}

func TestComputeSplit_InvalidAdvancePercentage(t *testing.T) {
	for _, adv := range []int{0, 10, 33, 99, 101, -25} {
		_, err := ComputeSplit(SplitInput{
			Total:                 money.FromCents(10000),
			AdvancePercentage:     adv,
			PriestType:            PriestTypeIndependent,
			PlatformFeePercentage: 5,
		})

		var splitErr *InvalidSplitError
		if !errors.As(err, &splitErr) {
			t.Errorf("advance=%d: expected InvalidSplitError, got %v", adv, err)
		}
	}
}

func TestComputeSplit_PercentagesExceedTotal(t *testing.T) {
	_, err := ComputeSplit(SplitInput{
		Total:                 money.FromCents(10000),
		AdvancePercentage:     50,
		PriestType:            PriestTypeTempleEmployee,
		TempleSharePercentage: 60,
		PlatformFeePercentage: 50,
	})

	var splitErr *InvalidSplitError
	if !errors.As(err, &splitErr) {
		t.Fatalf("expected InvalidSplitError, got %v", err)
	}
}

func TestComputeSplit_RetentionExceedsPriestShare(t *testing.T) {
	_, err := ComputeSplit(SplitInput{
		Total:                 money.FromCents(10000),
		AdvancePercentage:     50,
		PriestType:            PriestTypeIndependent,
		PlatformFeePercentage: 5,
		RetentionAmount:       money.FromCents(9900),
	})

	var splitErr *InvalidSplitError
	if !errors.As(err, &splitErr) {
		t.Fatalf("expected InvalidSplitError, got %v", err)
	}
}

func TestComputeSplit_RetentionDoesNotAlterShares(t *testing.T) {
	with, err := ComputeSplit(SplitInput{
		Total:                 money.FromCents(20000),
		AdvancePercentage:     50,
		PriestType:            PriestTypeIndependent,
		PlatformFeePercentage: 5,
		RetentionAmount:       money.FromCents(500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if with.PriestShare != 19000 || with.PlatformFee != 1000 {
		t.Errorf("retention changed settled shares: priest=%d fee=%d", with.PriestShare, with.PlatformFee)
	}
	if with.RetentionAmount != 500 {
		t.Errorf("retention = %d, want 500", with.RetentionAmount)
	}
}
