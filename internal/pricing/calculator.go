package pricing

import (
	"fmt"

	"pujasetu/internal/shared/money"
)

// PriestType distinguishes payout routing. Only temple-employed priests
// produce a temple share.
type PriestType string

const (
	PriestTypeIndependent    PriestType = "independent"
	PriestTypeTempleEmployee PriestType = "temple_employee"
	PriestTypeFreelance      PriestType = "freelance"
)

// InvalidSplitError rejects a split before any external call is made.
type InvalidSplitError struct {
	Reason string
}

func (e *InvalidSplitError) Error() string {
	return "invalid payment split: " + e.Reason
}

// SplitInput carries the booking terms a split is computed from.
type SplitInput struct {
	Total                 money.Money
	AdvancePercentage     int
	PriestType            PriestType
	TempleSharePercentage int
	PlatformFeePercentage int
	RetentionAmount       money.Money
}

// PaymentSplit is the computed division of a booking's total. It is derived,
// never persisted on its own; the escrow ledger embeds a copy at
// advance-payment time.
type PaymentSplit struct {
	Total           money.Money `json:"total_cents"`
	Advance         money.Money `json:"advance_cents"`
	Remaining       money.Money `json:"remaining_cents"`
	PriestShare     money.Money `json:"priest_share_cents"`
	TempleShare     money.Money `json:"temple_share_cents"`
	PlatformFee     money.Money `json:"platform_fee_cents"`
	RetentionAmount money.Money `json:"retention_amount_cents"`
}

// allowed advance tiers offered in the booking flow
var validAdvancePercentages = map[int]bool{25: true, 50: true, 75: true, 100: true}

// ComputeSplit divides a booking total into priest share, temple share and
// platform fee, plus the advance/remaining schedule. All arithmetic is on
// integer cents with round-half-up percentages.
//
// The retention amount is a loyalty carve-out tracked as a liability against
// the priest's future bookings; it does not reduce the settled priest share.
func ComputeSplit(in SplitInput) (PaymentSplit, error) {
	if in.Total.IsNegative() {
		return PaymentSplit{}, &InvalidSplitError{Reason: "total must not be negative"}
	}
	if !validAdvancePercentages[in.AdvancePercentage] {
		return PaymentSplit{}, &InvalidSplitError{
			Reason: fmt.Sprintf("advance percentage must be one of 25, 50, 75, 100; got %d", in.AdvancePercentage),
		}
	}
	if in.PlatformFeePercentage < 0 || in.PlatformFeePercentage > 100 {
		return PaymentSplit{}, &InvalidSplitError{
			Reason: fmt.Sprintf("platform fee percentage out of range: %d", in.PlatformFeePercentage),
		}
	}
	if in.TempleSharePercentage < 0 || in.TempleSharePercentage > 100 {
		return PaymentSplit{}, &InvalidSplitError{
			Reason: fmt.Sprintf("temple share percentage out of range: %d", in.TempleSharePercentage),
		}
	}
	if in.PlatformFeePercentage+in.TempleSharePercentage > 100 {
		return PaymentSplit{}, &InvalidSplitError{
			Reason: fmt.Sprintf("platform fee %d%% + temple share %d%% exceeds 100%%",
				in.PlatformFeePercentage, in.TempleSharePercentage),
		}
	}
	if in.RetentionAmount.IsNegative() {
		return PaymentSplit{}, &InvalidSplitError{Reason: "retention amount must not be negative"}
	}

	platformFee := in.Total.Percent(in.PlatformFeePercentage)

	// Temple share only exists for temple-employed priests. Forcing it to
	// zero for everyone else keeps a misconfigured temple percentage from
	// leaking into an independent priest's payout.
	templeShare := money.FromCents(0)
	if in.PriestType == PriestTypeTempleEmployee {
		templeShare = in.Total.Percent(in.TempleSharePercentage)
	}

	priestShare := in.Total.Sub(platformFee).Sub(templeShare)
	if priestShare.IsNegative() {
		return PaymentSplit{}, &InvalidSplitError{Reason: "computed priest share is negative"}
	}

	if in.RetentionAmount > priestShare {
		return PaymentSplit{}, &InvalidSplitError{
			Reason: fmt.Sprintf("retention amount %s exceeds priest share %s", in.RetentionAmount, priestShare),
		}
	}

	advance := in.Total.Percent(in.AdvancePercentage)
	remaining := in.Total.Sub(advance)

	return PaymentSplit{
		Total:           in.Total,
		Advance:         advance,
		Remaining:       remaining,
		PriestShare:     priestShare,
		TempleShare:     templeShare,
		PlatformFee:     platformFee,
		RetentionAmount: in.RetentionAmount,
	}, nil
}
