package types

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
)

// PaymentStatus represents the invoice's position in its settlement lifecycle.
type PaymentStatus string

const (
	// PaymentStatusUnpaid indicates no payment has been recorded yet
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	// PaymentStatusPartiallyPaid indicates recorded payments cover part of the total
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	// PaymentStatusPaid is terminal for the settlement axis
	PaymentStatusPaid PaymentStatus = "PAID"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusUnpaid,
		PaymentStatusPartiallyPaid,
		PaymentStatusPaid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHint("Please provide a valid payment status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// paymentStatusTransitions defines the legal moves of the settlement
// lifecycle. Re-deriving the same status is always legal, so each state is a
// member of its own allowed set.
var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusUnpaid: {
		PaymentStatusUnpaid,
		PaymentStatusPartiallyPaid,
		PaymentStatusPaid,
	},
	PaymentStatusPartiallyPaid: {
		PaymentStatusPartiallyPaid,
		PaymentStatusPaid,
	},
	PaymentStatusPaid: {
		PaymentStatusPaid,
	},
}

// CanTransitionTo reports whether moving from s to target is a legal
// payment-status transition.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	allowed, ok := paymentStatusTransitions[s]
	if !ok {
		return false
	}
	return lo.Contains(allowed, target)
}

// DerivePaymentStatus computes the settlement status from the amount paid so
// far against the invoice total. Any payment covering the total resolves to
// PAID, overpayments and payments against a zero total included; with
// nothing recorded the invoice stays UNPAID even when the total is zero.
func DerivePaymentStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThan(decimal.Zero) && paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	case paid.GreaterThan(decimal.Zero):
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusUnpaid
	}
}
