package types

import (
	"github.com/samber/lo"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
)

// DocumentStatus represents the invoice's position in its delivery lifecycle.
// It is tracked independently from the payment lifecycle: a canceled invoice
// keeps whatever payment status it had for historical accuracy.
type DocumentStatus string

const (
	// DocumentStatusDraft indicates the invoice is editable and has not been issued
	DocumentStatusDraft DocumentStatus = "DRAFT"
	// DocumentStatusSent indicates the invoice was finalized and delivered to the customer
	DocumentStatusSent DocumentStatus = "SENT"
	// DocumentStatusViewed indicates the recipient opened the public invoice view
	DocumentStatusViewed DocumentStatus = "VIEWED"
	// DocumentStatusOverdue indicates the due date passed before the invoice was paid
	DocumentStatusOverdue DocumentStatus = "OVERDUE"
	// DocumentStatusCanceled is terminal; a canceled invoice is no longer collectible
	DocumentStatusCanceled DocumentStatus = "CANCELED"
)

func (s DocumentStatus) String() string {
	return string(s)
}

func (s DocumentStatus) Validate() error {
	allowed := []DocumentStatus{
		DocumentStatusDraft,
		DocumentStatusSent,
		DocumentStatusViewed,
		DocumentStatusOverdue,
		DocumentStatusCanceled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid document status").
			WithHint("Please provide a valid document status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// documentStatusTransitions defines the legal moves of the delivery lifecycle.
// Anything absent here is an illegal transition and is rejected, never coerced.
var documentStatusTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusDraft: {
		DocumentStatusSent,
		DocumentStatusCanceled,
	},
	DocumentStatusSent: {
		DocumentStatusViewed,
		DocumentStatusOverdue,
		DocumentStatusCanceled,
	},
	DocumentStatusViewed: {
		DocumentStatusOverdue,
		DocumentStatusCanceled,
	},
	DocumentStatusOverdue: {
		DocumentStatusCanceled,
	},
	DocumentStatusCanceled: {},
}

// CanTransitionTo reports whether moving from s to target is a legal
// document-status transition.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	allowed, ok := documentStatusTransitions[s]
	if !ok {
		return false
	}
	return lo.Contains(allowed, target)
}

// IsTerminal reports whether no further document-status transitions are legal.
func (s DocumentStatus) IsTerminal() bool {
	return len(documentStatusTransitions[s]) == 0
}

const (
	// InvoiceDefaultDueDays is the default number of days after issue when payment is due
	InvoiceDefaultDueDays = 30
)

type InvoiceNumberFormat string

const (
	InvoiceNumberFormatYYYYMM   InvoiceNumberFormat = "YYYYMM"
	InvoiceNumberFormatYYYYMMDD InvoiceNumberFormat = "YYYYMMDD"
	InvoiceNumberFormatYYMMDD   InvoiceNumberFormat = "YYMMDD"
	InvoiceNumberFormatYYYY     InvoiceNumberFormat = "YYYY"
)

// GoLayout returns the Go time layout for the format.
func (f InvoiceNumberFormat) GoLayout() string {
	switch f {
	case InvoiceNumberFormatYYYYMMDD:
		return "20060102"
	case InvoiceNumberFormatYYMMDD:
		return "060102"
	case InvoiceNumberFormatYYYY:
		return "2006"
	default:
		return "200601"
	}
}
