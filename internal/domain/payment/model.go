package payment

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// Source indicates how a payment record entered the system.
type Source string

const (
	// SourceManual is a payment recorded by a staff member
	SourceManual Source = "MANUAL"
	// SourceLink is a payment reported by a payment-link gateway callback
	SourceLink Source = "PAYMENT_LINK"
)

// Payment is one recorded payment against an invoice. Settlement status is
// always derived from the sum of these records, never stored independently of
// them (the manual mark-paid override records a balancing payment).
type Payment struct {
	ID         string          `db:"id" json:"id"`
	InvoiceID  string          `db:"invoice_id" json:"invoice_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Source     Source          `db:"source" json:"source"`
	ReceivedAt time.Time       `db:"received_at" json:"received_at"`
	types.BaseModel
}

func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return ierr.NewError("payment invoice_id is required").
			Mark(ierr.ErrValidation)
	}

	if !p.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": p.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
