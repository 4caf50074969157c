package invoice

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// AppliedTaxRate is the audit snapshot of one selected tax rate at the moment
// it was attached to the invoice. Later edits to the tax rate definition never
// change historical invoices because the percentage is frozen here.
type AppliedTaxRate struct {
	TaxRateID  string          `db:"tax_rate_id" json:"tax_rate_id"`
	Name       string          `db:"name" json:"name"`
	Percentage decimal.Decimal `db:"percentage" json:"percentage"`
}

// Invoice represents the invoice domain model.
//
// The delivery lifecycle (DocumentStatus) and the settlement lifecycle
// (PaymentStatus) are orthogonal: canceling an invoice never resets a prior
// PAID state. All derived fields are recomputed by Recalculate and are a
// deterministic function of the line items.
type Invoice struct {
	ID             string  `db:"id" json:"id"`
	InvoiceNumber  string  `db:"invoice_number" json:"invoice_number"`
	NumberFallback bool    `db:"number_fallback" json:"number_fallback"`
	CustomerID     string  `db:"customer_id" json:"customer_id"`
	IdempotencyKey *string `db:"idempotency_key" json:"idempotency_key,omitempty"`

	IssueDate time.Time  `db:"issue_date" json:"issue_date"`
	DueDate   *time.Time `db:"due_date" json:"due_date,omitempty"`

	DocumentStatus types.DocumentStatus `db:"document_status" json:"document_status"`
	PaymentStatus  types.PaymentStatus  `db:"payment_status" json:"payment_status"`

	Currency         string           `db:"currency" json:"currency"`
	EffectiveTaxRate decimal.Decimal  `db:"effective_tax_rate" json:"effective_tax_rate"`
	AppliedTaxRates  []AppliedTaxRate `json:"applied_tax_rates,omitempty"`
	LineItems        []*LineItem      `json:"line_items,omitempty"`

	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount       decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	Total           decimal.Decimal `db:"total" json:"total"`
	AmountPaid      decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	AmountRemaining decimal.Decimal `db:"amount_remaining" json:"amount_remaining"`

	PaymentLinkID *string `db:"payment_link_id" json:"payment_link_id,omitempty"`

	SentAt     *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ViewedAt   *time.Time `db:"viewed_at" json:"viewed_at,omitempty"`
	PaidAt     *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CanceledAt *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`

	Metadata types.Metadata `json:"metadata,omitempty"`
	Version  int            `db:"version" json:"version"`
	types.BaseModel
}

// Recalculate recomputes every derived field bottom-up: each line item first,
// then the document aggregates.
//
//	subtotal  = Σ quantity_i * unitPrice_i
//	taxAmount = Σ taxAmount_i
//	total     = subtotal + taxAmount
//
// The document tax amount is always the sum of the per-line tax amounts, never
// subtotal * effectiveRate recomputed at the document level; the two can
// diverge under rounding and the per-line sum is authoritative.
func (i *Invoice) Recalculate() {
	subtotal := decimal.Zero
	taxAmount := decimal.Zero

	for _, item := range i.LineItems {
		item.Recalculate()
		subtotal = subtotal.Add(item.Amount())
		taxAmount = taxAmount.Add(item.TaxAmount)
	}

	i.Subtotal = subtotal
	i.TaxAmount = taxAmount
	i.Total = subtotal.Add(taxAmount)

	if i.AmountPaid.GreaterThan(i.Total) {
		i.AmountPaid = i.Total
	}
	i.AmountRemaining = i.Total.Sub(i.AmountPaid)
}

// SetTaxSelection attaches a resolved tax selection to the invoice and
// rebroadcasts the effective rate to every line item that has no per-row
// override, then recomputes the totals.
func (i *Invoice) SetTaxSelection(effectiveRate decimal.Decimal, applied []AppliedTaxRate) {
	i.EffectiveTaxRate = ClampTaxRate(effectiveRate)
	i.AppliedTaxRates = applied

	for _, item := range i.LineItems {
		if !item.TaxOverridden {
			item.TaxRate = i.EffectiveTaxRate
		}
	}

	i.Recalculate()
}

// FindLineItem returns the line item with the given id, or nil.
func (i *Invoice) FindLineItem(lineItemID string) *LineItem {
	for _, item := range i.LineItems {
		if item.ID == lineItemID {
			return item
		}
	}
	return nil
}

// IsEditable reports whether line items and the tax selection may still change.
func (i *Invoice) IsEditable() bool {
	return i.DocumentStatus == types.DocumentStatusDraft
}

// ValidateForSend is the gate for finalizing the document: a customer and at
// least one valid line item are required, and every line item must pass its
// own finalize-time validation.
func (i *Invoice) ValidateForSend() error {
	if i.CustomerID == "" {
		return ierr.NewError("invoice has no customer").
			WithHint("A customer is required before sending an invoice").
			Mark(ierr.ErrValidation)
	}

	if len(i.LineItems) == 0 {
		return ierr.NewError("invoice has no line items").
			WithHint("At least one line item is required before sending an invoice").
			Mark(ierr.ErrValidation)
	}

	for _, item := range i.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// transition moves the document status after checking legality. Illegal
// transitions are rejected, never coerced.
func (i *Invoice) transition(target types.DocumentStatus) error {
	if !i.DocumentStatus.CanTransitionTo(target) {
		return NewIllegalTransitionError(i.DocumentStatus, target)
	}
	i.DocumentStatus = target
	return nil
}

// Send finalizes a draft and moves it to SENT.
func (i *Invoice) Send(now time.Time) error {
	if err := i.ValidateForSend(); err != nil {
		return err
	}
	if err := i.transition(types.DocumentStatusSent); err != nil {
		return err
	}
	i.SentAt = lo.ToPtr(now)
	return nil
}

// RecordView applies the external "recipient opened the invoice" event.
// Viewing twice stays VIEWED; the first ViewedAt timestamp is kept.
func (i *Invoice) RecordView(now time.Time) error {
	if i.DocumentStatus == types.DocumentStatusViewed {
		return nil
	}
	if err := i.transition(types.DocumentStatusViewed); err != nil {
		return err
	}
	i.ViewedAt = lo.ToPtr(now)
	return nil
}

// MarkOverdue applies the due-date-passed transition requested by an external
// scheduler. The engine does not evaluate the due date itself; it only
// validates that the transition is legal and that the invoice is not settled.
func (i *Invoice) MarkOverdue() error {
	if i.PaymentStatus == types.PaymentStatusPaid {
		return ierr.NewError("paid invoice cannot become overdue").
			WithHint("The invoice is already settled").
			WithReportableDetails(map[string]any{
				"invoice_id": i.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return i.transition(types.DocumentStatusOverdue)
}

// Cancel moves any non-terminal document status to CANCELED. A settled
// invoice cannot be canceled; it must be handled as a refund or credit by an
// external process. The payment status is deliberately left untouched for
// historical accuracy.
func (i *Invoice) Cancel(now time.Time) error {
	if i.PaymentStatus == types.PaymentStatusPaid {
		return ierr.NewError("paid invoice cannot be canceled").
			WithHint("Settled invoices must be refunded or credited instead").
			WithReportableDetails(map[string]any{
				"invoice_id": i.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if err := i.transition(types.DocumentStatusCanceled); err != nil {
		return err
	}
	i.CanceledAt = lo.ToPtr(now)
	return nil
}

// ApplyPaymentTotal re-derives the settlement status from the total amount
// paid so far. The paid amount tracked on the invoice is capped at the total;
// the raw sum still drives the PAID threshold so overpayments settle the
// invoice.
func (i *Invoice) ApplyPaymentTotal(paid decimal.Decimal, now time.Time) error {
	if paid.IsNegative() {
		return ierr.NewError("paid amount must be non-negative").
			WithReportableDetails(map[string]any{
				"amount": paid.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	target := types.DerivePaymentStatus(paid, i.Total)
	if !i.PaymentStatus.CanTransitionTo(target) {
		return ierr.NewError("illegal payment status transition").
			WithHintf("cannot move payment status from %s to %s", i.PaymentStatus, target).
			Mark(ierr.ErrInvalidOperation)
	}

	i.PaymentStatus = target
	i.AmountPaid = decimal.Min(paid, i.Total)
	i.AmountRemaining = i.Total.Sub(i.AmountPaid)

	if target == types.PaymentStatusPaid && i.PaidAt == nil {
		i.PaidAt = lo.ToPtr(now)
	}

	return nil
}

// MarkPaid is the explicit manual override: the invoice settles in full
// regardless of recorded partial payments.
func (i *Invoice) MarkPaid(now time.Time) error {
	if !i.PaymentStatus.CanTransitionTo(types.PaymentStatusPaid) {
		return ierr.NewError("illegal payment status transition").
			WithHintf("cannot move payment status from %s to %s", i.PaymentStatus, types.PaymentStatusPaid).
			Mark(ierr.ErrInvalidOperation)
	}

	i.PaymentStatus = types.PaymentStatusPaid
	i.AmountPaid = i.Total
	i.AmountRemaining = decimal.Zero
	if i.PaidAt == nil {
		i.PaidAt = lo.ToPtr(now)
	}

	return nil
}

// Validate checks the internal consistency of the invoice.
func (i *Invoice) Validate() error {
	if err := i.DocumentStatus.Validate(); err != nil {
		return err
	}

	if err := i.PaymentStatus.Validate(); err != nil {
		return err
	}

	if i.Subtotal.IsNegative() || i.TaxAmount.IsNegative() || i.Total.IsNegative() {
		return NewValidationError("total", "amounts must be non-negative")
	}

	if i.AmountPaid.IsNegative() {
		return NewValidationError("amount_paid", "must be non-negative")
	}

	if i.AmountPaid.GreaterThan(i.Total) {
		return NewValidationError("amount_paid", "must be less than or equal to total")
	}

	if !i.AmountPaid.Add(i.AmountRemaining).Equal(i.Total) {
		return NewValidationError("amount_remaining", "must equal total - amount_paid")
	}

	// due_date >= issue_date is expected but deliberately not enforced here;
	// tenants backfill historical invoices with odd dates.

	return nil
}
