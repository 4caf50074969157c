package dto

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillbooks/quillbooks/internal/domain/invoice"
	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
	"github.com/quillbooks/quillbooks/internal/validator"
)

// CreateInvoiceLineItemRequest represents one line item on a create request
type CreateInvoiceLineItemRequest struct {
	// catalog_item_id optionally seeds the line from a catalog entry;
	// description and unit_price then default from the catalog record
	CatalogItemID *string `json:"catalog_item_id,omitempty"`

	// description is the billable row text shown on the document
	Description string `json:"description"`

	// quantity is coerced to a minimum of 1 when invalid
	Quantity int64 `json:"quantity"`

	// unit_price is coerced to 0 when negative
	UnitPrice decimal.Decimal `json:"unit_price"`

	// tax_rate, when set, overrides the invoice's effective rate for this row
	TaxRate *decimal.Decimal `json:"tax_rate,omitempty"`
}

// ToLineItem converts the request to a domain line item. The effective rate
// applies unless the row carries its own override.
func (r *CreateInvoiceLineItemRequest) ToLineItem(ctx context.Context, effectiveRate decimal.Decimal, order int) *invoice.LineItem {
	item := &invoice.LineItem{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
		CatalogItemID: r.CatalogItemID,
		Description:   r.Description,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		TaxRate:       effectiveRate,
		DisplayOrder:  order,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}

	if r.TaxRate != nil {
		item.TaxRate = *r.TaxRate
		item.TaxOverridden = true
	}

	item.Recalculate()
	return item
}

// CreateInvoiceRequest represents the request payload for creating a new invoice
type CreateInvoiceRequest struct {
	// customer_id is the unique identifier of the customer this invoice belongs to
	CustomerID string `json:"customer_id" validate:"required"`

	// currency is the three-letter ISO currency code (e.g. USD, EUR)
	Currency string `json:"currency" validate:"required,len=3"`

	// idempotency_key prevents duplicate invoice creation on retries
	IdempotencyKey *string `json:"idempotency_key,omitempty"`

	// issue_date defaults to now when omitted
	IssueDate *time.Time `json:"issue_date,omitempty"`

	// due_date defaults to issue_date + the configured default due days
	DueDate *time.Time `json:"due_date,omitempty"`

	// tax_rate_ids is the ordered tax selection for the invoice
	TaxRateIDs []string `json:"tax_rate_ids,omitempty"`

	// use_default_tax_rates selects the tenant's default rates when no
	// explicit selection is given
	UseDefaultTaxRates bool `json:"use_default_tax_rates,omitempty"`

	// send_immediately finalizes and sends the invoice at creation time
	// instead of leaving it in draft
	SendImmediately bool `json:"send_immediately,omitempty"`

	// payment_link_id attaches a gateway payment link to the invoice
	PaymentLinkID *string `json:"payment_link_id,omitempty"`

	// line_items contains the individual items that make up this invoice
	LineItems []CreateInvoiceLineItemRequest `json:"line_items,omitempty"`

	// metadata contains additional custom key-value pairs
	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.SendImmediately && len(r.LineItems) == 0 {
		return ierr.NewError("line items are required to send an invoice").
			WithHint("Add at least one line item or create the invoice as a draft").
			Mark(ierr.ErrValidation)
	}

	for _, item := range r.LineItems {
		if item.CatalogItemID == nil && item.Description == "" {
			return ierr.NewError("line item description is required").
				WithHint("Provide a description or reference a catalog item").
				Mark(ierr.ErrValidation)
		}
	}

	if r.IssueDate != nil && r.DueDate != nil && r.DueDate.Before(*r.IssueDate) {
		return ierr.NewError("due_date must not be before issue_date").
			WithReportableDetails(map[string]any{
				"issue_date": r.IssueDate.String(),
				"due_date":   r.DueDate.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// AddLineItemRequest adds one row to a draft invoice
type AddLineItemRequest struct {
	CatalogItemID *string          `json:"catalog_item_id,omitempty"`
	Description   string           `json:"description"`
	Quantity      int64            `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
}

func (r *AddLineItemRequest) Validate() error {
	if r.CatalogItemID == nil && r.Description == "" {
		return ierr.NewError("line item description is required").
			WithHint("Provide a description or reference a catalog item").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UpdateLineItemRequest edits one row of a draft invoice; nil fields are left
// unchanged and derived fields are recomputed
type UpdateLineItemRequest struct {
	Description *string          `json:"description,omitempty"`
	Quantity    *int64           `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
}

func (r *UpdateLineItemRequest) Validate() error {
	if r.Description == nil && r.Quantity == nil && r.UnitPrice == nil && r.TaxRate == nil {
		return ierr.NewError("empty line item update").
			WithHint("Provide at least one field to update").
			Mark(ierr.ErrValidation)
	}
	if r.Description != nil && *r.Description == "" {
		return ierr.NewError("line item description cannot be cleared").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RecordPaymentRequest records one payment against an invoice
type RecordPaymentRequest struct {
	// amount is the payment amount in the invoice currency
	Amount decimal.Decimal `json:"amount" validate:"required"`

	// received_at defaults to now when omitted
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

func (r *RecordPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if !r.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": r.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// InvoiceResponse represents an invoice returned by the engine
type InvoiceResponse struct {
	*invoice.Invoice
}

// NewInvoiceResponse creates a response from a domain invoice
func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}
