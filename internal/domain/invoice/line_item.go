package invoice

import (
	"github.com/shopspring/decimal"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

var hundred = decimal.NewFromInt(100)

// LineItem represents a single billable row on an invoice.
//
// TaxAmount and Total are derived and never user-editable: they are recomputed
// whenever Quantity, UnitPrice or TaxRate changes. Recomputation of one line
// never depends on another line.
type LineItem struct {
	ID            string          `db:"id" json:"id"`
	InvoiceID     string          `db:"invoice_id" json:"invoice_id"`
	CatalogItemID *string         `db:"catalog_item_id" json:"catalog_item_id,omitempty"`
	Description   string          `db:"description" json:"description"`
	Quantity      int64           `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	TaxRate       decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	// TaxOverridden marks a per-row tax edit; overridden rows are skipped when
	// the invoice's tax selection is rebroadcast.
	TaxOverridden bool            `db:"tax_overridden" json:"tax_overridden"`
	TaxAmount     decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	Total         decimal.Decimal `db:"total" json:"total"`
	DisplayOrder  int             `db:"display_order" json:"display_order"`
	types.BaseModel
}

// NormalizeQuantity coerces invalid quantities to the minimum of 1.
func NormalizeQuantity(quantity int64) int64 {
	if quantity < 1 {
		return 1
	}
	return quantity
}

// NormalizeUnitPrice coerces negative prices to zero.
func NormalizeUnitPrice(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// ClampTaxRate clamps a percentage into [0, 100].
func ClampTaxRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(hundred) {
		return hundred
	}
	return rate
}

// Amount returns quantity * unit price, before tax.
func (li *LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

// Recalculate normalizes the inputs and recomputes the derived fields:
//
//	taxAmount = quantity * unitPrice * taxRate / 100
//	total     = quantity * unitPrice + taxAmount
func (li *LineItem) Recalculate() {
	li.Quantity = NormalizeQuantity(li.Quantity)
	li.UnitPrice = NormalizeUnitPrice(li.UnitPrice)
	li.TaxRate = ClampTaxRate(li.TaxRate)

	amount := li.Amount()
	li.TaxAmount = amount.Mul(li.TaxRate).Div(hundred)
	li.Total = amount.Add(li.TaxAmount)
}

// Validate reports the finalize-time validation errors for the row. Input
// coercion happens at edit time; this is the gate before the document can be
// sent.
func (li *LineItem) Validate() error {
	if li.Description == "" {
		return ierr.NewError("line item description is required").
			WithHint("Every line item needs a description").
			WithReportableDetails(map[string]any{
				"line_item_id": li.ID,
			}).
			Mark(ierr.ErrValidation)
	}

	if li.Quantity < 1 {
		return ierr.NewError("line item quantity must be at least 1").
			WithReportableDetails(map[string]any{
				"line_item_id": li.ID,
				"quantity":     li.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}

	if li.UnitPrice.IsNegative() {
		return ierr.NewError("line item unit price must be non-negative").
			WithReportableDetails(map[string]any{
				"line_item_id": li.ID,
				"unit_price":   li.UnitPrice.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if li.TaxRate.IsNegative() || li.TaxRate.GreaterThan(hundred) {
		return ierr.NewError("line item tax rate out of range").
			WithReportableDetails(map[string]any{
				"line_item_id": li.ID,
				"tax_rate":     li.TaxRate.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
