package taxrate

import (
	"github.com/shopspring/decimal"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// TaxRate is a named percentage a tenant can toggle onto an invoice.
// Rates flagged IsDefault form the initial selection for new invoices.
type TaxRate struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Code        string          `db:"code" json:"code"`
	Description string          `db:"description" json:"description"`
	Percentage  decimal.Decimal `db:"percentage" json:"percentage"`
	IsDefault   bool            `db:"is_default" json:"is_default"`
	types.BaseModel
}

var hundred = decimal.NewFromInt(100)

// Validate checks the rate definition itself, not its application.
func (t *TaxRate) Validate() error {
	if t.Name == "" {
		return ierr.NewError("tax rate name is required").
			WithHint("Please provide a tax rate name").
			Mark(ierr.ErrValidation)
	}

	if t.Percentage.IsNegative() || t.Percentage.GreaterThan(hundred) {
		return ierr.NewError("tax rate percentage out of range").
			WithHintf("percentage must be between 0 and 100, got %s", t.Percentage.String()).
			WithReportableDetails(map[string]any{
				"percentage": t.Percentage.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
