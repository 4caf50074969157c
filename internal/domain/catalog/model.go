package catalog

import (
	"github.com/shopspring/decimal"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// Item is a reusable catalog entry a line item can be seeded from.
// Non-taxable items keep a zero tax rate regardless of the invoice's tax
// selection.
type Item struct {
	ID      string          `db:"id" json:"id"`
	Name    string          `db:"name" json:"name"`
	Price   decimal.Decimal `db:"price" json:"price"`
	Taxable bool            `db:"taxable" json:"taxable"`
	types.BaseModel
}

func (i *Item) Validate() error {
	if i.Name == "" {
		return ierr.NewError("catalog item name is required").
			WithHint("Please provide an item name").
			Mark(ierr.ErrValidation)
	}

	if i.Price.IsNegative() {
		return ierr.NewError("catalog item price must be non-negative").
			WithReportableDetails(map[string]any{
				"price": i.Price.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
