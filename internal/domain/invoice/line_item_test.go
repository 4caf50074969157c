package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineItemRecalculate(t *testing.T) {
	item := &LineItem{
		ID:          "line_1",
		Description: "consulting hours",
		Quantity:    3,
		UnitPrice:   decimal.NewFromInt(1000),
		TaxRate:     decimal.NewFromFloat(7.5),
	}
	item.Recalculate()

	assert.True(t, item.Amount().Equal(decimal.NewFromInt(3000)), "amount: %s", item.Amount())
	assert.True(t, item.TaxAmount.Equal(decimal.NewFromInt(225)), "tax amount: %s", item.TaxAmount)
	assert.True(t, item.Total.Equal(decimal.NewFromInt(3225)), "total: %s", item.Total)
}

func TestLineItemRecalculateZeroRate(t *testing.T) {
	item := &LineItem{
		Description: "setup fee",
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(500),
		TaxRate:     decimal.Zero,
	}
	item.Recalculate()

	assert.True(t, item.TaxAmount.IsZero())
	assert.True(t, item.Total.Equal(decimal.NewFromInt(500)))
}

func TestLineItemInputCoercion(t *testing.T) {
	testCases := []struct {
		name          string
		quantity      int64
		unitPrice     decimal.Decimal
		taxRate       decimal.Decimal
		wantQuantity  int64
		wantUnitPrice decimal.Decimal
		wantTaxRate   decimal.Decimal
	}{
		{
			name:          "zero quantity becomes one",
			quantity:      0,
			unitPrice:     decimal.NewFromInt(100),
			taxRate:       decimal.NewFromInt(10),
			wantQuantity:  1,
			wantUnitPrice: decimal.NewFromInt(100),
			wantTaxRate:   decimal.NewFromInt(10),
		},
		{
			name:          "negative quantity becomes one",
			quantity:      -5,
			unitPrice:     decimal.NewFromInt(100),
			taxRate:       decimal.Zero,
			wantQuantity:  1,
			wantUnitPrice: decimal.NewFromInt(100),
			wantTaxRate:   decimal.Zero,
		},
		{
			name:          "negative unit price becomes zero",
			quantity:      2,
			unitPrice:     decimal.NewFromInt(-50),
			taxRate:       decimal.NewFromInt(5),
			wantQuantity:  2,
			wantUnitPrice: decimal.Zero,
			wantTaxRate:   decimal.NewFromInt(5),
		},
		{
			name:          "negative tax rate clamps to zero",
			quantity:      1,
			unitPrice:     decimal.NewFromInt(100),
			taxRate:       decimal.NewFromInt(-3),
			wantQuantity:  1,
			wantUnitPrice: decimal.NewFromInt(100),
			wantTaxRate:   decimal.Zero,
		},
		{
			name:          "tax rate above hundred clamps to hundred",
			quantity:      1,
			unitPrice:     decimal.NewFromInt(100),
			taxRate:       decimal.NewFromInt(150),
			wantQuantity:  1,
			wantUnitPrice: decimal.NewFromInt(100),
			wantTaxRate:   decimal.NewFromInt(100),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := &LineItem{
				Description: "row",
				Quantity:    tc.quantity,
				UnitPrice:   tc.unitPrice,
				TaxRate:     tc.taxRate,
			}
			item.Recalculate()

			assert.Equal(t, tc.wantQuantity, item.Quantity)
			assert.True(t, item.UnitPrice.Equal(tc.wantUnitPrice), "unit price: %s", item.UnitPrice)
			assert.True(t, item.TaxRate.Equal(tc.wantTaxRate), "tax rate: %s", item.TaxRate)

			wantTotal := item.Amount().Add(item.TaxAmount)
			assert.True(t, item.Total.Equal(wantTotal))
		})
	}
}

func TestLineItemValidate(t *testing.T) {
	valid := &LineItem{
		ID:          "line_1",
		Description: "consulting hours",
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(100),
		TaxRate:     decimal.NewFromInt(10),
	}
	assert.NoError(t, valid.Validate())

	missingDescription := &LineItem{
		ID:        "line_2",
		Quantity:  1,
		UnitPrice: decimal.NewFromInt(100),
	}
	assert.Error(t, missingDescription.Validate())

	badQuantity := &LineItem{
		ID:          "line_3",
		Description: "row",
		Quantity:    0,
		UnitPrice:   decimal.NewFromInt(100),
	}
	assert.Error(t, badQuantity.Validate())

	negativePrice := &LineItem{
		ID:          "line_4",
		Description: "row",
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(-1),
	}
	assert.Error(t, negativePrice.Validate())

	badRate := &LineItem{
		ID:          "line_5",
		Description: "row",
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(100),
		TaxRate:     decimal.NewFromInt(101),
	}
	assert.Error(t, badRate.Validate())
}
