package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

func newTestInvoice(items ...*LineItem) *Invoice {
	inv := &Invoice{
		ID:             "inv_test",
		CustomerID:     "cust_test",
		Currency:       "USD",
		DocumentStatus: types.DocumentStatusDraft,
		PaymentStatus:  types.PaymentStatusUnpaid,
		LineItems:      items,
		Version:        1,
	}
	inv.Recalculate()
	return inv
}

func consultingItem() *LineItem {
	return &LineItem{
		ID:          "line_consulting",
		Description: "consulting hours",
		Quantity:    3,
		UnitPrice:   decimal.NewFromInt(1000),
		TaxRate:     decimal.NewFromFloat(7.5),
	}
}

func setupFeeItem() *LineItem {
	return &LineItem{
		ID:          "line_setup",
		Description: "setup fee",
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(500),
		TaxRate:     decimal.Zero,
	}
}

func TestInvoiceRecalculateAggregates(t *testing.T) {
	inv := newTestInvoice(consultingItem(), setupFeeItem())

	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(3500)), "subtotal: %s", inv.Subtotal)
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(225)), "tax amount: %s", inv.TaxAmount)
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(3725)), "total: %s", inv.Total)
	assert.True(t, inv.AmountRemaining.Equal(inv.Total))
}

func TestInvoiceRecalculateEmpty(t *testing.T) {
	inv := newTestInvoice()

	assert.True(t, inv.Subtotal.IsZero())
	assert.True(t, inv.TaxAmount.IsZero())
	assert.True(t, inv.Total.IsZero())
}

func TestInvoiceRecalculateOrderIndependent(t *testing.T) {
	forward := newTestInvoice(consultingItem(), setupFeeItem())
	reversed := newTestInvoice(setupFeeItem(), consultingItem())

	assert.True(t, forward.Subtotal.Equal(reversed.Subtotal))
	assert.True(t, forward.TaxAmount.Equal(reversed.TaxAmount))
	assert.True(t, forward.Total.Equal(reversed.Total))
}

func TestInvoiceTaxAmountIsSumOfLineAmounts(t *testing.T) {
	// two rows at the same rate: the document tax is the sum of the per-line
	// amounts, not subtotal * rate recomputed at the document level
	a := consultingItem()
	b := consultingItem()
	b.ID = "line_consulting_2"
	inv := newTestInvoice(a, b)

	want := a.TaxAmount.Add(b.TaxAmount)
	assert.True(t, inv.TaxAmount.Equal(want))
}

func TestInvoiceSetTaxSelection(t *testing.T) {
	overridden := setupFeeItem()
	overridden.TaxOverridden = true

	inv := newTestInvoice(consultingItem(), overridden)
	inv.SetTaxSelection(decimal.NewFromInt(10), []AppliedTaxRate{
		{TaxRateID: "txr_1", Name: "VAT", Percentage: decimal.NewFromInt(10)},
	})

	assert.True(t, inv.EffectiveTaxRate.Equal(decimal.NewFromInt(10)))
	assert.True(t, inv.LineItems[0].TaxRate.Equal(decimal.NewFromInt(10)))
	// overridden rows keep their own rate when the selection changes
	assert.True(t, inv.LineItems[1].TaxRate.IsZero())
	assert.Len(t, inv.AppliedTaxRates, 1)
}

func TestInvoiceSendFromDraft(t *testing.T) {
	inv := newTestInvoice(consultingItem())
	now := time.Now().UTC()

	require.NoError(t, inv.Send(now))
	assert.Equal(t, types.DocumentStatusSent, inv.DocumentStatus)
	require.NotNil(t, inv.SentAt)
	assert.Equal(t, now, *inv.SentAt)
}

func TestInvoiceSendRequiresLineItems(t *testing.T) {
	inv := newTestInvoice()

	err := inv.Send(time.Now().UTC())
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
	assert.Equal(t, types.DocumentStatusDraft, inv.DocumentStatus)
}

func TestInvoiceSendRequiresCustomer(t *testing.T) {
	inv := newTestInvoice(consultingItem())
	inv.CustomerID = ""

	err := inv.Send(time.Now().UTC())
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestInvoiceRecordView(t *testing.T) {
	inv := newTestInvoice(consultingItem())
	require.NoError(t, inv.Send(time.Now().UTC()))

	first := time.Now().UTC()
	require.NoError(t, inv.RecordView(first))
	assert.Equal(t, types.DocumentStatusViewed, inv.DocumentStatus)
	require.NotNil(t, inv.ViewedAt)
	assert.Equal(t, first, *inv.ViewedAt)

	// a repeat view keeps the original timestamp
	require.NoError(t, inv.RecordView(first.Add(time.Hour)))
	assert.Equal(t, types.DocumentStatusViewed, inv.DocumentStatus)
	assert.Equal(t, first, *inv.ViewedAt)
}

func TestInvoiceRecordViewFromDraftRejected(t *testing.T) {
	inv := newTestInvoice(consultingItem())

	err := inv.RecordView(time.Now().UTC())
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
	assert.Equal(t, types.DocumentStatusDraft, inv.DocumentStatus)
}

func TestInvoiceMarkOverdue(t *testing.T) {
	inv := newTestInvoice(consultingItem())
	require.NoError(t, inv.Send(time.Now().UTC()))

	require.NoError(t, inv.MarkOverdue())
	assert.Equal(t, types.DocumentStatusOverdue, inv.DocumentStatus)
}

func TestInvoiceMarkOverdueRejectedWhenDraft(t *testing.T) {
	inv := newTestInvoice(consultingItem())

	err := inv.MarkOverdue()
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestInvoiceMarkOverdueRejectedWhenPaid(t *testing.T) {
	inv := newTestInvoice(consultingItem())
	now := time.Now().UTC()
	require.NoError(t, inv.Send(now))
	require.NoError(t, inv.MarkPaid(now))

	err := inv.MarkOverdue()
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
	assert.Equal(t, types.DocumentStatusSent, inv.DocumentStatus)
}

func TestInvoiceCancel(t *testing.T) {
	now := time.Now().UTC()

	draft := newTestInvoice(consultingItem())
	require.NoError(t, draft.Cancel(now))
	assert.Equal(t, types.DocumentStatusCanceled, draft.DocumentStatus)
	require.NotNil(t, draft.CanceledAt)

	sent := newTestInvoice(consultingItem())
	require.NoError(t, sent.Send(now))
	require.NoError(t, sent.Cancel(now))
	assert.Equal(t, types.DocumentStatusCanceled, sent.DocumentStatus)

	// canceling twice is illegal: CANCELED is terminal
	err := sent.Cancel(now)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestInvoiceCancelRejectedWhenPaid(t *testing.T) {
	inv := newTestInvoice(consultingItem())
	now := time.Now().UTC()
	require.NoError(t, inv.Send(now))
	require.NoError(t, inv.MarkPaid(now))

	err := inv.Cancel(now)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
	assert.Equal(t, types.DocumentStatusSent, inv.DocumentStatus)
}

func TestInvoiceCancelKeepsPaymentStatus(t *testing.T) {
	inv := newTestInvoice(consultingItem(), setupFeeItem())
	now := time.Now().UTC()
	require.NoError(t, inv.Send(now))
	require.NoError(t, inv.ApplyPaymentTotal(decimal.NewFromInt(1000), now))
	require.Equal(t, types.PaymentStatusPartiallyPaid, inv.PaymentStatus)

	require.NoError(t, inv.Cancel(now))
	assert.Equal(t, types.PaymentStatusPartiallyPaid, inv.PaymentStatus)
	assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(1000)))
}

func TestInvoiceApplyPaymentTotal(t *testing.T) {
	now := time.Now().UTC()

	t.Run("partial payment", func(t *testing.T) {
		inv := newTestInvoice(consultingItem(), setupFeeItem())
		require.NoError(t, inv.ApplyPaymentTotal(decimal.NewFromInt(1000), now))

		assert.Equal(t, types.PaymentStatusPartiallyPaid, inv.PaymentStatus)
		assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(1000)))
		assert.True(t, inv.AmountRemaining.Equal(decimal.NewFromInt(2725)))
		assert.Nil(t, inv.PaidAt)
	})

	t.Run("exact payment settles", func(t *testing.T) {
		inv := newTestInvoice(consultingItem(), setupFeeItem())
		require.NoError(t, inv.ApplyPaymentTotal(decimal.NewFromInt(3725), now))

		assert.Equal(t, types.PaymentStatusPaid, inv.PaymentStatus)
		assert.True(t, inv.AmountRemaining.IsZero())
		require.NotNil(t, inv.PaidAt)
	})

	t.Run("overpayment settles and caps amount paid", func(t *testing.T) {
		inv := newTestInvoice(consultingItem(), setupFeeItem())
		require.NoError(t, inv.ApplyPaymentTotal(decimal.NewFromInt(5000), now))

		assert.Equal(t, types.PaymentStatusPaid, inv.PaymentStatus)
		assert.True(t, inv.AmountPaid.Equal(inv.Total))
		assert.True(t, inv.AmountRemaining.IsZero())
	})

	t.Run("zero against zero total stays unpaid", func(t *testing.T) {
		inv := newTestInvoice()
		require.NoError(t, inv.ApplyPaymentTotal(decimal.Zero, now))
		assert.Equal(t, types.PaymentStatusUnpaid, inv.PaymentStatus)
	})

	t.Run("positive payment against zero total settles", func(t *testing.T) {
		inv := newTestInvoice()
		require.NoError(t, inv.ApplyPaymentTotal(decimal.NewFromInt(10), now))
		assert.Equal(t, types.PaymentStatusPaid, inv.PaymentStatus)
		assert.True(t, inv.AmountRemaining.IsZero())
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		inv := newTestInvoice(consultingItem())
		err := inv.ApplyPaymentTotal(decimal.NewFromInt(-1), now)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})
}

func TestInvoiceMarkPaid(t *testing.T) {
	inv := newTestInvoice(consultingItem(), setupFeeItem())
	now := time.Now().UTC()

	require.NoError(t, inv.MarkPaid(now))
	assert.Equal(t, types.PaymentStatusPaid, inv.PaymentStatus)
	assert.True(t, inv.AmountPaid.Equal(inv.Total))
	assert.True(t, inv.AmountRemaining.IsZero())
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, now, *inv.PaidAt)

	// marking paid again keeps the first settlement timestamp
	require.NoError(t, inv.MarkPaid(now.Add(time.Hour)))
	assert.Equal(t, now, *inv.PaidAt)
}

func TestInvoiceIsEditable(t *testing.T) {
	inv := newTestInvoice(consultingItem())
	assert.True(t, inv.IsEditable())

	require.NoError(t, inv.Send(time.Now().UTC()))
	assert.False(t, inv.IsEditable())
}

func TestInvoiceValidate(t *testing.T) {
	inv := newTestInvoice(consultingItem())
	assert.NoError(t, inv.Validate())

	inconsistent := newTestInvoice(consultingItem())
	inconsistent.AmountRemaining = decimal.NewFromInt(1)
	assert.Error(t, inconsistent.Validate())

	overpaid := newTestInvoice(consultingItem())
	overpaid.AmountPaid = overpaid.Total.Add(decimal.NewFromInt(1))
	assert.Error(t, overpaid.Validate())
}
