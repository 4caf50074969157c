package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/quillbooks/quillbooks/internal/api/dto"
	"github.com/quillbooks/quillbooks/internal/domain/invoice"
	"github.com/quillbooks/quillbooks/internal/domain/payment"
	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// InvoiceService is the engine's boundary contract. Each mutation validates
// the request, applies the domain rules, and writes back with a
// compare-and-set on the invoice version: of two concurrent conflicting
// transitions only one applies, the loser gets a version conflict and is
// expected to refetch and retry.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context) ([]*dto.InvoiceResponse, error)

	AddLineItem(ctx context.Context, invoiceID string, req dto.AddLineItemRequest) (*dto.InvoiceResponse, error)
	UpdateLineItem(ctx context.Context, invoiceID, lineItemID string, req dto.UpdateLineItemRequest) (*dto.InvoiceResponse, error)
	RemoveLineItem(ctx context.Context, invoiceID, lineItemID string) (*dto.InvoiceResponse, error)
	SetTaxSelection(ctx context.Context, invoiceID string, taxRateIDs []string) (*dto.InvoiceResponse, error)

	SendInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	RecordView(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	MarkOverdue(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)

	RecordPayment(ctx context.Context, id string, req dto.RecordPaymentRequest) (*dto.InvoiceResponse, error)
	CreatePaymentLink(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	HandlePaymentLinkCallback(ctx context.Context, linkID string, amount decimal.Decimal) (*dto.InvoiceResponse, error)
	MarkPaid(ctx context.Context, id string) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	ServiceParams
	taxService TaxService
	numbering  NumberingService
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
		taxService:    NewTaxService(params),
		numbering:     NewNumberingService(params),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// idempotent create: a repeated key returns the existing invoice
	if req.IdempotencyKey != nil {
		existing, err := s.InvoiceRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			s.Logger.Infow("returning existing invoice for idempotency key",
				"idempotency_key", *req.IdempotencyKey,
				"invoice_id", existing.ID)
			return dto.NewInvoiceResponse(existing), nil
		}
	}

	taxRateIDs := req.TaxRateIDs
	if len(taxRateIDs) == 0 && req.UseDefaultTaxRates {
		defaults, err := s.taxService.DefaultSelection(ctx)
		if err != nil {
			return nil, err
		}
		taxRateIDs = defaults
	}

	selection, err := s.taxService.ResolveSelection(ctx, taxRateIDs)
	if err != nil {
		return nil, err
	}

	number, fallback, err := s.numbering.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	issueDate := lo.FromPtrOr(req.IssueDate, now)
	dueDate := req.DueDate
	if dueDate == nil {
		dueDate = lo.ToPtr(issueDate.AddDate(0, 0, s.Config.Invoicing.DefaultDueDays))
	}

	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber:  number,
		NumberFallback: fallback,
		CustomerID:     req.CustomerID,
		IdempotencyKey: req.IdempotencyKey,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		DocumentStatus: types.DocumentStatusDraft,
		PaymentStatus:  types.PaymentStatusUnpaid,
		Currency:       req.Currency,
		PaymentLinkID:  req.PaymentLinkID,
		Metadata:       req.Metadata,
		Version:        1,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	for order, itemReq := range req.LineItems {
		item, err := s.materializeLineItem(ctx, itemReq, selection.EffectiveRate, order)
		if err != nil {
			return nil, err
		}
		item.InvoiceID = inv.ID
		inv.LineItems = append(inv.LineItems, item)
	}

	inv.SetTaxSelection(selection.EffectiveRate, selection.Applied)

	if req.SendImmediately {
		if err := inv.Send(now); err != nil {
			return nil, err
		}
	}

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		s.Logger.Errorw("failed to create invoice",
			"error", err,
			"customer_id", req.CustomerID)
		return nil, err
	}

	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"document_status", inv.DocumentStatus,
		"total", inv.Total)

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context) ([]*dto.InvoiceResponse, error) {
	invoices, err := s.InvoiceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv)
	}), nil
}

func (s *invoiceService) AddLineItem(ctx context.Context, invoiceID string, req dto.AddLineItemRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.getEditable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	itemReq := dto.CreateInvoiceLineItemRequest{
		CatalogItemID: req.CatalogItemID,
		Description:   req.Description,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		TaxRate:       req.TaxRate,
	}

	item, err := s.materializeLineItem(ctx, itemReq, inv.EffectiveTaxRate, len(inv.LineItems))
	if err != nil {
		return nil, err
	}
	item.InvoiceID = inv.ID
	inv.LineItems = append(inv.LineItems, item)
	inv.Recalculate()

	return s.update(ctx, inv)
}

func (s *invoiceService) UpdateLineItem(ctx context.Context, invoiceID, lineItemID string, req dto.UpdateLineItemRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.getEditable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	item := inv.FindLineItem(lineItemID)
	if item == nil {
		return nil, ierr.NewError("line item not found").
			WithReportableDetails(map[string]any{
				"invoice_id":   invoiceID,
				"line_item_id": lineItemID,
			}).
			Mark(ierr.ErrNotFound)
	}

	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.TaxRate != nil {
		// a per-row tax edit detaches the row from the invoice's selection
		item.TaxRate = *req.TaxRate
		item.TaxOverridden = true
	}

	inv.Recalculate()
	return s.update(ctx, inv)
}

func (s *invoiceService) RemoveLineItem(ctx context.Context, invoiceID, lineItemID string) (*dto.InvoiceResponse, error) {
	inv, err := s.getEditable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if inv.FindLineItem(lineItemID) == nil {
		return nil, ierr.NewError("line item not found").
			WithReportableDetails(map[string]any{
				"invoice_id":   invoiceID,
				"line_item_id": lineItemID,
			}).
			Mark(ierr.ErrNotFound)
	}

	inv.LineItems = lo.Filter(inv.LineItems, func(item *invoice.LineItem, _ int) bool {
		return item.ID != lineItemID
	})
	inv.Recalculate()

	return s.update(ctx, inv)
}

func (s *invoiceService) SetTaxSelection(ctx context.Context, invoiceID string, taxRateIDs []string) (*dto.InvoiceResponse, error) {
	inv, err := s.getEditable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	selection, err := s.taxService.ResolveSelection(ctx, taxRateIDs)
	if err != nil {
		return nil, err
	}

	inv.SetTaxSelection(selection.EffectiveRate, selection.Applied)
	return s.update(ctx, inv)
}

func (s *invoiceService) SendInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := inv.Send(time.Now().UTC()); err != nil {
		return nil, err
	}

	return s.update(ctx, inv)
}

func (s *invoiceService) RecordView(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// repeat views stay VIEWED without another write
	if inv.DocumentStatus == types.DocumentStatusViewed {
		return dto.NewInvoiceResponse(inv), nil
	}

	if err := inv.RecordView(time.Now().UTC()); err != nil {
		return nil, err
	}

	return s.update(ctx, inv)
}

func (s *invoiceService) MarkOverdue(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := inv.MarkOverdue(); err != nil {
		return nil, err
	}

	return s.update(ctx, inv)
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := inv.Cancel(time.Now().UTC()); err != nil {
		return nil, err
	}

	return s.update(ctx, inv)
}

func (s *invoiceService) RecordPayment(ctx context.Context, id string, req dto.RecordPaymentRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	receivedAt := lo.FromPtrOr(req.ReceivedAt, time.Now().UTC())
	return s.recordPayment(ctx, inv, req.Amount, payment.SourceManual, receivedAt)
}

// CreatePaymentLink attaches a generated short link identifier to the
// invoice for the gateway to serve. Repeat calls return the existing link
// without a write.
func (s *invoiceService) CreatePaymentLink(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.DocumentStatus == types.DocumentStatusCanceled {
		return nil, ierr.NewError("cannot create payment link for canceled invoice").
			WithHint("The invoice is canceled and no longer collectible").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if inv.PaymentLinkID != nil {
		return dto.NewInvoiceResponse(inv), nil
	}

	inv.PaymentLinkID = lo.ToPtr(types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT_LINK))

	s.Logger.Infow("created payment link",
		"invoice_id", inv.ID,
		"payment_link_id", *inv.PaymentLinkID)

	return s.update(ctx, inv)
}

func (s *invoiceService) HandlePaymentLinkCallback(ctx context.Context, linkID string, amount decimal.Decimal) (*dto.InvoiceResponse, error) {
	if !amount.IsPositive() {
		return nil, ierr.NewError("payment amount must be positive").
			WithReportableDetails(map[string]any{
				"payment_link_id": linkID,
				"amount":          amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	inv, err := s.InvoiceRepo.GetByPaymentLinkID(ctx, linkID)
	if err != nil {
		return nil, err
	}

	return s.recordPayment(ctx, inv, amount, payment.SourceLink, time.Now().UTC())
}

func (s *invoiceService) MarkPaid(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	balance := inv.AmountRemaining

	if err := inv.MarkPaid(now); err != nil {
		return nil, err
	}

	resp, err := s.update(ctx, inv)
	if err != nil {
		return nil, err
	}

	// the balancing payment keeps the settlement status derivable from the
	// payment records alone; it is written only after the version-checked
	// update so a lost race leaves no record behind
	if balance.IsPositive() {
		rec := &payment.Payment{
			ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
			InvoiceID:  inv.ID,
			Amount:     balance,
			Source:     payment.SourceManual,
			ReceivedAt: now,
			BaseModel:  types.GetDefaultBaseModel(ctx),
		}
		if err := s.PaymentRepo.Create(ctx, rec); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// recordPayment re-derives the settlement status from the sum of all
// recorded payments plus the incoming one, writes the invoice, and only then
// appends the payment record. The version-checked write goes first: losing
// the race must leave no record behind, otherwise the retry the conflict
// contract demands would sum the orphan and overstate the amount paid.
func (s *invoiceService) recordPayment(ctx context.Context, inv *invoice.Invoice, amount decimal.Decimal, source payment.Source, receivedAt time.Time) (*dto.InvoiceResponse, error) {
	if inv.DocumentStatus == types.DocumentStatusCanceled {
		return nil, ierr.NewError("cannot record payment on canceled invoice").
			WithHint("The invoice is canceled; issue a new one instead").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	rec := &payment.Payment{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		InvoiceID:  inv.ID,
		Amount:     amount,
		Source:     source,
		ReceivedAt: receivedAt,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	paid := lo.Reduce(payments, func(acc decimal.Decimal, p *payment.Payment, _ int) decimal.Decimal {
		return acc.Add(p.Amount)
	}, decimal.Zero).Add(rec.Amount)

	if err := inv.ApplyPaymentTotal(paid, time.Now().UTC()); err != nil {
		return nil, err
	}

	resp, err := s.update(ctx, inv)
	if err != nil {
		return nil, err
	}

	if err := s.PaymentRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.Logger.Infow("recorded payment",
		"invoice_id", inv.ID,
		"amount", amount,
		"source", source,
		"payment_status", inv.PaymentStatus)

	return resp, nil
}

// materializeLineItem resolves an optional catalog reference and converts the
// request into a recalculated domain line item.
func (s *invoiceService) materializeLineItem(ctx context.Context, req dto.CreateInvoiceLineItemRequest, effectiveRate decimal.Decimal, order int) (*invoice.LineItem, error) {
	if req.CatalogItemID != nil {
		item, err := s.CatalogRepo.Get(ctx, *req.CatalogItemID)
		if err != nil {
			return nil, err
		}
		if req.Description == "" {
			req.Description = item.Name
		}
		if req.UnitPrice.IsZero() {
			req.UnitPrice = item.Price
		}
		if !item.Taxable {
			// non-taxable items keep a zero rate even when the tax
			// selection changes later
			req.TaxRate = lo.ToPtr(decimal.Zero)
		}
	}

	return req.ToLineItem(ctx, effectiveRate, order), nil
}

func (s *invoiceService) getEditable(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if !inv.IsEditable() {
		return nil, ierr.NewError("invoice is not editable").
			WithHintf("line items and taxes can only change while the invoice is in %s", types.DocumentStatusDraft).
			WithReportableDetails(map[string]any{
				"invoice_id":      inv.ID,
				"document_status": inv.DocumentStatus.String(),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	return inv, nil
}

func (s *invoiceService) update(ctx context.Context, inv *invoice.Invoice) (*dto.InvoiceResponse, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		if ierr.IsVersionConflict(err) {
			s.Logger.Warnw("invoice update lost a concurrent write race",
				"invoice_id", inv.ID,
				"version", inv.Version)
		}
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}
