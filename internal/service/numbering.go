package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NumberingService produces unique, per-tenant, human-readable invoice
// numbers before the invoice is persisted.
type NumberingService interface {
	// NextInvoiceNumber returns the next number for the tenant in the
	// context, plus whether the fallback path was used. Numbering never
	// blocks invoice creation: when the sequence source fails, a
	// timestamp-derived identifier is issued instead and the failure is
	// logged as a warning.
	NextInvoiceNumber(ctx context.Context) (string, bool, error)
}

type numberingService struct {
	ServiceParams
}

func NewNumberingService(params ServiceParams) NumberingService {
	return &numberingService{ServiceParams: params}
}

func (s *numberingService) NextInvoiceNumber(ctx context.Context) (string, bool, error) {
	cfg := s.Config.Invoicing
	now := time.Now().UTC()

	if loc, err := time.LoadLocation(cfg.NumberTimezone); err == nil {
		now = now.In(loc)
	}

	period := now.Format(cfg.NumberFormat.GoLayout())

	seq, err := s.SequenceRepo.Next(ctx, period)
	if err != nil {
		// creation must not be blocked by the numbering subsystem; a
		// ULID suffix keeps the fallback collision-resistant under
		// concurrent creation
		number := s.fallbackNumber(period)
		s.Logger.Warnw("invoice numbering fell back to timestamp-derived identifier",
			"error", err,
			"period", period,
			"invoice_number", number)
		return number, true, nil
	}

	seq += cfg.NumberStartSequence - 1
	number := fmt.Sprintf("%s%s%s%s%0*d",
		cfg.NumberPrefix, cfg.NumberSeparator,
		period, cfg.NumberSeparator,
		cfg.NumberSuffixLength, seq)

	return number, false, nil
}

func (s *numberingService) fallbackNumber(period string) string {
	cfg := s.Config.Invoicing
	id := ulid.Make().String()
	suffix := strings.ToUpper(id[len(id)-10:])
	return fmt.Sprintf("%s%s%s%s%s",
		cfg.NumberPrefix, cfg.NumberSeparator,
		period, cfg.NumberSeparator,
		suffix)
}
