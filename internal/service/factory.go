package service

import (
	"github.com/quillbooks/quillbooks/internal/cache"
	"github.com/quillbooks/quillbooks/internal/config"
	"github.com/quillbooks/quillbooks/internal/domain/catalog"
	"github.com/quillbooks/quillbooks/internal/domain/invoice"
	"github.com/quillbooks/quillbooks/internal/domain/payment"
	"github.com/quillbooks/quillbooks/internal/domain/taxrate"
	"github.com/quillbooks/quillbooks/internal/logger"
)

// ServiceParams bundles the dependencies shared by the engine services.
// Persistence implementations are supplied by the caller; the engine only
// depends on the repository interfaces.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache

	InvoiceRepo  invoice.Repository
	SequenceRepo invoice.SequenceRepository
	TaxRateRepo  taxrate.Repository
	PaymentRepo  payment.Repository
	CatalogRepo  catalog.Repository
}
