package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/quillbooks/quillbooks/internal/domain/taxrate"
	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/testutil"
	"github.com/quillbooks/quillbooks/internal/types"
)

type TaxServiceSuite struct {
	testutil.BaseServiceTestSuite
	service TaxService
}

func TestTaxService(t *testing.T) {
	suite.Run(t, new(TaxServiceSuite))
}

func (s *TaxServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewTaxService(ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		Cache:       s.GetCache(),
		TaxRateRepo: stores.TaxRateRepo,
	})
}

func (s *TaxServiceSuite) createRate(name string, pct float64, isDefault bool) *taxrate.TaxRate {
	rate := &taxrate.TaxRate{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE),
		Name:       name,
		Percentage: decimal.NewFromFloat(pct),
		IsDefault:  isDefault,
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().TaxRateRepo.Create(s.GetContext(), rate))
	return rate
}

func (s *TaxServiceSuite) TestResolveSelectionSumsRates() {
	vat := s.createRate("VAT", 5, false)
	luxury := s.createRate("Luxury tax", 2.5, false)

	selection, err := s.service.ResolveSelection(s.GetContext(), []string{vat.ID, luxury.ID})
	s.Require().NoError(err)
	s.True(selection.EffectiveRate.Equal(decimal.NewFromFloat(7.5)), "effective: %s", selection.EffectiveRate)
	s.Require().Len(selection.Applied, 2)
	s.Equal("VAT", selection.Applied[0].Name)
	s.True(selection.Applied[0].Percentage.Equal(decimal.NewFromInt(5)))
	s.Equal("Luxury tax", selection.Applied[1].Name)
}

func (s *TaxServiceSuite) TestResolveSelectionEmpty() {
	selection, err := s.service.ResolveSelection(s.GetContext(), nil)
	s.Require().NoError(err)
	s.True(selection.EffectiveRate.IsZero())
	s.Empty(selection.Applied)
}

func (s *TaxServiceSuite) TestResolveSelectionIdempotent() {
	vat := s.createRate("VAT", 5, false)

	// selecting the same rate twice must not double-count it
	selection, err := s.service.ResolveSelection(s.GetContext(), []string{vat.ID, vat.ID})
	s.Require().NoError(err)
	s.True(selection.EffectiveRate.Equal(decimal.NewFromInt(5)))
	s.Len(selection.Applied, 1)
}

func (s *TaxServiceSuite) TestResolveSelectionOrderIndependent() {
	vat := s.createRate("VAT", 5, false)
	luxury := s.createRate("Luxury tax", 2.5, false)

	forward, err := s.service.ResolveSelection(s.GetContext(), []string{vat.ID, luxury.ID})
	s.Require().NoError(err)
	reversed, err := s.service.ResolveSelection(s.GetContext(), []string{luxury.ID, vat.ID})
	s.Require().NoError(err)

	s.True(forward.EffectiveRate.Equal(reversed.EffectiveRate))
}

func (s *TaxServiceSuite) TestResolveSelectionUnknownRate() {
	vat := s.createRate("VAT", 5, false)

	_, err := s.service.ResolveSelection(s.GetContext(), []string{vat.ID, "txr_missing"})
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *TaxServiceSuite) TestResolveSelectionServedFromCache() {
	vat := s.createRate("VAT", 5, false)

	_, err := s.service.ResolveSelection(s.GetContext(), []string{vat.ID})
	s.Require().NoError(err)

	// the definition is now cached; a repeat resolution succeeds even after
	// the backing store is emptied
	s.GetStores().TaxRateRepo.(*testutil.InMemoryTaxRateStore).Clear()

	selection, err := s.service.ResolveSelection(s.GetContext(), []string{vat.ID})
	s.Require().NoError(err)
	s.True(selection.EffectiveRate.Equal(decimal.NewFromInt(5)))
}

func (s *TaxServiceSuite) TestDefaultSelection() {
	s.createRate("VAT", 5, false)
	def := s.createRate("City tax", 2, true)

	ids, err := s.service.DefaultSelection(s.GetContext())
	s.Require().NoError(err)
	s.Equal([]string{def.ID}, ids)
}

func (s *TaxServiceSuite) TestDefaultSelectionEmpty() {
	ids, err := s.service.DefaultSelection(s.GetContext())
	s.Require().NoError(err)
	s.Empty(ids)
}
