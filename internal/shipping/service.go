package shipping

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/internal/checkout/helpers"
	"github.com/atacadobras/atacado-backend/pkg/db/models"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/melhorenvio"
)

// Default parcel dimensions in centimeters, used when a product carries none.
const (
	defaultParcelWidth  = 30.0
	defaultParcelHeight = 25.0
	defaultParcelLength = 35.0

	minParcelWeightKg = 0.3
)

// GroupQuote carries the rates returned for one supplier group. A group whose
// carrier call failed has Err set and no rates; the confirm gate then blocks
// until a successful re-quote.
type GroupQuote struct {
	SupplierID   uuid.UUID
	SupplierName string
	Subtotal     decimal.Decimal
	Rates        []melhorenvio.Rate
	Err          string
	Stale        bool
}

type carrierClient interface {
	Calculate(ctx context.Context, req melhorenvio.QuoteRequest) ([]melhorenvio.Rate, error)
}

type supplierLoader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.SupplierProfile, error)
}

// Service fans shipping quotes out per supplier group.
type Service interface {
	QuoteGroups(ctx context.Context, buyerID uuid.UUID, destinationCEP string, groups []helpers.Group) ([]GroupQuote, error)
}

type service struct {
	carrier   carrierClient
	suppliers supplierLoader
	sequencer *Sequencer
	logger    *logger.Logger
}

// NewService builds a shipping quote service.
func NewService(carrier carrierClient, suppliers supplierLoader, sequencer *Sequencer, logg *logger.Logger) (Service, error) {
	if carrier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	if suppliers == nil {
		return nil, fmt.Errorf("supplier loader required")
	}
	if sequencer == nil {
		return nil, fmt.Errorf("sequencer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carrier:   carrier,
		suppliers: suppliers,
		sequencer: sequencer,
		logger:    logg,
	}, nil
}

// QuoteGroups requests rates for every group concurrently. Each group quote
// is independent: one carrier failure never hides the other groups' rates.
// Responses that lost the race to a newer request for the same buyer and
// supplier are marked stale and carry no rates.
func (s *service) QuoteGroups(ctx context.Context, buyerID uuid.UUID, destinationCEP string, groups []helpers.Group) ([]GroupQuote, error) {
	if len(groups) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no supplier groups to quote")
	}

	destination, err := helpers.NormalizeCEP(destinationCEP)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.SupplierID)
	}
	profiles, err := s.suppliers.GetByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading supplier profiles")
	}

	results := make([]GroupQuote, len(groups))
	var wg sync.WaitGroup

	for i, group := range groups {
		wg.Add(1)
		go func(i int, group helpers.Group) {
			defer wg.Done()
			results[i] = s.quoteGroup(ctx, buyerID, destination, group, profiles)
		}(i, group)
	}
	wg.Wait()

	return results, nil
}

func (s *service) quoteGroup(ctx context.Context, buyerID uuid.UUID, destination string, group helpers.Group, profiles map[uuid.UUID]models.SupplierProfile) GroupQuote {
	quote := GroupQuote{
		SupplierID:   group.SupplierID,
		SupplierName: group.SupplierName,
		Subtotal:     group.Subtotal(),
	}

	profile, ok := profiles[group.SupplierID]
	if !ok {
		quote.Err = "supplier profile not found"
		return quote
	}
	origin, err := helpers.NormalizeCEP(profile.OriginPostalCode)
	if err != nil {
		quote.Err = "supplier origin postal code is invalid"
		return quote
	}

	key := sequenceKey(buyerID, group.SupplierID)
	seq := s.sequencer.Next(key)

	// One volume per line: weight scales with the line's physical pieces,
	// dimensions pass through untouched. The carrier sums insurance_value
	// across volumes, so the group subtotal goes on the first volume only.
	// Setting it per volume would insure the goods more than once.
	volumes := make([]melhorenvio.Volume, 0, len(group.Lines))
	for i, line := range group.Lines {
		weight := line.UnitWeightKg * float64(line.PhysicalUnits())
		if weight < minParcelWeightKg {
			weight = minParcelWeightKg
		}
		volume := melhorenvio.Volume{
			Width:    orDefault(line.WidthCm, defaultParcelWidth),
			Height:   orDefault(line.HeightCm, defaultParcelHeight),
			Length:   orDefault(line.LengthCm, defaultParcelLength),
			Weight:   weight,
			Quantity: 1,
		}
		if i == 0 {
			volume.InsuranceValue = quote.Subtotal
		}
		volumes = append(volumes, volume)
	}

	rates, err := s.carrier.Calculate(ctx, melhorenvio.QuoteRequest{
		FromPostalCode: origin,
		ToPostalCode:   destination,
		Volumes:        volumes,
	})

	if !s.sequencer.IsCurrent(key, seq) {
		quote.Stale = true
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{
			"supplier_id": group.SupplierID,
			"seq":         seq,
		}), "discarding stale shipping quote")
		return quote
	}

	if err != nil {
		quote.Err = err.Error()
		s.logger.Error(s.logger.WithSupplierID(ctx, group.SupplierID.String()), "shipping quote failed", err)
		return quote
	}

	quote.Rates = rates
	return quote
}

func sequenceKey(buyerID, supplierID uuid.UUID) string {
	return buyerID.String() + ":" + supplierID.String()
}

func orDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
	}
	return fallback
}
