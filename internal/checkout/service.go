package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atacadobras/atacado-backend/internal/cart"
	"github.com/atacadobras/atacado-backend/internal/checkout/helpers"
	"github.com/atacadobras/atacado-backend/internal/orders"
	"github.com/atacadobras/atacado-backend/internal/shipping"
	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/melhorenvio"
	"github.com/atacadobras/atacado-backend/pkg/metrics"
)

// confirmGuardTTL bounds how long a stuck confirm can hold the per-buyer lock.
const confirmGuardTTL = 2 * time.Minute

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartService interface {
	Get(ctx context.Context, buyerID uuid.UUID) (*cart.Cart, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type quoteService interface {
	QuoteGroups(ctx context.Context, buyerID uuid.UUID, destinationCEP string, groups []helpers.Group) ([]shipping.GroupQuote, error)
}

type paymentCharger interface {
	ChargeOrder(ctx context.Context, order *models.Order, method enums.PaymentMethod, cardHash string) (*models.PaymentRecord, error)
}

type submissionWriter interface {
	CreateSubmission(ctx context.Context, submission *models.CheckoutSubmission) error
	UpdateSubmission(ctx context.Context, submission *models.CheckoutSubmission) error
}

type confirmGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// SelectedRate is the buyer's chosen shipping option for one supplier group.
type SelectedRate struct {
	CarrierRateID int64
	CarrierName   string
	Price         decimal.Decimal
}

// ConfirmInput is the checkout submission.
type ConfirmInput struct {
	DestinationCEP string
	SelectedRates  map[uuid.UUID]SelectedRate
	Method         enums.PaymentMethod
	CardHash       string
}

// GroupQuotes is the quote view for one supplier group, including the gate
// facts the buyer needs before confirming.
type GroupQuotes struct {
	SupplierID    uuid.UUID
	SupplierName  string
	Subtotal      decimal.Decimal
	PhysicalUnits int
	MeetsMinimum  bool
	Rates         []melhorenvio.Rate
	QuoteError    string
	Stale         bool
}

// OrderOutcome is the per-order result of one confirm submission.
type OrderOutcome struct {
	Order        *models.Order
	SupplierName string
	Charged      bool
	Error        string
}

// Result is the terminal outcome of one confirm submission.
type Result struct {
	State            enums.CheckoutState
	Orders           []OrderOutcome
	AbortedSuppliers []uuid.UUID
	PaymentCode      string
}

// Service orchestrates the multi-supplier checkout.
type Service interface {
	Quotes(ctx context.Context, buyerID uuid.UUID, destinationCEP string) ([]GroupQuotes, error)
	Confirm(ctx context.Context, buyerID uuid.UUID, input ConfirmInput) (*Result, error)
}

type service struct {
	carts       cartService
	quoter      quoteService
	payments    paymentCharger
	ordersRepo  orders.Repository
	submissions submissionWriter
	tx          txRunner
	guard       confirmGuard
	logger      *logger.Logger
	metrics     *metrics.CheckoutMetrics

	minimumUnits int

	debounce *shipping.Debouncer
	mu       sync.Mutex
	pending  map[string]quoteRequest
	waiters  map[string][]chan quotesOutcome
}

type quoteRequest struct {
	buyerID        uuid.UUID
	destinationCEP string
}

type quotesOutcome struct {
	groups []GroupQuotes
	err    error
}

// Config tunes the orchestrator.
type Config struct {
	MinimumPhysicalUnits int
	QuoteDebounce        time.Duration
}

// NewService builds the checkout orchestrator.
func NewService(
	carts cartService,
	quoter quoteService,
	payments paymentCharger,
	ordersRepo orders.Repository,
	submissions submissionWriter,
	tx txRunner,
	guard confirmGuard,
	logg *logger.Logger,
	m *metrics.CheckoutMetrics,
	cfg Config,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if quoter == nil {
		return nil, fmt.Errorf("quote service required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment charger required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if submissions == nil {
		return nil, fmt.Errorf("submission writer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if guard == nil {
		return nil, fmt.Errorf("confirm guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MinimumPhysicalUnits <= 0 {
		return nil, fmt.Errorf("minimum physical units must be positive")
	}
	return &service{
		carts:        carts,
		quoter:       quoter,
		payments:     payments,
		ordersRepo:   ordersRepo,
		submissions:  submissions,
		tx:           tx,
		guard:        guard,
		logger:       logg,
		metrics:      m,
		minimumUnits: cfg.MinimumPhysicalUnits,
		debounce:     shipping.NewDebouncer(cfg.QuoteDebounce),
		pending:      map[string]quoteRequest{},
		waiters:      map[string][]chan quotesOutcome{},
	}, nil
}

// Quotes groups the cart and fans out shipping quotes. Calls arriving in
// quick succession for the same buyer are debounced: only the latest
// destination is quoted and every waiting caller receives that result.
func (s *service) Quotes(ctx context.Context, buyerID uuid.UUID, destinationCEP string) ([]GroupQuotes, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if _, err := helpers.NormalizeCEP(destinationCEP); err != nil {
		return nil, err
	}

	key := buyerID.String()
	ch := make(chan quotesOutcome, 1)

	s.mu.Lock()
	s.pending[key] = quoteRequest{buyerID: buyerID, destinationCEP: destinationCEP}
	s.waiters[key] = append(s.waiters[key], ch)
	s.mu.Unlock()

	s.debounce.Trigger(key, func() {
		s.runQuotes(context.WithoutCancel(ctx), key)
	})

	select {
	case outcome := <-ch:
		return outcome.groups, outcome.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *service) runQuotes(ctx context.Context, key string) {
	s.mu.Lock()
	req := s.pending[key]
	waiters := s.waiters[key]
	delete(s.pending, key)
	delete(s.waiters, key)
	s.mu.Unlock()

	groups, err := s.computeQuotes(ctx, req.buyerID, req.destinationCEP)
	outcome := quotesOutcome{groups: groups, err: err}
	for _, ch := range waiters {
		ch <- outcome
	}
}

func (s *service) computeQuotes(ctx context.Context, buyerID uuid.UUID, destinationCEP string) ([]GroupQuotes, error) {
	current, err := s.carts.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if current.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	groups := helpers.GroupBySupplier(current.Lines)
	quotes, err := s.quoter.QuoteGroups(ctx, buyerID, destinationCEP, groups)
	if err != nil {
		return nil, err
	}

	out := make([]GroupQuotes, 0, len(groups))
	for i, group := range groups {
		out = append(out, GroupQuotes{
			SupplierID:    group.SupplierID,
			SupplierName:  group.SupplierName,
			Subtotal:      group.Subtotal(),
			PhysicalUnits: group.PhysicalUnits(),
			MeetsMinimum:  group.MeetsMinimum(s.minimumUnits),
			Rates:         quotes[i].Rates,
			QuoteError:    quotes[i].Err,
			Stale:         quotes[i].Stale,
		})
	}
	return out, nil
}

// Confirm runs the all-or-nothing gate, persists one order per supplier group
// sequentially, then charges each persisted order. A persistence failure
// aborts the remaining groups without rolling back completed ones; a payment
// failure never blocks sibling charges. The cart is cleared only once at
// least one charge succeeded.
func (s *service) Confirm(ctx context.Context, buyerID uuid.UUID, input ConfirmInput) (*Result, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	started := time.Now()

	guardKey := s.guard.IdempotencyKey("checkout.confirm", buyerID.String())
	acquired, err := s.guard.SetNX(ctx, guardKey, time.Now().UTC().Format(time.RFC3339), confirmGuardTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring confirm guard")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a checkout is already in flight for this buyer")
	}
	defer func() {
		if err := s.guard.Del(context.WithoutCancel(ctx), guardKey); err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "buyer_id", buyerID), "releasing confirm guard failed")
		}
	}()

	current, err := s.carts.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	groups := helpers.GroupBySupplier(current.Lines)

	violations := helpers.ValidateConfirmGate(helpers.GateInput{
		Groups:               groups,
		MinimumPhysicalUnits: s.minimumUnits,
		DestinationCEP:       input.DestinationCEP,
		SelectedRates:        selectedRateIDs(input.SelectedRates),
	})
	if len(violations) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout preconditions not met").
			WithDetails(violations)
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}

	result := s.submit(ctx, buyerID, groups, input)

	if s.metrics != nil {
		s.metrics.ObserveDuration(result.State.String(), time.Since(started))
		s.metrics.IncOrdersCreated(len(result.Orders))
	}
	return result, nil
}

func (s *service) submit(ctx context.Context, buyerID uuid.UUID, groups []helpers.Group, input ConfirmInput) *Result {
	result := &Result{State: enums.CheckoutStateProcessing}

	submission := &models.CheckoutSubmission{
		ID:      uuid.New(),
		BuyerID: buyerID,
		State:   enums.CheckoutStateProcessing,
	}
	if err := s.submissions.CreateSubmission(ctx, submission); err != nil {
		s.logger.Error(s.logger.WithField(ctx, "buyer_id", buyerID), "recording checkout submission failed", err)
	}
	defer func() {
		submission.State = result.State
		submission.OrdersCreated = len(result.Orders)
		for _, outcome := range result.Orders {
			if outcome.Charged {
				submission.OrdersCharged++
			}
		}
		for _, supplierID := range result.AbortedSuppliers {
			submission.AbortedSuppliers = append(submission.AbortedSuppliers, supplierID.String())
		}
		if err := s.submissions.UpdateSubmission(context.WithoutCancel(ctx), submission); err != nil {
			s.logger.Error(s.logger.WithField(ctx, "buyer_id", buyerID), "updating checkout submission failed", err)
		}
	}()

	// Persistence phase: strictly sequential, abort on first failure.
	persisted := make([]OrderOutcome, 0, len(groups))
	for i, group := range groups {
		order, err := s.persistGroup(ctx, buyerID, group, input.SelectedRates[group.SupplierID])
		if err != nil {
			s.logger.Error(s.logger.WithFields(ctx, map[string]any{
				"buyer_id":    buyerID,
				"supplier_id": group.SupplierID,
			}), "order persistence failed, aborting remaining groups", err)
			for _, aborted := range groups[i:] {
				result.AbortedSuppliers = append(result.AbortedSuppliers, aborted.SupplierID)
			}
			break
		}
		persisted = append(persisted, OrderOutcome{Order: order, SupplierName: group.SupplierName})
	}

	if len(persisted) == 0 {
		result.State = enums.CheckoutStateFailed
		return result
	}

	// Payment phase: per-order attempts, failures stay isolated.
	result.State = enums.CheckoutStateAwaitingPayment
	anyCharged := false
	for i := range persisted {
		outcome := &persisted[i]
		record, err := s.payments.ChargeOrder(ctx, outcome.Order, input.Method, input.CardHash)
		if err != nil {
			outcome.Error = err.Error()
			if s.metrics != nil {
				s.metrics.IncPaymentOutcome("failed")
			}
			continue
		}
		outcome.Charged = true
		anyCharged = true
		if s.metrics != nil {
			s.metrics.IncPaymentOutcome("accepted")
		}
		if result.PaymentCode == "" && record.PaymentCode != nil {
			result.PaymentCode = *record.PaymentCode
		}
	}
	result.Orders = persisted

	if anyCharged {
		result.State = enums.CheckoutStateCompleted
		if err := s.carts.Clear(ctx, buyerID); err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "buyer_id", buyerID), "clearing cart after checkout failed")
		}
	} else {
		result.State = enums.CheckoutStatePartiallyFailed
	}
	return result
}

// persistGroup writes the order, its line items, and its shipping record in
// one transaction, so each group is either fully persisted or absent.
func (s *service) persistGroup(ctx context.Context, buyerID uuid.UUID, group helpers.Group, rate SelectedRate) (*models.Order, error) {
	order := &models.Order{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		SupplierID:      group.SupplierID,
		ProductSubtotal: group.Subtotal(),
		Status:          enums.OrderStatusAwaitingPayment,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}

		items := make([]models.OrderLineItem, 0, len(group.Lines))
		for _, line := range group.Lines {
			items = append(items, models.OrderLineItem{
				ID:                 uuid.New(),
				OrderID:            order.ID,
				ProductID:          line.ProductID,
				ProductName:        line.ProductName,
				WholesaleUnit:      line.WholesaleUnit,
				WholesaleQuantity:  line.WholesaleQuantity,
				UnitPriceWholesale: line.UnitPriceWholesale,
				LineSubtotal:       line.Subtotal(),
			})
		}
		if err := repo.CreateLineItems(ctx, items); err != nil {
			return err
		}

		carrier := rate.CarrierName
		rateID := rate.CarrierRateID
		record := &models.ShippingRecord{
			ID:            uuid.New(),
			OrderID:       order.ID,
			CarrierRateID: &rateID,
			CarrierName:   &carrier,
			Cost:          rate.Price,
			Status:        enums.ShippingStatusPending,
		}
		if _, err := repo.CreateShippingRecord(ctx, record); err != nil {
			return err
		}
		order.Shipping = record
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func selectedRateIDs(rates map[uuid.UUID]SelectedRate) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(rates))
	for supplierID, rate := range rates {
		out[supplierID] = rate.CarrierRateID
	}
	return out
}
