package webhooks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/metrics"
)

type ordersStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	FindPaymentByExternalID(ctx context.Context, externalID string) (*models.PaymentRecord, error)
	SavePaymentRecord(ctx context.Context, record *models.PaymentRecord) error
	FindShippingByCarrierShipmentID(ctx context.Context, shipmentID string) (*models.ShippingRecord, error)
	SaveShippingRecord(ctx context.Context, record *models.ShippingRecord) error
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// PaymentEvent is the gateway's settlement callback payload.
type PaymentEvent struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required"`
	Object string `json:"object"`
}

// ShipmentEvent is the carrier's status callback payload.
type ShipmentEvent struct {
	ID       string `json:"id" validate:"required"`
	Status   string `json:"status" validate:"required"`
	Tracking string `json:"tracking,omitempty"`
}

// Service applies asynchronous settlement events to orders. Replays of the
// same event id and status are absorbed without re-applying side effects, and
// unmatched ids are acknowledged so the sender stops retrying them.
type Service struct {
	repo        ordersStore
	idempotency idempotencyStore
	ttl         time.Duration
	logger      *logger.Logger
	metrics     *metrics.CheckoutMetrics
}

// NewService builds the webhook service.
func NewService(repo ordersStore, idempotency idempotencyStore, ttl time.Duration, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders store required")
	}
	if idempotency == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("idempotency ttl must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		repo:        repo,
		idempotency: idempotency,
		ttl:         ttl,
		logger:      logg,
		metrics:     m,
	}, nil
}

// HandlePayment settles a payment event. Paid or approved advances the order
// to processing, refused or failed cancels it.
func (s *Service) HandlePayment(ctx context.Context, event PaymentEvent) error {
	if event.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment event id is required")
	}
	if event.Status == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment event status is required")
	}
	ctx = s.logger.WithFields(ctx, map[string]any{
		"external_transaction_id": event.ID,
		"event_status":            event.Status,
	})

	// The gateway emits more statuses than the order lifecycle reacts to
	// (refunded, chargedback, processing, authorized, ...). Those are
	// acknowledged without side effects; erroring would make the sender
	// retry an event we will never handle differently.
	status, err := enums.ParsePaymentStatus(event.Status)
	if err != nil {
		s.logger.Info(ctx, "payment event status is not settlement-relevant, acknowledging")
		s.recordEvent("payment", "ignored")
		return nil
	}

	key := s.idempotency.IdempotencyKey("webhook.payment", event.ID+":"+status.String())
	first, err := s.idempotency.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking payment event idempotency")
	}
	if !first {
		s.logger.Info(ctx, "payment event already processed, skipping")
		s.recordEvent("payment", "duplicate")
		return nil
	}

	record, err := s.repo.FindPaymentByExternalID(ctx, event.ID)
	if err != nil {
		s.release(ctx, key)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up payment record")
	}
	if record == nil {
		s.logger.Warn(ctx, "payment event matched no record, acknowledging")
		s.recordEvent("payment", "unmatched")
		return nil
	}

	if err := s.applyPayment(ctx, record, status); err != nil {
		s.release(ctx, key)
		return err
	}
	s.recordEvent("payment", "applied")
	return nil
}

func (s *Service) applyPayment(ctx context.Context, record *models.PaymentRecord, status enums.PaymentStatus) error {
	record.Status = status
	if err := s.repo.SavePaymentRecord(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving payment record")
	}

	switch {
	case status.IsSettled():
		return s.advanceOrder(ctx, record.OrderID, enums.OrderStatusProcessing)
	case status.IsFailure():
		return s.advanceOrder(ctx, record.OrderID, enums.OrderStatusCancelled)
	default:
		return nil
	}
}

// HandleShipment applies a carrier status event to the matching shipment.
// The shipped status also advances the order, delivered completes it.
func (s *Service) HandleShipment(ctx context.Context, event ShipmentEvent) error {
	if event.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipment event id is required")
	}
	if event.Status == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipment event status is required")
	}
	ctx = s.logger.WithFields(ctx, map[string]any{
		"carrier_shipment_id": event.ID,
		"event_status":        event.Status,
	})

	status, err := enums.ParseShippingStatus(event.Status)
	if err != nil {
		s.logger.Info(ctx, "shipment event status is not settlement-relevant, acknowledging")
		s.recordEvent("shipment", "ignored")
		return nil
	}

	key := s.idempotency.IdempotencyKey("webhook.shipment", event.ID+":"+status.String())
	first, err := s.idempotency.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking shipment event idempotency")
	}
	if !first {
		s.logger.Info(ctx, "shipment event already processed, skipping")
		s.recordEvent("shipment", "duplicate")
		return nil
	}

	record, err := s.repo.FindShippingByCarrierShipmentID(ctx, event.ID)
	if err != nil {
		s.release(ctx, key)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up shipping record")
	}
	if record == nil {
		s.logger.Warn(ctx, "shipment event matched no record, acknowledging")
		s.recordEvent("shipment", "unmatched")
		return nil
	}

	if err := s.applyShipment(ctx, record, status, event.Tracking); err != nil {
		s.release(ctx, key)
		return err
	}
	s.recordEvent("shipment", "applied")
	return nil
}

func (s *Service) applyShipment(ctx context.Context, record *models.ShippingRecord, status enums.ShippingStatus, tracking string) error {
	record.Status = status
	if tracking != "" {
		record.TrackingCode = &tracking
	}
	if err := s.repo.SaveShippingRecord(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving shipping record")
	}

	switch status {
	case enums.ShippingStatusShipped:
		return s.advanceOrder(ctx, record.OrderID, enums.OrderStatusShipped)
	case enums.ShippingStatusDelivered:
		return s.advanceOrder(ctx, record.OrderID, enums.OrderStatusCompleted)
	case enums.ShippingStatusCancelled:
		return s.advanceOrder(ctx, record.OrderID, enums.OrderStatusCancelled)
	default:
		return nil
	}
}

// advanceOrder moves the order when the lifecycle permits it. Disallowed
// transitions are logged and skipped, not errored: a late replay against an
// order that already moved on is a no-op, never a retryable failure.
func (s *Service) advanceOrder(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order for settlement")
	}
	if order.Status == target {
		return nil
	}
	if !order.Status.CanTransitionTo(target) {
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
			"order_id":    orderID,
			"from_status": order.Status,
			"to_status":   target,
		}), "settlement event disallowed by order lifecycle, skipping")
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, orderID, target); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advancing order status")
	}
	return nil
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.idempotency.Del(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "idempotency_key", key), "releasing idempotency key failed")
	}
}

func (s *Service) recordEvent(source, result string) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(source, result)
	}
}
