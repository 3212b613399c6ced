package webhooks

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

type stubStore struct {
	orders        map[uuid.UUID]*models.Order
	payments      map[string]*models.PaymentRecord
	shipments     map[string]*models.ShippingRecord
	savedPayments int
	savedShipping int
	statusUpdates []enums.OrderStatus
	saveErr       error
}

func newStubStore() *stubStore {
	return &stubStore{
		orders:    map[uuid.UUID]*models.Order{},
		payments:  map[string]*models.PaymentRecord{},
		shipments: map[string]*models.ShippingRecord{},
	}
}

func (s *stubStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *stubStore) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.statusUpdates = append(s.statusUpdates, status)
	s.orders[id].Status = status
	return nil
}

func (s *stubStore) FindPaymentByExternalID(ctx context.Context, externalID string) (*models.PaymentRecord, error) {
	return s.payments[externalID], nil
}

func (s *stubStore) SavePaymentRecord(ctx context.Context, record *models.PaymentRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedPayments++
	return nil
}

func (s *stubStore) FindShippingByCarrierShipmentID(ctx context.Context, shipmentID string) (*models.ShippingRecord, error) {
	return s.shipments[shipmentID], nil
}

func (s *stubStore) SaveShippingRecord(ctx context.Context, record *models.ShippingRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedShipping++
	return nil
}

type stubIdempotency struct {
	seen map[string]bool
	dels []string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{seen: map[string]bool{}}
}

func (s *stubIdempotency) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubIdempotency) IdempotencyKey(scope, id string) string {
	return "atacado:idempotency:" + scope + ":" + id
}

func (s *stubIdempotency) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.seen, key)
		s.dels = append(s.dels, key)
	}
	return nil
}

func newTestService(t *testing.T, store *stubStore, idem *stubIdempotency) *Service {
	t.Helper()
	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(store, idem, 24*time.Hour, logg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedPayment(store *stubStore, status enums.OrderStatus) (*models.Order, *models.PaymentRecord) {
	order := &models.Order{ID: uuid.New(), Status: status}
	record := &models.PaymentRecord{
		ID:                    uuid.New(),
		OrderID:               order.ID,
		Status:                enums.PaymentStatusWaitingPayment,
		ExternalTransactionID: "tx-123",
	}
	store.orders[order.ID] = order
	store.payments[record.ExternalTransactionID] = record
	return order, record
}

func TestHandlePaymentPaidAdvancesOrder(t *testing.T) {
	store := newStubStore()
	order, record := seedPayment(store, enums.OrderStatusAwaitingPayment)
	svc := newTestService(t, store, newStubIdempotency())

	err := svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-123", Status: "paid", Object: "transaction"})
	if err != nil {
		t.Fatalf("HandlePayment: %v", err)
	}
	if record.Status != enums.PaymentStatusPaid {
		t.Fatalf("expected payment record paid, got %s", record.Status)
	}
	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected order processing, got %s", order.Status)
	}
	if store.savedPayments != 1 {
		t.Fatalf("expected one payment save, got %d", store.savedPayments)
	}
}

func TestHandlePaymentRefusedCancelsOrder(t *testing.T) {
	store := newStubStore()
	order, _ := seedPayment(store, enums.OrderStatusAwaitingPayment)
	svc := newTestService(t, store, newStubIdempotency())

	err := svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-123", Status: "refused"})
	if err != nil {
		t.Fatalf("HandlePayment: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected order cancelled, got %s", order.Status)
	}
}

func TestHandlePaymentReplayAppliesOnce(t *testing.T) {
	store := newStubStore()
	order, _ := seedPayment(store, enums.OrderStatusAwaitingPayment)
	svc := newTestService(t, store, newStubIdempotency())

	event := PaymentEvent{ID: "tx-123", Status: "paid"}
	for i := 0; i < 3; i++ {
		if err := svc.HandlePayment(context.Background(), event); err != nil {
			t.Fatalf("HandlePayment replay %d: %v", i, err)
		}
	}
	if store.savedPayments != 1 {
		t.Fatalf("expected side effects applied once, got %d saves", store.savedPayments)
	}
	if len(store.statusUpdates) != 1 {
		t.Fatalf("expected one status update, got %d", len(store.statusUpdates))
	}
	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected order processing, got %s", order.Status)
	}
}

func TestHandlePaymentNewStatusIsNotADuplicate(t *testing.T) {
	store := newStubStore()
	_, record := seedPayment(store, enums.OrderStatusAwaitingPayment)
	svc := newTestService(t, store, newStubIdempotency())

	if err := svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-123", Status: "waiting_payment"}); err != nil {
		t.Fatalf("HandlePayment: %v", err)
	}
	if err := svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-123", Status: "paid"}); err != nil {
		t.Fatalf("HandlePayment: %v", err)
	}
	if record.Status != enums.PaymentStatusPaid {
		t.Fatalf("expected later status applied, got %s", record.Status)
	}
	if store.savedPayments != 2 {
		t.Fatalf("expected both statuses applied, got %d saves", store.savedPayments)
	}
}

func TestHandlePaymentUnmatchedIsAcknowledged(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store, newStubIdempotency())

	err := svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-unknown", Status: "paid"})
	if err != nil {
		t.Fatalf("expected unmatched event to be acknowledged, got %v", err)
	}
	if store.savedPayments != 0 {
		t.Fatalf("expected no side effects for unmatched event")
	}
}

func TestHandlePaymentMalformedRejected(t *testing.T) {
	svc := newTestService(t, newStubStore(), newStubIdempotency())

	err := svc.HandlePayment(context.Background(), PaymentEvent{Status: "paid"})
	if err == nil {
		t.Fatalf("expected missing id to be rejected")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeValidation, err)
	}

	err = svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-123"})
	if err == nil {
		t.Fatalf("expected missing status to be rejected")
	}
}

func TestHandlePaymentUnhandledStatusIsAcknowledged(t *testing.T) {
	store := newStubStore()
	seedPayment(store, enums.OrderStatusAwaitingPayment)
	idem := newStubIdempotency()
	svc := newTestService(t, store, idem)

	for _, status := range []string{"refunded", "chargedback", "processing", "authorized"} {
		err := svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-123", Status: status})
		if err != nil {
			t.Fatalf("expected %q to be acknowledged, got %v", status, err)
		}
	}
	if store.savedPayments != 0 {
		t.Fatalf("expected no side effects for unhandled statuses, got %d saves", store.savedPayments)
	}
	if len(store.statusUpdates) != 0 {
		t.Fatalf("expected order untouched, got %d status updates", len(store.statusUpdates))
	}

	if err := svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-123", Status: "paid"}); err != nil {
		t.Fatalf("expected a settlement status to still apply: %v", err)
	}
	if store.savedPayments != 1 {
		t.Fatalf("expected paid event applied after ignored ones, got %d saves", store.savedPayments)
	}
}

func TestHandlePaymentFailureReleasesGuard(t *testing.T) {
	store := newStubStore()
	seedPayment(store, enums.OrderStatusAwaitingPayment)
	store.saveErr = pkgerrors.New(pkgerrors.CodeInternal, "db down")
	idem := newStubIdempotency()
	svc := newTestService(t, store, idem)

	event := PaymentEvent{ID: "tx-123", Status: "paid"}
	if err := svc.HandlePayment(context.Background(), event); err == nil {
		t.Fatalf("expected processing failure to surface")
	}
	if len(idem.dels) != 1 {
		t.Fatalf("expected idempotency key released on failure, got %d dels", len(idem.dels))
	}

	store.saveErr = nil
	if err := svc.HandlePayment(context.Background(), event); err != nil {
		t.Fatalf("expected retry after release to succeed: %v", err)
	}
	if store.savedPayments != 1 {
		t.Fatalf("expected retry to apply side effects, got %d saves", store.savedPayments)
	}
}

func TestHandlePaymentLateReplayOnAdvancedOrder(t *testing.T) {
	store := newStubStore()
	order, _ := seedPayment(store, enums.OrderStatusShipped)
	svc := newTestService(t, store, newStubIdempotency())

	err := svc.HandlePayment(context.Background(), PaymentEvent{ID: "tx-123", Status: "paid"})
	if err != nil {
		t.Fatalf("expected late replay acknowledged, got %v", err)
	}
	if order.Status != enums.OrderStatusShipped {
		t.Fatalf("expected order untouched, got %s", order.Status)
	}
	if len(store.statusUpdates) != 0 {
		t.Fatalf("expected no status update for disallowed transition")
	}
}

func seedShipment(store *stubStore, orderStatus enums.OrderStatus) (*models.Order, *models.ShippingRecord) {
	order := &models.Order{ID: uuid.New(), Status: orderStatus}
	shipmentID := "me-789"
	record := &models.ShippingRecord{
		ID:                uuid.New(),
		OrderID:           order.ID,
		CarrierShipmentID: &shipmentID,
		Status:            enums.ShippingStatusPosted,
	}
	store.orders[order.ID] = order
	store.shipments[shipmentID] = record
	return order, record
}

func TestHandleShipmentShippedAdvancesOrder(t *testing.T) {
	store := newStubStore()
	order, record := seedShipment(store, enums.OrderStatusProcessing)
	svc := newTestService(t, store, newStubIdempotency())

	err := svc.HandleShipment(context.Background(), ShipmentEvent{ID: "me-789", Status: "enviado", Tracking: "BR123456789"})
	if err != nil {
		t.Fatalf("HandleShipment: %v", err)
	}
	if record.Status != enums.ShippingStatusShipped {
		t.Fatalf("expected shipping record enviado, got %s", record.Status)
	}
	if record.TrackingCode == nil || *record.TrackingCode != "BR123456789" {
		t.Fatalf("expected tracking code stored")
	}
	if order.Status != enums.OrderStatusShipped {
		t.Fatalf("expected order shipped, got %s", order.Status)
	}
}

func TestHandleShipmentDeliveredCompletesOrder(t *testing.T) {
	store := newStubStore()
	order, _ := seedShipment(store, enums.OrderStatusShipped)
	svc := newTestService(t, store, newStubIdempotency())

	err := svc.HandleShipment(context.Background(), ShipmentEvent{ID: "me-789", Status: "entregue"})
	if err != nil {
		t.Fatalf("HandleShipment: %v", err)
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected order completed, got %s", order.Status)
	}
}

func TestHandleShipmentReplayAppliesOnce(t *testing.T) {
	store := newStubStore()
	seedShipment(store, enums.OrderStatusProcessing)
	svc := newTestService(t, store, newStubIdempotency())

	event := ShipmentEvent{ID: "me-789", Status: "enviado"}
	for i := 0; i < 2; i++ {
		if err := svc.HandleShipment(context.Background(), event); err != nil {
			t.Fatalf("HandleShipment replay %d: %v", i, err)
		}
	}
	if store.savedShipping != 1 {
		t.Fatalf("expected one shipping save, got %d", store.savedShipping)
	}
}

func TestHandleShipmentUnhandledStatusIsAcknowledged(t *testing.T) {
	store := newStubStore()
	order, _ := seedShipment(store, enums.OrderStatusProcessing)
	svc := newTestService(t, store, newStubIdempotency())

	err := svc.HandleShipment(context.Background(), ShipmentEvent{ID: "me-789", Status: "aguardando_retirada"})
	if err != nil {
		t.Fatalf("expected unhandled carrier status acknowledged, got %v", err)
	}
	if store.savedShipping != 0 {
		t.Fatalf("expected no side effects, got %d shipping saves", store.savedShipping)
	}
	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected order untouched, got %s", order.Status)
	}
}

func TestHandleShipmentUnmatchedIsAcknowledged(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store, newStubIdempotency())

	err := svc.HandleShipment(context.Background(), ShipmentEvent{ID: "me-unknown", Status: "enviado"})
	if err != nil {
		t.Fatalf("expected unmatched shipment acknowledged, got %v", err)
	}
	if store.savedShipping != 0 {
		t.Fatalf("expected no side effects for unmatched shipment")
	}
}
