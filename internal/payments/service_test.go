package payments

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/pagarme"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

type stubGateway struct {
	lastParams pagarme.TransactionParams
	response   *pagarme.Transaction
	err        error
}

func (s *stubGateway) CreateTransaction(_ context.Context, params pagarme.TransactionParams) (*pagarme.Transaction, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubGateway) PlatformRecipientID() string { return "re_platform" }

type stubCommission struct {
	pct decimal.Decimal
}

func (s *stubCommission) ActivePercentage(_ context.Context) (decimal.Decimal, error) {
	return s.pct, nil
}

type stubSuppliers struct {
	profile *models.SupplierProfile
}

func (s *stubSuppliers) GetByID(_ context.Context, _ uuid.UUID) (*models.SupplierProfile, error) {
	if s.profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier profile not found")
	}
	return s.profile, nil
}

type stubRepo struct {
	records  []*models.PaymentRecord
	statuses map[uuid.UUID]enums.OrderStatus
}

func newStubRepo() *stubRepo {
	return &stubRepo{statuses: map[uuid.UUID]enums.OrderStatus{}}
}

func (s *stubRepo) CreatePaymentRecord(_ context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error) {
	s.records = append(s.records, record)
	return record, nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.statuses[id] = status
	return nil
}

func awaitingOrder(subtotal, shipping string) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		BuyerID:         uuid.New(),
		SupplierID:      uuid.New(),
		ProductSubtotal: decimal.RequireFromString(subtotal),
		Status:          enums.OrderStatusAwaitingPayment,
		Shipping: &models.ShippingRecord{
			Cost: decimal.RequireFromString(shipping),
		},
	}
}

func newTestService(gw *stubGateway, pct string, repo *stubRepo) Service {
	svc, err := NewService(
		gw,
		&stubCommission{pct: decimal.RequireFromString(pct)},
		&stubSuppliers{profile: &models.SupplierProfile{GatewayRecipientID: "re_supplier"}},
		repo,
		testLogger(),
	)
	if err != nil {
		panic(err)
	}
	return svc
}

func TestChargeOrderSplitWiring(t *testing.T) {
	gw := &stubGateway{response: &pagarme.Transaction{
		ID:        99,
		Status:    "waiting_payment",
		PixQRCode: "00020126BR.GOV.BCB.PIX",
	}}
	repo := newStubRepo()
	svc := newTestService(gw, "10.00", repo)

	order := awaitingOrder("120.00", "25.50")
	record, err := svc.ChargeOrder(context.Background(), order, enums.PaymentMethodPix, "")
	if err != nil {
		t.Fatalf("ChargeOrder: %v", err)
	}

	// 145.50 charged; payout 133.50; commission 12.00
	if gw.lastParams.AmountCents != 14550 {
		t.Fatalf("amount cents = %d, want 14550", gw.lastParams.AmountCents)
	}
	rules := gw.lastParams.SplitRules
	if len(rules) != 2 {
		t.Fatalf("expected 2 split rules, got %d", len(rules))
	}
	if rules[0].RecipientID != "re_supplier" || rules[0].AmountCents != 13350 {
		t.Fatalf("unexpected supplier rule: %+v", rules[0])
	}
	if rules[1].RecipientID != "re_platform" || rules[1].AmountCents != 1200 {
		t.Fatalf("unexpected platform rule: %+v", rules[1])
	}
	if !rules[0].Liable || rules[0].ChargeProcessingFee {
		t.Fatal("supplier must be liable and exempt from processing fees")
	}
	if rules[1].Liable || !rules[1].ChargeProcessingFee {
		t.Fatal("platform must absorb processing fees without liability")
	}

	if record.ExternalTransactionID != "99" {
		t.Fatalf("unexpected external id %q", record.ExternalTransactionID)
	}
	if record.PaymentCode == nil || *record.PaymentCode == "" {
		t.Fatal("expected pix payment code on record")
	}
	if !record.PlatformCommission.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("unexpected commission %s", record.PlatformCommission)
	}
	if !record.SupplierPayout.Equal(decimal.RequireFromString("133.50")) {
		t.Fatalf("unexpected payout %s", record.SupplierPayout)
	}
	// waiting_payment keeps the order put
	if order.Status != enums.OrderStatusAwaitingPayment {
		t.Fatalf("order should stay awaiting_payment, got %s", order.Status)
	}
}

func TestChargeOrderSyncPaidAdvancesOrder(t *testing.T) {
	gw := &stubGateway{response: &pagarme.Transaction{ID: 1, Status: "paid"}}
	repo := newStubRepo()
	svc := newTestService(gw, "0", repo)

	order := awaitingOrder("50.00", "10.00")
	if _, err := svc.ChargeOrder(context.Background(), order, enums.PaymentMethodPix, ""); err != nil {
		t.Fatalf("ChargeOrder: %v", err)
	}
	if repo.statuses[order.ID] != enums.OrderStatusProcessing {
		t.Fatalf("paid order should advance to processing, got %s", repo.statuses[order.ID])
	}
	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("in-memory order not advanced: %s", order.Status)
	}
}

func TestChargeOrderRefusedKeepsOrderAwaiting(t *testing.T) {
	gw := &stubGateway{response: &pagarme.Transaction{ID: 2, Status: "refused"}}
	repo := newStubRepo()
	svc := newTestService(gw, "10.00", repo)

	order := awaitingOrder("50.00", "10.00")
	record, err := svc.ChargeOrder(context.Background(), order, enums.PaymentMethodCreditCard, "hash")
	if err == nil {
		t.Fatal("expected error for refused charge")
	}
	if record == nil || record.Status != enums.PaymentStatusRefused {
		t.Fatalf("refused attempt should still be recorded: %+v", record)
	}
	if order.Status != enums.OrderStatusAwaitingPayment {
		t.Fatalf("refused order must stay awaiting_payment, got %s", order.Status)
	}
	if _, ok := repo.statuses[order.ID]; ok {
		t.Fatal("refused charge must not move the order")
	}
}

func TestChargeOrderRejectsWrongState(t *testing.T) {
	svc := newTestService(&stubGateway{}, "10.00", newStubRepo())

	order := awaitingOrder("50.00", "10.00")
	order.Status = enums.OrderStatusProcessing
	_, err := svc.ChargeOrder(context.Background(), order, enums.PaymentMethodPix, "")
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestChargeOrderGatewayFailure(t *testing.T) {
	gw := &stubGateway{err: errors.New("gateway down")}
	repo := newStubRepo()
	svc := newTestService(gw, "10.00", repo)

	order := awaitingOrder("50.00", "10.00")
	if _, err := svc.ChargeOrder(context.Background(), order, enums.PaymentMethodPix, ""); err == nil {
		t.Fatal("expected gateway error")
	}
	if len(repo.records) != 0 {
		t.Fatal("no record should be written when the gateway call itself fails")
	}
	if order.Status != enums.OrderStatusAwaitingPayment {
		t.Fatal("order must stay awaiting_payment after gateway failure")
	}
}
