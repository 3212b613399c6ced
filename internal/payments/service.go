package payments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/pagarme"
)

type gateway interface {
	CreateTransaction(ctx context.Context, params pagarme.TransactionParams) (*pagarme.Transaction, error)
	PlatformRecipientID() string
}

type commissionReader interface {
	ActivePercentage(ctx context.Context) (decimal.Decimal, error)
}

type supplierLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierProfile, error)
}

type paymentRepo interface {
	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

// Service charges persisted orders through the gateway with the commission
// split applied.
type Service interface {
	ChargeOrder(ctx context.Context, order *models.Order, method enums.PaymentMethod, cardHash string) (*models.PaymentRecord, error)
}

type service struct {
	gateway    gateway
	commission commissionReader
	suppliers  supplierLoader
	repo       paymentRepo
	logger     *logger.Logger
}

// NewService builds a payments service backed by the provided stack.
func NewService(gw gateway, commission commissionReader, suppliers supplierLoader, repo paymentRepo, logg *logger.Logger) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if commission == nil {
		return nil, fmt.Errorf("commission reader required")
	}
	if suppliers == nil {
		return nil, fmt.Errorf("supplier loader required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		gateway:    gw,
		commission: commission,
		suppliers:  suppliers,
		repo:       repo,
		logger:     logg,
	}, nil
}

// ChargeOrder computes the split for one order and invokes the gateway. The
// supplier slice is liable for chargebacks on its own sales; the platform
// slice absorbs processing fees and any rounding remainder. A synchronous
// paid/approved response advances the order to processing right away; the
// settlement webhook later confirms or corrects idempotently.
func (s *service) ChargeOrder(ctx context.Context, order *models.Order, method enums.PaymentMethod, cardHash string) (*models.PaymentRecord, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if order.Status != enums.OrderStatusAwaitingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s, only awaiting_payment orders can be charged", order.Status))
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}

	shippingCost := decimal.Zero
	if order.Shipping != nil {
		shippingCost = order.Shipping.Cost
	}

	percentage, err := s.commission.ActivePercentage(ctx)
	if err != nil {
		return nil, err
	}

	split, err := ComputeSplit(order.ProductSubtotal, shippingCost, percentage)
	if err != nil {
		return nil, err
	}
	cents := split.Centavos()

	supplier, err := s.suppliers.GetByID(ctx, order.SupplierID)
	if err != nil {
		return nil, err
	}

	tx, err := s.gateway.CreateTransaction(ctx, pagarme.TransactionParams{
		AmountCents: cents.Total,
		Method:      method.String(),
		OrderID:     order.ID.String(),
		CardHash:    cardHash,
		SplitRules: []pagarme.SplitRule{
			{
				RecipientID:         supplier.GatewayRecipientID,
				AmountCents:         cents.Supplier,
				Liable:              true,
				ChargeProcessingFee: false,
			},
			{
				RecipientID:         s.gateway.PlatformRecipientID(),
				AmountCents:         cents.Platform,
				Liable:              false,
				ChargeProcessingFee: true,
			},
		},
	})
	if err != nil {
		s.logger.Error(s.logger.WithField(ctx, "order_id", order.ID), "gateway charge failed", err)
		return nil, err
	}

	status, parseErr := enums.ParsePaymentStatus(tx.Status)
	if parseErr != nil {
		status = enums.PaymentStatusWaitingPayment
	}

	record := &models.PaymentRecord{
		ID:                    uuid.New(),
		OrderID:               order.ID,
		TotalCharged:          split.TotalCharged,
		SupplierPayout:        split.SupplierPayout,
		PlatformCommission:    split.PlatformCommission,
		CommissionPercentage:  split.Percentage,
		Status:                status,
		Method:                method,
		ExternalTransactionID: strconv.FormatInt(tx.ID, 10),
	}
	if tx.PixQRCode != "" {
		code := tx.PixQRCode
		record.PaymentCode = &code
	} else if tx.BoletoURL != "" {
		code := tx.BoletoURL
		record.PaymentCode = &code
	}

	if _, err := s.repo.CreatePaymentRecord(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting payment record")
	}
	order.Payment = record

	if status.IsFailure() {
		return record, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("gateway %s the charge", status))
	}

	if status.IsSettled() {
		if err := s.repo.UpdateStatus(ctx, order.ID, enums.OrderStatusProcessing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advancing paid order")
		}
		order.Status = enums.OrderStatusProcessing
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_id":       order.ID,
		"transaction_id": record.ExternalTransactionID,
		"status":         status,
	}), "order charged")
	return record, nil
}
