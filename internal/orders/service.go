package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Page is one cursor-paginated slice of orders.
type Page struct {
	Orders     []models.Order
	NextCursor string
}

// RegisterShipmentInput is the supplier's manual carrier registration.
type RegisterShipmentInput struct {
	CarrierName  string
	TrackingCode string
}

// Service exposes the order lifecycle.
type Service interface {
	GetOrder(ctx context.Context, orderID, actorID uuid.UUID, role enums.ActorRole) (*models.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*Page, error)
	ListSupplierOrders(ctx context.Context, supplierID uuid.UUID, params pagination.Params) (*Page, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID uuid.UUID, role enums.ActorRole) (*models.Order, error)
	RegisterShipment(ctx context.Context, orderID, supplierID uuid.UUID, input RegisterShipmentInput) (*models.Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	logger *logger.Logger
}

// NewService builds an orders service backed by the provided stack.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logger: logg}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, role enums.ActorRole) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if !canReadOrder(order, actorID, role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}
	return order, nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*Page, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListByBuyer(ctx, buyerID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing buyer orders")
	}
	return buildPage(rows, params.Limit), nil
}

func (s *service) ListSupplierOrders(ctx context.Context, supplierID uuid.UUID, params pagination.Params) (*Page, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListBySupplier(ctx, supplierID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing supplier orders")
	}
	return buildPage(rows, params.Limit), nil
}

// TransitionStatus applies one lifecycle move. Terminal orders reject every
// transition; invalid forward moves are rejected rather than silently applied.
func (s *service) TransitionStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID uuid.UUID, role enums.ActorRole) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if !canMutateOrder(order, actorID, role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, target); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	order.Status = target

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_id": orderID,
		"status":   target,
	}), "order status updated")
	return order, nil
}

// RegisterShipment records the carrier and tracking code the supplier posted
// with. A missing shipping record is created with zero cost; registering on
// an order still awaiting payment advances it to processing as a side effect.
func (s *service) RegisterShipment(ctx context.Context, orderID, supplierID uuid.UUID, input RegisterShipmentInput) (*models.Order, error) {
	carrier := strings.TrimSpace(input.CarrierName)
	tracking := strings.TrimSpace(input.TrackingCode)
	if carrier == "" || tracking == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier name and tracking code are required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if order.SupplierID != supplierID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another supplier")
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot register shipment on a %s order", order.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindShippingByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if record == nil {
			record = &models.ShippingRecord{
				ID:      uuid.New(),
				OrderID: orderID,
				Cost:    decimal.Zero,
			}
		}
		record.CarrierName = &carrier
		record.TrackingCode = &tracking
		record.Status = enums.ShippingStatusRegistered
		if err := repo.SaveShippingRecord(ctx, record); err != nil {
			return err
		}
		order.Shipping = record

		if order.Status == enums.OrderStatusAwaitingPayment {
			if err := repo.UpdateStatus(ctx, orderID, enums.OrderStatusProcessing); err != nil {
				return err
			}
			order.Status = enums.OrderStatusProcessing
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "registering shipment")
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_id": orderID,
		"carrier":  carrier,
	}), "shipment registered")
	return order, nil
}

func canReadOrder(order *models.Order, actorID uuid.UUID, role enums.ActorRole) bool {
	switch role {
	case enums.ActorRoleAdmin:
		return true
	case enums.ActorRoleBuyer:
		return order.BuyerID == actorID
	case enums.ActorRoleSupplier:
		return order.SupplierID == actorID
	default:
		return false
	}
}

func canMutateOrder(order *models.Order, actorID uuid.UUID, role enums.ActorRole) bool {
	switch role {
	case enums.ActorRoleAdmin:
		return true
	case enums.ActorRoleSupplier:
		return order.SupplierID == actorID
	default:
		return false
	}
}

func buildPage(rows []models.Order, limit int) *Page {
	normalized := pagination.NormalizeLimit(limit)
	page := &Page{Orders: rows}
	if len(rows) > normalized {
		page.Orders = rows[:normalized]
		last := page.Orders[len(page.Orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page
}
