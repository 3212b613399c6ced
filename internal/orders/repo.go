package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	"github.com/atacadobras/atacado-backend/pkg/pagination"
)

// Repository persists supplier orders and their attached records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	CreateShippingRecord(ctx context.Context, record *models.ShippingRecord) (*models.ShippingRecord, error)
	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	FindShippingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.ShippingRecord, error)
	FindShippingByCarrierShipmentID(ctx context.Context, shipmentID string) (*models.ShippingRecord, error)
	SaveShippingRecord(ctx context.Context, record *models.ShippingRecord) error
	FindPaymentByExternalID(ctx context.Context, externalID string) (*models.PaymentRecord, error)
	SavePaymentRecord(ctx context.Context, record *models.PaymentRecord) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "Shipping", "Payment").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateShippingRecord(ctx context.Context, record *models.ShippingRecord) (*models.ShippingRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Shipping").
		Preload("Payment").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, cursor, limit)
}

func (r *repository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return r.list(ctx, "supplier_id = ?", supplierID, cursor, limit)
}

func (r *repository) list(ctx context.Context, cond string, id uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Shipping").
		Preload("Payment").
		Where(cond, id).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) FindShippingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.ShippingRecord, error) {
	var record models.ShippingRecord
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindShippingByCarrierShipmentID(ctx context.Context, shipmentID string) (*models.ShippingRecord, error) {
	var record models.ShippingRecord
	err := r.db.WithContext(ctx).Where("carrier_shipment_id = ?", shipmentID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) SaveShippingRecord(ctx context.Context, record *models.ShippingRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) FindPaymentByExternalID(ctx context.Context, externalID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.WithContext(ctx).Where("external_transaction_id = ?", externalID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) SavePaymentRecord(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
