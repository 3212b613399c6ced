package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/enums"
)

// Order is the per-supplier order produced when a multi-supplier cart is
// confirmed. A cart spanning n suppliers always yields n orders.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID         uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	SupplierID      uuid.UUID         `gorm:"column:supplier_id;type:uuid;not null;index"`
	ProductSubtotal decimal.Decimal   `gorm:"column:product_subtotal;type:numeric(12,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'awaiting_payment'"`
	Items           []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipping        *ShippingRecord   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *PaymentRecord    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
