package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/enums"
)

// OrderLineItem captures the snapshot of one cart line inside a supplier
// order. Rows are immutable once created.
type OrderLineItem struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ProductName        string              `gorm:"column:product_name;not null"`
	WholesaleUnit      enums.WholesaleUnit `gorm:"column:wholesale_unit;type:text;not null"`
	WholesaleQuantity  int                 `gorm:"column:wholesale_quantity;not null"`
	UnitPriceWholesale decimal.Decimal     `gorm:"column:unit_price_wholesale;type:numeric(12,2);not null"`
	LineSubtotal       decimal.Decimal     `gorm:"column:line_subtotal;type:numeric(12,2);not null"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
}
