package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/enums"
)

// ShippingRecord is the 1:1 shipment attached to a supplier order. It is
// created either at checkout confirm (rate chosen, cost known) or later when
// the supplier registers a carrier and tracking code by hand (cost zero).
type ShippingRecord struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CarrierRateID     *int64               `gorm:"column:carrier_rate_id"`
	CarrierName       *string              `gorm:"column:carrier_name"`
	CarrierShipmentID *string              `gorm:"column:carrier_shipment_id;index"`
	TrackingCode      *string              `gorm:"column:tracking_code"`
	Cost              decimal.Decimal      `gorm:"column:cost;type:numeric(12,2);not null"`
	Status            enums.ShippingStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
