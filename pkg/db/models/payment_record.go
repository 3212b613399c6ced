package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/enums"
)

// PaymentRecord is the 1:1 charge attached to a supplier order. It is created
// at the moment the gateway is invoked; the settlement webhook updates its
// status afterwards.
type PaymentRecord struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	TotalCharged          decimal.Decimal     `gorm:"column:total_charged;type:numeric(12,2);not null"`
	SupplierPayout        decimal.Decimal     `gorm:"column:supplier_payout;type:numeric(12,2);not null"`
	PlatformCommission    decimal.Decimal     `gorm:"column:platform_commission;type:numeric(12,2);not null"`
	CommissionPercentage  decimal.Decimal     `gorm:"column:commission_percentage;type:numeric(5,2);not null"`
	Status                enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'waiting_payment'"`
	Method                enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'pix'"`
	ExternalTransactionID string              `gorm:"column:external_transaction_id;not null;uniqueIndex"`
	PaymentCode           *string             `gorm:"column:payment_code"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
