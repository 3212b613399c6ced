package models

import (
	"time"

	"github.com/google/uuid"
)

// SupplierProfile holds the supplier-side data the checkout pipeline reads:
// the display name shown on order groups, the origin postal code for shipping
// quotes, and the gateway recipient that receives the payment split.
type SupplierProfile struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DisplayName        string    `gorm:"column:display_name;not null"`
	OriginPostalCode   string    `gorm:"column:origin_postal_code;not null"`
	GatewayRecipientID string    `gorm:"column:gateway_recipient_id;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
