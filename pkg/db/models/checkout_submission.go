package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/atacadobras/atacado-backend/pkg/enums"
)

// CheckoutSubmission is the audit row for one confirm attempt. Partially
// persisted submissions are queryable here instead of being inferred from
// stray orders, so reconciliation tooling can find them.
type CheckoutSubmission struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	State            enums.CheckoutState `gorm:"column:state;type:text;not null;index"`
	OrdersCreated    int                 `gorm:"column:orders_created;not null;default:0"`
	OrdersCharged    int                 `gorm:"column:orders_charged;not null;default:0"`
	AbortedSuppliers pq.StringArray      `gorm:"column:aborted_suppliers;type:text[]"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
