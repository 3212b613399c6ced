package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionRate is the versioned platform fee. Changing the rate deactivates
// the current row and inserts a new active one, preserving full history; at
// most one row is active at a time.
type CommissionRate struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null"`
	IsActive   bool            `gorm:"column:is_active;not null;default:false"`
	SetBy      uuid.UUID       `gorm:"column:set_by;type:uuid;not null"`
	SetAt      time.Time       `gorm:"column:set_at;autoCreateTime"`
}
