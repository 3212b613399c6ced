package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/enums"
)

// Line is one product entry in a buyer's session cart. Quantity counts
// wholesale units; the physical unit count is quantity times the unit
// multiplier.
type Line struct {
	ProductID          uuid.UUID           `json:"product_id"`
	SupplierID         uuid.UUID           `json:"supplier_id"`
	ProductName        string              `json:"product_name"`
	SupplierName       string              `json:"supplier_name"`
	ImageURL           string              `json:"image_url,omitempty"`
	WholesaleUnit      enums.WholesaleUnit `json:"wholesale_unit"`
	WholesaleQuantity  int                 `json:"wholesale_quantity"`
	UnitPriceWholesale decimal.Decimal     `json:"unit_price_wholesale"`
	UnitWeightKg       float64             `json:"unit_weight_kg"`
	WidthCm            float64             `json:"width_cm,omitempty"`
	HeightCm           float64             `json:"height_cm,omitempty"`
	LengthCm           float64             `json:"length_cm,omitempty"`
}

// PhysicalUnits returns the number of physical pieces this line represents.
func (l Line) PhysicalUnits() int {
	return l.WholesaleQuantity * l.WholesaleUnit.PhysicalUnits()
}

// Subtotal is the line price: wholesale quantity times wholesale unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPriceWholesale.Mul(decimal.NewFromInt(int64(l.WholesaleQuantity)))
}

// Cart is the session cart for one buyer. It lives in Redis until checkout
// confirms or the session TTL expires.
type Cart struct {
	BuyerID   uuid.UUID `json:"buyer_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Subtotal sums every line subtotal.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// TotalPhysicalUnits sums physical units across all lines.
func (c *Cart) TotalPhysicalUnits() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, line := range c.Lines {
		total += line.PhysicalUnits()
	}
	return total
}
