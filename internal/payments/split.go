package payments

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Split is the money breakdown for one supplier order. Commission applies to
// the product subtotal only; shipping flows to the supplier untouched.
type Split struct {
	ProductSubtotal    decimal.Decimal
	ShippingCost       decimal.Decimal
	TotalCharged       decimal.Decimal
	PlatformCommission decimal.Decimal
	SupplierPayout     decimal.Decimal
	Percentage         decimal.Decimal
}

// SplitCentavos is the split projected onto gateway integer amounts. The
// supplier and platform slices always sum exactly to the total.
type SplitCentavos struct {
	Total    int64
	Supplier int64
	Platform int64
}

// ComputeSplit derives the commission split:
//
//	total charged = subtotal + shipping
//	commission    = subtotal * percentage / 100
//	payout        = subtotal - commission + shipping
func ComputeSplit(subtotal, shipping, percentage decimal.Decimal) (Split, error) {
	if subtotal.IsNegative() || shipping.IsNegative() {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "amounts must be non-negative")
	}
	if percentage.IsNegative() || percentage.GreaterThan(oneHundred) {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}

	commission := subtotal.Mul(percentage).Div(oneHundred)
	return Split{
		ProductSubtotal:    subtotal,
		ShippingCost:       shipping,
		TotalCharged:       subtotal.Add(shipping),
		PlatformCommission: commission,
		SupplierPayout:     subtotal.Sub(commission).Add(shipping),
		Percentage:         percentage,
	}, nil
}

// Centavos converts the split to integer centavos for the gateway. Fractions
// round half-to-even; any residual centavo lands on the platform slice so the
// supplier payout never shrinks by more than the rounding itself.
func (s Split) Centavos() SplitCentavos {
	total := s.TotalCharged.Mul(oneHundred).RoundBank(0).IntPart()
	supplier := s.SupplierPayout.Mul(oneHundred).RoundBank(0).IntPart()
	if supplier > total {
		supplier = total
	}
	return SplitCentavos{
		Total:    total,
		Supplier: supplier,
		Platform: total - supplier,
	}
}
