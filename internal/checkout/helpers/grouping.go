package helpers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/internal/cart"
)

// Group is the per-supplier partition of a cart. Each group becomes one order
// at confirm time, with its own shipping quote and payment.
type Group struct {
	SupplierID   uuid.UUID
	SupplierName string
	Lines        []cart.Line
}

// Subtotal sums the product subtotals of the group's lines. Shipping is never
// part of this figure.
func (g Group) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range g.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// PhysicalUnits sums physical pieces across the group's lines.
func (g Group) PhysicalUnits() int {
	total := 0
	for _, line := range g.Lines {
		total += line.PhysicalUnits()
	}
	return total
}

// MeetsMinimum reports whether the group carries at least min physical pieces.
func (g Group) MeetsMinimum(min int) bool {
	return g.PhysicalUnits() >= min
}

// TotalWeightKg sums line weights: unit weight times physical pieces.
func (g Group) TotalWeightKg() float64 {
	total := 0.0
	for _, line := range g.Lines {
		total += line.UnitWeightKg * float64(line.PhysicalUnits())
	}
	return total
}

// GroupBySupplier partitions cart lines by supplier. Group order follows the
// first appearance of each supplier in the cart, so repeated grouping of the
// same cart is deterministic.
func GroupBySupplier(lines []cart.Line) []Group {
	var groups []Group
	index := map[uuid.UUID]int{}

	for _, line := range lines {
		i, ok := index[line.SupplierID]
		if !ok {
			i = len(groups)
			index[line.SupplierID] = i
			groups = append(groups, Group{
				SupplierID:   line.SupplierID,
				SupplierName: line.SupplierName,
			})
		}
		groups[i].Lines = append(groups[i].Lines, line)
	}

	return groups
}
