package helpers

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/internal/cart"
	"github.com/atacadobras/atacado-backend/pkg/enums"
)

func line(supplierID uuid.UUID, supplierName string, unit enums.WholesaleUnit, qty int, price string) cart.Line {
	return cart.Line{
		ProductID:          uuid.New(),
		SupplierID:         supplierID,
		SupplierName:       supplierName,
		WholesaleUnit:      unit,
		WholesaleQuantity:  qty,
		UnitPriceWholesale: decimal.RequireFromString(price),
		UnitWeightKg:       0.25,
	}
}

func TestGroupBySupplierStableOrder(t *testing.T) {
	supplierA := uuid.New()
	supplierB := uuid.New()

	lines := []cart.Line{
		line(supplierA, "Fornecedor A", enums.WholesaleUnitDozen, 1, "120.00"),
		line(supplierB, "Fornecedor B", enums.WholesaleUnitPiece, 8, "37.50"),
		line(supplierA, "Fornecedor A", enums.WholesaleUnitPiece, 3, "20.00"),
	}

	groups := GroupBySupplier(lines)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].SupplierID != supplierA || groups[1].SupplierID != supplierB {
		t.Fatal("groups not in first-appearance order")
	}
	if len(groups[0].Lines) != 2 || len(groups[1].Lines) != 1 {
		t.Fatalf("unexpected line partition: %d/%d", len(groups[0].Lines), len(groups[1].Lines))
	}

	// 1 DZ + 3 PC = 15 physical units; subtotal 120 + 60
	if got := groups[0].PhysicalUnits(); got != 15 {
		t.Fatalf("expected 15 physical units, got %d", got)
	}
	if !groups[0].Subtotal().Equal(decimal.RequireFromString("180.00")) {
		t.Fatalf("unexpected subtotal %s", groups[0].Subtotal())
	}
}

func TestGroupBySupplierDeterministic(t *testing.T) {
	supplierA := uuid.New()
	supplierB := uuid.New()
	lines := []cart.Line{
		line(supplierB, "B", enums.WholesaleUnitPiece, 6, "10.00"),
		line(supplierA, "A", enums.WholesaleUnitPiece, 6, "10.00"),
	}

	first := GroupBySupplier(lines)
	second := GroupBySupplier(lines)
	for i := range first {
		if first[i].SupplierID != second[i].SupplierID {
			t.Fatal("grouping order changed between runs")
		}
	}
}

func TestMeetsMinimum(t *testing.T) {
	supplier := uuid.New()

	// 5 pieces: below the floor
	under := GroupBySupplier([]cart.Line{line(supplier, "F", enums.WholesaleUnitPiece, 5, "10.00")})[0]
	if under.MeetsMinimum(6) {
		t.Fatal("5 pieces should not meet a 6 piece minimum")
	}

	// 1 dozen: 12 pieces
	over := GroupBySupplier([]cart.Line{line(supplier, "F", enums.WholesaleUnitDozen, 1, "10.00")})[0]
	if !over.MeetsMinimum(6) {
		t.Fatal("one dozen should meet a 6 piece minimum")
	}

	// exactly at the floor
	exact := GroupBySupplier([]cart.Line{line(supplier, "F", enums.WholesaleUnitPiece, 6, "10.00")})[0]
	if !exact.MeetsMinimum(6) {
		t.Fatal("6 pieces should meet a 6 piece minimum")
	}
}

func TestTotalWeight(t *testing.T) {
	supplier := uuid.New()
	g := GroupBySupplier([]cart.Line{
		line(supplier, "F", enums.WholesaleUnitDozen, 2, "10.00"),
	})[0]
	// 24 pieces at 0.25kg
	if got := g.TotalWeightKg(); got != 6.0 {
		t.Fatalf("expected 6.0kg, got %f", got)
	}
}

func TestNormalizeCEP(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"01310-100", "01310100", true},
		{"01310100", "01310100", true},
		{" 01.310-100 ", "01310100", true},
		{"0131010", "", false},
		{"013101000", "", false},
		{"", "", false},
		{"abcdefgh", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizeCEP(tt.raw)
		if tt.valid && (err != nil || got != tt.want) {
			t.Fatalf("NormalizeCEP(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
		}
		if !tt.valid && err == nil {
			t.Fatalf("NormalizeCEP(%q) should fail", tt.raw)
		}
	}
}

func TestValidateConfirmGateReportsAllViolations(t *testing.T) {
	supplierA := uuid.New()
	supplierB := uuid.New()
	groups := GroupBySupplier([]cart.Line{
		line(supplierA, "Fornecedor A", enums.WholesaleUnitPiece, 5, "10.00"),
		line(supplierB, "Fornecedor B", enums.WholesaleUnitDozen, 1, "99.00"),
	})

	violations := ValidateConfirmGate(GateInput{
		Groups:               groups,
		MinimumPhysicalUnits: 6,
		DestinationCEP:       "123",
		SelectedRates:        map[uuid.UUID]int64{supplierB: 42},
	})

	// bad CEP, group A under minimum, group A missing rate
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(violations), violations)
	}
	joined := strings.Join(violations, "; ")
	if !strings.Contains(joined, "postal code") {
		t.Fatalf("missing postal code violation: %v", violations)
	}
	if !strings.Contains(joined, "Fornecedor A") {
		t.Fatalf("missing supplier A violations: %v", violations)
	}
}

func TestValidateConfirmGateEmptyCart(t *testing.T) {
	violations := ValidateConfirmGate(GateInput{MinimumPhysicalUnits: 6})
	if len(violations) != 1 || violations[0] != "cart is empty" {
		t.Fatalf("unexpected violations: %v", violations)
	}
}

func TestValidateConfirmGatePasses(t *testing.T) {
	supplier := uuid.New()
	groups := GroupBySupplier([]cart.Line{
		line(supplier, "Fornecedor", enums.WholesaleUnitDozen, 1, "50.00"),
	})
	violations := ValidateConfirmGate(GateInput{
		Groups:               groups,
		MinimumPhysicalUnits: 6,
		DestinationCEP:       "01310-100",
		SelectedRates:        map[uuid.UUID]int64{supplier: 7},
	})
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}
