package payments

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeSplitCommissionOnSubtotalOnly(t *testing.T) {
	// 10% over two supplier groups with different shipping costs.
	tests := []struct {
		name           string
		subtotal       string
		shipping       string
		wantCommission string
		wantPayout     string
		wantTotal      string
	}{
		{"group A", "120.00", "25.50", "12.00", "133.50", "145.50"},
		{"group B", "300.00", "18.00", "30.00", "288.00", "318.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := ComputeSplit(dec(tt.subtotal), dec(tt.shipping), dec("10.00"))
			if err != nil {
				t.Fatalf("ComputeSplit: %v", err)
			}
			if !split.PlatformCommission.Equal(dec(tt.wantCommission)) {
				t.Fatalf("commission = %s, want %s", split.PlatformCommission, tt.wantCommission)
			}
			if !split.SupplierPayout.Equal(dec(tt.wantPayout)) {
				t.Fatalf("payout = %s, want %s", split.SupplierPayout, tt.wantPayout)
			}
			if !split.TotalCharged.Equal(dec(tt.wantTotal)) {
				t.Fatalf("total = %s, want %s", split.TotalCharged, tt.wantTotal)
			}
		})
	}
}

func TestComputeSplitConservation(t *testing.T) {
	// commission + payout always reassembles the total charged
	cases := [][3]string{
		{"120.00", "25.50", "10.00"},
		{"99.99", "13.37", "7.25"},
		{"0.01", "0.00", "99.99"},
		{"1234.56", "78.90", "12.34"},
	}
	for _, c := range cases {
		split, err := ComputeSplit(dec(c[0]), dec(c[1]), dec(c[2]))
		if err != nil {
			t.Fatalf("ComputeSplit(%v): %v", c, err)
		}
		if !split.PlatformCommission.Add(split.SupplierPayout).Equal(split.TotalCharged) {
			t.Fatalf("split does not conserve total: %+v", split)
		}
	}
}

func TestComputeSplitZeroPercentage(t *testing.T) {
	split, err := ComputeSplit(dec("250.00"), dec("30.00"), decimal.Zero)
	if err != nil {
		t.Fatalf("ComputeSplit: %v", err)
	}
	if !split.PlatformCommission.IsZero() {
		t.Fatalf("expected zero commission, got %s", split.PlatformCommission)
	}
	if !split.SupplierPayout.Equal(dec("280.00")) {
		t.Fatalf("expected full amount to supplier, got %s", split.SupplierPayout)
	}
}

func TestComputeSplitValidation(t *testing.T) {
	if _, err := ComputeSplit(dec("-1"), decimal.Zero, dec("10")); err == nil {
		t.Fatal("expected error for negative subtotal")
	}
	if _, err := ComputeSplit(dec("10"), decimal.Zero, dec("101")); err == nil {
		t.Fatal("expected error for percentage above 100")
	}
}

func TestCentavosBankersRounding(t *testing.T) {
	// 7.25% of 33.10 = 2.399750; payout 30.700250 + 10 shipping.
	split, err := ComputeSplit(dec("33.10"), dec("10.00"), dec("7.25"))
	if err != nil {
		t.Fatalf("ComputeSplit: %v", err)
	}
	cents := split.Centavos()
	if cents.Total != 4310 {
		t.Fatalf("total cents = %d, want 4310", cents.Total)
	}
	// 4070.025 rounds to 4070; platform picks up the remainder.
	if cents.Supplier != 4070 {
		t.Fatalf("supplier cents = %d, want 4070", cents.Supplier)
	}
	if cents.Platform != 240 {
		t.Fatalf("platform cents = %d, want 240", cents.Platform)
	}
	if cents.Supplier+cents.Platform != cents.Total {
		t.Fatal("centavos do not sum to total")
	}
}

func TestCentavosHalfToEven(t *testing.T) {
	// payout lands exactly on a half centavo: 100.125 -> 10012 (even)
	split := Split{
		TotalCharged:   dec("150.00"),
		SupplierPayout: dec("100.125"),
	}
	cents := split.Centavos()
	if cents.Supplier != 10012 {
		t.Fatalf("supplier cents = %d, want 10012 (half-to-even)", cents.Supplier)
	}
	// 100.135 -> 10014 (even)
	split.SupplierPayout = dec("100.135")
	cents = split.Centavos()
	if cents.Supplier != 10014 {
		t.Fatalf("supplier cents = %d, want 10014 (half-to-even)", cents.Supplier)
	}
}

func TestCentavosPlatformAbsorbsGap(t *testing.T) {
	// Sweep a range of percentages; the platform slice absorbs every
	// rounding remainder, never the supplier.
	subtotal := dec("99.99")
	shipping := dec("7.77")
	for pct := 1; pct <= 30; pct++ {
		split, err := ComputeSplit(subtotal, shipping, decimal.NewFromInt(int64(pct)))
		if err != nil {
			t.Fatalf("ComputeSplit(%d%%): %v", pct, err)
		}
		cents := split.Centavos()
		if cents.Supplier+cents.Platform != cents.Total {
			t.Fatalf("pct %d: slices do not sum to total", pct)
		}
		exactSupplier := split.SupplierPayout.Mul(decimal.NewFromInt(100))
		diff := decimal.NewFromInt(cents.Supplier).Sub(exactSupplier).Abs()
		if diff.GreaterThan(dec("0.5")) {
			t.Fatalf("pct %d: supplier slice off by more than half a centavo", pct)
		}
	}
}
