package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/enums"
)

type stubStore struct {
	carts   map[uuid.UUID]*Cart
	deletes int
}

func newStubStore() *stubStore {
	return &stubStore{carts: map[uuid.UUID]*Cart{}}
}

func (s *stubStore) Load(_ context.Context, buyerID uuid.UUID) (*Cart, error) {
	if c, ok := s.carts[buyerID]; ok {
		copied := *c
		copied.Lines = append([]Line(nil), c.Lines...)
		return &copied, nil
	}
	return &Cart{BuyerID: buyerID}, nil
}

func (s *stubStore) Save(_ context.Context, c *Cart) error {
	s.carts[c.BuyerID] = c
	return nil
}

func (s *stubStore) Delete(_ context.Context, buyerID uuid.UUID) error {
	delete(s.carts, buyerID)
	s.deletes++
	return nil
}

func testLine(supplierID uuid.UUID, unit enums.WholesaleUnit, qty int, price string) Line {
	return Line{
		ProductID:          uuid.New(),
		SupplierID:         supplierID,
		ProductName:        "Camiseta Básica",
		SupplierName:       "Fornecedor Têxtil",
		WholesaleUnit:      unit,
		WholesaleQuantity:  qty,
		UnitPriceWholesale: decimal.RequireFromString(price),
		UnitWeightKg:       0.2,
	}
}

func TestAddLineMergesSameProduct(t *testing.T) {
	store := newStubStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	buyerID := uuid.New()
	line := testLine(uuid.New(), enums.WholesaleUnitDozen, 1, "120.00")

	if _, err := svc.AddLine(context.Background(), buyerID, line); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	cart, err := svc.AddLine(context.Background(), buyerID, line)
	if err != nil {
		t.Fatalf("AddLine (merge): %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(cart.Lines))
	}
	if cart.Lines[0].WholesaleQuantity != 2 {
		t.Fatalf("expected quantity 2, got %d", cart.Lines[0].WholesaleQuantity)
	}
	// 2 dozens of 12 pieces
	if got := cart.TotalPhysicalUnits(); got != 24 {
		t.Fatalf("expected 24 physical units, got %d", got)
	}
	if !cart.Subtotal().Equal(decimal.RequireFromString("240.00")) {
		t.Fatalf("unexpected subtotal %s", cart.Subtotal())
	}
}

func TestAddLineKeepsProductDetails(t *testing.T) {
	store := newStubStore()
	svc, _ := NewService(store)
	buyerID := uuid.New()

	line := testLine(uuid.New(), enums.WholesaleUnitDozen, 1, "120.00")
	line.ImageURL = "https://cdn.atacadobras.com.br/produtos/camiseta-basica.jpg"

	cart, err := svc.AddLine(context.Background(), buyerID, line)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if cart.Lines[0].ImageURL != line.ImageURL {
		t.Fatalf("expected image url kept, got %q", cart.Lines[0].ImageURL)
	}

	reloaded, err := svc.Get(context.Background(), buyerID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.Lines[0].ImageURL != line.ImageURL {
		t.Fatalf("expected image url to survive the session store, got %q", reloaded.Lines[0].ImageURL)
	}
}

func TestAddLineValidation(t *testing.T) {
	svc, _ := NewService(newStubStore())
	buyerID := uuid.New()

	line := testLine(uuid.New(), enums.WholesaleUnit("KG"), 1, "10.00")
	if _, err := svc.AddLine(context.Background(), buyerID, line); err == nil {
		t.Fatal("expected error for invalid wholesale unit")
	}

	line = testLine(uuid.New(), enums.WholesaleUnitPiece, 0, "10.00")
	if _, err := svc.AddLine(context.Background(), buyerID, line); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	store := newStubStore()
	svc, _ := NewService(store)
	buyerID := uuid.New()

	first := testLine(uuid.New(), enums.WholesaleUnitPiece, 6, "15.00")
	second := testLine(uuid.New(), enums.WholesaleUnitDozen, 1, "100.00")
	if _, err := svc.AddLine(context.Background(), buyerID, first); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if _, err := svc.AddLine(context.Background(), buyerID, second); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	cart, err := svc.UpdateQuantity(context.Background(), buyerID, first.ProductID, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ProductID != second.ProductID {
		t.Fatalf("expected only second line to remain, got %+v", cart.Lines)
	}
}

func TestRemoveLastLineDeletesSession(t *testing.T) {
	store := newStubStore()
	svc, _ := NewService(store)
	buyerID := uuid.New()

	line := testLine(uuid.New(), enums.WholesaleUnitCase, 1, "800.00")
	if _, err := svc.AddLine(context.Background(), buyerID, line); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	cart, err := svc.RemoveLine(context.Background(), buyerID, line.ProductID)
	if err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", cart.Lines)
	}
	if store.deletes != 1 {
		t.Fatalf("expected session delete, got %d", store.deletes)
	}
}

func TestUpdateQuantityMissingProduct(t *testing.T) {
	svc, _ := NewService(newStubStore())
	buyerID := uuid.New()

	line := testLine(uuid.New(), enums.WholesaleUnitPiece, 6, "15.00")
	if _, err := svc.AddLine(context.Background(), buyerID, line); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if _, err := svc.UpdateQuantity(context.Background(), buyerID, uuid.New(), 3); err == nil {
		t.Fatal("expected error for unknown product")
	}
}
