package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
)

type cartStore interface {
	Load(ctx context.Context, buyerID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, buyerID uuid.UUID) error
}

// Service exposes session cart operations.
type Service interface {
	Get(ctx context.Context, buyerID uuid.UUID) (*Cart, error)
	AddLine(ctx context.Context, buyerID uuid.UUID, line Line) (*Cart, error)
	UpdateQuantity(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*Cart, error)
	RemoveLine(ctx context.Context, buyerID, productID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type service struct {
	store cartStore
}

// NewService builds a cart service backed by the provided store.
func NewService(store cartStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	return &service{store: store}, nil
}

func (s *service) Get(ctx context.Context, buyerID uuid.UUID) (*Cart, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	return s.store.Load(ctx, buyerID)
}

// AddLine appends a new line or merges quantities into an existing line for
// the same product.
func (s *service) AddLine(ctx context.Context, buyerID uuid.UUID, line Line) (*Cart, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if line.ProductID == uuid.Nil || line.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and supplier id are required")
	}
	if !line.WholesaleUnit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid wholesale unit %q", line.WholesaleUnit))
	}
	if line.WholesaleQuantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wholesale quantity must be positive")
	}
	if line.UnitPriceWholesale.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative")
	}

	cart, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == line.ProductID {
			cart.Lines[i].WholesaleQuantity += line.WholesaleQuantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, line)
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity sets the wholesale quantity on one line. A quantity of zero
// or less removes the line.
func (s *service) UpdateQuantity(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*Cart, error) {
	if buyerID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and product id are required")
	}
	if quantity <= 0 {
		return s.RemoveLine(ctx, buyerID, productID)
	}

	cart, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].WholesaleQuantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) RemoveLine(ctx context.Context, buyerID, productID uuid.UUID) (*Cart, error) {
	if buyerID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and product id are required")
	}

	cart, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	kept := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	cart.Lines = kept

	if len(cart.Lines) == 0 {
		if err := s.store.Delete(ctx, buyerID); err != nil {
			return nil, err
		}
		return cart, nil
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	return s.store.Delete(ctx, buyerID)
}
