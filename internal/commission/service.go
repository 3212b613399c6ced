package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
)

var maxPercentage = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the platform commission rate.
type Service interface {
	ActivePercentage(ctx context.Context) (decimal.Decimal, error)
	SetRate(ctx context.Context, percentage decimal.Decimal, setBy uuid.UUID) (*models.CommissionRate, error)
	History(ctx context.Context, limit int) ([]models.CommissionRate, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a commission service backed by the provided stack.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ActivePercentage returns the current platform fee. When no rate was ever
// configured the platform takes nothing and the full subtotal flows to the
// supplier.
func (s *service) ActivePercentage(ctx context.Context) (decimal.Decimal, error) {
	rate, err := s.repo.GetActive(ctx)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active commission rate")
	}
	if rate == nil {
		return decimal.Zero, nil
	}
	return rate.Percentage, nil
}

// SetRate versions the commission: the active row is deactivated and a fresh
// active row is inserted in the same transaction, preserving full history.
func (s *service) SetRate(ctx context.Context, percentage decimal.Decimal, setBy uuid.UUID) (*models.CommissionRate, error) {
	if setBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "set_by is required")
	}
	if percentage.IsNegative() || percentage.GreaterThan(maxPercentage) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}

	rate := &models.CommissionRate{
		ID:         uuid.New(),
		Percentage: percentage,
		IsActive:   true,
		SetBy:      setBy,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeactivateAll(ctx); err != nil {
			return err
		}
		return repo.Create(ctx, rate)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "setting commission rate")
	}
	return rate, nil
}

func (s *service) History(ctx context.Context, limit int) ([]models.CommissionRate, error) {
	rates, err := s.repo.ListHistory(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing commission history")
	}
	return rates, nil
}
