package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
)

type stubRepo struct {
	active      *models.CommissionRate
	deactivated int
	created     []*models.CommissionRate
}

func (s *stubRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubRepo) GetActive(_ context.Context) (*models.CommissionRate, error) {
	return s.active, nil
}

func (s *stubRepo) DeactivateAll(_ context.Context) error {
	s.deactivated++
	if s.active != nil {
		s.active.IsActive = false
	}
	return nil
}

func (s *stubRepo) Create(_ context.Context, rate *models.CommissionRate) error {
	s.created = append(s.created, rate)
	s.active = rate
	return nil
}

func (s *stubRepo) ListHistory(_ context.Context, _ int) ([]models.CommissionRate, error) {
	out := make([]models.CommissionRate, 0, len(s.created))
	for _, r := range s.created {
		out = append(out, *r)
	}
	return out, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestActivePercentageDefaultsToZero(t *testing.T) {
	svc, err := NewService(&stubRepo{}, stubTx{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	pct, err := svc.ActivePercentage(context.Background())
	if err != nil {
		t.Fatalf("ActivePercentage: %v", err)
	}
	if !pct.IsZero() {
		t.Fatalf("expected zero percentage, got %s", pct)
	}
}

func TestSetRateVersionsHistory(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := NewService(repo, stubTx{})

	first, err := svc.SetRate(context.Background(), decimal.RequireFromString("10.00"), uuid.New())
	if err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	second, err := svc.SetRate(context.Background(), decimal.RequireFromString("12.50"), uuid.New())
	if err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	if repo.deactivated != 2 {
		t.Fatalf("expected deactivation before each insert, got %d", repo.deactivated)
	}
	if first.IsActive {
		t.Fatal("first rate should have been deactivated")
	}
	if !second.IsActive {
		t.Fatal("second rate should be active")
	}

	pct, _ := svc.ActivePercentage(context.Background())
	if !pct.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected active percentage 12.50, got %s", pct)
	}

	history, _ := svc.History(context.Background(), 10)
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
}

func TestSetRateValidation(t *testing.T) {
	svc, _ := NewService(&stubRepo{}, stubTx{})

	if _, err := svc.SetRate(context.Background(), decimal.RequireFromString("-1"), uuid.New()); err == nil {
		t.Fatal("expected error for negative percentage")
	}
	if _, err := svc.SetRate(context.Background(), decimal.RequireFromString("101"), uuid.New()); err == nil {
		t.Fatal("expected error for percentage above 100")
	}
	if _, err := svc.SetRate(context.Background(), decimal.RequireFromString("10"), uuid.Nil); err == nil {
		t.Fatal("expected error for missing set_by")
	}
}
