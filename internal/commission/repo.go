package commission

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
)

// Repository persists the versioned commission rate history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetActive(ctx context.Context) (*models.CommissionRate, error)
	DeactivateAll(ctx context.Context) error
	Create(ctx context.Context, rate *models.CommissionRate) error
	ListHistory(ctx context.Context, limit int) ([]models.CommissionRate, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a commission repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetActive returns the single active rate, or nil when no rate was ever set.
func (r *repository) GetActive(ctx context.Context) (*models.CommissionRate, error) {
	var rate models.CommissionRate
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repository) DeactivateAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&models.CommissionRate{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error
}

func (r *repository) Create(ctx context.Context, rate *models.CommissionRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *repository) ListHistory(ctx context.Context, limit int) ([]models.CommissionRate, error) {
	if limit <= 0 {
		limit = 50
	}
	var rates []models.CommissionRate
	err := r.db.WithContext(ctx).
		Order("set_at DESC").
		Limit(limit).
		Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}
