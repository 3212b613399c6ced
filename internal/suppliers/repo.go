package suppliers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
)

// Repository reads the supplier-side data checkout needs: origin postal codes
// for quotes and gateway recipients for the payment split.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierProfile, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.SupplierProfile, error)
	Upsert(ctx context.Context, profile *models.SupplierProfile) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a supplier repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierProfile, error) {
	var profile models.SupplierProfile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier profile not found")
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.SupplierProfile, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.SupplierProfile{}, nil
	}

	var profiles []models.SupplierProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]models.SupplierProfile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func (r *repository) Upsert(ctx context.Context, profile *models.SupplierProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}
