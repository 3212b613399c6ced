package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
)

// Repository persists checkout submission audit rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSubmission(ctx context.Context, submission *models.CheckoutSubmission) error
	UpdateSubmission(ctx context.Context, submission *models.CheckoutSubmission) error
	ListByState(ctx context.Context, state enums.CheckoutState, limit int) ([]models.CheckoutSubmission, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout submission repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSubmission(ctx context.Context, submission *models.CheckoutSubmission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *repository) UpdateSubmission(ctx context.Context, submission *models.CheckoutSubmission) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutSubmission{}).
		Where("id = ?", submission.ID).
		Updates(map[string]any{
			"state":             submission.State,
			"orders_created":    submission.OrdersCreated,
			"orders_charged":    submission.OrdersCharged,
			"aborted_suppliers": submission.AbortedSuppliers,
		}).Error
}

// ListByState pulls submissions in the given state, newest first. It exists
// for reconciliation tooling chasing partially failed checkouts.
func (r *repository) ListByState(ctx context.Context, state enums.CheckoutState, limit int) ([]models.CheckoutSubmission, error) {
	if limit <= 0 {
		limit = 50
	}
	var submissions []models.CheckoutSubmission
	err := r.db.WithContext(ctx).
		Where("state = ?", state).
		Order("created_at DESC").
		Limit(limit).
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}
