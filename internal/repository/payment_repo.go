package repository

import (
	"context"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.Payment, error)
	FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.Payment, error)
	Update(ctx context.Context, payment *model.Payment) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := scoped(forUpdate(GetDB(ctx, r.db)), tenantID).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Save(payment).Error
}
