package repository

import (
	"context"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.PurchaseOrder, error)
	Update(ctx context.Context, order *model.PurchaseOrder) error
	ListLines(ctx context.Context, tenantID string, orderID uuid.UUID) ([]model.PurchaseOrderLine, error)
	CreateLine(ctx context.Context, line *model.PurchaseOrderLine) error
	UpdateLine(ctx context.Context, line *model.PurchaseOrderLine) error
}

type purchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *purchaseOrderRepository) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseOrderRepository) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := scoped(forUpdate(GetDB(ctx, r.db)), tenantID).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseOrderRepository) Update(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *purchaseOrderRepository) ListLines(ctx context.Context, tenantID string, orderID uuid.UUID) ([]model.PurchaseOrderLine, error) {
	var lines []model.PurchaseOrderLine
	if err := scoped(GetDB(ctx, r.db), tenantID).Where("order_id = ?", orderID).
		Order("created_at").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *purchaseOrderRepository) CreateLine(ctx context.Context, line *model.PurchaseOrderLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *purchaseOrderRepository) UpdateLine(ctx context.Context, line *model.PurchaseOrderLine) error {
	return GetDB(ctx, r.db).Save(line).Error
}
