package repository

import (
	"context"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleOrderRepository interface {
	Create(ctx context.Context, order *model.SaleOrder) error
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.SaleOrder, error)
	FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.SaleOrder, error)
	Update(ctx context.Context, order *model.SaleOrder) error
	ListLines(ctx context.Context, tenantID string, orderID uuid.UUID) ([]model.SaleOrderLine, error)
	CreateLine(ctx context.Context, line *model.SaleOrderLine) error
	UpdateLine(ctx context.Context, line *model.SaleOrderLine) error
}

type saleOrderRepository struct {
	db *gorm.DB
}

func NewSaleOrderRepository(db *gorm.DB) SaleOrderRepository {
	return &saleOrderRepository{db: db}
}

func (r *saleOrderRepository) Create(ctx context.Context, order *model.SaleOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *saleOrderRepository) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.SaleOrder, error) {
	var order model.SaleOrder
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *saleOrderRepository) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.SaleOrder, error) {
	var order model.SaleOrder
	if err := scoped(forUpdate(GetDB(ctx, r.db)), tenantID).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *saleOrderRepository) Update(ctx context.Context, order *model.SaleOrder) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *saleOrderRepository) ListLines(ctx context.Context, tenantID string, orderID uuid.UUID) ([]model.SaleOrderLine, error) {
	var lines []model.SaleOrderLine
	if err := scoped(GetDB(ctx, r.db), tenantID).Where("order_id = ?", orderID).
		Order("created_at").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *saleOrderRepository) CreateLine(ctx context.Context, line *model.SaleOrderLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *saleOrderRepository) UpdateLine(ctx context.Context, line *model.SaleOrderLine) error {
	return GetDB(ctx, r.db).Save(line).Error
}
