package repository

import (
	"context"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductionRepository interface {
	Create(ctx context.Context, order *model.ProductionOrder) error
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.ProductionOrder, error)
	FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.ProductionOrder, error)
	Update(ctx context.Context, order *model.ProductionOrder) error

	ListLines(ctx context.Context, tenantID string, orderID uuid.UUID) ([]model.ProductionOrderLine, error)
	CreateLine(ctx context.Context, line *model.ProductionOrderLine) error
	UpdateLine(ctx context.Context, line *model.ProductionOrderLine) error
	// DeleteLines drops the previous BOM expansion before a re-confirm writes a
	// fresh one. Draft bookkeeping rows, hard delete.
	DeleteLines(ctx context.Context, tenantID string, orderID uuid.UUID) error

	FindBOMByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.BOM, error)
	ListBOMLines(ctx context.Context, tenantID string, bomID uuid.UUID) ([]model.BOMLine, error)
}

type productionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) ProductionRepository {
	return &productionRepository{db: db}
}

func (r *productionRepository) Create(ctx context.Context, order *model.ProductionOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *productionRepository) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.ProductionOrder, error) {
	var order model.ProductionOrder
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *productionRepository) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.ProductionOrder, error) {
	var order model.ProductionOrder
	if err := scoped(forUpdate(GetDB(ctx, r.db)), tenantID).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *productionRepository) Update(ctx context.Context, order *model.ProductionOrder) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *productionRepository) ListLines(ctx context.Context, tenantID string, orderID uuid.UUID) ([]model.ProductionOrderLine, error) {
	var lines []model.ProductionOrderLine
	if err := scoped(GetDB(ctx, r.db), tenantID).Where("order_id = ?", orderID).
		Order("created_at").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *productionRepository) CreateLine(ctx context.Context, line *model.ProductionOrderLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *productionRepository) UpdateLine(ctx context.Context, line *model.ProductionOrderLine) error {
	return GetDB(ctx, r.db).Save(line).Error
}

func (r *productionRepository) DeleteLines(ctx context.Context, tenantID string, orderID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Delete(&model.ProductionOrderLine{}).Error
}

func (r *productionRepository) FindBOMByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.BOM, error) {
	var bom model.BOM
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&bom, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bom, nil
}

func (r *productionRepository) ListBOMLines(ctx context.Context, tenantID string, bomID uuid.UUID) ([]model.BOMLine, error) {
	var lines []model.BOMLine
	if err := scoped(GetDB(ctx, r.db), tenantID).Where("bom_id = ?", bomID).
		Order("created_at").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
