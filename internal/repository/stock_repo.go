package repository

import (
	"context"
	"errors"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockRepository covers the stock subsystem: locations, pickings, moves, quants
// and the cached product on-hand figure. One interface because validate-picking
// touches all of them inside a single transaction.
type StockRepository interface {
	FindLocationByName(ctx context.Context, tenantID, name, locationType string) (*model.StockLocation, error)
	CreateLocation(ctx context.Context, location *model.StockLocation) error

	CreatePicking(ctx context.Context, picking *model.StockPicking) error
	FindPickingByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.StockPicking, error)
	FindPickingByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.StockPicking, error)
	UpdatePicking(ctx context.Context, picking *model.StockPicking) error

	CreateMove(ctx context.Context, move *model.StockMove) error
	ListMovesByPicking(ctx context.Context, tenantID string, pickingID uuid.UUID) ([]model.StockMove, error)
	UpdateMove(ctx context.Context, move *model.StockMove) error

	// FindQuantForUpdate locks the (product, location) quant row; concurrent
	// mutations of the same row are a read-modify-write hazard otherwise.
	FindQuantForUpdate(ctx context.Context, tenantID string, productID, locationID uuid.UUID) (*model.StockQuant, error)
	CreateQuant(ctx context.Context, quant *model.StockQuant) error
	UpdateQuant(ctx context.Context, quant *model.StockQuant) error
	// SumQuantsByLocationType totals one product's quants across locations of a type.
	SumQuantsByLocationType(ctx context.Context, tenantID string, productID uuid.UUID, locationType string) (decimal.Decimal, error)

	FindProductByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	ListProducts(ctx context.Context, tenantID string) ([]model.Product, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) FindLocationByName(ctx context.Context, tenantID, name, locationType string) (*model.StockLocation, error) {
	var location model.StockLocation
	if err := scoped(GetDB(ctx, r.db), tenantID).
		First(&location, "name = ? AND location_type = ?", name, locationType).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *stockRepository) CreateLocation(ctx context.Context, location *model.StockLocation) error {
	return GetDB(ctx, r.db).Create(location).Error
}

func (r *stockRepository) CreatePicking(ctx context.Context, picking *model.StockPicking) error {
	return GetDB(ctx, r.db).Create(picking).Error
}

func (r *stockRepository) FindPickingByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.StockPicking, error) {
	var picking model.StockPicking
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&picking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &picking, nil
}

func (r *stockRepository) FindPickingByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.StockPicking, error) {
	var picking model.StockPicking
	if err := scoped(forUpdate(GetDB(ctx, r.db)), tenantID).First(&picking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &picking, nil
}

func (r *stockRepository) UpdatePicking(ctx context.Context, picking *model.StockPicking) error {
	return GetDB(ctx, r.db).Save(picking).Error
}

func (r *stockRepository) CreateMove(ctx context.Context, move *model.StockMove) error {
	return GetDB(ctx, r.db).Create(move).Error
}

func (r *stockRepository) ListMovesByPicking(ctx context.Context, tenantID string, pickingID uuid.UUID) ([]model.StockMove, error) {
	var moves []model.StockMove
	if err := scoped(GetDB(ctx, r.db), tenantID).Where("picking_id = ?", pickingID).
		Order("created_at").Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

func (r *stockRepository) UpdateMove(ctx context.Context, move *model.StockMove) error {
	return GetDB(ctx, r.db).Save(move).Error
}

func (r *stockRepository) FindQuantForUpdate(ctx context.Context, tenantID string, productID, locationID uuid.UUID) (*model.StockQuant, error) {
	var quant model.StockQuant
	err := scoped(forUpdate(GetDB(ctx, r.db)), tenantID).
		First(&quant, "product_id = ? AND location_id = ?", productID, locationID).Error
	if err != nil {
		return nil, err
	}
	return &quant, nil
}

func (r *stockRepository) CreateQuant(ctx context.Context, quant *model.StockQuant) error {
	return GetDB(ctx, r.db).Create(quant).Error
}

func (r *stockRepository) UpdateQuant(ctx context.Context, quant *model.StockQuant) error {
	return GetDB(ctx, r.db).Save(quant).Error
}

func (r *stockRepository) SumQuantsByLocationType(ctx context.Context, tenantID string, productID uuid.UUID, locationType string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := GetDB(ctx, r.db).
		Table("stock_quants").
		Select("SUM(stock_quants.quantity)").
		Joins("JOIN stock_locations ON stock_locations.id = stock_quants.location_id").
		Where("stock_quants.tenant_id = ? AND stock_quants.is_deleted = ?", tenantID, false).
		Where("stock_locations.location_type = ?", locationType).
		Where("stock_quants.product_id = ?", productID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *stockRepository) FindProductByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *stockRepository) UpdateProduct(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *stockRepository) ListProducts(ctx context.Context, tenantID string) ([]model.Product, error) {
	var products []model.Product
	if err := scoped(GetDB(ctx, r.db), tenantID).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// IsNotFound reports whether err is the storage layer's missing-row error.
// Services use this to translate lookups into reference-not-found failures.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
