package repository

import (
	"context"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MoveRepository interface {
	Create(ctx context.Context, move *model.AccountMove) error
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.AccountMove, error)
	// FindByIDForUpdate locks the move row so the state guard in the posting
	// engine serializes against a concurrent post/cancel on the same document.
	FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.AccountMove, error)
	Update(ctx context.Context, move *model.AccountMove) error

	ListInvoiceLines(ctx context.Context, tenantID string, moveID uuid.UUID) ([]model.InvoiceLine, error)
	CreateInvoiceLine(ctx context.Context, line *model.InvoiceLine) error
	UpdateInvoiceLine(ctx context.Context, line *model.InvoiceLine) error

	ListMoveLines(ctx context.Context, tenantID string, moveID uuid.UUID) ([]model.AccountMoveLine, error)
	CreateMoveLine(ctx context.Context, line *model.AccountMoveLine) error
	// DeleteMoveLines removes any pre-existing lines for a move (re-posting safety).
	// Draft-only bookkeeping rows, so this is a hard delete.
	DeleteMoveLines(ctx context.Context, tenantID string, moveID uuid.UUID) error
}

type moveRepository struct {
	db *gorm.DB
}

func NewMoveRepository(db *gorm.DB) MoveRepository {
	return &moveRepository{db: db}
}

func (r *moveRepository) Create(ctx context.Context, move *model.AccountMove) error {
	return GetDB(ctx, r.db).Create(move).Error
}

func (r *moveRepository) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.AccountMove, error) {
	var move model.AccountMove
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&move, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &move, nil
}

func (r *moveRepository) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.AccountMove, error) {
	var move model.AccountMove
	if err := scoped(forUpdate(GetDB(ctx, r.db)), tenantID).First(&move, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &move, nil
}

func (r *moveRepository) Update(ctx context.Context, move *model.AccountMove) error {
	return GetDB(ctx, r.db).Save(move).Error
}

func (r *moveRepository) ListInvoiceLines(ctx context.Context, tenantID string, moveID uuid.UUID) ([]model.InvoiceLine, error) {
	var lines []model.InvoiceLine
	if err := scoped(GetDB(ctx, r.db), tenantID).Where("move_id = ?", moveID).
		Order("created_at").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *moveRepository) CreateInvoiceLine(ctx context.Context, line *model.InvoiceLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *moveRepository) UpdateInvoiceLine(ctx context.Context, line *model.InvoiceLine) error {
	return GetDB(ctx, r.db).Save(line).Error
}

func (r *moveRepository) ListMoveLines(ctx context.Context, tenantID string, moveID uuid.UUID) ([]model.AccountMoveLine, error) {
	var lines []model.AccountMoveLine
	if err := scoped(GetDB(ctx, r.db), tenantID).Where("move_id = ?", moveID).
		Order("created_at").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *moveRepository) CreateMoveLine(ctx context.Context, line *model.AccountMoveLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *moveRepository) DeleteMoveLines(ctx context.Context, tenantID string, moveID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("tenant_id = ? AND move_id = ?", tenantID, moveID).
		Delete(&model.AccountMoveLine{}).Error
}
