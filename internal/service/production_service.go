package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crispincharbel-source/cierp/internal/model"
	"github.com/crispincharbel-source/cierp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type CreateProductionOrderRequest struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name" binding:"required"`
	BOMID       string `json:"bom_id"`
	QtyPlanned  string `json:"qty_planned" binding:"required"`
	Notes       string `json:"notes"`
}

// ProductionService drives the manufacturing lifecycle: confirm expands the
// BOM into component lines and reserves a consumption picking, produce
// consumes the components and receives the finished goods into stock.
type ProductionService interface {
	CreateDraft(ctx context.Context, tenantID string, req CreateProductionOrderRequest) (*model.ProductionOrder, error)
	Get(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.ProductionOrder, error)
	Confirm(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.ProductionOrder, error)
	Produce(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.ProductionOrder, error)
	Cancel(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.ProductionOrder, error)
}

type productionService struct {
	productionRepo repository.ProductionRepository
	seqRepo        repository.SequenceRepository
	stock          StockService
	txManager      repository.TransactionManager
}

func NewProductionService(
	productionRepo repository.ProductionRepository,
	seqRepo repository.SequenceRepository,
	stock StockService,
	txManager repository.TransactionManager,
) ProductionService {
	return &productionService{
		productionRepo: productionRepo,
		seqRepo:        seqRepo,
		stock:          stock,
		txManager:      txManager,
	}
}

func (s *productionService) CreateDraft(ctx context.Context, tenantID string, req CreateProductionOrderRequest) (*model.ProductionOrder, error) {
	qty, err := parseDecimalField("qty_planned", req.QtyPlanned, decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}
	if !qty.IsPositive() {
		return nil, fmt.Errorf("qty_planned must be positive")
	}

	var order *model.ProductionOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.seqRepo.Next(txCtx, tenantID, model.SeriesProductionOrder)
		if err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}

		order = &model.ProductionOrder{
			Number:      fmt.Sprintf("MO-%d-%04d", time.Now().Year(), seq),
			State:       model.ProductionStateDraft,
			ProductName: req.ProductName,
			QtyPlanned:  qty,
			Notes:       req.Notes,
		}
		order.TenantID = tenantID
		if req.ProductID != "" {
			id, err := uuid.Parse(req.ProductID)
			if err != nil {
				return fmt.Errorf("invalid product_id: %w", err)
			}
			order.ProductID = &id
		}
		if req.BOMID != "" {
			id, err := uuid.Parse(req.BOMID)
			if err != nil {
				return fmt.Errorf("invalid bom_id: %w", err)
			}
			if _, err := s.productionRepo.FindBOMByID(txCtx, tenantID, id); err != nil {
				if repository.IsNotFound(err) {
					return &ReferenceNotFoundError{Entity: "bom", ID: req.BOMID}
				}
				return fmt.Errorf("failed to load bom: %w", err)
			}
			order.BOMID = &id
		}
		if err := s.productionRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create production order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *productionService) Get(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.ProductionOrder, error) {
	order, err := s.productionRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &ReferenceNotFoundError{Entity: "production order", ID: orderID.String()}
		}
		return nil, fmt.Errorf("failed to load production order: %w", err)
	}
	lines, err := s.productionRepo.ListLines(ctx, tenantID, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load component lines: %w", err)
	}
	order.Lines = lines
	return order, nil
}

// Confirm expands the BOM into component lines scaled by the planned quantity
// and opens an internal picking moving the components into the production
// location. A re-confirm after returning to draft replaces the old expansion.
func (s *productionService) Confirm(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.ProductionOrder, error) {
	var order *model.ProductionOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.productionRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "production order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load production order: %w", err)
		}
		if order.State != model.ProductionStateDraft {
			return &InvalidStateError{Entity: "production order", ID: order.ID.String(), State: order.State, Operation: "confirm"}
		}
		if order.BOMID == nil {
			return &ReferenceNotFoundError{Entity: "bom", ID: order.ID.String()}
		}

		bom, err := s.productionRepo.FindBOMByID(txCtx, tenantID, *order.BOMID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "bom", ID: order.BOMID.String()}
			}
			return fmt.Errorf("failed to load bom: %w", err)
		}
		bomLines, err := s.productionRepo.ListBOMLines(txCtx, tenantID, bom.ID)
		if err != nil {
			return fmt.Errorf("failed to load bom lines: %w", err)
		}
		if len(bomLines) == 0 {
			return &EmptyDocumentError{Entity: "bom", ID: bom.ID.String(), Operation: "confirm"}
		}

		// Scale factor: the BOM yields ProductQty units per batch.
		factor := order.QtyPlanned
		if !bom.ProductQty.IsZero() {
			factor = order.QtyPlanned.Div(bom.ProductQty)
		}

		if err := s.productionRepo.DeleteLines(txCtx, tenantID, order.ID); err != nil {
			return fmt.Errorf("failed to clear component lines: %w", err)
		}

		var stockLines []StockLine
		for i := range bomLines {
			bomLine := &bomLines[i]
			required := bomLine.Quantity.Mul(factor)
			line := &model.ProductionOrderLine{
				OrderID:     order.ID,
				ProductID:   bomLine.ProductID,
				ProductName: bomLine.ProductName,
				QtyPlanned:  required,
				UOM:         bomLine.UOM,
			}
			line.TenantID = tenantID
			if err := s.productionRepo.CreateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to create component line: %w", err)
			}

			if bomLine.ProductID != nil {
				stockLines = append(stockLines, StockLine{
					ProductID:   *bomLine.ProductID,
					ProductName: bomLine.ProductName,
					Quantity:    required,
				})
			}
		}

		if len(stockLines) > 0 {
			picking, err := s.stock.CreateComponentPicking(txCtx, tenantID, order.ID, stockLines)
			if err != nil {
				return err
			}
			order.ComponentPickingID = &picking.ID
		}

		order.State = model.ProductionStateConfirmed
		if err := s.productionRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to confirm production order: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant":     tenantID,
			"order":      order.Number,
			"components": len(bomLines),
		}).Info("production order confirmed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Produce finalizes the order: the component picking is validated (stock ->
// production), consumed quantities are recorded, and the finished goods enter
// stock through a single done move.
func (s *productionService) Produce(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.ProductionOrder, error) {
	var order *model.ProductionOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.productionRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "production order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load production order: %w", err)
		}
		if order.State != model.ProductionStateConfirmed && order.State != model.ProductionStateInProgress {
			return &InvalidStateError{Entity: "production order", ID: order.ID.String(), State: order.State, Operation: "produce"}
		}

		if order.ComponentPickingID != nil {
			if _, err := s.stock.ValidatePicking(txCtx, tenantID, *order.ComponentPickingID); err != nil {
				var finalized *AlreadyFinalizedError
				if !errors.As(err, &finalized) {
					return err
				}
			}
		}

		lines, err := s.productionRepo.ListLines(txCtx, tenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load component lines: %w", err)
		}
		for i := range lines {
			line := &lines[i]
			line.QtyConsumed = line.QtyPlanned
			if err := s.productionRepo.UpdateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to update consumed quantity: %w", err)
			}
		}

		if order.ProductID != nil {
			if _, err := s.stock.CreateFinishedGoodsMove(txCtx, tenantID, order.ID,
				*order.ProductID, order.ProductName, order.QtyPlanned); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		order.QtyProduced = order.QtyPlanned
		order.DateFinish = &now
		order.State = model.ProductionStateDone
		if err := s.productionRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to finalize production order: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant":   tenantID,
			"order":    order.Number,
			"produced": order.QtyProduced.String(),
		}).Info("production order completed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel cancels an unfinished order and its open component picking.
func (s *productionService) Cancel(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.ProductionOrder, error) {
	var order *model.ProductionOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.productionRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "production order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load production order: %w", err)
		}
		switch order.State {
		case model.ProductionStateDraft, model.ProductionStateConfirmed, model.ProductionStateInProgress:
		default:
			return &InvalidStateError{Entity: "production order", ID: order.ID.String(), State: order.State, Operation: "cancel"}
		}

		if order.ComponentPickingID != nil {
			if _, err := s.stock.CancelPicking(txCtx, tenantID, *order.ComponentPickingID); err != nil {
				var finalized *AlreadyFinalizedError
				if !errors.As(err, &finalized) {
					return err
				}
			}
		}

		order.State = model.ProductionStateCancelled
		if err := s.productionRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to cancel production order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
