package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crispincharbel-source/cierp/internal/model"
	"github.com/crispincharbel-source/cierp/internal/repository"
	ws "github.com/crispincharbel-source/cierp/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StockLine is one product/quantity entry handed to picking creation by the
// order workflows.
type StockLine struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
}

// OnHandRow is one product in the stock snapshot read.
type OnHandRow struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	UOM          string          `json:"uom"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	QtyOnHand    decimal.Decimal `json:"qty_on_hand"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	Value        decimal.Decimal `json:"value"`
	LowStock     bool            `json:"low_stock"`
}

// StockService is the stock ledger: append-only moves plus the materialized
// quant table, mutated only inside the caller's transaction.
type StockService interface {
	// UpdateQuant applies a delta to the (product, location) quant and refreshes
	// the product's cached internal on-hand total. Must run inside the same
	// transaction as the move that triggered it.
	UpdateQuant(ctx context.Context, tenantID string, productID, locationID uuid.UUID, qtyDelta decimal.Decimal) error

	ValidatePicking(ctx context.Context, tenantID string, pickingID uuid.UUID) (*model.StockPicking, error)
	CancelPicking(ctx context.Context, tenantID string, pickingID uuid.UUID) (*model.StockPicking, error)

	CreateDeliveryPicking(ctx context.Context, tenantID, sourceType string, sourceID uuid.UUID,
		partnerID *uuid.UUID, partnerName string, lines []StockLine) (*model.StockPicking, error)
	CreateReceiptPicking(ctx context.Context, tenantID, sourceType string, sourceID uuid.UUID,
		partnerID *uuid.UUID, partnerName string, lines []StockLine) (*model.StockPicking, error)
	CreateComponentPicking(ctx context.Context, tenantID string, sourceID uuid.UUID, lines []StockLine) (*model.StockPicking, error)

	// CreateFinishedGoodsMove receives production output into stock: a single
	// move created directly in done state, bypassing the picking abstraction.
	CreateFinishedGoodsMove(ctx context.Context, tenantID string, sourceID uuid.UUID,
		productID uuid.UUID, productName string, qty decimal.Decimal) (*model.StockMove, error)

	// Locations returns the tenant's fixed-location config, provisioning the
	// four fixed locations on first use.
	Locations(ctx context.Context, tenantID string) (*model.TenantConfig, error)

	OnHand(ctx context.Context, tenantID string) ([]OnHandRow, error)
}

type stockService struct {
	stockRepo  repository.StockRepository
	tenantRepo repository.TenantRepository
	seqRepo    repository.SequenceRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
}

func NewStockService(
	stockRepo repository.StockRepository,
	tenantRepo repository.TenantRepository,
	seqRepo repository.SequenceRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		stockRepo:  stockRepo,
		tenantRepo: tenantRepo,
		seqRepo:    seqRepo,
		txManager:  txManager,
		hub:        hub,
	}
}

func (s *stockService) UpdateQuant(ctx context.Context, tenantID string, productID, locationID uuid.UUID, qtyDelta decimal.Decimal) error {
	quant, err := s.stockRepo.FindQuantForUpdate(ctx, tenantID, productID, locationID)
	switch {
	case err == nil:
		quant.Quantity = quant.Quantity.Add(qtyDelta)
		if err := s.stockRepo.UpdateQuant(ctx, quant); err != nil {
			return fmt.Errorf("failed to update quant: %w", err)
		}
	case repository.IsNotFound(err):
		quant = &model.StockQuant{ProductID: productID, LocationID: locationID, Quantity: qtyDelta}
		quant.TenantID = tenantID
		if err := s.stockRepo.CreateQuant(ctx, quant); err != nil {
			return fmt.Errorf("failed to create quant: %w", err)
		}
	default:
		return fmt.Errorf("failed to load quant: %w", err)
	}

	// Refresh the cached on-hand figure (sum of internal locations). A read
	// optimization only; the quant table stays the source of truth.
	total, err := s.stockRepo.SumQuantsByLocationType(ctx, tenantID, productID, model.LocationTypeInternal)
	if err != nil {
		return fmt.Errorf("failed to sum internal quants: %w", err)
	}
	product, err := s.stockRepo.FindProductByID(ctx, tenantID, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to load product: %w", err)
	}
	product.QtyOnHand = total
	if err := s.stockRepo.UpdateProduct(ctx, product); err != nil {
		return fmt.Errorf("failed to cache on-hand quantity: %w", err)
	}
	return nil
}

// ValidatePicking finalizes a transfer: every non-cancelled move decrements the
// source quant and increments the destination quant by exactly its quantity,
// once, inside one transaction.
func (s *stockService) ValidatePicking(ctx context.Context, tenantID string, pickingID uuid.UUID) (*model.StockPicking, error) {
	var picking *model.StockPicking
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		picking, err = s.stockRepo.FindPickingByIDForUpdate(txCtx, tenantID, pickingID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "picking", ID: pickingID.String()}
			}
			return fmt.Errorf("failed to load picking: %w", err)
		}
		if picking.State == model.StockStateDone || picking.State == model.StockStateCancelled {
			return &AlreadyFinalizedError{Entity: "picking", ID: picking.ID.String(), State: picking.State}
		}

		moves, err := s.stockRepo.ListMovesByPicking(txCtx, tenantID, picking.ID)
		if err != nil {
			return fmt.Errorf("failed to load picking moves: %w", err)
		}

		now := time.Now().UTC()
		for i := range moves {
			move := &moves[i]
			if move.State == model.StockStateCancelled {
				continue
			}
			qty := move.Quantity

			// Source decrement before destination increment, for audit readability.
			if err := s.UpdateQuant(txCtx, tenantID, move.ProductID, move.LocationID, qty.Neg()); err != nil {
				return err
			}
			if err := s.UpdateQuant(txCtx, tenantID, move.ProductID, move.LocationDestID, qty); err != nil {
				return err
			}

			move.QtyDone = qty
			move.State = model.StockStateDone
			move.MoveDate = &now
			if err := s.stockRepo.UpdateMove(txCtx, move); err != nil {
				return fmt.Errorf("failed to finalize move: %w", err)
			}
		}

		picking.State = model.StockStateDone
		picking.DateDone = &now
		if err := s.stockRepo.UpdatePicking(txCtx, picking); err != nil {
			return fmt.Errorf("failed to finalize picking: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant":  tenantID,
			"picking": picking.Name,
			"moves":   len(moves),
		}).Info("picking validated")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("picking_validated", map[string]interface{}{
		"picking_id": picking.ID.String(),
		"name":       picking.Name,
	})
	return picking, nil
}

func (s *stockService) CancelPicking(ctx context.Context, tenantID string, pickingID uuid.UUID) (*model.StockPicking, error) {
	var picking *model.StockPicking
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		picking, err = s.stockRepo.FindPickingByIDForUpdate(txCtx, tenantID, pickingID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "picking", ID: pickingID.String()}
			}
			return fmt.Errorf("failed to load picking: %w", err)
		}
		if picking.State == model.StockStateDone || picking.State == model.StockStateCancelled {
			return &AlreadyFinalizedError{Entity: "picking", ID: picking.ID.String(), State: picking.State}
		}

		moves, err := s.stockRepo.ListMovesByPicking(txCtx, tenantID, picking.ID)
		if err != nil {
			return fmt.Errorf("failed to load picking moves: %w", err)
		}
		for i := range moves {
			move := &moves[i]
			if move.State == model.StockStateDone || move.State == model.StockStateCancelled {
				continue
			}
			move.State = model.StockStateCancelled
			if err := s.stockRepo.UpdateMove(txCtx, move); err != nil {
				return fmt.Errorf("failed to cancel move: %w", err)
			}
		}

		picking.State = model.StockStateCancelled
		if err := s.stockRepo.UpdatePicking(txCtx, picking); err != nil {
			return fmt.Errorf("failed to cancel picking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return picking, nil
}

func (s *stockService) CreateDeliveryPicking(ctx context.Context, tenantID, sourceType string, sourceID uuid.UUID,
	partnerID *uuid.UUID, partnerName string, lines []StockLine) (*model.StockPicking, error) {
	cfg, err := s.Locations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.createPicking(ctx, tenantID, pickingSpec{
		PickingType: model.PickingTypeOutgoing,
		Series:      model.SeriesPickingOutgoing,
		NameFormat:  "OUT/%d/%05d",
		SourceType:  sourceType,
		SourceID:    sourceID,
		PartnerID:   partnerID,
		PartnerName: partnerName,
		From:        cfg.StockLocationID,
		To:          cfg.CustomersLocationID,
	}, lines)
}

func (s *stockService) CreateReceiptPicking(ctx context.Context, tenantID, sourceType string, sourceID uuid.UUID,
	partnerID *uuid.UUID, partnerName string, lines []StockLine) (*model.StockPicking, error) {
	cfg, err := s.Locations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.createPicking(ctx, tenantID, pickingSpec{
		PickingType: model.PickingTypeIncoming,
		Series:      model.SeriesPickingIncoming,
		NameFormat:  "IN/%d/%05d",
		SourceType:  sourceType,
		SourceID:    sourceID,
		PartnerID:   partnerID,
		PartnerName: partnerName,
		From:        cfg.VendorsLocationID,
		To:          cfg.StockLocationID,
	}, lines)
}

func (s *stockService) CreateComponentPicking(ctx context.Context, tenantID string, sourceID uuid.UUID, lines []StockLine) (*model.StockPicking, error) {
	cfg, err := s.Locations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.createPicking(ctx, tenantID, pickingSpec{
		PickingType: model.PickingTypeInternal,
		Series:      model.SeriesPickingInternal,
		NameFormat:  "COMP/%d/%05d",
		SourceType:  "production_order",
		SourceID:    sourceID,
		From:        cfg.StockLocationID,
		To:          cfg.ProductionLocationID,
	}, lines)
}

type pickingSpec struct {
	PickingType string
	Series      string
	NameFormat  string
	SourceType  string
	SourceID    uuid.UUID
	PartnerID   *uuid.UUID
	PartnerName string
	From        uuid.UUID
	To          uuid.UUID
}

// createPicking writes the transfer document already confirmed, with one
// confirmed move per line and qty_done preset: this design assumes immediate
// full shipment, no pick/pack/ship sub-stages.
func (s *stockService) createPicking(ctx context.Context, tenantID string, spec pickingSpec, lines []StockLine) (*model.StockPicking, error) {
	seq, err := s.seqRepo.Next(ctx, tenantID, spec.Series)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate picking number: %w", err)
	}
	sourceID := spec.SourceID

	picking := &model.StockPicking{
		Name:           fmt.Sprintf(spec.NameFormat, time.Now().Year(), seq),
		PickingType:    spec.PickingType,
		State:          model.StockStateConfirmed,
		SourceType:     spec.SourceType,
		SourceID:       &sourceID,
		PartnerID:      spec.PartnerID,
		PartnerName:    spec.PartnerName,
		LocationID:     spec.From,
		LocationDestID: spec.To,
	}
	picking.TenantID = tenantID
	if err := s.stockRepo.CreatePicking(ctx, picking); err != nil {
		return nil, fmt.Errorf("failed to create picking: %w", err)
	}

	for _, line := range lines {
		move := &model.StockMove{
			PickingID:      &picking.ID,
			State:          model.StockStateConfirmed,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			LocationID:     spec.From,
			LocationDestID: spec.To,
			Quantity:       line.Quantity,
			QtyDone:        line.Quantity,
			SourceType:     spec.SourceType,
			SourceID:       &sourceID,
		}
		move.TenantID = tenantID
		if err := s.stockRepo.CreateMove(ctx, move); err != nil {
			return nil, fmt.Errorf("failed to create stock move: %w", err)
		}
	}
	return picking, nil
}

func (s *stockService) CreateFinishedGoodsMove(ctx context.Context, tenantID string, sourceID uuid.UUID,
	productID uuid.UUID, productName string, qty decimal.Decimal) (*model.StockMove, error) {
	cfg, err := s.Locations(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	src := sourceID
	move := &model.StockMove{
		State:          model.StockStateDone,
		ProductID:      productID,
		ProductName:    productName,
		LocationID:     cfg.ProductionLocationID,
		LocationDestID: cfg.StockLocationID,
		Quantity:       qty,
		QtyDone:        qty,
		SourceType:     "production_order",
		SourceID:       &src,
		MoveDate:       &now,
	}
	move.TenantID = tenantID
	if err := s.stockRepo.CreateMove(ctx, move); err != nil {
		return nil, fmt.Errorf("failed to create finished goods move: %w", err)
	}

	if err := s.UpdateQuant(ctx, tenantID, productID, cfg.ProductionLocationID, qty.Neg()); err != nil {
		return nil, err
	}
	if err := s.UpdateQuant(ctx, tenantID, productID, cfg.StockLocationID, qty); err != nil {
		return nil, err
	}
	return move, nil
}

// Locations loads the tenant's fixed-location config, creating the four fixed
// locations and the config row on first use. Workflows reference the stored
// ids afterwards, never the names.
func (s *stockService) Locations(ctx context.Context, tenantID string) (*model.TenantConfig, error) {
	cfg, err := s.tenantRepo.FindConfig(ctx, tenantID)
	if err == nil {
		return cfg, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load tenant config: %w", err)
	}

	stock, err := s.resolveLocation(ctx, tenantID, model.LocationNameStock, model.LocationTypeInternal)
	if err != nil {
		return nil, err
	}
	production, err := s.resolveLocation(ctx, tenantID, model.LocationNameProduction, model.LocationTypeInternal)
	if err != nil {
		return nil, err
	}
	customers, err := s.resolveLocation(ctx, tenantID, model.LocationNameCustomers, model.LocationTypeCustomer)
	if err != nil {
		return nil, err
	}
	vendors, err := s.resolveLocation(ctx, tenantID, model.LocationNameVendors, model.LocationTypeVendor)
	if err != nil {
		return nil, err
	}

	cfg = &model.TenantConfig{
		StockLocationID:      stock.ID,
		ProductionLocationID: production.ID,
		CustomersLocationID:  customers.ID,
		VendorsLocationID:    vendors.ID,
	}
	cfg.TenantID = tenantID
	if err := s.tenantRepo.CreateConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to create tenant config: %w", err)
	}

	logrus.WithField("tenant", tenantID).Info("provisioned fixed stock locations")
	return cfg, nil
}

func (s *stockService) resolveLocation(ctx context.Context, tenantID, name, locationType string) (*model.StockLocation, error) {
	location, err := s.stockRepo.FindLocationByName(ctx, tenantID, name, locationType)
	if err == nil {
		return location, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up location %s: %w", name, err)
	}
	location = &model.StockLocation{Name: name, LocationType: locationType, IsActive: true}
	location.TenantID = tenantID
	if err := s.stockRepo.CreateLocation(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to create location %s: %w", name, err)
	}
	return location, nil
}

func (s *stockService) OnHand(ctx context.Context, tenantID string) ([]OnHandRow, error) {
	products, err := s.stockRepo.ListProducts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	rows := make([]OnHandRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, OnHandRow{
			ID:           p.ID.String(),
			Code:         p.Code,
			Name:         p.Name,
			UOM:          p.UOM,
			CostPrice:    p.CostPrice,
			SalePrice:    p.SalePrice,
			QtyOnHand:    p.QtyOnHand,
			ReorderPoint: p.ReorderPoint,
			Value:        p.QtyOnHand.Mul(p.CostPrice),
			LowStock:     p.QtyOnHand.LessThanOrEqual(p.ReorderPoint),
		})
	}
	return rows, nil
}

func (s *stockService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"event": event, "data": data})
	s.hub.Broadcast <- payload
}
