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

type PurchaseLineRequest struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	TaxPercent  string `json:"tax_percent"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID   string                `json:"supplier_id"`
	SupplierName string                `json:"supplier_name" binding:"required"`
	Currency     string                `json:"currency"`
	Notes        string                `json:"notes"`
	Lines        []PurchaseLineRequest `json:"lines" binding:"required,dive"`
}

// PurchaseService drives the purchase order lifecycle: draft or sent ->
// confirmed (receipt picking created) -> received -> billed.
type PurchaseService interface {
	CreateDraft(ctx context.Context, tenantID string, req CreatePurchaseOrderRequest) (*model.PurchaseOrder, error)
	Get(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.PurchaseOrder, error)
	Confirm(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.PurchaseOrder, error)
	Receive(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.PurchaseOrder, error)
	CreateBill(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.AccountMove, error)
	Cancel(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.PurchaseOrder, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseOrderRepository
	moveRepo     repository.MoveRepository
	seqRepo      repository.SequenceRepository
	stock        StockService
	txManager    repository.TransactionManager
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseOrderRepository,
	moveRepo repository.MoveRepository,
	seqRepo repository.SequenceRepository,
	stock StockService,
	txManager repository.TransactionManager,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		moveRepo:     moveRepo,
		seqRepo:      seqRepo,
		stock:        stock,
		txManager:    txManager,
	}
}

func (s *purchaseService) CreateDraft(ctx context.Context, tenantID string, req CreatePurchaseOrderRequest) (*model.PurchaseOrder, error) {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	var order *model.PurchaseOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.seqRepo.Next(txCtx, tenantID, model.SeriesPurchaseOrder)
		if err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}

		now := time.Now().UTC()
		order = &model.PurchaseOrder{
			Number:       fmt.Sprintf("PO-%d-%04d", now.Year(), seq),
			State:        model.PurchaseStateDraft,
			SupplierName: req.SupplierName,
			OrderDate:    &now,
			Currency:     currency,
			Notes:        req.Notes,
		}
		order.TenantID = tenantID
		if req.SupplierID != "" {
			id, err := uuid.Parse(req.SupplierID)
			if err != nil {
				return fmt.Errorf("invalid supplier_id: %w", err)
			}
			order.SupplierID = &id
		}
		if err := s.purchaseRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}

		subtotal := decimal.Zero
		taxTotal := decimal.Zero
		for _, lr := range req.Lines {
			line, err := s.buildLine(order.ID, tenantID, lr)
			if err != nil {
				return err
			}
			if err := s.purchaseRepo.CreateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to create order line: %w", err)
			}
			subtotal = subtotal.Add(line.Subtotal)
			taxTotal = taxTotal.Add(line.TaxAmount)
		}

		order.Subtotal = subtotal
		order.TaxAmount = taxTotal
		order.Total = subtotal.Add(taxTotal)
		if err := s.purchaseRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, order.ID)
}

func (s *purchaseService) buildLine(orderID uuid.UUID, tenantID string, lr PurchaseLineRequest) (*model.PurchaseOrderLine, error) {
	qty, err := parseDecimalField("quantity", lr.Quantity, decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}
	price, err := parseDecimalField("unit_price", lr.UnitPrice, decimal.Zero)
	if err != nil {
		return nil, err
	}
	taxPercent, err := parseDecimalField("tax_percent", lr.TaxPercent, decimal.Zero)
	if err != nil {
		return nil, err
	}

	line := &model.PurchaseOrderLine{
		OrderID:     orderID,
		ProductName: lr.ProductName,
		Quantity:    qty,
		UnitPrice:   price,
		TaxPercent:  taxPercent,
	}
	line.TenantID = tenantID
	if lr.ProductID != "" {
		id, err := uuid.Parse(lr.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		line.ProductID = &id
	}
	line.Subtotal, line.TaxAmount, line.Total = computeLineAmounts(qty, price, decimal.Zero, taxPercent)
	return line, nil
}

func (s *purchaseService) Get(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.purchaseRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &ReferenceNotFoundError{Entity: "purchase order", ID: orderID.String()}
		}
		return nil, fmt.Errorf("failed to load purchase order: %w", err)
	}
	lines, err := s.purchaseRepo.ListLines(ctx, tenantID, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	order.Lines = lines
	return order, nil
}

// Confirm accepts a draft or sent order, recomputes totals, and opens a
// receipt picking for the stockable lines.
func (s *purchaseService) Confirm(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.PurchaseOrder, error) {
	var order *model.PurchaseOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.purchaseRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "purchase order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load purchase order: %w", err)
		}
		if order.State != model.PurchaseStateDraft && order.State != model.PurchaseStateSent {
			return &InvalidStateError{Entity: "purchase order", ID: order.ID.String(), State: order.State, Operation: "confirm"}
		}

		lines, err := s.purchaseRepo.ListLines(txCtx, tenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order lines: %w", err)
		}
		if len(lines) == 0 {
			return &EmptyDocumentError{Entity: "purchase order", ID: order.ID.String(), Operation: "confirm"}
		}

		subtotal := decimal.Zero
		taxTotal := decimal.Zero
		var stockLines []StockLine
		for i := range lines {
			line := &lines[i]
			line.Subtotal, line.TaxAmount, line.Total = computeLineAmounts(
				line.Quantity, line.UnitPrice, decimal.Zero, line.TaxPercent)
			if err := s.purchaseRepo.UpdateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to update order line: %w", err)
			}
			subtotal = subtotal.Add(line.Subtotal)
			taxTotal = taxTotal.Add(line.TaxAmount)

			if line.ProductID != nil {
				stockLines = append(stockLines, StockLine{
					ProductID:   *line.ProductID,
					ProductName: line.ProductName,
					Quantity:    line.Quantity,
				})
			}
		}

		order.Subtotal = subtotal
		order.TaxAmount = taxTotal
		order.Total = subtotal.Add(taxTotal)

		if len(stockLines) > 0 {
			picking, err := s.stock.CreateReceiptPicking(txCtx, tenantID, "purchase_order", order.ID,
				order.SupplierID, order.SupplierName, stockLines)
			if err != nil {
				return err
			}
			order.PickingID = &picking.ID
		}

		order.State = model.PurchaseStateConfirmed
		if err := s.purchaseRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to confirm purchase order: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant": tenantID,
			"order":  order.Number,
			"total":  order.Total.StringFixed(minorUnit),
		}).Info("purchase order confirmed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Receive finalizes the receipt picking and records the received quantities.
// Full receipt only; qty_received always equals the ordered quantity.
func (s *purchaseService) Receive(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.PurchaseOrder, error) {
	var order *model.PurchaseOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.purchaseRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "purchase order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load purchase order: %w", err)
		}
		if order.State != model.PurchaseStateConfirmed {
			return &InvalidStateError{Entity: "purchase order", ID: order.ID.String(), State: order.State, Operation: "receive"}
		}

		if order.PickingID != nil {
			if _, err := s.stock.ValidatePicking(txCtx, tenantID, *order.PickingID); err != nil {
				var finalized *AlreadyFinalizedError
				if !errors.As(err, &finalized) {
					return err
				}
			}
		}

		lines, err := s.purchaseRepo.ListLines(txCtx, tenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order lines: %w", err)
		}
		for i := range lines {
			line := &lines[i]
			line.QtyReceived = line.Quantity
			if err := s.purchaseRepo.UpdateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to update received quantity: %w", err)
			}
		}

		order.State = model.PurchaseStateReceived
		if err := s.purchaseRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to mark order received: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CreateBill materializes a draft vendor bill from a received (or, for
// services without stock, confirmed) order and moves it to billed.
func (s *purchaseService) CreateBill(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.AccountMove, error) {
	var move *model.AccountMove
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.purchaseRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "purchase order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load purchase order: %w", err)
		}
		if order.State != model.PurchaseStateReceived && order.State != model.PurchaseStateConfirmed {
			return &InvalidStateError{Entity: "purchase order", ID: order.ID.String(), State: order.State, Operation: "bill"}
		}
		if order.InvoiceID != nil {
			return &AlreadyFinalizedError{Entity: "purchase order", ID: order.ID.String(), State: "billed"}
		}

		lines, err := s.purchaseRepo.ListLines(txCtx, tenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order lines: %w", err)
		}
		if len(lines) == 0 {
			return &EmptyDocumentError{Entity: "purchase order", ID: order.ID.String(), Operation: "bill"}
		}

		now := time.Now().UTC()
		srcID := order.ID
		move = &model.AccountMove{
			MoveType:    model.MoveTypeVendorInvoice,
			State:       model.MoveStateDraft,
			PartnerID:   order.SupplierID,
			PartnerName: order.SupplierName,
			MoveDate:    &now,
			Currency:    order.Currency,
			Ref:         order.Number,
			SourceType:  "purchase_order",
			SourceID:    &srcID,
		}
		move.TenantID = tenantID
		if err := s.moveRepo.Create(txCtx, move); err != nil {
			return fmt.Errorf("failed to create vendor bill: %w", err)
		}

		for i := range lines {
			line := &lines[i]
			invLine := &model.InvoiceLine{
				MoveID:      move.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TaxPercent:  line.TaxPercent,
			}
			invLine.TenantID = tenantID
			if err := s.moveRepo.CreateInvoiceLine(txCtx, invLine); err != nil {
				return fmt.Errorf("failed to create bill line: %w", err)
			}

			line.QtyBilled = line.Quantity
			if err := s.purchaseRepo.UpdateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to update billed quantity: %w", err)
			}
		}

		order.InvoiceID = &move.ID
		order.State = model.PurchaseStateBilled
		if err := s.purchaseRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to link vendor bill: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant": tenantID,
			"order":  order.Number,
			"bill":   move.ID.String(),
		}).Info("vendor bill created")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return move, nil
}

// Cancel cancels an order that has not been received or billed, along with its
// open receipt picking.
func (s *purchaseService) Cancel(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.PurchaseOrder, error) {
	var order *model.PurchaseOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.purchaseRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "purchase order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load purchase order: %w", err)
		}
		switch order.State {
		case model.PurchaseStateDraft, model.PurchaseStateSent, model.PurchaseStateConfirmed:
		default:
			return &InvalidStateError{Entity: "purchase order", ID: order.ID.String(), State: order.State, Operation: "cancel"}
		}

		if order.PickingID != nil {
			if _, err := s.stock.CancelPicking(txCtx, tenantID, *order.PickingID); err != nil {
				var finalized *AlreadyFinalizedError
				if !errors.As(err, &finalized) {
					return err
				}
			}
		}

		order.State = model.PurchaseStateCancelled
		if err := s.purchaseRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to cancel purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
