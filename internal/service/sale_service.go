package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crispincharbel-source/cierp/internal/model"
	"github.com/crispincharbel-source/cierp/internal/repository"
	ws "github.com/crispincharbel-source/cierp/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type SaleLineRequest struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	Discount    string `json:"discount"`
	TaxPercent  string `json:"tax_percent"`
}

type CreateSaleOrderRequest struct {
	CustomerID   string            `json:"customer_id"`
	CustomerName string            `json:"customer_name" binding:"required"`
	Currency     string            `json:"currency"`
	Notes        string            `json:"notes"`
	Lines        []SaleLineRequest `json:"lines" binding:"required,dive"`
}

// SaleService drives the sale order lifecycle: draft -> confirmed (delivery
// picking created) -> done, with invoicing from confirmed or done.
type SaleService interface {
	CreateDraft(ctx context.Context, tenantID string, req CreateSaleOrderRequest) (*model.SaleOrder, error)
	Get(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.SaleOrder, error)
	Confirm(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.SaleOrder, error)
	ValidateDelivery(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.SaleOrder, error)
	CreateInvoice(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.AccountMove, error)
	Cancel(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.SaleOrder, error)
}

type saleService struct {
	saleRepo  repository.SaleOrderRepository
	moveRepo  repository.MoveRepository
	seqRepo   repository.SequenceRepository
	stock     StockService
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewSaleService(
	saleRepo repository.SaleOrderRepository,
	moveRepo repository.MoveRepository,
	seqRepo repository.SequenceRepository,
	stock StockService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) SaleService {
	return &saleService{
		saleRepo:  saleRepo,
		moveRepo:  moveRepo,
		seqRepo:   seqRepo,
		stock:     stock,
		txManager: txManager,
		hub:       hub,
	}
}

// parseDecimalField parses a decimal request field, treating empty as def.
// Shared by the order workflows; posting parses its own amounts.
func parseDecimalField(name, raw string, def decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

// computeLineAmounts applies discount then tax, rounding each to currency
// precision. The same formula the posting engine uses on invoice lines.
func computeLineAmounts(qty, price, discount, taxPercent decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = qty.Mul(price).
		Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred))).
		Round(minorUnit)
	tax = subtotal.Mul(taxPercent).Div(hundred).Round(minorUnit)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}

func (s *saleService) CreateDraft(ctx context.Context, tenantID string, req CreateSaleOrderRequest) (*model.SaleOrder, error) {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	var order *model.SaleOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.seqRepo.Next(txCtx, tenantID, model.SeriesSaleOrder)
		if err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}

		now := time.Now().UTC()
		order = &model.SaleOrder{
			Number:       fmt.Sprintf("SO-%d-%04d", now.Year(), seq),
			State:        model.SaleStateDraft,
			CustomerName: req.CustomerName,
			OrderDate:    &now,
			Currency:     currency,
			Notes:        req.Notes,
		}
		order.TenantID = tenantID
		if req.CustomerID != "" {
			id, err := uuid.Parse(req.CustomerID)
			if err != nil {
				return fmt.Errorf("invalid customer_id: %w", err)
			}
			order.CustomerID = &id
		}
		if err := s.saleRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create sale order: %w", err)
		}

		subtotal := decimal.Zero
		taxTotal := decimal.Zero
		for _, lr := range req.Lines {
			line, err := s.buildLine(order.ID, tenantID, lr)
			if err != nil {
				return err
			}
			if err := s.saleRepo.CreateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to create order line: %w", err)
			}
			subtotal = subtotal.Add(line.Subtotal)
			taxTotal = taxTotal.Add(line.TaxAmount)
		}

		order.Subtotal = subtotal
		order.TaxAmount = taxTotal
		order.Total = subtotal.Add(taxTotal)
		if err := s.saleRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, order.ID)
}

func (s *saleService) buildLine(orderID uuid.UUID, tenantID string, lr SaleLineRequest) (*model.SaleOrderLine, error) {
	qty, err := parseDecimalField("quantity", lr.Quantity, decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}
	price, err := parseDecimalField("unit_price", lr.UnitPrice, decimal.Zero)
	if err != nil {
		return nil, err
	}
	discount, err := parseDecimalField("discount", lr.Discount, decimal.Zero)
	if err != nil {
		return nil, err
	}
	taxPercent, err := parseDecimalField("tax_percent", lr.TaxPercent, decimal.Zero)
	if err != nil {
		return nil, err
	}

	line := &model.SaleOrderLine{
		OrderID:     orderID,
		ProductName: lr.ProductName,
		Quantity:    qty,
		UnitPrice:   price,
		Discount:    discount,
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
	line.Subtotal, line.TaxAmount, line.Total = computeLineAmounts(qty, price, discount, taxPercent)
	return line, nil
}

func (s *saleService) Get(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.SaleOrder, error) {
	order, err := s.saleRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &ReferenceNotFoundError{Entity: "sale order", ID: orderID.String()}
		}
		return nil, fmt.Errorf("failed to load sale order: %w", err)
	}
	lines, err := s.saleRepo.ListLines(ctx, tenantID, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	order.Lines = lines
	return order, nil
}

// Confirm moves a draft order to confirmed: totals are recomputed from the
// lines and a delivery picking is created for every line that references a
// stockable product.
func (s *saleService) Confirm(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.SaleOrder, error) {
	var order *model.SaleOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.saleRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "sale order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load sale order: %w", err)
		}
		if order.State != model.SaleStateDraft {
			return &InvalidStateError{Entity: "sale order", ID: order.ID.String(), State: order.State, Operation: "confirm"}
		}

		lines, err := s.saleRepo.ListLines(txCtx, tenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order lines: %w", err)
		}
		if len(lines) == 0 {
			return &EmptyDocumentError{Entity: "sale order", ID: order.ID.String(), Operation: "confirm"}
		}

		subtotal := decimal.Zero
		taxTotal := decimal.Zero
		var stockLines []StockLine
		for i := range lines {
			line := &lines[i]
			line.Subtotal, line.TaxAmount, line.Total = computeLineAmounts(
				line.Quantity, line.UnitPrice, line.Discount, line.TaxPercent)
			if err := s.saleRepo.UpdateLine(txCtx, line); err != nil {
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
			picking, err := s.stock.CreateDeliveryPicking(txCtx, tenantID, "sale_order", order.ID,
				order.CustomerID, order.CustomerName, stockLines)
			if err != nil {
				return err
			}
			order.PickingID = &picking.ID
		}

		order.State = model.SaleStateConfirmed
		if err := s.saleRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to confirm sale order: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant": tenantID,
			"order":  order.Number,
			"total":  order.Total.StringFixed(minorUnit),
		}).Info("sale order confirmed")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("sale_order_confirmed", map[string]interface{}{
		"order_id": order.ID.String(),
		"number":   order.Number,
	})
	return order, nil
}

// ValidateDelivery finalizes the order's delivery picking and records the
// delivered quantities. Full shipment only; qty_delivered always equals the
// ordered quantity.
func (s *saleService) ValidateDelivery(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.SaleOrder, error) {
	var order *model.SaleOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.saleRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "sale order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load sale order: %w", err)
		}
		if order.State != model.SaleStateConfirmed {
			return &InvalidStateError{Entity: "sale order", ID: order.ID.String(), State: order.State, Operation: "validate delivery"}
		}
		if order.PickingID == nil {
			return &ReferenceNotFoundError{Entity: "delivery picking", ID: order.ID.String()}
		}

		if _, err := s.stock.ValidatePicking(txCtx, tenantID, *order.PickingID); err != nil {
			var finalized *AlreadyFinalizedError
			if !errors.As(err, &finalized) {
				return err
			}
			// Picking was validated directly through the stock API; the order
			// still needs its delivery bookkeeping.
		}

		lines, err := s.saleRepo.ListLines(txCtx, tenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order lines: %w", err)
		}
		for i := range lines {
			line := &lines[i]
			line.QtyDelivered = line.Quantity
			if err := s.saleRepo.UpdateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to update delivered quantity: %w", err)
			}
		}

		order.State = model.SaleStateDone
		if err := s.saleRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to finalize sale order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CreateInvoice materializes a draft customer invoice from a confirmed or done
// order. One invoice per order; posting is a separate step.
func (s *saleService) CreateInvoice(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.AccountMove, error) {
	var move *model.AccountMove
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.saleRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "sale order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load sale order: %w", err)
		}
		if order.State != model.SaleStateConfirmed && order.State != model.SaleStateDone {
			return &InvalidStateError{Entity: "sale order", ID: order.ID.String(), State: order.State, Operation: "invoice"}
		}
		if order.InvoiceID != nil {
			return &AlreadyFinalizedError{Entity: "sale order", ID: order.ID.String(), State: "invoiced"}
		}

		lines, err := s.saleRepo.ListLines(txCtx, tenantID, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load order lines: %w", err)
		}
		if len(lines) == 0 {
			return &EmptyDocumentError{Entity: "sale order", ID: order.ID.String(), Operation: "invoice"}
		}

		now := time.Now().UTC()
		srcID := order.ID
		move = &model.AccountMove{
			MoveType:    model.MoveTypeCustomerInvoice,
			State:       model.MoveStateDraft,
			PartnerID:   order.CustomerID,
			PartnerName: order.CustomerName,
			MoveDate:    &now,
			Currency:    order.Currency,
			Ref:         order.Number,
			SourceType:  "sale_order",
			SourceID:    &srcID,
		}
		move.TenantID = tenantID
		if err := s.moveRepo.Create(txCtx, move); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		for i := range lines {
			line := &lines[i]
			invLine := &model.InvoiceLine{
				MoveID:      move.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Discount:    line.Discount,
				TaxPercent:  line.TaxPercent,
			}
			invLine.TenantID = tenantID
			if err := s.moveRepo.CreateInvoiceLine(txCtx, invLine); err != nil {
				return fmt.Errorf("failed to create invoice line: %w", err)
			}

			line.QtyInvoiced = line.Quantity
			if err := s.saleRepo.UpdateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to update invoiced quantity: %w", err)
			}
		}

		order.InvoiceID = &move.ID
		if err := s.saleRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to link invoice: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant":  tenantID,
			"order":   order.Number,
			"invoice": move.ID.String(),
		}).Info("customer invoice created")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return move, nil
}

// Cancel cancels a draft or confirmed order along with its open delivery
// picking. A delivered picking blocks nothing here; its stock effects stand.
func (s *saleService) Cancel(ctx context.Context, tenantID string, orderID uuid.UUID) (*model.SaleOrder, error) {
	var order *model.SaleOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.saleRepo.FindByIDForUpdate(txCtx, tenantID, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "sale order", ID: orderID.String()}
			}
			return fmt.Errorf("failed to load sale order: %w", err)
		}
		if order.State != model.SaleStateDraft && order.State != model.SaleStateConfirmed {
			return &InvalidStateError{Entity: "sale order", ID: order.ID.String(), State: order.State, Operation: "cancel"}
		}

		if order.PickingID != nil {
			if _, err := s.stock.CancelPicking(txCtx, tenantID, *order.PickingID); err != nil {
				var finalized *AlreadyFinalizedError
				if !errors.As(err, &finalized) {
					return err
				}
			}
		}

		order.State = model.SaleStateCancelled
		if err := s.saleRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to cancel sale order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *saleService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"event": event, "data": data})
	s.hub.Broadcast <- payload
}
