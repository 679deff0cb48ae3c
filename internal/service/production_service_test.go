package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productionFixture struct {
	svc            ProductionService
	productionRepo *fakeProductionRepo
	stock          StockService
	stockRepo      *fakeStockRepo
}

func newProductionFixture() *productionFixture {
	productionRepo := newFakeProductionRepo()
	stockRepo := newFakeStockRepo()
	stock := NewStockService(stockRepo, newFakeTenantRepo(), newFakeSeqRepo(), fakeTx{}, nil)
	svc := NewProductionService(productionRepo, newFakeSeqRepo(), stock, fakeTx{})
	return &productionFixture{svc: svc, productionRepo: productionRepo, stock: stock, stockRepo: stockRepo}
}

// addBOM seeds a recipe yielding productQty finished units from the given
// component quantities.
func (f *productionFixture) addBOM(productID uuid.UUID, productQty decimal.Decimal, components map[uuid.UUID]decimal.Decimal) uuid.UUID {
	bom := model.BOM{ProductName: "chair", ProductQty: productQty, UOM: "pcs", IsActive: true}
	bom.ID = uuid.New()
	bom.TenantID = testTenant
	bom.ProductID = &productID
	f.productionRepo.boms[bom.ID] = bom

	for componentID, qty := range components {
		id := componentID
		line := model.BOMLine{BOMID: bom.ID, ProductID: &id, ProductName: "component", Quantity: qty, UOM: "pcs"}
		line.ID = uuid.New()
		line.TenantID = testTenant
		f.productionRepo.bomLines = append(f.productionRepo.bomLines, line)
	}
	return bom.ID
}

func TestProductionOrderLifecycle(t *testing.T) {
	f := newProductionFixture()
	chairID := f.stockRepo.addProduct(testTenant, "chair", decimal.NewFromInt(20), decimal.NewFromInt(45))
	legID := f.stockRepo.addProduct(testTenant, "leg", decimal.NewFromInt(2), decimal.NewFromInt(4))
	seatID := f.stockRepo.addProduct(testTenant, "seat", decimal.NewFromInt(8), decimal.NewFromInt(12))

	// One chair takes four legs and one seat.
	bomID := f.addBOM(chairID, decimal.NewFromInt(1), map[uuid.UUID]decimal.Decimal{
		legID:  decimal.NewFromInt(4),
		seatID: decimal.NewFromInt(1),
	})

	order, err := f.svc.CreateDraft(context.Background(), testTenant, CreateProductionOrderRequest{
		ProductID:   chairID.String(),
		ProductName: "chair",
		BOMID:       bomID.String(),
		QtyPlanned:  "5",
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	wantNumber := fmt.Sprintf("MO-%d-0001", time.Now().Year())
	if order.Number != wantNumber {
		t.Errorf("number = %q, want %q", order.Number, wantNumber)
	}

	confirmed, err := f.svc.Confirm(context.Background(), testTenant, order.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.State != model.ProductionStateConfirmed {
		t.Errorf("state = %q, want confirmed", confirmed.State)
	}
	if confirmed.ComponentPickingID == nil {
		t.Fatal("confirm created no component picking")
	}

	lines, _ := f.productionRepo.ListLines(context.Background(), testTenant, order.ID)
	if len(lines) != 2 {
		t.Fatalf("got %d component lines, want 2", len(lines))
	}
	byProduct := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, line := range lines {
		byProduct[*line.ProductID] = line.QtyPlanned
	}
	if !byProduct[legID].Equal(decimal.NewFromInt(20)) {
		t.Errorf("planned legs = %s, want 20", byProduct[legID])
	}
	if !byProduct[seatID].Equal(decimal.NewFromInt(5)) {
		t.Errorf("planned seats = %s, want 5", byProduct[seatID])
	}

	picking, err := f.stockRepo.FindPickingByID(context.Background(), testTenant, *confirmed.ComponentPickingID)
	if err != nil {
		t.Fatalf("load picking: %v", err)
	}
	if picking.PickingType != model.PickingTypeInternal {
		t.Errorf("picking type = %q, want internal", picking.PickingType)
	}
	wantPicking := fmt.Sprintf("COMP/%d/00001", time.Now().Year())
	if picking.Name != wantPicking {
		t.Errorf("picking name = %q, want %q", picking.Name, wantPicking)
	}

	done, err := f.svc.Produce(context.Background(), testTenant, order.ID)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if done.State != model.ProductionStateDone {
		t.Errorf("state = %q, want done", done.State)
	}
	if !done.QtyProduced.Equal(decimal.NewFromInt(5)) {
		t.Errorf("qty_produced = %s, want 5", done.QtyProduced)
	}
	if done.DateFinish == nil {
		t.Error("order has no finish date")
	}

	lines, _ = f.productionRepo.ListLines(context.Background(), testTenant, order.ID)
	for _, line := range lines {
		if !line.QtyConsumed.Equal(line.QtyPlanned) {
			t.Errorf("component %s consumed %s, want %s", line.ProductName, line.QtyConsumed, line.QtyPlanned)
		}
	}

	cfg, _ := f.stock.Locations(context.Background(), testTenant)
	if got := f.stockRepo.quantFor(testTenant, legID, cfg.ProductionLocationID); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("legs in production = %s, want 20", got)
	}
	if got := f.stockRepo.quantFor(testTenant, legID, cfg.StockLocationID); !got.Equal(decimal.NewFromInt(-20)) {
		t.Errorf("legs in stock = %s, want -20", got)
	}
	if got := f.stockRepo.quantFor(testTenant, chairID, cfg.StockLocationID); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("chairs in stock = %s, want 5", got)
	}
	if got := f.stockRepo.quantFor(testTenant, chairID, cfg.ProductionLocationID); !got.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("chairs in production = %s, want -5", got)
	}
}

func TestProductionConfirmScalesByBatchYield(t *testing.T) {
	f := newProductionFixture()
	tableID := f.stockRepo.addProduct(testTenant, "table", decimal.NewFromInt(30), decimal.NewFromInt(80))
	plankID := f.stockRepo.addProduct(testTenant, "plank", decimal.NewFromInt(3), decimal.NewFromInt(6))

	// The recipe yields a batch of 2 tables from 6 planks.
	bomID := f.addBOM(tableID, decimal.NewFromInt(2), map[uuid.UUID]decimal.Decimal{
		plankID: decimal.NewFromInt(6),
	})

	order, err := f.svc.CreateDraft(context.Background(), testTenant, CreateProductionOrderRequest{
		ProductID:   tableID.String(),
		ProductName: "table",
		BOMID:       bomID.String(),
		QtyPlanned:  "3",
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), testTenant, order.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	lines, _ := f.productionRepo.ListLines(context.Background(), testTenant, order.ID)
	if len(lines) != 1 {
		t.Fatalf("got %d component lines, want 1", len(lines))
	}
	// 3 tables / 2 per batch * 6 planks = 9 planks.
	if !lines[0].QtyPlanned.Equal(decimal.NewFromInt(9)) {
		t.Errorf("planned planks = %s, want 9", lines[0].QtyPlanned)
	}
}

func TestProductionConfirmRequiresBOM(t *testing.T) {
	f := newProductionFixture()
	chairID := f.stockRepo.addProduct(testTenant, "chair", decimal.NewFromInt(20), decimal.NewFromInt(45))

	order, err := f.svc.CreateDraft(context.Background(), testTenant, CreateProductionOrderRequest{
		ProductID:   chairID.String(),
		ProductName: "chair",
		QtyPlanned:  "5",
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	_, err = f.svc.Confirm(context.Background(), testTenant, order.ID)
	var notFound *ReferenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("confirm without bom error = %v, want ReferenceNotFoundError", err)
	}
}

func TestProductionGuards(t *testing.T) {
	f := newProductionFixture()
	chairID := f.stockRepo.addProduct(testTenant, "chair", decimal.NewFromInt(20), decimal.NewFromInt(45))
	legID := f.stockRepo.addProduct(testTenant, "leg", decimal.NewFromInt(2), decimal.NewFromInt(4))
	bomID := f.addBOM(chairID, decimal.NewFromInt(1), map[uuid.UUID]decimal.Decimal{
		legID: decimal.NewFromInt(4),
	})

	order, err := f.svc.CreateDraft(context.Background(), testTenant, CreateProductionOrderRequest{
		ProductID:   chairID.String(),
		ProductName: "chair",
		BOMID:       bomID.String(),
		QtyPlanned:  "1",
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	// Producing a draft order is rejected.
	_, err = f.svc.Produce(context.Background(), testTenant, order.ID)
	var badState *InvalidStateError
	if !errors.As(err, &badState) {
		t.Fatalf("produce draft error = %v, want InvalidStateError", err)
	}

	if _, err := f.svc.Confirm(context.Background(), testTenant, order.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	_, err = f.svc.Confirm(context.Background(), testTenant, order.ID)
	if !errors.As(err, &badState) {
		t.Fatalf("second confirm error = %v, want InvalidStateError", err)
	}

	if _, err := f.svc.Produce(context.Background(), testTenant, order.ID); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	_, err = f.svc.Produce(context.Background(), testTenant, order.ID)
	if !errors.As(err, &badState) {
		t.Fatalf("second produce error = %v, want InvalidStateError", err)
	}
	_, err = f.svc.Cancel(context.Background(), testTenant, order.ID)
	if !errors.As(err, &badState) {
		t.Fatalf("cancel done order error = %v, want InvalidStateError", err)
	}

	_, err = f.svc.CreateDraft(context.Background(), testTenant, CreateProductionOrderRequest{
		ProductName: "chair",
		QtyPlanned:  "-1",
	})
	if err == nil {
		t.Fatal("negative qty_planned accepted")
	}
}

func TestProductionCancelClosesPicking(t *testing.T) {
	f := newProductionFixture()
	chairID := f.stockRepo.addProduct(testTenant, "chair", decimal.NewFromInt(20), decimal.NewFromInt(45))
	legID := f.stockRepo.addProduct(testTenant, "leg", decimal.NewFromInt(2), decimal.NewFromInt(4))
	bomID := f.addBOM(chairID, decimal.NewFromInt(1), map[uuid.UUID]decimal.Decimal{
		legID: decimal.NewFromInt(4),
	})

	order, err := f.svc.CreateDraft(context.Background(), testTenant, CreateProductionOrderRequest{
		ProductID:   chairID.String(),
		ProductName: "chair",
		BOMID:       bomID.String(),
		QtyPlanned:  "2",
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), testTenant, order.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), testTenant, order.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.State != model.ProductionStateCancelled {
		t.Errorf("state = %q, want cancelled", cancelled.State)
	}
	picking, _ := f.stockRepo.FindPickingByID(context.Background(), testTenant, *cancelled.ComponentPickingID)
	if picking.State != model.StockStateCancelled {
		t.Errorf("picking state = %q, want cancelled", picking.State)
	}
	if got := f.stockRepo.quantFor(testTenant, legID, cfgStock(f)); !got.IsZero() {
		t.Errorf("cancel touched stock: quant = %s", got)
	}
}

func cfgStock(f *productionFixture) uuid.UUID {
	cfg, _ := f.stock.Locations(context.Background(), testTenant)
	return cfg.StockLocationID
}
