package service

import (
	"context"

	"github.com/crispincharbel-source/cierp/internal/model"
	"github.com/crispincharbel-source/cierp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the storage contract the services
// rely on: ids assigned on create, gorm.ErrRecordNotFound on missing rows,
// tenant filtering on every read, and value-copy isolation so a mutation only
// lands when Update is called.

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// --- sequences ---

type fakeSeqRepo struct {
	counters map[string]int64
}

func newFakeSeqRepo() *fakeSeqRepo {
	return &fakeSeqRepo{counters: make(map[string]int64)}
}

func (f *fakeSeqRepo) Next(_ context.Context, tenantID, series string) (int64, error) {
	key := tenantID + "/" + series
	f.counters[key]++
	return f.counters[key], nil
}

// --- accounts ---

type fakeAccountRepo struct {
	accounts []model.Account
	rows     []repository.TrialBalanceRow
}

func (f *fakeAccountRepo) FindByCode(_ context.Context, tenantID, code string) (*model.Account, error) {
	for i := range f.accounts {
		a := f.accounts[i]
		if a.TenantID == tenantID && a.Code == code && !a.IsDeleted {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountRepo) Create(_ context.Context, account *model.Account) error {
	assignID(&account.ID)
	f.accounts = append(f.accounts, *account)
	return nil
}

func (f *fakeAccountRepo) TrialBalance(_ context.Context, _ string) ([]repository.TrialBalanceRow, error) {
	return f.rows, nil
}

// --- account moves ---

type fakeMoveRepo struct {
	moves        map[uuid.UUID]model.AccountMove
	invoiceLines []model.InvoiceLine
	moveLines    []model.AccountMoveLine
}

func newFakeMoveRepo() *fakeMoveRepo {
	return &fakeMoveRepo{moves: make(map[uuid.UUID]model.AccountMove)}
}

func (f *fakeMoveRepo) Create(_ context.Context, move *model.AccountMove) error {
	assignID(&move.ID)
	f.moves[move.ID] = *move
	return nil
}

func (f *fakeMoveRepo) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*model.AccountMove, error) {
	move, ok := f.moves[id]
	if !ok || move.TenantID != tenantID || move.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &move, nil
}

func (f *fakeMoveRepo) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.AccountMove, error) {
	return f.FindByID(ctx, tenantID, id)
}

func (f *fakeMoveRepo) Update(_ context.Context, move *model.AccountMove) error {
	f.moves[move.ID] = *move
	return nil
}

func (f *fakeMoveRepo) ListInvoiceLines(_ context.Context, tenantID string, moveID uuid.UUID) ([]model.InvoiceLine, error) {
	var out []model.InvoiceLine
	for _, line := range f.invoiceLines {
		if line.TenantID == tenantID && line.MoveID == moveID && !line.IsDeleted {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeMoveRepo) CreateInvoiceLine(_ context.Context, line *model.InvoiceLine) error {
	assignID(&line.ID)
	f.invoiceLines = append(f.invoiceLines, *line)
	return nil
}

func (f *fakeMoveRepo) UpdateInvoiceLine(_ context.Context, line *model.InvoiceLine) error {
	for i := range f.invoiceLines {
		if f.invoiceLines[i].ID == line.ID {
			f.invoiceLines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeMoveRepo) ListMoveLines(_ context.Context, tenantID string, moveID uuid.UUID) ([]model.AccountMoveLine, error) {
	var out []model.AccountMoveLine
	for _, line := range f.moveLines {
		if line.TenantID == tenantID && line.MoveID == moveID && !line.IsDeleted {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeMoveRepo) CreateMoveLine(_ context.Context, line *model.AccountMoveLine) error {
	assignID(&line.ID)
	f.moveLines = append(f.moveLines, *line)
	return nil
}

func (f *fakeMoveRepo) DeleteMoveLines(_ context.Context, tenantID string, moveID uuid.UUID) error {
	kept := f.moveLines[:0]
	for _, line := range f.moveLines {
		if !(line.TenantID == tenantID && line.MoveID == moveID) {
			kept = append(kept, line)
		}
	}
	f.moveLines = kept
	return nil
}

// --- payments ---

type fakePaymentRepo struct {
	payments map[uuid.UUID]model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]model.Payment)}
}

func (f *fakePaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	assignID(&payment.ID)
	f.payments[payment.ID] = *payment
	return nil
}

func (f *fakePaymentRepo) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*model.Payment, error) {
	payment, ok := f.payments[id]
	if !ok || payment.TenantID != tenantID || payment.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &payment, nil
}

func (f *fakePaymentRepo) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.Payment, error) {
	return f.FindByID(ctx, tenantID, id)
}

func (f *fakePaymentRepo) Update(_ context.Context, payment *model.Payment) error {
	f.payments[payment.ID] = *payment
	return nil
}

// --- stock ---

type fakeStockRepo struct {
	locations []model.StockLocation
	pickings  map[uuid.UUID]model.StockPicking
	moves     []model.StockMove
	quants    []model.StockQuant
	products  map[uuid.UUID]model.Product
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{
		pickings: make(map[uuid.UUID]model.StockPicking),
		products: make(map[uuid.UUID]model.Product),
	}
}

func (f *fakeStockRepo) FindLocationByName(_ context.Context, tenantID, name, locationType string) (*model.StockLocation, error) {
	for i := range f.locations {
		l := f.locations[i]
		if l.TenantID == tenantID && l.Name == name && l.LocationType == locationType && !l.IsDeleted {
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStockRepo) CreateLocation(_ context.Context, location *model.StockLocation) error {
	assignID(&location.ID)
	f.locations = append(f.locations, *location)
	return nil
}

func (f *fakeStockRepo) CreatePicking(_ context.Context, picking *model.StockPicking) error {
	assignID(&picking.ID)
	f.pickings[picking.ID] = *picking
	return nil
}

func (f *fakeStockRepo) FindPickingByID(_ context.Context, tenantID string, id uuid.UUID) (*model.StockPicking, error) {
	picking, ok := f.pickings[id]
	if !ok || picking.TenantID != tenantID || picking.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &picking, nil
}

func (f *fakeStockRepo) FindPickingByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.StockPicking, error) {
	return f.FindPickingByID(ctx, tenantID, id)
}

func (f *fakeStockRepo) UpdatePicking(_ context.Context, picking *model.StockPicking) error {
	f.pickings[picking.ID] = *picking
	return nil
}

func (f *fakeStockRepo) CreateMove(_ context.Context, move *model.StockMove) error {
	assignID(&move.ID)
	f.moves = append(f.moves, *move)
	return nil
}

func (f *fakeStockRepo) ListMovesByPicking(_ context.Context, tenantID string, pickingID uuid.UUID) ([]model.StockMove, error) {
	var out []model.StockMove
	for _, move := range f.moves {
		if move.TenantID == tenantID && move.PickingID != nil && *move.PickingID == pickingID && !move.IsDeleted {
			out = append(out, move)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) UpdateMove(_ context.Context, move *model.StockMove) error {
	for i := range f.moves {
		if f.moves[i].ID == move.ID {
			f.moves[i] = *move
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeStockRepo) FindQuantForUpdate(_ context.Context, tenantID string, productID, locationID uuid.UUID) (*model.StockQuant, error) {
	for i := range f.quants {
		q := f.quants[i]
		if q.TenantID == tenantID && q.ProductID == productID && q.LocationID == locationID && !q.IsDeleted {
			return &q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStockRepo) CreateQuant(_ context.Context, quant *model.StockQuant) error {
	assignID(&quant.ID)
	f.quants = append(f.quants, *quant)
	return nil
}

func (f *fakeStockRepo) UpdateQuant(_ context.Context, quant *model.StockQuant) error {
	for i := range f.quants {
		if f.quants[i].ID == quant.ID {
			f.quants[i] = *quant
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeStockRepo) SumQuantsByLocationType(_ context.Context, tenantID string, productID uuid.UUID, locationType string) (decimal.Decimal, error) {
	types := make(map[uuid.UUID]string, len(f.locations))
	for _, l := range f.locations {
		types[l.ID] = l.LocationType
	}
	total := decimal.Zero
	for _, q := range f.quants {
		if q.TenantID == tenantID && q.ProductID == productID && !q.IsDeleted && types[q.LocationID] == locationType {
			total = total.Add(q.Quantity)
		}
	}
	return total, nil
}

func (f *fakeStockRepo) FindProductByID(_ context.Context, tenantID string, id uuid.UUID) (*model.Product, error) {
	product, ok := f.products[id]
	if !ok || product.TenantID != tenantID || product.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &product, nil
}

func (f *fakeStockRepo) UpdateProduct(_ context.Context, product *model.Product) error {
	f.products[product.ID] = *product
	return nil
}

func (f *fakeStockRepo) ListProducts(_ context.Context, tenantID string) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.TenantID == tenantID && !p.IsDeleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) addProduct(tenantID, name string, cost, sale decimal.Decimal) uuid.UUID {
	p := model.Product{Name: name, Code: name, UOM: "pcs", CostPrice: cost, SalePrice: sale, IsActive: true}
	p.ID = uuid.New()
	p.TenantID = tenantID
	f.products[p.ID] = p
	return p.ID
}

func (f *fakeStockRepo) quantFor(tenantID string, productID, locationID uuid.UUID) decimal.Decimal {
	for _, q := range f.quants {
		if q.TenantID == tenantID && q.ProductID == productID && q.LocationID == locationID {
			return q.Quantity
		}
	}
	return decimal.Zero
}

// --- tenants ---

type fakeTenantRepo struct {
	configs map[string]model.TenantConfig
	users   []model.User
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{configs: make(map[string]model.TenantConfig)}
}

func (f *fakeTenantRepo) FindConfig(_ context.Context, tenantID string) (*model.TenantConfig, error) {
	cfg, ok := f.configs[tenantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &cfg, nil
}

func (f *fakeTenantRepo) FindConfigForUpdate(ctx context.Context, tenantID string) (*model.TenantConfig, error) {
	return f.FindConfig(ctx, tenantID)
}

func (f *fakeTenantRepo) CreateConfig(_ context.Context, config *model.TenantConfig) error {
	assignID(&config.ID)
	f.configs[config.TenantID] = *config
	return nil
}

func (f *fakeTenantRepo) FindUserByEmail(_ context.Context, tenantID, email string) (*model.User, error) {
	for i := range f.users {
		u := f.users[i]
		if u.TenantID == tenantID && u.Email == email && !u.IsDeleted {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTenantRepo) CreateUser(_ context.Context, user *model.User) error {
	assignID(&user.ID)
	f.users = append(f.users, *user)
	return nil
}

// --- sale orders ---

type fakeSaleRepo struct {
	orders map[uuid.UUID]model.SaleOrder
	lines  []model.SaleOrderLine
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{orders: make(map[uuid.UUID]model.SaleOrder)}
}

func (f *fakeSaleRepo) Create(_ context.Context, order *model.SaleOrder) error {
	assignID(&order.ID)
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeSaleRepo) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*model.SaleOrder, error) {
	order, ok := f.orders[id]
	if !ok || order.TenantID != tenantID || order.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	order.Lines = nil
	return &order, nil
}

func (f *fakeSaleRepo) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.SaleOrder, error) {
	return f.FindByID(ctx, tenantID, id)
}

func (f *fakeSaleRepo) Update(_ context.Context, order *model.SaleOrder) error {
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeSaleRepo) ListLines(_ context.Context, tenantID string, orderID uuid.UUID) ([]model.SaleOrderLine, error) {
	var out []model.SaleOrderLine
	for _, line := range f.lines {
		if line.TenantID == tenantID && line.OrderID == orderID && !line.IsDeleted {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeSaleRepo) CreateLine(_ context.Context, line *model.SaleOrderLine) error {
	assignID(&line.ID)
	f.lines = append(f.lines, *line)
	return nil
}

func (f *fakeSaleRepo) UpdateLine(_ context.Context, line *model.SaleOrderLine) error {
	for i := range f.lines {
		if f.lines[i].ID == line.ID {
			f.lines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// --- purchase orders ---

type fakePurchaseRepo struct {
	orders map[uuid.UUID]model.PurchaseOrder
	lines  []model.PurchaseOrderLine
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{orders: make(map[uuid.UUID]model.PurchaseOrder)}
}

func (f *fakePurchaseRepo) Create(_ context.Context, order *model.PurchaseOrder) error {
	assignID(&order.ID)
	f.orders[order.ID] = *order
	return nil
}

func (f *fakePurchaseRepo) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, ok := f.orders[id]
	if !ok || order.TenantID != tenantID || order.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	order.Lines = nil
	return &order, nil
}

func (f *fakePurchaseRepo) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.PurchaseOrder, error) {
	return f.FindByID(ctx, tenantID, id)
}

func (f *fakePurchaseRepo) Update(_ context.Context, order *model.PurchaseOrder) error {
	f.orders[order.ID] = *order
	return nil
}

func (f *fakePurchaseRepo) ListLines(_ context.Context, tenantID string, orderID uuid.UUID) ([]model.PurchaseOrderLine, error) {
	var out []model.PurchaseOrderLine
	for _, line := range f.lines {
		if line.TenantID == tenantID && line.OrderID == orderID && !line.IsDeleted {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) CreateLine(_ context.Context, line *model.PurchaseOrderLine) error {
	assignID(&line.ID)
	f.lines = append(f.lines, *line)
	return nil
}

func (f *fakePurchaseRepo) UpdateLine(_ context.Context, line *model.PurchaseOrderLine) error {
	for i := range f.lines {
		if f.lines[i].ID == line.ID {
			f.lines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// --- production ---

type fakeProductionRepo struct {
	orders   map[uuid.UUID]model.ProductionOrder
	lines    []model.ProductionOrderLine
	boms     map[uuid.UUID]model.BOM
	bomLines []model.BOMLine
}

func newFakeProductionRepo() *fakeProductionRepo {
	return &fakeProductionRepo{
		orders: make(map[uuid.UUID]model.ProductionOrder),
		boms:   make(map[uuid.UUID]model.BOM),
	}
}

func (f *fakeProductionRepo) Create(_ context.Context, order *model.ProductionOrder) error {
	assignID(&order.ID)
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeProductionRepo) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*model.ProductionOrder, error) {
	order, ok := f.orders[id]
	if !ok || order.TenantID != tenantID || order.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	order.Lines = nil
	return &order, nil
}

func (f *fakeProductionRepo) FindByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.ProductionOrder, error) {
	return f.FindByID(ctx, tenantID, id)
}

func (f *fakeProductionRepo) Update(_ context.Context, order *model.ProductionOrder) error {
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeProductionRepo) ListLines(_ context.Context, tenantID string, orderID uuid.UUID) ([]model.ProductionOrderLine, error) {
	var out []model.ProductionOrderLine
	for _, line := range f.lines {
		if line.TenantID == tenantID && line.OrderID == orderID && !line.IsDeleted {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeProductionRepo) CreateLine(_ context.Context, line *model.ProductionOrderLine) error {
	assignID(&line.ID)
	f.lines = append(f.lines, *line)
	return nil
}

func (f *fakeProductionRepo) UpdateLine(_ context.Context, line *model.ProductionOrderLine) error {
	for i := range f.lines {
		if f.lines[i].ID == line.ID {
			f.lines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeProductionRepo) DeleteLines(_ context.Context, tenantID string, orderID uuid.UUID) error {
	kept := f.lines[:0]
	for _, line := range f.lines {
		if !(line.TenantID == tenantID && line.OrderID == orderID) {
			kept = append(kept, line)
		}
	}
	f.lines = kept
	return nil
}

func (f *fakeProductionRepo) FindBOMByID(_ context.Context, tenantID string, id uuid.UUID) (*model.BOM, error) {
	bom, ok := f.boms[id]
	if !ok || bom.TenantID != tenantID || bom.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	bom.Lines = nil
	return &bom, nil
}

func (f *fakeProductionRepo) ListBOMLines(_ context.Context, tenantID string, bomID uuid.UUID) ([]model.BOMLine, error) {
	var out []model.BOMLine
	for _, line := range f.bomLines {
		if line.TenantID == tenantID && line.BOMID == bomID && !line.IsDeleted {
			out = append(out, line)
		}
	}
	return out, nil
}
