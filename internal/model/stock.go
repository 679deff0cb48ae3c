package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocationType enum constants
const (
	LocationTypeInternal = "internal"
	LocationTypeCustomer = "customer"
	LocationTypeVendor   = "vendor"
	LocationTypeTransit  = "transit"
	LocationTypeVirtual  = "virtual"
)

// PickingType enum constants
const (
	PickingTypeIncoming = "incoming"
	PickingTypeOutgoing = "outgoing"
	PickingTypeInternal = "internal"
)

// StockState enum constants (pickings and moves)
const (
	StockStateDraft     = "draft"
	StockStateConfirmed = "confirmed"
	StockStateDone      = "done"
	StockStateCancelled = "cancelled"
)

// Fixed location names resolved once at tenant provisioning (see TenantConfig).
const (
	LocationNameStock      = "WH/Stock"
	LocationNameProduction = "Production"
	LocationNameCustomers  = "Customers"
	LocationNameVendors    = "Vendors"
)

// Product is an inventory item. QtyOnHand is a cached sum of quants at internal
// locations, refreshed after every quant mutation. It is a read optimization,
// not the source of truth — the quant table is.
type Product struct {
	Base
	Name         string          `gorm:"type:varchar(300);not null" json:"name"`
	Code         string          `gorm:"type:varchar(100);index" json:"code"`
	UOM          string          `gorm:"type:varchar(50);default:'pcs'" json:"uom"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cost_price"`
	SalePrice    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"sale_price"`
	QtyOnHand    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"qty_on_hand"`
	ReorderPoint decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"reorder_point"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
}

// StockLocation classifies where stock sits. The parent link forms a tree used
// only for classification (internal vs external), not nested rollups.
type StockLocation struct {
	Base
	Name         string     `gorm:"type:varchar(200);not null" json:"name"`
	LocationType string     `gorm:"type:varchar(50);not null;default:'internal'" json:"location_type"`
	ParentID     *uuid.UUID `gorm:"type:uuid" json:"parent_id"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
}

// StockPicking groups moves sharing one source/destination pair and one business
// trigger into a transfer document with its own lifecycle.
type StockPicking struct {
	Base
	Name           string      `gorm:"type:varchar(100);index" json:"name"` // e.g. OUT/2026/00001
	PickingType    string      `gorm:"type:varchar(50);not null;default:'outgoing'" json:"picking_type"`
	State          string      `gorm:"type:varchar(30);not null;default:'draft'" json:"state"`
	SourceType     string      `gorm:"type:varchar(50)" json:"source_type"` // sale_order, purchase_order, production_order
	SourceID       *uuid.UUID  `gorm:"type:uuid" json:"source_id"`
	PartnerID      *uuid.UUID  `gorm:"type:uuid" json:"partner_id"`
	PartnerName    string      `gorm:"type:varchar(300)" json:"partner_name"`
	LocationID     uuid.UUID   `gorm:"type:uuid;not null" json:"location_id"`
	LocationDestID uuid.UUID   `gorm:"type:uuid;not null" json:"location_dest_id"`
	DateDone       *time.Time  `json:"date_done"`
	Moves          []StockMove `gorm:"foreignKey:PickingID" json:"moves,omitempty"`
}

// StockMove transfers one quantity of one product between two locations.
// Once done, it has adjusted both quants by exactly QtyDone, exactly once.
type StockMove struct {
	Base
	PickingID      *uuid.UUID      `gorm:"type:uuid;index" json:"picking_id"`
	State          string          `gorm:"type:varchar(30);not null;default:'draft'" json:"state"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName    string          `gorm:"type:varchar(300)" json:"product_name"`
	LocationID     uuid.UUID       `gorm:"type:uuid;not null" json:"location_id"`
	LocationDestID uuid.UUID       `gorm:"type:uuid;not null" json:"location_dest_id"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	QtyDone        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"qty_done"`
	SourceType     string          `gorm:"type:varchar(50)" json:"source_type"`
	SourceID       *uuid.UUID      `gorm:"type:uuid" json:"source_id"`
	MoveDate       *time.Time      `json:"move_date"`
}

// StockQuant is the running on-hand quantity per (product, location) — the only
// mutable aggregate in the stock subsystem, updated incrementally on each move
// validation inside the same transaction.
type StockQuant struct {
	Base
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	LocationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"location_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
}
