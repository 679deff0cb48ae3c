package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionOrderState enum constants
const (
	ProductionStateDraft      = "draft"
	ProductionStateConfirmed  = "confirmed"
	ProductionStateInProgress = "in_progress"
	ProductionStateDone       = "done"
	ProductionStateCancelled  = "cancelled"
)

// BOM is a recipe: ProductQty units of the finished product from the component lines.
type BOM struct {
	Base
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName string          `gorm:"type:varchar(300);not null" json:"product_name"`
	ProductQty  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"product_qty"`
	UOM         string          `gorm:"type:varchar(50);default:'pcs'" json:"uom"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	Lines       []BOMLine       `gorm:"foreignKey:BOMID" json:"lines,omitempty"`
}

type BOMLine struct {
	Base
	BOMID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"bom_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName string          `gorm:"type:varchar(300);not null" json:"product_name"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"quantity"`
	UOM         string          `gorm:"type:varchar(50);default:'pcs'" json:"uom"`
}

// ProductionOrder: draft -> confirmed -> (in_progress) -> done. Confirm expands the
// BOM into component lines and reserves a consumption picking; produce consumes the
// components and receives finished goods into stock.
type ProductionOrder struct {
	Base
	Number             string                `gorm:"type:varchar(100);index" json:"number"` // MO-2026-0001
	State              string                `gorm:"type:varchar(30);not null;default:'draft'" json:"state"`
	ProductID          *uuid.UUID            `gorm:"type:uuid" json:"product_id"`
	ProductName        string                `gorm:"type:varchar(300);not null" json:"product_name"`
	BOMID              *uuid.UUID            `gorm:"type:uuid" json:"bom_id"`
	QtyPlanned         decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:1" json:"qty_planned"`
	QtyProduced        decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:0" json:"qty_produced"`
	DateFinish         *time.Time            `json:"date_finish"`
	Notes              string                `gorm:"type:text" json:"notes"`
	ComponentPickingID *uuid.UUID            `gorm:"type:uuid" json:"component_picking_id"`
	Lines              []ProductionOrderLine `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

// ProductionOrderLine tracks planned vs consumed quantity for one component.
type ProductionOrderLine struct {
	Base
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName string          `gorm:"type:varchar(300);not null" json:"product_name"`
	QtyPlanned  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"qty_planned"`
	QtyConsumed decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"qty_consumed"`
	UOM         string          `gorm:"type:varchar(50);default:'pcs'" json:"uom"`
}
