package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderState enum constants
const (
	PurchaseStateDraft     = "draft"
	PurchaseStateSent      = "sent"
	PurchaseStateConfirmed = "confirmed"
	PurchaseStateReceived  = "received"
	PurchaseStateBilled    = "billed"
	PurchaseStateCancelled = "cancelled"
)

// PurchaseOrder: draft/sent -> confirmed -> received -> billed.
type PurchaseOrder struct {
	Base
	Number       string              `gorm:"type:varchar(100);index" json:"number"` // PO-2026-0001
	State        string              `gorm:"type:varchar(30);not null;default:'draft'" json:"state"`
	SupplierID   *uuid.UUID          `gorm:"type:uuid" json:"supplier_id"`
	SupplierName string              `gorm:"type:varchar(300)" json:"supplier_name"`
	OrderDate    *time.Time          `json:"order_date"`
	Currency     string              `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Subtotal     decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	TaxAmount    decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"tax_amount"`
	Total        decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	Notes        string              `gorm:"type:text" json:"notes"`
	PickingID    *uuid.UUID          `gorm:"type:uuid" json:"picking_id"`
	InvoiceID    *uuid.UUID          `gorm:"type:uuid" json:"invoice_id"` // vendor bill
	Lines        []PurchaseOrderLine `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

// PurchaseOrderLine has no discount field (purchasing buys at the agreed price).
type PurchaseOrderLine struct {
	Base
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName string          `gorm:"type:varchar(300);not null" json:"product_name"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_price"`
	TaxPercent  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_percent"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tax_amount"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	QtyReceived decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"qty_received"`
	QtyBilled   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"qty_billed"`
}
