package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleOrderState enum constants
const (
	SaleStateDraft     = "draft"
	SaleStateConfirmed = "confirmed"
	SaleStateDone      = "done"
	SaleStateCancelled = "cancelled"
)

// SaleOrder: draft -> confirmed -> done, cancellable from draft or confirmed.
// Owns at most one delivery picking and, once invoiced, references one AccountMove.
type SaleOrder struct {
	Base
	Number       string          `gorm:"type:varchar(100);index" json:"number"` // SO-2026-0001
	State        string          `gorm:"type:varchar(30);not null;default:'draft'" json:"state"`
	CustomerID   *uuid.UUID      `gorm:"type:uuid" json:"customer_id"`
	CustomerName string          `gorm:"type:varchar(300)" json:"customer_name"`
	OrderDate    *time.Time      `json:"order_date"`
	Currency     string          `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tax_amount"`
	Total        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	Notes        string          `gorm:"type:text" json:"notes"`
	PickingID    *uuid.UUID      `gorm:"type:uuid" json:"picking_id"`
	InvoiceID    *uuid.UUID      `gorm:"type:uuid" json:"invoice_id"`
	Lines        []SaleOrderLine `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

type SaleOrderLine struct {
	Base
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName string          `gorm:"type:varchar(300);not null" json:"product_name"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_price"`
	Discount    decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"discount"`
	TaxPercent  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_percent"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tax_amount"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	QtyDelivered decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"qty_delivered"`
	QtyInvoiced  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"qty_invoiced"`
}
