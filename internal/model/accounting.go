package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enum constants
const (
	AccountTypeAsset     = "asset"
	AccountTypeLiability = "liability"
	AccountTypeEquity    = "equity"
	AccountTypeIncome    = "income"
	AccountTypeExpense   = "expense"
)

// InternalType enum constants
const (
	InternalTypeReceivable = "receivable"
	InternalTypePayable    = "payable"
	InternalTypeBank       = "bank"
	InternalTypeCash       = "cash"
)

// MoveType enum constants
const (
	MoveTypeEntry           = "entry"
	MoveTypeCustomerInvoice = "out_invoice"
	MoveTypeVendorInvoice   = "in_invoice"
	MoveTypeCustomerCredit  = "out_refund"
	MoveTypeVendorCredit    = "in_refund"
	MoveTypePayment         = "payment"
)

// MoveState enum constants
const (
	MoveStateDraft     = "draft"
	MoveStatePosted    = "posted"
	MoveStateCancelled = "cancelled"
)

// PaymentState enum constants
const (
	PaymentStateNotPaid = "not_paid"
	PaymentStatePartial = "partial"
	PaymentStatePaid    = "paid"
)

// PaymentType enum constants
const (
	PaymentTypeInbound  = "inbound"
	PaymentTypeOutbound = "outbound"
)

// Account is a chart-of-accounts entry. Created lazily by the posting engine the
// first time a code is needed; soft-deleted only.
type Account struct {
	Base
	Code         string `gorm:"type:varchar(50);not null;index" json:"code"`
	Name         string `gorm:"type:varchar(300);not null" json:"name"`
	AccountType  string `gorm:"type:varchar(50);not null" json:"account_type"` // asset, liability, equity, income, expense
	InternalType string `gorm:"type:varchar(50)" json:"internal_type"`         // receivable, payable, bank, cash
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
}

// AccountMove is a journal entry. The double-entry record everything else in
// accounting hangs off. State is one-way: draft -> posted, or draft -> cancelled.
type AccountMove struct {
	Base
	Name           string            `gorm:"type:varchar(100);index" json:"name"` // human sequence, e.g. SINV-2026-0001
	MoveType       string            `gorm:"type:varchar(30);not null;default:'entry'" json:"move_type"`
	State          string            `gorm:"type:varchar(20);not null;default:'draft'" json:"state"`
	PartnerID      *uuid.UUID        `gorm:"type:uuid" json:"partner_id"`
	PartnerName    string            `gorm:"type:varchar(300)" json:"partner_name"`
	MoveDate       *time.Time        `json:"move_date"`
	Currency       string            `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Ref            string            `gorm:"type:varchar(500)" json:"ref"`
	AmountUntaxed  decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"amount_untaxed"`
	AmountTax      decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"amount_tax"`
	AmountTotal    decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"amount_total"`
	AmountResidual decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"amount_residual"`
	PaymentState   string            `gorm:"type:varchar(30);default:'not_paid'" json:"payment_state"`
	SourceType     string            `gorm:"type:varchar(50)" json:"source_type"` // sale_order, purchase_order
	SourceID       *uuid.UUID        `gorm:"type:uuid" json:"source_id"`
	Lines          []AccountMoveLine `gorm:"foreignKey:MoveID" json:"lines,omitempty"`
	InvoiceLines   []InvoiceLine     `gorm:"foreignKey:MoveID" json:"invoice_lines,omitempty"`
}

// AccountMoveLine is one debit or credit. At most one of Debit/Credit is non-zero.
// Account code and name are snapshotted at post time.
type AccountMoveLine struct {
	Base
	MoveID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"move_id"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	AccountCode string          `gorm:"type:varchar(50)" json:"account_code"`
	AccountName string          `gorm:"type:varchar(300)" json:"account_name"`
	Name        string          `gorm:"type:varchar(500)" json:"name"`
	PartnerID   *uuid.UUID      `gorm:"type:uuid" json:"partner_id"`
	PartnerName string          `gorm:"type:varchar(300)" json:"partner_name"`
	Debit       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"credit"`
	Date        *time.Time      `json:"date"`
}

// InvoiceLine is the human-facing line on a draft invoice. Subtotal, tax and total
// are recomputed from quantity/price/discount/tax on every post.
type InvoiceLine struct {
	Base
	MoveID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"move_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	ProductName string          `gorm:"type:varchar(300);not null" json:"product_name"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_price"`
	Discount    decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"discount"`    // percent
	TaxPercent  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_percent"` // percent
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tax_amount"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
}

// Payment is a customer receipt or vendor disbursement. Posting generates its own
// AccountMove and optionally reconciles against a target invoice.
type Payment struct {
	Base
	Number      string          `gorm:"type:varchar(100);index" json:"number"` // PAY-2026-0001
	PaymentType string          `gorm:"type:varchar(30);not null" json:"payment_type"`
	PartnerID   *uuid.UUID      `gorm:"type:uuid" json:"partner_id"`
	PartnerName string          `gorm:"type:varchar(300)" json:"partner_name"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
	Currency    string          `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	PaymentDate *time.Time      `json:"payment_date"`
	Memo        string          `gorm:"type:varchar(500)" json:"memo"`
	State       string          `gorm:"type:varchar(30);default:'draft'" json:"state"` // draft | posted
	InvoiceID   *uuid.UUID      `gorm:"type:uuid" json:"invoice_id"`
	MoveID      *uuid.UUID      `gorm:"type:uuid" json:"move_id"`
}
