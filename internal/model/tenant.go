package model

import (
	"github.com/google/uuid"
)

// Sequence series keys. One monotonically increasing counter per (tenant, series).
const (
	SeriesCustomerInvoice = "out_invoice"
	SeriesVendorInvoice   = "in_invoice"
	SeriesPayment         = "payment"
	SeriesSaleOrder       = "sale_order"
	SeriesPurchaseOrder   = "purchase_order"
	SeriesProductionOrder = "production_order"
	SeriesPickingIncoming = "picking_incoming"
	SeriesPickingOutgoing = "picking_outgoing"
	SeriesPickingInternal = "picking_internal"
)

// DocumentSequence backs human-readable document numbers. LastValue is advanced
// with an atomic upsert, never by counting rows.
type DocumentSequence struct {
	Base
	Series    string `gorm:"type:varchar(50);not null;index" json:"series"`
	LastValue int64  `gorm:"not null;default:0" json:"last_value"`
}

// TenantConfig pins the ids of the fixed stock locations for one tenant, so
// workflows reference stable ids instead of looking locations up by name.
// Provisioned lazily the first time a workflow needs a location.
type TenantConfig struct {
	Base
	StockLocationID      uuid.UUID `gorm:"type:uuid" json:"stock_location_id"`
	ProductionLocationID uuid.UUID `gorm:"type:uuid" json:"production_location_id"`
	CustomersLocationID  uuid.UUID `gorm:"type:uuid" json:"customers_location_id"`
	VendorsLocationID    uuid.UUID `gorm:"type:uuid" json:"vendors_location_id"`
}
