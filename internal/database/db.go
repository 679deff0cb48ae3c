package database

import (
	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// tenantIndexes are the composite unique constraints gorm tags cannot express
// with the tenant column living in the embedded base. The sequence index also
// backs the ON CONFLICT upsert that allocates document numbers.
var tenantIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_document_sequences_tenant_series ON document_sequences (tenant_id, series)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_tenant_code ON accounts (tenant_id, code) WHERE is_deleted = FALSE`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_stock_quants_tenant_product_location ON stock_quants (tenant_id, product_id, location_id) WHERE is_deleted = FALSE`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_tenant_configs_tenant ON tenant_configs (tenant_id) WHERE is_deleted = FALSE`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_tenant_email ON users (tenant_id, email) WHERE is_deleted = FALSE`,
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.TenantConfig{},
		&model.DocumentSequence{},
		&model.Account{},
		&model.AccountMove{},
		&model.AccountMoveLine{},
		&model.InvoiceLine{},
		&model.Payment{},
		&model.Product{},
		&model.StockLocation{},
		&model.StockPicking{},
		&model.StockMove{},
		&model.StockQuant{},
		&model.SaleOrder{},
		&model.SaleOrderLine{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderLine{},
		&model.BOM{},
		&model.BOMLine{},
		&model.ProductionOrder{},
		&model.ProductionOrderLine{},
	); err != nil {
		logrus.WithError(err).Warn("failed to auto-migrate models")
	}

	for _, stmt := range tenantIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, err
		}
	}

	return db, nil
}
