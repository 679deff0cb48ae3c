package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// scoped applies the mandatory tenant + live-row filter. Every repository read
// goes through here so no call site can forget either condition.
func scoped(db *gorm.DB, tenantID string) *gorm.DB {
	return db.Where("tenant_id = ? AND is_deleted = ?", tenantID, false)
}

// forUpdate adds a row lock for the duration of the surrounding transaction.
// State-machine guards read their document through this so concurrent
// transitions on the same row serialize.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
