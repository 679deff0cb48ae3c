package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SequenceRepository allocates the next integer in a per-(tenant, series)
// monotonic counter. A count-existing-rows approach races under concurrent
// inserts, so the counter is advanced with a single atomic upsert instead.
type SequenceRepository interface {
	Next(ctx context.Context, tenantID, series string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, tenantID, series string) (int64, error) {
	var next int64
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO document_sequences (id, tenant_id, series, last_value, created_at, updated_at, is_deleted)
		VALUES (?, ?, ?, 1, NOW(), NOW(), FALSE)
		ON CONFLICT (tenant_id, series)
		DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`,
		uuid.New(), tenantID, series,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
