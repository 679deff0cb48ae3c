package repository

import (
	"context"

	"github.com/crispincharbel-source/cierp/internal/model"

	"gorm.io/gorm"
)

// TenantRepository holds the per-tenant provisioning records: the fixed-location
// config row and the login users seeded with it.
type TenantRepository interface {
	FindConfig(ctx context.Context, tenantID string) (*model.TenantConfig, error)
	// FindConfigForUpdate locks the config row so two concurrent first-use
	// provisioning attempts for the same tenant serialize.
	FindConfigForUpdate(ctx context.Context, tenantID string) (*model.TenantConfig, error)
	CreateConfig(ctx context.Context, config *model.TenantConfig) error

	FindUserByEmail(ctx context.Context, tenantID, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

type tenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) FindConfig(ctx context.Context, tenantID string) (*model.TenantConfig, error) {
	var config model.TenantConfig
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *tenantRepository) FindConfigForUpdate(ctx context.Context, tenantID string) (*model.TenantConfig, error) {
	var config model.TenantConfig
	if err := scoped(forUpdate(GetDB(ctx, r.db)), tenantID).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *tenantRepository) CreateConfig(ctx context.Context, config *model.TenantConfig) error {
	return GetDB(ctx, r.db).Create(config).Error
}

func (r *tenantRepository) FindUserByEmail(ctx context.Context, tenantID, email string) (*model.User, error) {
	var user model.User
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *tenantRepository) CreateUser(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}
