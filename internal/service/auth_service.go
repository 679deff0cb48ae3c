package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crispincharbel-source/cierp/internal/model"
	"github.com/crispincharbel-source/cierp/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type ProvisionTenantRequest struct {
	TenantID      string `json:"tenant_id" binding:"required"`
	AdminEmail    string `json:"admin_email" binding:"required,email"`
	AdminName     string `json:"admin_name"`
	AdminPassword string `json:"admin_password" binding:"required,min=6"`
}

type LoginRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// ErrInvalidCredentials deliberately hides whether the email or the password
// was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService provisions tenants and issues login tokens. Every token carries
// the tenant claim the rest of the API scopes by.
type AuthService interface {
	ProvisionTenant(ctx context.Context, req ProvisionTenantRequest) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
}

type authService struct {
	tenantRepo repository.TenantRepository
	stock      StockService
	txManager  repository.TransactionManager
	secret     []byte
	tokenTTL   time.Duration
}

func NewAuthService(
	tenantRepo repository.TenantRepository,
	stock StockService,
	txManager repository.TransactionManager,
	secret []byte,
) AuthService {
	return &authService{
		tenantRepo: tenantRepo,
		stock:      stock,
		txManager:  txManager,
		secret:     secret,
		tokenTTL:   24 * time.Hour,
	}
}

// ProvisionTenant sets a tenant up for first use: the fixed stock locations
// and an admin login. Provisioning twice for the same tenant is rejected on
// the admin email.
func (s *authService) ProvisionTenant(ctx context.Context, req ProvisionTenantRequest) (*model.User, error) {
	var user *model.User
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.tenantRepo.FindUserByEmail(txCtx, req.TenantID, req.AdminEmail); err == nil {
			return fmt.Errorf("user %s already exists for tenant %s", req.AdminEmail, req.TenantID)
		} else if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		if _, err := s.stock.Locations(txCtx, req.TenantID); err != nil {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user = &model.User{
			Email:    req.AdminEmail,
			Name:     req.AdminName,
			Password: string(hashed),
			Role:     "admin",
			IsActive: true,
		}
		user.TenantID = req.TenantID
		if err := s.tenantRepo.CreateUser(txCtx, user); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant": req.TenantID,
			"admin":  req.AdminEmail,
		}).Info("tenant provisioned")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.tenantRepo.FindUserByEmail(ctx, req.TenantID, req.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       user.ID.String(),
		"tenant_id": user.TenantID,
		"role":      user.Role,
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &TokenResponse{Token: signed}, nil
}
