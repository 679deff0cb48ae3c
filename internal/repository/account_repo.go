package repository

import (
	"context"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TrialBalanceRow is one account's aggregated debit/credit over posted moves.
type TrialBalanceRow struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType string          `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

type AccountRepository interface {
	FindByCode(ctx context.Context, tenantID, code string) (*model.Account, error)
	Create(ctx context.Context, account *model.Account) error
	TrialBalance(ctx context.Context, tenantID string) ([]TrialBalanceRow, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindByCode(ctx context.Context, tenantID, code string) (*model.Account, error) {
	var account model.Account
	if err := scoped(GetDB(ctx, r.db), tenantID).First(&account, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return GetDB(ctx, r.db).Create(account).Error
}

func (r *accountRepository) TrialBalance(ctx context.Context, tenantID string) ([]TrialBalanceRow, error) {
	var rows []TrialBalanceRow
	err := GetDB(ctx, r.db).
		Table("accounts").
		Select(`accounts.code, accounts.name, accounts.account_type,
			COALESCE(SUM(account_move_lines.debit), 0) AS debit,
			COALESCE(SUM(account_move_lines.credit), 0) AS credit,
			COALESCE(SUM(account_move_lines.debit), 0) - COALESCE(SUM(account_move_lines.credit), 0) AS balance`).
		Joins("JOIN account_move_lines ON account_move_lines.account_id = accounts.id").
		Joins("JOIN account_moves ON account_moves.id = account_move_lines.move_id").
		Where("accounts.tenant_id = ? AND accounts.is_deleted = ?", tenantID, false).
		Where("account_moves.state = ? AND account_moves.tenant_id = ? AND account_moves.is_deleted = ?",
			model.MoveStatePosted, tenantID, false).
		Group("accounts.id, accounts.code, accounts.name, accounts.account_type").
		Order("accounts.code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
