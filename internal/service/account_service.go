package service

import (
	"context"
	"fmt"

	"github.com/crispincharbel-source/cierp/internal/model"
	"github.com/crispincharbel-source/cierp/internal/repository"
)

// accountDefault describes one role in the default chart-of-accounts table the
// posting engine consults. Seeded lazily on first use, never at startup.
type accountDefault struct {
	Code         string
	Name         string
	AccountType  string
	InternalType string
}

var (
	accountReceivable = accountDefault{"1200", "Accounts Receivable", model.AccountTypeAsset, model.InternalTypeReceivable}
	accountRevenue    = accountDefault{"4000", "Sales Revenue", model.AccountTypeIncome, ""}
	accountTaxPayable = accountDefault{"2200", "Sales Tax Payable", model.AccountTypeLiability, ""}
	accountPayable    = accountDefault{"2100", "Accounts Payable", model.AccountTypeLiability, model.InternalTypePayable}
	accountExpense    = accountDefault{"5000", "Cost of Goods / Expenses", model.AccountTypeExpense, ""}
	accountTaxRecv    = accountDefault{"1300", "Tax Receivable", model.AccountTypeAsset, ""}
	accountBank       = accountDefault{"1010", "Bank Account", model.AccountTypeAsset, model.InternalTypeBank}
)

// AccountService is the ledger account directory: idempotent resolve-or-create
// by code, plus the trial balance read.
type AccountService interface {
	ResolveOrCreate(ctx context.Context, tenantID, code, name, accountType, internalType string) (*model.Account, error)
	TrialBalance(ctx context.Context, tenantID string) ([]repository.TrialBalanceRow, error)
}

type accountService struct {
	accountRepo repository.AccountRepository
}

func NewAccountService(accountRepo repository.AccountRepository) AccountService {
	return &accountService{accountRepo: accountRepo}
}

// ResolveOrCreate returns the existing account for code, creating it if absent.
// A repeat call ignores the name/type arguments; they never update the row.
func (s *accountService) ResolveOrCreate(ctx context.Context, tenantID, code, name, accountType, internalType string) (*model.Account, error) {
	account, err := s.accountRepo.FindByCode(ctx, tenantID, code)
	if err == nil {
		return account, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up account %s: %w", code, err)
	}

	account = &model.Account{
		Code:         code,
		Name:         name,
		AccountType:  accountType,
		InternalType: internalType,
		IsActive:     true,
	}
	account.TenantID = tenantID
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", code, err)
	}
	return account, nil
}

// resolveDefault resolves one role from the default account table through the
// directory. Shared by invoice and payment posting.
func resolveDefault(ctx context.Context, accounts AccountService, tenantID string, def accountDefault) (*model.Account, error) {
	return accounts.ResolveOrCreate(ctx, tenantID, def.Code, def.Name, def.AccountType, def.InternalType)
}

func (s *accountService) TrialBalance(ctx context.Context, tenantID string) ([]repository.TrialBalanceRow, error) {
	rows, err := s.accountRepo.TrialBalance(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute trial balance: %w", err)
	}
	return rows, nil
}
