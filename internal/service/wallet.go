package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"numbers-lottery/internal/model"
	"numbers-lottery/internal/repository"
)

// Wallet operation errors.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
)

// WalletService handles account and balance operations.
type WalletService struct {
	wallet *repository.WalletRepository
}

// NewWalletService creates a new WalletService instance.
func NewWalletService(wallet *repository.WalletRepository) *WalletService {
	return &WalletService{wallet: wallet}
}

// CreateAccount creates a wallet account with a starting balance.
func (s *WalletService) CreateAccount(ctx context.Context, name string, balance int64) (*model.Account, error) {
	if balance < 0 {
		return nil, ErrInvalidAmount
	}
	acc, err := s.wallet.CreateAccount(ctx, name, balance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.Info().Int64("account_id", acc.ID).Int64("balance", acc.Balance).Msg("Account created")
	return acc, nil
}

// GetAccount retrieves an account by ID.
func (s *WalletService) GetAccount(ctx context.Context, accountID int64) (*model.Account, error) {
	return s.wallet.GetAccount(ctx, accountID)
}

// Adjust applies an operator balance adjustment. Positive amounts credit,
// negative amounts debit with the sufficiency check. Returns the new
// balance.
func (s *WalletService) Adjust(ctx context.Context, accountID, amount int64) (int64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	var (
		balance int64
		err     error
	)
	if amount > 0 {
		balance, err = s.wallet.Credit(ctx, accountID, amount, model.ReasonAdjustAdd)
	} else {
		balance, err = s.wallet.Debit(ctx, accountID, -amount, model.ReasonAdjustSub)
	}
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64("account_id", accountID).
		Int64("amount", amount).
		Int64("balance", balance).
		Msg("Balance adjusted")
	return balance, nil
}

// ListLedger returns the most recent ledger entries for an account.
func (s *WalletService) ListLedger(ctx context.Context, accountID int64, limit int) ([]*model.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.wallet.ListLedger(ctx, accountID, limit)
}
