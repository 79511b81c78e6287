// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"numbers-lottery/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// WalletRepository handles account balances and the append-only ledger.
// Every balance mutation is a single conditional UPDATE plus its ledger
// entry in one transaction, so no observer ever sees one without the other
// and no two concurrent debits can pass the sufficiency check against a
// stale balance.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository instance.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// CreateAccount creates an account with the given starting balance. The
// account row and the initial-grant ledger entry commit together, so a
// positive balance never exists without its ledger row.
func (r *WalletRepository) CreateAccount(ctx context.Context, name string, balance int64) (*model.Account, error) {
	if balance < 0 {
		return nil, fmt.Errorf("starting balance must be non-negative")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO accounts (name, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, name, balance, created_at, updated_at
	`

	var acc model.Account
	err = tx.QueryRow(ctx, query, name, balance).Scan(
		&acc.ID, &acc.Name, &acc.Balance, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if balance > 0 {
		if err := r.insertLedger(ctx, tx, acc.ID, balance, model.ReasonAdjustAdd, 0, balance); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit account creation: %w", err)
	}
	return &acc, nil
}

// GetAccount retrieves an account by ID.
// Returns ErrAccountNotFound if the account does not exist.
func (r *WalletRepository) GetAccount(ctx context.Context, accountID int64) (*model.Account, error) {
	const query = `
		SELECT id, name, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var acc model.Account
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&acc.ID, &acc.Name, &acc.Balance, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// Debit subtracts amount from the account balance, failing with
// ErrInsufficientBalance when the balance does not cover it.
// Returns the new balance.
func (r *WalletRepository) Debit(ctx context.Context, accountID, amount int64, reason string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	newBalance, err := r.DebitTx(ctx, tx, accountID, amount, reason)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit debit: %w", err)
	}
	return newBalance, nil
}

// DebitTx performs the conditional debit inside a caller-owned transaction,
// used by ticket purchase to make the debit atomic with the ticket insert.
func (r *WalletRepository) DebitTx(ctx context.Context, tx pgx.Tx, accountID, amount int64, reason string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must be non-negative")
	}

	// Decrement-if-sufficient: the WHERE clause is the balance check, so
	// concurrent debits serialize on the row and cannot both pass against
	// a stale read.
	const query = `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`

	var newBalance int64
	err := tx.QueryRow(ctx, query, accountID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, r.classifyDebitFailure(ctx, tx, accountID)
		}
		return 0, fmt.Errorf("failed to debit account: %w", err)
	}

	if err := r.insertLedger(ctx, tx, accountID, -amount, reason, newBalance+amount, newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit adds amount to the account balance. Returns the new balance.
func (r *WalletRepository) Credit(ctx context.Context, accountID, amount int64, reason string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	newBalance, err := r.CreditTx(ctx, tx, accountID, amount, reason)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit credit: %w", err)
	}
	return newBalance, nil
}

// CreditTx performs the credit inside a caller-owned transaction, used by
// claim and cancellation to pair the credit with the ticket update.
func (r *WalletRepository) CreditTx(ctx context.Context, tx pgx.Tx, accountID, amount int64, reason string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must be non-negative")
	}

	const query = `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`

	var newBalance int64
	err := tx.QueryRow(ctx, query, accountID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to credit account: %w", err)
	}

	if err := r.insertLedger(ctx, tx, accountID, amount, reason, newBalance-amount, newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// ListLedger returns the most recent ledger entries for an account.
func (r *WalletRepository) ListLedger(ctx context.Context, accountID int64, limit int) ([]*model.LedgerEntry, error) {
	const query = `
		SELECT id, account_id, delta, reason, balance_before, balance_after, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		err := rows.Scan(
			&e.ID, &e.AccountID, &e.Delta, &e.Reason,
			&e.BalanceBefore, &e.BalanceAfter, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

// execer is the subset of pgx shared by pool and transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *WalletRepository) insertLedger(ctx context.Context, q execer, accountID, delta int64, reason string, before, after int64) error {
	const query = `
		INSERT INTO ledger_entries (account_id, delta, reason, balance_before, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	if _, err := q.Exec(ctx, query, accountID, delta, reason, before, after); err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// classifyDebitFailure distinguishes a missing account from an insufficient
// balance after the conditional update matched no row.
func (r *WalletRepository) classifyDebitFailure(ctx context.Context, tx pgx.Tx, accountID int64) error {
	const query = `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`

	var exists bool
	if err := tx.QueryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check account existence: %w", err)
	}
	if !exists {
		return ErrAccountNotFound
	}
	return ErrInsufficientBalance
}
