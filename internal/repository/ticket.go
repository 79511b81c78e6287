package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"numbers-lottery/internal/model"
)

// Ticket operation errors.
var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrTicketNotActive = errors.New("ticket is not active")
	ErrAlreadyClaimed  = errors.New("ticket already claimed")
	ErrNothingToClaim  = errors.New("ticket has no claimable payout")
	ErrClaimExpired    = errors.New("ticket claim validity expired")
)

const ticketColumns = `
	id, serial_id, barcode, account_id, variant, draw_date, draw_time, bets,
	total_quantity, total_points, status, win_status, win_amount,
	claimed, claimed_at, valid_until, created_at, updated_at
`

// TicketRepository handles ticket persistence and the ticket-wallet
// transactions: purchase debits, cancellation refunds and claim credits all
// commit atomically with their ticket row change.
type TicketRepository struct {
	pool   *pgxpool.Pool
	wallet *WalletRepository
}

// NewTicketRepository creates a new TicketRepository instance.
func NewTicketRepository(pool *pgxpool.Pool, wallet *WalletRepository) *TicketRepository {
	return &TicketRepository{pool: pool, wallet: wallet}
}

// CreateWithDebit inserts the ticket and debits its total stake from the
// owner's wallet in one transaction. On ErrInsufficientBalance nothing is
// persisted.
func (r *TicketRepository) CreateWithDebit(ctx context.Context, t *model.Ticket) error {
	bets, err := json.Marshal(t.Bets)
	if err != nil {
		return fmt.Errorf("failed to encode bets: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := r.wallet.DebitTx(ctx, tx, t.AccountID, t.TotalPoints, model.ReasonPurchase); err != nil {
		return err
	}

	const query = `
		INSERT INTO tickets (
			serial_id, barcode, account_id, variant, draw_date, draw_time, bets,
			total_quantity, total_points, status, win_status, win_amount,
			claimed, valid_until, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, FALSE, $12, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		t.SerialID, t.Barcode, t.AccountID, t.Variant, t.DrawDate, t.DrawTime,
		bets, t.TotalQuantity, t.TotalPoints, t.Status, t.WinStatus, t.ValidUntil,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ticket purchase: %w", err)
	}
	return nil
}

// GetByID retrieves a ticket by ID.
func (r *TicketRepository) GetByID(ctx context.Context, ticketID int64) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, ticketID))
}

// GetBySerial retrieves a ticket by its serial ID.
func (r *TicketRepository) GetBySerial(ctx context.Context, serialID string) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE serial_id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, serialID))
}

// GetByBarcode retrieves a ticket by its barcode.
func (r *TicketRepository) GetByBarcode(ctx context.Context, barcode string) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE barcode = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, barcode))
}

// ListOpen returns the slot's active tickets still pending settlement.
func (r *TicketRepository) ListOpen(ctx context.Context, slot model.DrawSlot) ([]model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE variant = $1 AND draw_date = $2 AND draw_time = $3
		  AND status = $4 AND win_status = $5
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query,
		slot.Variant, slot.DrawDate, slot.DrawTime,
		model.TicketActive, model.WinPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

// ListByAccount returns an account's most recent tickets.
func (r *TicketRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

// Settle moves a ticket out of pending with a compare-and-set on its
// settlement status. Returns false when a concurrent run settled it first,
// which the engine treats as a no-op.
func (r *TicketRepository) Settle(ctx context.Context, ticketID int64, won bool, winAmount int64) (bool, error) {
	status := model.TicketLost
	winStatus := model.WinLost
	if won {
		status = model.TicketWon
		winStatus = model.WinWon
	}

	const query = `
		UPDATE tickets
		SET status = $2, win_status = $3, win_amount = $4, updated_at = NOW()
		WHERE id = $1 AND win_status = $5 AND status = $6
	`

	tag, err := r.pool.Exec(ctx, query, ticketID, status, winStatus, winAmount,
		model.WinPending, model.TicketActive)
	if err != nil {
		return false, fmt.Errorf("failed to settle ticket: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Claim credits a won ticket's payout into the owner's wallet exactly once.
// The claimed flag flip and the wallet credit commit together; two
// concurrent claims see the row lock, and the loser gets ErrAlreadyClaimed.
// Returns the payout amount and the new balance.
func (r *TicketRepository) Claim(ctx context.Context, ticketID int64) (int64, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		SELECT account_id, win_status, win_amount, claimed, valid_until
		FROM tickets
		WHERE id = $1
		FOR UPDATE
	`

	var (
		accountID  int64
		winStatus  model.WinStatus
		winAmount  int64
		claimed    bool
		validUntil time.Time
	)
	err = tx.QueryRow(ctx, query, ticketID).Scan(&accountID, &winStatus, &winAmount, &claimed, &validUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrTicketNotFound
		}
		return 0, 0, fmt.Errorf("failed to lock ticket: %w", err)
	}

	if winStatus != model.WinWon {
		return 0, 0, ErrNothingToClaim
	}
	if claimed {
		return 0, 0, ErrAlreadyClaimed
	}
	if time.Now().After(validUntil) {
		return 0, 0, ErrClaimExpired
	}

	const update = `
		UPDATE tickets
		SET claimed = TRUE, claimed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, update, ticketID); err != nil {
		return 0, 0, fmt.Errorf("failed to mark ticket claimed: %w", err)
	}

	newBalance, err := r.wallet.CreditTx(ctx, tx, accountID, winAmount, model.ReasonClaim)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit claim: %w", err)
	}
	return winAmount, newBalance, nil
}

// Cancel refunds an active, still-pending ticket and marks it cancelled.
// Returns the refunded amount and the new balance.
func (r *TicketRepository) Cancel(ctx context.Context, ticketID, accountID int64) (int64, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		UPDATE tickets
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND account_id = $2 AND status = $4 AND win_status = $5
		RETURNING total_points
	`

	var refund int64
	err = tx.QueryRow(ctx, query, ticketID, accountID,
		model.TicketCancelled, model.TicketActive, model.WinPending).Scan(&refund)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, r.classifyCancelFailure(ctx, tx, ticketID, accountID)
		}
		return 0, 0, fmt.Errorf("failed to cancel ticket: %w", err)
	}

	newBalance, err := r.wallet.CreditTx(ctx, tx, accountID, refund, model.ReasonCancelRefund)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return refund, newBalance, nil
}

func (r *TicketRepository) classifyCancelFailure(ctx context.Context, tx pgx.Tx, ticketID, accountID int64) error {
	const query = `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1 AND account_id = $2)`

	var exists bool
	if err := tx.QueryRow(ctx, query, ticketID, accountID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check ticket existence: %w", err)
	}
	if !exists {
		return ErrTicketNotFound
	}
	return ErrTicketNotActive
}

func (r *TicketRepository) scanOne(row pgx.Row) (*model.Ticket, error) {
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var (
		t    model.Ticket
		bets []byte
	)
	err := row.Scan(
		&t.ID, &t.SerialID, &t.Barcode, &t.AccountID, &t.Variant,
		&t.DrawDate, &t.DrawTime, &bets,
		&t.TotalQuantity, &t.TotalPoints, &t.Status, &t.WinStatus, &t.WinAmount,
		&t.Claimed, &t.ClaimedAt, &t.ValidUntil, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}
	if err := json.Unmarshal(bets, &t.Bets); err != nil {
		return nil, fmt.Errorf("failed to decode bets: %w", err)
	}
	return &t, nil
}
