// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"numbers-lottery/internal/engine"
	"numbers-lottery/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func testDrawSlot() model.DrawSlot {
	return model.DrawSlot{
		Variant:  model.VariantTwoDigit,
		DrawDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		DrawTime: "09:15:00 AM",
		Session:  2,
	}
}

func newTestAccount(t *testing.T, wallet *WalletRepository, balance int64) *model.Account {
	t.Helper()
	acc, err := wallet.CreateAccount(context.Background(), "test account", balance)
	require.NoError(t, err)
	return acc
}

func newTestTicket(acc *model.Account, serial string) *model.Ticket {
	slot := testDrawSlot()
	return &model.Ticket{
		SerialID:      serial,
		Barcode:       "BC-" + serial,
		AccountID:     acc.ID,
		Variant:       slot.Variant,
		DrawDate:      slot.DrawDate,
		DrawTime:      slot.DrawTime,
		Bets:          []model.Bet{{Candidate: "42", Quantity: 5, PointsPerUnit: 2}},
		TotalQuantity: 5,
		TotalPoints:   10,
		Status:        model.TicketActive,
		WinStatus:     model.WinPending,
		ValidUntil:    time.Now().Add(10 * 24 * time.Hour),
	}
}

// ledgerSum returns the sum of all ledger deltas for an account.
func ledgerSum(t *testing.T, pool *pgxpool.Pool, accountID int64) int64 {
	t.Helper()
	var sum int64
	err := pool.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&sum)
	require.NoError(t, err)
	return sum
}

// ============================================================================
// WalletRepository Tests
// ============================================================================

func TestWalletRepository_DebitCredit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 1000)

	balance, err := wallet.Debit(ctx, acc.ID, 300, model.ReasonPurchase)
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)

	balance, err = wallet.Credit(ctx, acc.ID, 200, model.ReasonClaim)
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance)

	// Balance always equals the accumulated ledger deltas.
	assert.Equal(t, balance, ledgerSum(t, pool, acc.ID))

	entries, err := wallet.ListLedger(ctx, acc.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3) // initial grant, debit, credit
	assert.Equal(t, int64(200), entries[0].Delta)
	assert.Equal(t, int64(700), entries[0].BalanceBefore)
	assert.Equal(t, int64(900), entries[0].BalanceAfter)
}

func TestWalletRepository_CreateAccountGrantLedger(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	ctx := context.Background()

	// A starting balance commits together with its grant entry, so the
	// ledger covers the balance from the very first read.
	acc := newTestAccount(t, wallet, 500)
	assert.Equal(t, acc.Balance, ledgerSum(t, pool, acc.ID))

	entries, err := wallet.ListLedger(ctx, acc.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ReasonAdjustAdd, entries[0].Reason)
	assert.Equal(t, int64(500), entries[0].Delta)
	assert.Equal(t, int64(0), entries[0].BalanceBefore)
	assert.Equal(t, int64(500), entries[0].BalanceAfter)

	// A zero starting balance writes no ledger entry.
	empty := newTestAccount(t, wallet, 0)
	entries, err = wallet.ListLedger(ctx, empty.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), ledgerSum(t, pool, empty.ID))
}

func TestWalletRepository_InsufficientBalance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 50)

	_, err := wallet.Debit(ctx, acc.ID, 100, model.ReasonPurchase)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// The failed debit leaves no trace: balance and ledger are unchanged.
	got, err := wallet.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Balance)
	assert.Equal(t, int64(50), ledgerSum(t, pool, acc.ID))
}

func TestWalletRepository_AccountNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	ctx := context.Background()

	_, err := wallet.GetAccount(ctx, 999999)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = wallet.Debit(ctx, 999999, 10, model.ReasonPurchase)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestWalletRepository_ConcurrentDebits(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 100)

	// Ten concurrent debits of 30 against a balance of 100: exactly three
	// can succeed, never more, regardless of interleaving.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := wallet.Debit(ctx, acc.ID, 30, model.ReasonPurchase); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)

	got, err := wallet.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Balance)
	assert.Equal(t, got.Balance, ledgerSum(t, pool, acc.ID))
}

// ============================================================================
// TicketRepository Tests
// ============================================================================

func TestTicketRepository_PurchaseDebitsStake(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	tickets := NewTicketRepository(pool, wallet)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 1000)

	ticket := newTestTicket(acc, "S-001")
	require.NoError(t, tickets.CreateWithDebit(ctx, ticket))
	assert.NotZero(t, ticket.ID)

	got, err := wallet.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(990), got.Balance)

	loaded, err := tickets.GetBySerial(ctx, "S-001")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, loaded.ID)
	require.Len(t, loaded.Bets, 1)
	assert.Equal(t, "42", loaded.Bets[0].Candidate)

	byBarcode, err := tickets.GetByBarcode(ctx, "BC-S-001")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, byBarcode.ID)
}

func TestTicketRepository_PurchaseInsufficientBalance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	tickets := NewTicketRepository(pool, wallet)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 5)

	err := tickets.CreateWithDebit(ctx, newTestTicket(acc, "S-002"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing persisted: no ticket, no debit.
	_, err = tickets.GetBySerial(ctx, "S-002")
	assert.ErrorIs(t, err, ErrTicketNotFound)
	got, err := wallet.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Balance)
}

func TestTicketRepository_SettleCompareAndSet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	tickets := NewTicketRepository(pool, wallet)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 1000)

	ticket := newTestTicket(acc, "S-003")
	require.NoError(t, tickets.CreateWithDebit(ctx, ticket))

	applied, err := tickets.Settle(ctx, ticket.ID, true, 900)
	require.NoError(t, err)
	assert.True(t, applied)

	// Second settlement attempt is a no-op, even with a different verdict.
	applied, err = tickets.Settle(ctx, ticket.ID, false, 0)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WinWon, got.WinStatus)
	assert.Equal(t, int64(900), got.WinAmount)
}

func TestTicketRepository_ClaimExactlyOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	tickets := NewTicketRepository(pool, wallet)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 1000)

	ticket := newTestTicket(acc, "S-004")
	require.NoError(t, tickets.CreateWithDebit(ctx, ticket))
	applied, err := tickets.Settle(ctx, ticket.ID, true, 900)
	require.NoError(t, err)
	require.True(t, applied)

	// Two concurrent claims: exactly one credit.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := tickets.Claim(ctx, ticket.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var okCount, alreadyCount int
	for err := range results {
		switch {
		case err == nil:
			okCount++
		case err == ErrAlreadyClaimed:
			alreadyCount++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, alreadyCount)

	got, err := wallet.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(990+900), got.Balance)
	assert.Equal(t, got.Balance, ledgerSum(t, pool, acc.ID))
}

func TestTicketRepository_ClaimPreconditions(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	tickets := NewTicketRepository(pool, wallet)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 1000)

	_, _, err := tickets.Claim(ctx, 999999)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	// Pending ticket has nothing to claim.
	pending := newTestTicket(acc, "S-005")
	require.NoError(t, tickets.CreateWithDebit(ctx, pending))
	_, _, err = tickets.Claim(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrNothingToClaim)

	// Lost ticket has nothing to claim either.
	lost := newTestTicket(acc, "S-006")
	require.NoError(t, tickets.CreateWithDebit(ctx, lost))
	_, err2 := tickets.Settle(ctx, lost.ID, false, 0)
	require.NoError(t, err2)
	_, _, err = tickets.Claim(ctx, lost.ID)
	assert.ErrorIs(t, err, ErrNothingToClaim)

	// Expired validity blocks the claim.
	expired := newTestTicket(acc, "S-007")
	expired.ValidUntil = time.Now().Add(-time.Hour)
	require.NoError(t, tickets.CreateWithDebit(ctx, expired))
	_, err2 = tickets.Settle(ctx, expired.ID, true, 900)
	require.NoError(t, err2)
	_, _, err = tickets.Claim(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrClaimExpired)
}

func TestTicketRepository_CancelRefund(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	tickets := NewTicketRepository(pool, wallet)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 1000)

	ticket := newTestTicket(acc, "S-008")
	require.NoError(t, tickets.CreateWithDebit(ctx, ticket))

	refund, balance, err := tickets.Cancel(ctx, ticket.ID, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), refund)
	assert.Equal(t, int64(1000), balance)

	// Cancelled tickets leave the open set and cannot cancel twice.
	open, err := tickets.ListOpen(ctx, testDrawSlot())
	require.NoError(t, err)
	assert.Empty(t, open)

	_, _, err = tickets.Cancel(ctx, ticket.ID, acc.ID)
	assert.ErrorIs(t, err, ErrTicketNotActive)

	// A settled ticket cannot be cancelled.
	settled := newTestTicket(acc, "S-009")
	require.NoError(t, tickets.CreateWithDebit(ctx, settled))
	_, err2 := tickets.Settle(ctx, settled.ID, false, 0)
	require.NoError(t, err2)
	_, _, err = tickets.Cancel(ctx, settled.ID, acc.ID)
	assert.ErrorIs(t, err, ErrTicketNotActive)
}

func TestTicketRepository_ListOpen(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	wallet := NewWalletRepository(pool)
	tickets := NewTicketRepository(pool, wallet)
	ctx := context.Background()
	acc := newTestAccount(t, wallet, 1000)

	for i := 0; i < 3; i++ {
		require.NoError(t, tickets.CreateWithDebit(ctx, newTestTicket(acc, fmt.Sprintf("S-10%d", i))))
	}

	open, err := tickets.ListOpen(ctx, testDrawSlot())
	require.NoError(t, err)
	assert.Len(t, open, 3)

	// A different slot sees nothing.
	other := testDrawSlot()
	other.DrawTime = "09:30:00 AM"
	open, err = tickets.ListOpen(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, open)
}

// ============================================================================
// ResultRepository Tests
// ============================================================================

func TestResultRepository_SaveAndQuery(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	results := NewResultRepository(pool)
	ctx := context.Background()
	slot := testDrawSlot()

	exists, err := results.Exists(ctx, slot)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, results.SaveAll(ctx, slot, engine.Outcome{"": "42"}))

	exists, err = results.Exists(ctx, slot)
	require.NoError(t, err)
	assert.True(t, exists)

	rows, err := results.GetBySlot(ctx, slot)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "42", rows[0].Outcome)
	assert.Equal(t, 2, rows[0].Session)

	// The unique index rejects a second outcome for the same slot unit.
	err = results.SaveAll(ctx, slot, engine.Outcome{"": "07"})
	assert.Error(t, err)
}

func TestResultRepository_MultiUnit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	results := NewResultRepository(pool)
	ctx := context.Background()
	slot := testDrawSlot()
	slot.Variant = model.VariantThreeDigit

	outcome := engine.Outcome{"A": "123", "B": "456", "C": "789"}
	require.NoError(t, results.SaveAll(ctx, slot, outcome))

	rows, err := results.GetBySlot(ctx, slot)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0].Unit)
	assert.Equal(t, "123", rows[0].Outcome)

	latest, err := results.ListLatest(ctx, model.VariantThreeDigit, 10)
	require.NoError(t, err)
	assert.Len(t, latest, 3)

	byDate, err := results.ListByDate(ctx, model.VariantThreeDigit, slot.DrawDate)
	require.NoError(t, err)
	assert.Len(t, byDate, 3)
}

// ============================================================================
// SettingsRepository Tests
// ============================================================================

func TestSettingsRepository_DefaultsAndUpsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	settings := NewSettingsRepository(pool)
	ctx := context.Background()

	// No stored row: variant defaults apply, game enabled.
	s, err := settings.Snapshot(ctx, model.VariantThreeDigit)
	require.NoError(t, err)
	assert.Equal(t, 60, s.TargetPayoutPercent)
	assert.True(t, s.Enabled)
	assert.InDelta(t, 0.6, s.Ratio(), 1e-9)

	_, err = settings.Upsert(ctx, model.VariantThreeDigit, 55, false)
	require.NoError(t, err)

	s, err = settings.Snapshot(ctx, model.VariantThreeDigit)
	require.NoError(t, err)
	assert.Equal(t, 55, s.TargetPayoutPercent)
	assert.False(t, s.Enabled)

	_, err = settings.Upsert(ctx, model.VariantThreeDigit, 150, true)
	assert.Error(t, err, "percent outside 0-100 is rejected")

	all, err := settings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// ============================================================================
// ManualOutcomeRepository Tests
// ============================================================================

func TestManualOutcomeRepository_ConsumeOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	manual := NewManualOutcomeRepository(pool)
	ctx := context.Background()
	slot := testDrawSlot()

	_, found, err := manual.Consume(ctx, slot)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, manual.Upsert(ctx, slot, map[string]string{"": "42"}, "operator"))

	outcome, found, err := manual.Consume(ctx, slot)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "42", outcome[""])

	// Consumed overrides are never handed out again.
	_, found, err = manual.Consume(ctx, slot)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestManualOutcomeRepository_ReplaceUnused(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	manual := NewManualOutcomeRepository(pool)
	ctx := context.Background()
	slot := testDrawSlot()

	require.NoError(t, manual.Upsert(ctx, slot, map[string]string{"": "11"}, "op1"))
	require.NoError(t, manual.Upsert(ctx, slot, map[string]string{"": "22"}, "op2"))

	outcome, found, err := manual.Consume(ctx, slot)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "22", outcome[""], "the later upsert replaces the unused override")
}
