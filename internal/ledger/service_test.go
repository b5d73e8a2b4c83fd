package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/db"
	"github.com/legaldesk/legaldesk/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(&config.Config{DB: config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"}})
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")

	return gdb
}

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	gdb := setupTestDB(t)

	svc, err := NewService(gdb, config.Ledger{RetryBackoff: time.Millisecond})
	require.NoError(t, err)

	return svc, gdb
}

func createLawyer(t *testing.T, gdb *gorm.DB, id uint64) {
	t.Helper()

	require.NoError(t, gdb.Create(&models.Lawyer{ID: id, Active: true, Email: fmt.Sprintf("lawyer%d@example.com", id)}).Error)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(lawyerID uint64, amount, fee, earnings string, status models.TransactionStatus) Entry {
	return Entry{
		LawyerID:       lawyerID,
		Amount:         dec(amount),
		PlatformFee:    dec(fee),
		LawyerEarnings: dec(earnings),
		Status:         status,
	}
}

func assertSummary(t *testing.T, s Summary, earned, available, pending string) {
	t.Helper()

	assert.True(t, dec(earned).Equal(s.TotalEarned), "total_earned = %s, want %s", s.TotalEarned, earned)
	assert.True(t, dec(available).Equal(s.AvailableBalance), "available_balance = %s, want %s", s.AvailableBalance, available)
	assert.True(t, dec(pending).Equal(s.PendingBalance), "pending_balance = %s, want %s", s.PendingBalance, pending)
}

func summaryRows(t *testing.T, gdb *gorm.DB, lawyerID uint64) int64 {
	t.Helper()

	var n int64
	require.NoError(t, gdb.Model(&models.EarningsSummary{}).Where("lawyer_id = ?", lawyerID).Count(&n).Error)

	return n
}

func TestNewService(t *testing.T) {
	_, err := NewService(nil, config.Ledger{})
	require.ErrorIs(t, err, ErrDBNil)

	gdb := setupTestDB(t)

	_, err = NewService(gdb, config.Ledger{Tolerance: "abc"})
	require.ErrorIs(t, err, config.ErrInvalidTolerance)

	_, err = NewService(gdb, config.Ledger{Tolerance: "-1"})
	require.ErrorIs(t, err, config.ErrInvalidTolerance)

	svc, err := NewService(gdb, config.Ledger{})
	require.NoError(t, err)
	assert.True(t, dec("0.01").Equal(svc.Tolerance()))
	assert.Equal(t, config.DefaultMaxRetries, svc.maxRetries)
}

func TestAppendTransactionValidation(t *testing.T) {
	svc, gdb := setupTestService(t)
	createLawyer(t, gdb, 7)

	zero := uint64(0)
	empty := ""

	tests := []struct {
		name    string
		entry   Entry
		wantErr error
	}{
		{"fee plus earnings short of amount", entry(7, "100", "5", "94", ""), ErrAmountMismatch},
		{"fee plus earnings above amount", entry(7, "100", "5", "95.02", ""), ErrAmountMismatch},
		{"zero amount", entry(7, "0", "0", "0", ""), ErrInvalidEntry},
		{"negative fee", entry(7, "100", "-5", "105", ""), ErrInvalidEntry},
		{"negative earnings", entry(7, "10", "15", "-5", ""), ErrInvalidEntry},
		{"refunded is not an initial status", entry(7, "100", "5", "95", models.StatusRefunded), ErrInvalidEntry},
		{"unknown status", entry(7, "100", "5", "95", "settled"), ErrInvalidEntry},
		{"sub-cent amount", entry(7, "100.001", "5", "95.001", ""), ErrInvalidEntry},
		{"missing lawyer id", entry(0, "100", "5", "95", ""), ErrInvalidEntry},
		{"zero user id", Entry{LawyerID: 7, UserID: &zero, Amount: dec("1"), PlatformFee: dec("0"), LawyerEarnings: dec("1")}, ErrInvalidEntry},
		{"empty payment ref", Entry{LawyerID: 7, ExternalPaymentRef: &empty, Amount: dec("1"), PlatformFee: dec("0"), LawyerEarnings: dec("1")}, ErrInvalidEntry},
		{"unknown lawyer", entry(8, "100", "5", "95", ""), ErrLawyerNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AppendTransaction(context.Background(), tc.entry)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	var n int64
	require.NoError(t, gdb.Model(&models.Transaction{}).Count(&n).Error)
	assert.Zero(t, n, "rejected entries are never stored")
	assert.Zero(t, summaryRows(t, gdb, 7))
}

func TestPrecisionErrorNamesFirstField(t *testing.T) {
	svc, gdb := setupTestService(t)
	createLawyer(t, gdb, 7)

	for range 20 {
		_, err := svc.AppendTransaction(context.Background(), entry(7, "100.001", "5.001", "95", ""))
		require.ErrorIs(t, err, ErrInvalidEntry)
		assert.Contains(t, err.Error(), "amount has more than two decimal places")
	}
}

func TestAppendTransactionWithinTolerance(t *testing.T) {
	svc, gdb := setupTestService(t)
	createLawyer(t, gdb, 7)

	tx, err := svc.AppendTransaction(context.Background(), entry(7, "100", "5", "94.99", ""))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, tx.Status)
}

func TestAppendCompletedThenRecompute(t *testing.T) {
	svc, gdb := setupTestService(t)
	ctx := context.Background()
	createLawyer(t, gdb, 7)

	tx, err := svc.AppendTransaction(ctx, entry(7, "100", "5", "95", models.StatusCompleted))
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)

	stored, err := svc.GetSummary(ctx, 7)
	require.NoError(t, err)
	assertSummary(t, stored, "95", "95", "0")

	sum, err := svc.RecomputeSummary(ctx, 7)
	require.NoError(t, err)
	assertSummary(t, sum, "95", "95", "0")
	assert.Equal(t, uint64(7), sum.LawyerID)

	_, err = svc.Refund(ctx, tx.ID)
	require.NoError(t, err)

	sum, err = svc.RecomputeSummary(ctx, 7)
	require.NoError(t, err)
	assertSummary(t, sum, "0", "0", "0")

	_, err = svc.Complete(ctx, tx.ID)
	require.ErrorIs(t, err, ErrTransactionImmutable)
}

func TestTransitionStatus(t *testing.T) {
	svc, gdb := setupTestService(t)
	ctx := context.Background()
	createLawyer(t, gdb, 7)

	a, err := svc.AppendTransaction(ctx, entry(7, "50", "5", "45", ""))
	require.NoError(t, err)
	b, err := svc.AppendTransaction(ctx, entry(7, "20", "2", "18", ""))
	require.NoError(t, err)

	sum, err := svc.GetSummary(ctx, 7)
	require.NoError(t, err)
	assertSummary(t, sum, "0", "0", "63")

	_, err = svc.Complete(ctx, a.ID)
	require.NoError(t, err)

	sum, err = svc.GetSummary(ctx, 7)
	require.NoError(t, err)
	assertSummary(t, sum, "45", "45", "18")

	_, err = svc.Fail(ctx, b.ID)
	require.NoError(t, err)

	sum, err = svc.GetSummary(ctx, 7)
	require.NoError(t, err)
	assertSummary(t, sum, "45", "45", "0")

	tests := []struct {
		name    string
		id      uint64
		status  models.TransactionStatus
		wantErr error
	}{
		{"completed cannot fail", a.ID, models.StatusFailed, ErrInvalidTransition},
		{"completed cannot go back to pending", a.ID, models.StatusPending, ErrInvalidTransition},
		{"failed is immutable", b.ID, models.StatusCompleted, ErrTransactionImmutable},
		{"unknown status", a.ID, "settled", ErrInvalidTransition},
		{"unknown transaction", 999, models.StatusCompleted, ErrTransactionNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.TransitionStatus(ctx, tc.id, tc.status)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	got, err := svc.Transaction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	_, err = svc.Transaction(ctx, 999)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestDuplicatePaymentRef(t *testing.T) {
	svc, gdb := setupTestService(t)
	ctx := context.Background()
	createLawyer(t, gdb, 7)

	ref := "pi_123"
	e := entry(7, "100", "5", "95", models.StatusCompleted)
	e.ExternalPaymentRef = &ref

	_, err := svc.AppendTransaction(ctx, e)
	require.NoError(t, err)

	_, err = svc.AppendTransaction(ctx, e)
	require.ErrorIs(t, err, ErrDuplicatePaymentRef)

	sum, err := svc.GetSummary(ctx, 7)
	require.NoError(t, err)
	assertSummary(t, sum, "95", "95", "0")
}

func TestRecomputeIsIdempotent(t *testing.T) {
	svc, gdb := setupTestService(t)
	ctx := context.Background()
	createLawyer(t, gdb, 3)

	for _, e := range []Entry{
		entry(3, "10.10", "1.01", "9.09", models.StatusCompleted),
		entry(3, "20.20", "2.02", "18.18", models.StatusCompleted),
		entry(3, "30.30", "3.03", "27.27", ""),
		entry(3, "40.40", "4.04", "36.36", models.StatusFailed),
	} {
		_, err := svc.AppendTransaction(ctx, e)
		require.NoError(t, err)
	}

	first, err := svc.RecomputeSummary(ctx, 3)
	require.NoError(t, err)
	second, err := svc.RecomputeSummary(ctx, 3)
	require.NoError(t, err)

	assertSummary(t, first, "27.27", "27.27", "27.27")
	assertSummary(t, second, "27.27", "27.27", "27.27")
	assert.Equal(t, first.Version+1, second.Version)
	assert.Equal(t, int64(1), summaryRows(t, gdb, 3))
}

func TestRecomputeWithoutTransactions(t *testing.T) {
	svc, gdb := setupTestService(t)
	ctx := context.Background()
	createLawyer(t, gdb, 4)

	sum, err := svc.RecomputeSummary(ctx, 4)
	require.NoError(t, err)
	assertSummary(t, sum, "0", "0", "0")
	assert.Equal(t, int64(1), summaryRows(t, gdb, 4))

	_, err = svc.RecomputeSummary(ctx, 5)
	require.ErrorIs(t, err, ErrLawyerNotFound)

	_, err = svc.GetSummary(ctx, 5)
	require.ErrorIs(t, err, ErrLawyerNotFound)
}

func TestConcurrentAppendsKeepOneSummary(t *testing.T) {
	svc, gdb := setupTestService(t)
	ctx := context.Background()
	createLawyer(t, gdb, 7)

	const workers = 10

	var wg sync.WaitGroup

	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.AppendTransaction(ctx, entry(7, "10", "1", "9", models.StatusCompleted))
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), summaryRows(t, gdb, 7))

	sum, err := svc.GetSummary(ctx, 7)
	require.NoError(t, err)
	assertSummary(t, sum, "90", "90", "0")
	assert.Equal(t, int64(workers), sum.Version)
}
