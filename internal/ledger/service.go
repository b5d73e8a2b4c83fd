package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/db/models"
)

// reconcileWorkers bounds concurrent lawyers in ReconcileAll.
const reconcileWorkers = 4

// Service keeps each lawyer's earnings summary consistent with the transaction log.
type Service struct {
	db         *gorm.DB
	validate   *validator.Validate
	tolerance  decimal.Decimal
	maxRetries int
	backoff    time.Duration
}

// NewService creates a ledger over db. Zero settings fall back to the defaults.
func NewService(db *gorm.DB, cfg config.Ledger) (*Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if cfg.Tolerance == "" {
		cfg.Tolerance = config.DefaultTolerance
	}

	tolerance, err := decimal.NewFromString(cfg.Tolerance)
	if err != nil {
		return nil, errors.Wrapf(config.ErrInvalidTolerance, "value %q", cfg.Tolerance)
	}

	if tolerance.IsNegative() {
		return nil, errors.Wrapf(config.ErrInvalidTolerance, "value %q", cfg.Tolerance)
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = config.DefaultMaxRetries
	}

	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = config.DefaultRetryBackoff
	}

	return &Service{
		db:         db,
		validate:   NewValidator(),
		tolerance:  tolerance,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
	}, nil
}

// Tolerance returns the accepted gap between amount and fee plus earnings.
func (s *Service) Tolerance() decimal.Decimal {
	return s.tolerance
}

// AppendTransaction validates and stores e, and adds its earnings to the
// lawyer's summary in the same database transaction.
func (s *Service) AppendTransaction(ctx context.Context, e Entry) (models.Transaction, error) {
	if err := s.validateEntry(&e); err != nil {
		observe("append", err)

		return models.Transaction{}, err
	}

	var out models.Transaction

	err := s.inTx(ctx, "append", func(tx *gorm.DB) error {
		if err := lawyerExists(tx, e.LawyerID); err != nil {
			return err
		}

		t := models.Transaction{
			LawyerID:           e.LawyerID,
			UserID:             e.UserID,
			Amount:             e.Amount,
			PlatformFee:        e.PlatformFee,
			LawyerEarnings:     e.LawyerEarnings,
			Status:             e.Status,
			ExternalPaymentRef: e.ExternalPaymentRef,
		}

		if err := tx.Omit("Lawyer").Create(&t).Error; err != nil {
			if isDuplicate(err) {
				return errors.Wrapf(ErrDuplicatePaymentRef, "ref %s", deref(e.ExternalPaymentRef))
			}

			return errors.Wrap(err, "failed to insert transaction")
		}

		if _, err := applyDelta(tx, e.LawyerID, statusDelta(t.Status, t.LawyerEarnings)); err != nil {
			return err
		}

		out = t

		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	log.Info().Uint64("transaction_id", out.ID).Uint64("lawyer_id", out.LawyerID).
		Str("status", string(out.Status)).Str("earnings", out.LawyerEarnings.StringFixed(2)).
		Msg("transaction appended")

	return out, nil
}

// allowed lists the status changes a transaction may go through.
var allowed = map[models.TransactionStatus][]models.TransactionStatus{
	models.StatusPending:   {models.StatusCompleted, models.StatusFailed},
	models.StatusCompleted: {models.StatusRefunded},
}

func checkTransition(from, to models.TransactionStatus) error {
	next, ok := allowed[from]
	if !ok {
		return errors.Wrapf(ErrTransactionImmutable, "status %s", from)
	}

	for _, s := range next {
		if s == to {
			return nil
		}
	}

	return errors.Wrapf(ErrInvalidTransition, "%s to %s", from, to)
}

// TransitionStatus moves a transaction to status and applies the change to
// the lawyer's summary. A refund takes the earnings back out.
func (s *Service) TransitionStatus(ctx context.Context, id uint64, status models.TransactionStatus) (models.Transaction, error) {
	if !status.Valid() {
		observe("transition", ErrInvalidTransition)

		return models.Transaction{}, errors.Wrapf(ErrInvalidTransition, "unknown status %q", status)
	}

	var out models.Transaction

	err := s.inTx(ctx, "transition", func(tx *gorm.DB) error {
		var t models.Transaction
		if err := tx.First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(ErrTransactionNotFound, "id %d", id)
			}

			return errors.Wrap(err, "failed to load transaction")
		}

		if err := checkTransition(t.Status, status); err != nil {
			return err
		}

		// the status guard makes a concurrent transition of the same row lose
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", t.ID, t.Status).
			Updates(map[string]any{"status": status, "updated_at": time.Now()})
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to update transaction status")
		}

		if res.RowsAffected == 0 {
			return ErrConcurrentUpdateConflict
		}

		d := statusDelta(status, t.LawyerEarnings).sub(statusDelta(t.Status, t.LawyerEarnings))
		if _, err := applyDelta(tx, t.LawyerID, d); err != nil {
			return err
		}

		from := t.Status
		t.Status = status
		out = t

		log.Info().Uint64("transaction_id", t.ID).Uint64("lawyer_id", t.LawyerID).
			Str("from", string(from)).Str("to", string(status)).Msg("transaction status changed")

		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	return out, nil
}

// Complete confirms a pending transaction.
func (s *Service) Complete(ctx context.Context, id uint64) (models.Transaction, error) {
	return s.TransitionStatus(ctx, id, models.StatusCompleted)
}

// Fail marks a pending transaction as never settled.
func (s *Service) Fail(ctx context.Context, id uint64) (models.Transaction, error) {
	return s.TransitionStatus(ctx, id, models.StatusFailed)
}

// Refund gives a completed transaction back.
func (s *Service) Refund(ctx context.Context, id uint64) (models.Transaction, error) {
	return s.TransitionStatus(ctx, id, models.StatusRefunded)
}

// Transaction returns a single transaction.
func (s *Service) Transaction(ctx context.Context, id uint64) (models.Transaction, error) {
	var t models.Transaction

	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Transaction{}, errors.Wrapf(ErrTransactionNotFound, "id %d", id)
	}

	if err != nil {
		return models.Transaction{}, errors.Wrap(err, "failed to load transaction")
	}

	return t, nil
}

// RecomputeSummary derives the summary from the transaction log and stores it
// as the lawyer's single summary row.
func (s *Service) RecomputeSummary(ctx context.Context, lawyerID uint64) (Summary, error) {
	var out Summary

	err := s.inTx(ctx, "recompute", func(tx *gorm.DB) error {
		sum, err := s.recompute(tx, lawyerID)
		out = sum

		return err
	})

	return out, err
}

func (s *Service) recompute(tx *gorm.DB, lawyerID uint64) (Summary, error) {
	if err := lawyerExists(tx, lawyerID); err != nil {
		return Summary{}, err
	}

	c, err := compute(tx, lawyerID, s.tolerance)
	if err != nil {
		return Summary{}, err
	}

	row, err := ensureSummary(tx, lawyerID)
	if err != nil {
		return Summary{}, err
	}

	err = writeSummary(tx, &row, c.summary.TotalEarned, c.summary.AvailableBalance, c.summary.PendingBalance)
	if err != nil {
		return Summary{}, err
	}

	if err := tx.First(&row, row.ID).Error; err != nil {
		return Summary{}, errors.Wrap(err, "failed to reload earnings summary")
	}

	return summaryFromModel(&row), nil
}

// GetSummary returns the stored summary, or a zero summary when the lawyer has none yet.
func (s *Service) GetSummary(ctx context.Context, lawyerID uint64) (Summary, error) {
	db := s.db.WithContext(ctx)

	if err := lawyerExists(db, lawyerID); err != nil {
		return Summary{}, err
	}

	var row models.EarningsSummary

	err := db.Where("lawyer_id = ?", lawyerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Summary{
			LawyerID:         lawyerID,
			TotalEarned:      decimal.Zero,
			AvailableBalance: decimal.Zero,
			PendingBalance:   decimal.Zero,
		}, nil
	}

	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to load earnings summary")
	}

	return summaryFromModel(&row), nil
}

// Reconcile compares the stored summary with the transaction log. It never writes.
func (s *Service) Reconcile(ctx context.Context, lawyerID uint64) (Report, error) {
	r, err := s.reconcile(s.db.WithContext(ctx), lawyerID)
	observe("reconcile", err)

	return r, err
}

func (s *Service) reconcile(db *gorm.DB, lawyerID uint64) (Report, error) {
	if err := lawyerExists(db, lawyerID); err != nil {
		return Report{}, err
	}

	var rows []models.EarningsSummary

	if err := db.Where("lawyer_id = ?", lawyerID).Find(&rows).Error; err != nil {
		return Report{}, errors.Wrap(err, "failed to load earnings summary")
	}

	if len(rows) > 1 {
		return Report{}, errors.Wrapf(ErrDuplicateSummary, "lawyer %d has %d rows", lawyerID, len(rows))
	}

	var stored *Summary

	if len(rows) == 1 {
		sum := summaryFromModel(&rows[0])
		stored = &sum
	}

	c, err := compute(db, lawyerID, s.tolerance)
	if err != nil {
		return Report{}, err
	}

	return buildReport(lawyerID, stored, c, s.tolerance), nil
}

// Repair overwrites the stored summary with the recomputed one. The returned
// report describes the state before the repair.
func (s *Service) Repair(ctx context.Context, lawyerID uint64) (Report, error) {
	var before Report

	err := s.inTx(ctx, "repair", func(tx *gorm.DB) error {
		r, err := s.reconcile(tx, lawyerID)
		if err != nil {
			return err
		}

		before = r

		_, err = s.recompute(tx, lawyerID)

		return err
	})
	if err != nil {
		return Report{}, err
	}

	if !before.Consistent() {
		log.Warn().Uint64("lawyer_id", lawyerID).Bool("missing", before.MissingSummary).
			Int("discrepancies", len(before.Discrepancies)).Msg("earnings summary repaired")
	}

	return before, nil
}

// ReconcileAll reconciles every lawyer, in lawyer id order.
func (s *Service) ReconcileAll(ctx context.Context) ([]Report, error) {
	var ids []uint64

	if err := s.db.WithContext(ctx).Model(&models.Lawyer{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list lawyers")
	}

	reports := make([]Report, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileWorkers)

	for i, id := range ids {
		g.Go(func() error {
			r, err := s.Reconcile(gctx, id)
			if err != nil {
				return errors.Wrapf(err, "lawyer %d", id)
			}

			reports[i] = r

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

func lawyerExists(db *gorm.DB, id uint64) error {
	var n int64

	if err := db.Model(&models.Lawyer{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return errors.Wrap(err, "failed to look up lawyer")
	}

	if n == 0 {
		return errors.Wrapf(ErrLawyerNotFound, "id %d", id)
	}

	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
