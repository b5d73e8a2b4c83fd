package ledger

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/legaldesk/legaldesk/internal/db/models"
)

// Summary is a lawyer's earnings aggregate.
type Summary struct {
	LawyerID         uint64          `json:"lawyer_id"`
	TotalEarned      decimal.Decimal `json:"total_earned"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	Version          int64           `json:"version"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func summaryFromModel(m *models.EarningsSummary) Summary {
	return Summary{
		LawyerID:         m.LawyerID,
		TotalEarned:      m.TotalEarned,
		AvailableBalance: m.AvailableBalance,
		PendingBalance:   m.PendingBalance,
		Version:          m.Version,
		UpdatedAt:        m.UpdatedAt,
	}
}

// delta is a change applied to a summary row.
type delta struct {
	earned    decimal.Decimal
	available decimal.Decimal
	pending   decimal.Decimal
}

func (d delta) zero() bool {
	return d.earned.IsZero() && d.available.IsZero() && d.pending.IsZero()
}

// statusDelta is the contribution of earnings in status s.
func statusDelta(s models.TransactionStatus, earnings decimal.Decimal) delta {
	switch s {
	case models.StatusCompleted:
		return delta{earned: earnings, available: earnings}
	case models.StatusPending:
		return delta{pending: earnings}
	default:
		return delta{}
	}
}

func (d delta) sub(o delta) delta {
	return delta{
		earned:    d.earned.Sub(o.earned),
		available: d.available.Sub(o.available),
		pending:   d.pending.Sub(o.pending),
	}
}

// ensureSummary returns the lawyer's summary row, inserting a zero row first if
// there is none. The unique index on lawyer_id turns a racing insert into a no-op.
func ensureSummary(tx *gorm.DB, lawyerID uint64) (models.EarningsSummary, error) {
	row := models.EarningsSummary{
		LawyerID:         lawyerID,
		TotalEarned:      decimal.Zero,
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lawyer_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return models.EarningsSummary{}, errors.Wrap(err, "failed to create earnings summary")
	}

	var stored models.EarningsSummary
	if err := tx.Where("lawyer_id = ?", lawyerID).First(&stored).Error; err != nil {
		return models.EarningsSummary{}, errors.Wrap(err, "failed to load earnings summary")
	}

	return stored, nil
}

// writeSummary stores values into row if nobody changed it since it was read.
func writeSummary(tx *gorm.DB, row *models.EarningsSummary, earned, available, pending decimal.Decimal) error {
	res := tx.Model(&models.EarningsSummary{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]any{
			"total_earned":      earned,
			"available_balance": available,
			"pending_balance":   pending,
			"version":           row.Version + 1,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update earnings summary")
	}

	if res.RowsAffected == 0 {
		return ErrConcurrentUpdateConflict
	}

	row.TotalEarned = earned
	row.AvailableBalance = available
	row.PendingBalance = pending
	row.Version++

	return nil
}

// applyDelta adds d to the lawyer's summary with a version check.
func applyDelta(tx *gorm.DB, lawyerID uint64, d delta) (models.EarningsSummary, error) {
	row, err := ensureSummary(tx, lawyerID)
	if err != nil {
		return models.EarningsSummary{}, err
	}

	if d.zero() {
		return row, nil
	}

	err = writeSummary(tx, &row,
		row.TotalEarned.Add(d.earned),
		row.AvailableBalance.Add(d.available),
		row.PendingBalance.Add(d.pending))

	return row, err
}

// computed is a summary derived from the transaction log.
type computed struct {
	summary      Summary
	transactions int
	violations   []Violation
}

// compute sums the lawyer's transactions. Rows are loaded in id order so the
// result does not depend on the store's scan order.
func compute(tx *gorm.DB, lawyerID uint64, tolerance decimal.Decimal) (computed, error) {
	var rows []models.Transaction

	if err := tx.Where("lawyer_id = ?", lawyerID).Order("id").Find(&rows).Error; err != nil {
		return computed{}, errors.Wrap(err, "failed to load transactions")
	}

	out := computed{
		summary: Summary{
			LawyerID:         lawyerID,
			TotalEarned:      decimal.Zero,
			AvailableBalance: decimal.Zero,
			PendingBalance:   decimal.Zero,
		},
		transactions: len(rows),
	}

	for i := range rows {
		t := &rows[i]

		d := statusDelta(t.Status, t.LawyerEarnings)
		out.summary.TotalEarned = out.summary.TotalEarned.Add(d.earned)
		out.summary.AvailableBalance = out.summary.AvailableBalance.Add(d.available)
		out.summary.PendingBalance = out.summary.PendingBalance.Add(d.pending)

		if diff := mismatch(t.Amount, t.PlatformFee, t.LawyerEarnings); diff.GreaterThan(tolerance) {
			out.violations = append(out.violations, Violation{
				TransactionID:  t.ID,
				Amount:         t.Amount,
				PlatformFee:    t.PlatformFee,
				LawyerEarnings: t.LawyerEarnings,
				Difference:     diff,
			})
		}
	}

	return out, nil
}
