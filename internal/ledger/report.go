package ledger

import (
	"github.com/shopspring/decimal"
)

// Summary fields compared by reconciliation.
const (
	FieldTotalEarned      = "total_earned"
	FieldAvailableBalance = "available_balance"
	FieldPendingBalance   = "pending_balance"
)

// Discrepancy is a stored summary field that differs from the recomputed one.
type Discrepancy struct {
	Field      string          `json:"field"`
	Stored     decimal.Decimal `json:"stored"`
	Computed   decimal.Decimal `json:"computed"`
	Difference decimal.Decimal `json:"difference"`
}

// Violation is a transaction whose amount is not fee plus earnings.
type Violation struct {
	TransactionID  uint64          `json:"transaction_id"`
	Amount         decimal.Decimal `json:"amount"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	LawyerEarnings decimal.Decimal `json:"lawyer_earnings"`
	Difference     decimal.Decimal `json:"difference"`
}

// Report is the outcome of reconciling one lawyer.
type Report struct {
	LawyerID uint64 `json:"lawyer_id"`
	// Stored is nil when the lawyer has no summary row.
	Stored   *Summary `json:"stored,omitempty"`
	Computed Summary  `json:"computed"`
	// MissingSummary is set when transactions exist but no summary row does.
	MissingSummary bool          `json:"missing_summary"`
	Discrepancies  []Discrepancy `json:"discrepancies,omitempty"`
	Violations     []Violation   `json:"violations,omitempty"`
}

// Consistent reports whether the stored summary matches the log.
func (r *Report) Consistent() bool {
	return !r.MissingSummary && len(r.Discrepancies) == 0
}

// Clean reports whether the summary matches and every transaction satisfies the amount invariant.
func (r *Report) Clean() bool {
	return r.Consistent() && len(r.Violations) == 0
}

func buildReport(lawyerID uint64, stored *Summary, c computed, tolerance decimal.Decimal) Report {
	r := Report{
		LawyerID:   lawyerID,
		Stored:     stored,
		Computed:   c.summary,
		Violations: c.violations,
	}

	if stored == nil {
		r.MissingSummary = c.transactions > 0

		return r
	}

	fields := []struct {
		name     string
		stored   decimal.Decimal
		computed decimal.Decimal
	}{
		{FieldTotalEarned, stored.TotalEarned, c.summary.TotalEarned},
		{FieldAvailableBalance, stored.AvailableBalance, c.summary.AvailableBalance},
		{FieldPendingBalance, stored.PendingBalance, c.summary.PendingBalance},
	}

	for _, f := range fields {
		diff := f.stored.Sub(f.computed)
		if diff.Abs().GreaterThan(tolerance) {
			r.Discrepancies = append(r.Discrepancies, Discrepancy{
				Field:      f.name,
				Stored:     f.stored,
				Computed:   f.computed,
				Difference: diff,
			})
		}
	}

	return r
}
