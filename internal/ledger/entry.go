package ledger

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/legaldesk/legaldesk/internal/db/models"
)

// Entry is a transaction to append. Status defaults to pending.
type Entry struct {
	LawyerID           uint64                   `json:"lawyer_id" validate:"required"`
	UserID             *uint64                  `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	Amount             decimal.Decimal          `json:"amount" validate:"gt=0"`
	PlatformFee        decimal.Decimal          `json:"platform_fee" validate:"gte=0"`
	LawyerEarnings     decimal.Decimal          `json:"lawyer_earnings" validate:"gte=0"`
	Status             models.TransactionStatus `json:"status,omitempty" validate:"omitempty,oneof=pending completed failed"`
	ExternalPaymentRef *string                  `json:"external_payment_ref,omitempty" validate:"omitempty,min=1,max=255"`
}

// NewValidator returns a validator that understands decimal fields.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()

			return f
		}

		return nil
	}, decimal.Decimal{})

	return v
}

func (s *Service) validateEntry(e *Entry) error {
	if e.Status == "" {
		e.Status = models.StatusPending
	}

	if err := s.validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}

	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"amount", e.Amount},
		{"platform_fee", e.PlatformFee},
		{"lawyer_earnings", e.LawyerEarnings},
	} {
		if !f.value.Equal(f.value.Round(2)) {
			return fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidEntry, f.name)
		}
	}

	if diff := mismatch(e.Amount, e.PlatformFee, e.LawyerEarnings); diff.GreaterThan(s.tolerance) {
		return fmt.Errorf("%w: amount %s, platform fee %s, lawyer earnings %s",
			ErrAmountMismatch, e.Amount, e.PlatformFee, e.LawyerEarnings)
	}

	return nil
}

// mismatch is |amount - (fee + earnings)|.
func mismatch(amount, fee, earnings decimal.Decimal) decimal.Decimal {
	return amount.Sub(fee.Add(earnings)).Abs()
}
