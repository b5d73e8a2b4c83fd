package ledger

import "errors"

var (
	// ErrInvalidEntry is returned when an entry fails field validation.
	ErrInvalidEntry = errors.New("ledger: invalid entry")

	// ErrAmountMismatch is returned when amount differs from platform fee plus
	// lawyer earnings by more than the tolerance.
	ErrAmountMismatch = errors.New("ledger: amount does not equal platform fee plus lawyer earnings")

	// ErrLawyerNotFound is returned when the lawyer id resolves to no row.
	ErrLawyerNotFound = errors.New("ledger: lawyer not found")

	// ErrTransactionNotFound is returned when a transaction id resolves to no row.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")

	// ErrDuplicatePaymentRef is returned when the external payment reference was already recorded.
	ErrDuplicatePaymentRef = errors.New("ledger: external payment reference already recorded")

	// ErrInvalidTransition is returned for a status change outside the lifecycle.
	ErrInvalidTransition = errors.New("ledger: invalid status transition")

	// ErrTransactionImmutable is returned when changing a failed or refunded transaction.
	ErrTransactionImmutable = errors.New("ledger: transaction is immutable")

	// ErrConcurrentUpdateConflict is returned when the summary row changed between
	// read and write and every retry lost the race.
	ErrConcurrentUpdateConflict = errors.New("ledger: concurrent update conflict on earnings summary")

	// ErrDuplicateSummary is returned when more than one summary row exists for a lawyer.
	ErrDuplicateSummary = errors.New("ledger: duplicate earnings summary")

	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("ledger: database connection is nil")
)
