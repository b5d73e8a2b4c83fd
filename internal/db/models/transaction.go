package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a ledger entry.
type TransactionStatus string

const (
	// StatusPending is a captured but unconfirmed payment.
	StatusPending TransactionStatus = "pending"
	// StatusCompleted is a confirmed payment counted as earned.
	StatusCompleted TransactionStatus = "completed"
	// StatusFailed is a payment that never settled.
	StatusFailed TransactionStatus = "failed"
	// StatusRefunded is a completed payment that was given back.
	StatusRefunded TransactionStatus = "refunded"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

// Transaction is an append-only ledger entry for a lawyer.
// Amount equals PlatformFee plus LawyerEarnings within the configured tolerance.
type Transaction struct {
	ID       uint64 `gorm:"primaryKey"`
	LawyerID uint64 `gorm:"not null;index:idx_transaction_lawyer_status,priority:1"`
	Lawyer   Lawyer `gorm:"foreignKey:LawyerID;constraint:OnDelete:RESTRICT"`
	// UserID is nil for guest and manual payments.
	UserID         *uint64           `gorm:"index"`
	Amount         decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	PlatformFee    decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	LawyerEarnings decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Status         TransactionStatus `gorm:"type:varchar(20);not null;index:idx_transaction_lawyer_status,priority:2"`
	// ExternalPaymentRef is the payment provider reference, unique when present.
	ExternalPaymentRef *string `gorm:"size:255;uniqueIndex"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the database table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}
