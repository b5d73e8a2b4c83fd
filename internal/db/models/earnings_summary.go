package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EarningsSummary is the materialised aggregate of a lawyer's completed and
// pending transactions. The unique index on LawyerID allows one row per lawyer;
// Version guards every update.
type EarningsSummary struct {
	ID               uint64          `gorm:"primaryKey"`
	LawyerID         uint64          `gorm:"not null;uniqueIndex"`
	Lawyer           Lawyer          `gorm:"foreignKey:LawyerID;constraint:OnDelete:CASCADE"`
	TotalEarned      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	AvailableBalance decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PendingBalance   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Version          int64           `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the database table name for the EarningsSummary model.
func (EarningsSummary) TableName() string {
	return "earnings_summaries"
}
