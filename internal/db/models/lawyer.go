package models

import "time"

// Lawyer represents a registered lawyer accepting payments.
type Lawyer struct {
	ID uint64 `gorm:"primaryKey"`
	// UserID links the lawyer to a client account when the person has one.
	UserID    *uint64 `gorm:"index"`
	Active    bool
	Email     string `gorm:"unique;size:255;not null"`
	Name      string `gorm:"size:200"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Lawyer model.
func (Lawyer) TableName() string {
	return "lawyers"
}
