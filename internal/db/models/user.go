package models

import "time"

// User represents a client account of the marketplace.
// Authentication happens upstream; this table only anchors user principals.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active.
	Active bool
	// Email is the user's email address.
	Email string `gorm:"unique;size:255;not null"`
	// Name is the display name of the user.
	Name string `gorm:"size:200"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}
