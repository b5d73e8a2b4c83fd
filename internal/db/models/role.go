package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// Roles are reference data created by administrative action.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "admin", "lawyer").
	Name string `gorm:"unique;size:100;not null"`
	// Level orders roles for display, higher is more privileged.
	// It never grants permissions on its own.
	Level int `gorm:"not null;default:0"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
