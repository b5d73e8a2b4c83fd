package models

import (
	"time"

	"gorm.io/datatypes"
)

// RoleAssignment binds a principal to a role, optionally scoped by Context
// and limited in time by ExpiresAt.
type RoleAssignment struct {
	ID uint64 `gorm:"primaryKey"`
	// PrincipalID and PrincipalType identify the principal together.
	PrincipalID   uint64        `gorm:"not null;uniqueIndex:idx_assignment_principal_role,priority:1"`
	PrincipalType PrincipalType `gorm:"type:varchar(20);not null;uniqueIndex:idx_assignment_principal_role,priority:2"`
	// RoleID is the assigned role.
	RoleID uint `gorm:"not null;uniqueIndex:idx_assignment_principal_role,priority:3"`
	Role   Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// Context holds attribute based refinements, e.g. instance scopes per resource.
	Context datatypes.JSON
	// ExpiresAt makes the assignment inert once it lies in the past.
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the assignment is inert at now.
func (a *RoleAssignment) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// TableName specifies the database table name for the RoleAssignment model.
func (RoleAssignment) TableName() string {
	return "role_assignments"
}
