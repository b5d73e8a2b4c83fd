package models

import (
	"time"

	"gorm.io/gorm"
)

// Permission represents "may perform Action on Resource".
// (Resource, Action) is the natural key; Name is a cached label kept in sync by BeforeSave.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Name is the permission identifier in resource.action format (e.g., "cases.read").
	Name string `gorm:"unique;size:160;not null"`
	// Resource is the resource this permission applies to (e.g., "cases", "ledger").
	Resource string `gorm:"size:100;not null;uniqueIndex:idx_permission_resource_action"`
	// Action is the action allowed on the resource (e.g., "read", "repair").
	Action string `gorm:"size:50;not null;uniqueIndex:idx_permission_resource_action"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// PermissionName joins resource and action into the cached label.
func PermissionName(resource, action string) string {
	return resource + "." + action
}

// BeforeSave keeps Name consistent with (Resource, Action).
func (p *Permission) BeforeSave(_ *gorm.DB) error {
	p.Name = PermissionName(p.Resource, p.Action)

	return nil
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
