package models

// RolePermission is a grant: the edge from a role to a permission.
// A role either has a permission or not; the pair is the primary key.
type RolePermission struct {
	// RoleID is the ID of the role in this mapping.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// PermissionID is the ID of the permission in this mapping.
	PermissionID uint `gorm:"primaryKey;column:permission_id"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// Permission is the associated permission (loaded via foreign key).
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the RolePermission model.
func (RolePermission) TableName() string {
	return "role_permissions"
}
