// Package models contains database model definitions.
package models

// PrincipalType discriminates the tables a principal id refers to.
// Ids are not unique across types, so an id is meaningless without its type.
type PrincipalType string

const (
	// PrincipalUser is a client account stored in the users table.
	PrincipalUser PrincipalType = "user"
	// PrincipalLawyer is a lawyer account stored in the lawyers table.
	PrincipalLawyer PrincipalType = "lawyer"
)

// Valid reports whether t is one of the known principal types.
func (t PrincipalType) Valid() bool {
	return t == PrincipalUser || t == PrincipalLawyer
}

// All returns every model the schema consists of, in migration order.
func All() []any {
	return []any{
		&User{},
		&Lawyer{},
		&Role{},
		&Permission{},
		&RolePermission{},
		&RoleAssignment{},
		&Transaction{},
		&EarningsSummary{},
	}
}
