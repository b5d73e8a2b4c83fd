package rbac

import "errors"

var (
	// ErrMissingType is returned when a principal carries no type discriminator.
	// It is a caller error; no default type is ever assumed.
	ErrMissingType = errors.New("rbac: principal type is required")

	// ErrInvalidPrincipalType is returned for a type other than user or lawyer.
	ErrInvalidPrincipalType = errors.New("rbac: unknown principal type")

	// ErrPrincipalNotFound is returned by administrative operations when (id, type)
	// resolves to no row. Authorization turns it into a deny instead.
	ErrPrincipalNotFound = errors.New("rbac: principal not found")

	// ErrInvalidCapability is returned when a resource or action is empty or malformed.
	ErrInvalidCapability = errors.New("rbac: invalid capability")

	// ErrUnknownCapability is returned when a (resource, action) pair is outside the vocabulary.
	ErrUnknownCapability = errors.New("rbac: capability not in vocabulary")

	// ErrVocabularyRequired is returned when an engine is built without a vocabulary.
	ErrVocabularyRequired = errors.New("rbac: vocabulary is required")

	// ErrRoleNameEmpty is returned when a role is created without a name.
	ErrRoleNameEmpty = errors.New("rbac: role name cannot be empty")

	// ErrRoleNotFound is returned when a role name resolves to no row.
	ErrRoleNotFound = errors.New("rbac: role not found")

	// ErrGrantNotFound is returned when revoking a grant the role does not have.
	ErrGrantNotFound = errors.New("rbac: grant not found")

	// ErrAssignmentNotFound is returned when removing an assignment that does not exist.
	ErrAssignmentNotFound = errors.New("rbac: assignment not found")

	// ErrInvalidContext is returned when an assignment context can not be stored.
	ErrInvalidContext = errors.New("rbac: invalid assignment context")

	// ErrAccessDenied is returned by Enforce when the decision is a deny.
	ErrAccessDenied = errors.New("rbac: access denied")

	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("rbac: database connection is nil")
)
