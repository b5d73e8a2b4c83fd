package rbac

import (
	"strconv"

	"github.com/legaldesk/legaldesk/internal/db/models"
)

// Principal is an authenticated actor. Ids are only unique per type, so the
// pair (ID, Type) is the identity.
type Principal struct {
	ID   uint64               `json:"id"`
	Type models.PrincipalType `json:"type"`
}

// User returns the user principal with the given id.
func User(id uint64) Principal {
	return Principal{ID: id, Type: models.PrincipalUser}
}

// Lawyer returns the lawyer principal with the given id.
func Lawyer(id uint64) Principal {
	return Principal{ID: id, Type: models.PrincipalLawyer}
}

// Validate reports ErrMissingType or ErrInvalidPrincipalType.
func (p Principal) Validate() error {
	if p.Type == "" {
		return ErrMissingType
	}

	if !p.Type.Valid() {
		return ErrInvalidPrincipalType
	}

	return nil
}

func (p Principal) String() string {
	return string(p.Type) + ":" + strconv.FormatUint(p.ID, 10)
}
