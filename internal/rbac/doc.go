// Package rbac is the authorization engine.
//
// A principal is a (id, type) pair; users and lawyers live in separate tables
// and their ids overlap. Principals are assigned roles, roles are granted
// permissions, and a permission is a (resource, action) pair taken from a
// closed vocabulary. An assignment may carry a context that narrows a
// resource to listed instance ids, and an expiry after which it is ignored.
//
// Checks fail closed: an unknown principal is denied, and a store failure is
// denied and reported. Only a missing principal type is a caller error.
package rbac
