// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers to distinguish
// between different failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the addressed row does not exist (or, for
// owner-scoped operations, does not belong to the caller). Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user with the same email is already
// stored. Handlers translate it into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrMissingParent is returned when an insert or update references a row
// that does not exist, such as a feed request for a deleted dog.
var ErrMissingParent = errors.New("referenced row does not exist")
