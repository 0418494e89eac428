// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// knowing which backend produced them.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
// Handlers translate it into a 404, or into "no user" for the session gate.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user with the same lowercased email
// is already stored. Handlers should translate this into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrNameExists signals that a product or category with the same name
// (compared case-insensitively) already exists. Handlers should translate
// this into an HTTP 409 response.
var ErrNameExists = errors.New("name already exists")
