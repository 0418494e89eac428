// Package service holds the shop's business rules between the HTTP handlers
// and the repositories.
package service

import "errors"

// ErrInvalidCredentials covers both an unknown email and a wrong password so
// callers cannot tell which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidInput is returned for requests that fail validation.  It is
// usually wrapped with the offending field.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnknownProduct is returned by checkout when a cart line names a product
// that is not in the catalog.
var ErrUnknownProduct = errors.New("unknown product")
