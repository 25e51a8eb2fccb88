package core

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("unauthenticated")

	// Returned by IdentityProvider implementations.
	ErrIdentityNotFound = errors.New("identity not found")
)
