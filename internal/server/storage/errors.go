package storage

import "errors"

// Common storage errors
var (
	// ErrCartNotFound indicates that there is no cart with the given token
	ErrCartNotFound = errors.New("cart not found")

	// ErrCartAlreadyExists indicates that a cart with this token was already created
	ErrCartAlreadyExists = errors.New("cart already exists")

	// ErrLineNotFound indicates that the cart has no line with the given key or variant id
	ErrLineNotFound = errors.New("cart line not found")
)
