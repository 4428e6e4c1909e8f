package service

import "errors"

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 99

var (
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 99")
	ErrAlreadyInWishlist = errors.New("product already in wishlist")
	ErrNotInWishlist     = errors.New("product not in wishlist")
	// ErrWriteContention is returned when a slot kept changing underneath every write attempt.
	ErrWriteContention = errors.New("slot is being modified concurrently, try again")
)
