package checkout

import "errors"

var (
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition     = errors.New("illegal transition of checkout state")
	ErrOrderNotFound         = errors.New("order not found")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	// ErrIdempotencyKeyReused means the key already placed an order for a different owner.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used")
	// ErrDuplicateOrder is returned by repositories when the idempotency key is already stored.
	ErrDuplicateOrder = errors.New("order with this idempotency key already exists")
)
