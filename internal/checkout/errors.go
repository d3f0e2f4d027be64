package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidAddress     = errors.New("address is incomplete")
	ErrInsufficientStock  = errors.New("insufficient stock for order")
	ErrOrderNotFound      = errors.New("order not found")
	ErrIdempotencyKeyMiss = errors.New("idempotency key not found")
)
