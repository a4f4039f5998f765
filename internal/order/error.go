package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrAlreadyTerminal   = errors.New("order already completed or cancelled")
	ErrReasonRequired    = errors.New("cancellation reason required")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrForbidden         = errors.New("actor may not perform this transition")
	ErrStoreUnavailable  = errors.New("order store unavailable")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidItem       = errors.New("invalid order item")
)
