package token

import "errors"

// Every mutating operation is all-or-nothing: when any of these is
// returned, no partial state change has been committed.
var (
	ErrInvalidConfig       = errors.New("invalid ledger configuration")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("payment record not found")
)
