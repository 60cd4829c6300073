package errors

import "errors"

var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientBalance   = errors.New("insufficient credit balance")
	ErrSupplyCapExceeded     = errors.New("credit supply cap exceeded")
	ErrUnauthorizedAuthority = errors.New("caller is not the mint/burn authority")
	ErrUnauthorizedOperator  = errors.New("caller is not the transfer-from operator")
	ErrAccountNotFound       = errors.New("credit account not found")
	ErrConflict              = errors.New("credit ledger conflict")
)
