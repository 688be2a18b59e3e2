package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountLimit      = errors.New("maximum number of accounts reached")
	ErrSelfTransfer      = errors.New("cannot transfer to same account")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrForbidden         = errors.New("operation not permitted on this resource")
	ErrVersionConflict   = errors.New("optimistic lock conflict")
	ErrInvalidRequest    = errors.New("invalid request")
)
