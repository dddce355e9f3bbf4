package workflow

import "errors"

// Typed failures returned by the workflow engine. Handlers map these to
// HTTP statuses with errors.Is; nothing here is retried automatically.
var (
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrDuplicateApplication = errors.New("duplicate application")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrEscrowExhausted      = errors.New("escrow exhausted")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrValidation           = errors.New("validation error")
)
