// server/internal/workflow/errors.go
package workflow

import (
	"errors"
	"fmt"
)

// Error taxonomy of the order-fulfillment workflow. Handlers map these to HTTP
// status codes with errors.Is; the storage layer returns the same sentinels so
// callers never see driver-specific errors.
var (
	ErrValidation        = errors.New("validation error")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrDuplicateToken    = errors.New("request token already taken")
	ErrDuplicateDelivery = errors.New("delivery already scheduled for this request")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
