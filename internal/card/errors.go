package card

import "errors"

var (
	ErrNotFound       = errors.New("card not found")
	ErrInvalidID      = errors.New("invalid card id")
	ErrInvalidPayload = errors.New("invalid card payload")
	ErrEmptyPatch     = errors.New("request body is empty")
	// ErrRejected is returned when the store refuses a write (duplicate key, document validation).
	ErrRejected = errors.New("card rejected by store")
	ErrNotReady = errors.New("card store not ready")
)
