package routing

import "errors"

var (
	ErrInvalidEntrance   = errors.New("routing: invalid entrance id")
	ErrDoubleActivation  = errors.New("routing: activation already in progress")
	ErrActivationPending = errors.New("routing: cannot deactivate while activating")
	ErrClosed            = errors.New("routing: coordinator closed")
)
