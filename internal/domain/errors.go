package domain

import "errors"

// Sentinel error kinds callers can match with errors.Is.
var (
	ErrInvalidFill   = errors.New("domain: fill quantity is zero, negative, or exceeds remaining")
	ErrInvalidOrder  = errors.New("domain: order quantity must be positive")
	ErrEngineStopped = errors.New("domain: engine is not running")
)
