package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrUnsupportedPlan    = errors.New("unsupported plan")
	ErrServiceFailure     = errors.New("generation service failure")
	ErrPersistence        = errors.New("persistence failure")
	ErrInvalidPayment     = errors.New("invalid payment details")
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrNoSession          = errors.New("no active session")
)
