package repository

import "errors"

// Sentinel kinds for form store errors.
var (
	ErrInvalidField = errors.New("invalid form field reference")
	ErrInvalidValue = errors.New("invalid form field value")
	ErrClosed       = errors.New("form store closed")
)
