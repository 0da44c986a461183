package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrUnknownKind = errors.New("unknown entity kind")
	ErrEmptyID     = errors.New("entity id is empty")
	ErrDuplicateID = errors.New("duplicate entity id")
)
