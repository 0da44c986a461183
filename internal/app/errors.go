package service

import "errors"

// Sentinel kinds for picker session errors.
var (
	ErrSessionClosed   = errors.New("picker session closed")
	ErrSessionNotFound = errors.New("picker session not found")
	ErrTooManySessions = errors.New("too many open picker sessions")
	ErrUnknownFacet    = errors.New("unknown facet")
	ErrNotStarted      = errors.New("service not started")
	ErrNoSource        = errors.New("no content source configured")
)
