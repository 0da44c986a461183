package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrClosed  = errors.New("cache closed")
	ErrBackend = errors.New("cache backend failure")
)
