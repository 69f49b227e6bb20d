package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrBackend = errors.New("cache backend failed")
)
