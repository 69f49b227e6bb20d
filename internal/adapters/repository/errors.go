package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("player not found")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	ErrNoSnapshot     = errors.New("no run has been published yet")
	ErrUnknownCluster = errors.New("unknown cluster label")
)
