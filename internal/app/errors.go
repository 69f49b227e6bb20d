package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrRefreshInProgress = errors.New("refresh already in progress")
	ErrNotStarted        = errors.New("service not started")
)
