package model

import "errors"

// Error kinds shared by every pipeline stage. Stage packages wrap one of these
// in their own sentinels so callers can classify failures with errors.Is.
var (
	// ErrInputData marks a missing or empty column, table or population.
	ErrInputData = errors.New("input data error")
	// ErrConfiguration marks settings that cannot work with the given input.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalFetch marks a failure of the stats provider.
	ErrExternalFetch = errors.New("external fetch error")
)
