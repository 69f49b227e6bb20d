package nbastats

import (
	"fmt"

	"github.com/okian/defscout/internal/domain/model"
)

// Sentinel kinds for provider errors. All of them are external fetch errors.
var (
	ErrUpstream    = fmt.Errorf("%w: stats provider", model.ErrExternalFetch)
	ErrStatus      = fmt.Errorf("%w: unexpected status", ErrUpstream)
	ErrDecode      = fmt.Errorf("%w: malformed response", ErrUpstream)
	ErrNoResultSet = fmt.Errorf("%w: response has no result set", ErrUpstream)
	ErrBreakerOpen = fmt.Errorf("%w: circuit breaker open", ErrUpstream)
)
