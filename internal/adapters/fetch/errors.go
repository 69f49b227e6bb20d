package fetch

import (
	"fmt"

	"github.com/okian/defscout/internal/domain/model"
)

// Sentinel kinds for fetch errors.
var (
	ErrNoSeasons = fmt.Errorf("%w: season list is empty", model.ErrConfiguration)
	ErrSeason    = fmt.Errorf("%w: season fetch failed", model.ErrExternalFetch)
)
