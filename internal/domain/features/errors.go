package features

import (
	"fmt"

	"github.com/okian/defscout/internal/domain/model"
)

// Sentinel kinds for feature engineering errors.
var (
	ErrNoMetrics     = fmt.Errorf("%w: no numeric metrics after exclusion", model.ErrInputData)
	ErrMetricMissing = fmt.Errorf("%w: metric column absent", model.ErrInputData)
	ErrEmptyWindow   = fmt.Errorf("%w: no rows in averaging window", model.ErrInputData)
	ErrInvalidWindow = fmt.Errorf("%w: averaging window must be positive", model.ErrConfiguration)
)
