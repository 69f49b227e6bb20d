package cluster

import (
	"fmt"

	"github.com/okian/defscout/internal/domain/model"
)

// Sentinel kinds for clustering errors.
var (
	ErrInvalidK          = fmt.Errorf("%w: cluster count must be positive", model.ErrConfiguration)
	ErrTooManyClusters   = fmt.Errorf("%w: more clusters than players", model.ErrConfiguration)
	ErrInvalidParameters = fmt.Errorf("%w: invalid k-means parameters", model.ErrConfiguration)
	ErrUndefinedFeature  = fmt.Errorf("%w: undefined value in feature matrix", model.ErrInputData)
	ErrRaggedMatrix      = fmt.Errorf("%w: feature rows differ in length", model.ErrInputData)
)
