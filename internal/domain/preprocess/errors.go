package preprocess

import (
	"fmt"

	"github.com/okian/defscout/internal/domain/model"
)

// Sentinel kinds for preprocessing errors.
var (
	ErrMissingColumn = fmt.Errorf("%w: missing column", model.ErrInputData)
	ErrEmptySeason   = fmt.Errorf("%w: season has no qualifying players", model.ErrInputData)
	ErrEmptyResult   = fmt.Errorf("%w: no qualifying players", model.ErrInputData)
)
