package sink

import (
	"errors"
	"fmt"

	"github.com/okian/defscout/internal/domain/model"
)

// Sentinel kinds for sink errors.
var (
	ErrUnsupportedOutput = fmt.Errorf("%w: unsupported output", model.ErrConfiguration)
	ErrWrite             = errors.New("write result table")
)
