// Package sink persists the final result table. Every writer is
// all-or-nothing: a failed write leaves the previous output untouched.
package sink

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
)

// Table names used by the SQL sinks and sheet names used by the spreadsheet.
const (
	ResultsTable  = "defensive_clusters"
	ClustersTable = "cluster_summaries"
)

// Sink writes a result table.
type Sink interface {
	Write(ctx context.Context, t model.ResultTable) error
	// Kind names the sink in logs and metrics.
	Kind() string
	Close() error
}

// Open selects a sink from the output settings. A non-empty dsn selects
// PostgreSQL; otherwise the extension of path decides.
func Open(ctx context.Context, path, dsn string, log logger.Logger) (Sink, error) {
	if dsn != "" {
		return NewPostgres(ctx, dsn, log)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return NewExcel(path, log), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLite(ctx, path, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOutput, path)
	}
}

func summaryHeader() []string {
	return []string{"RUN_ID", "cluster", "size", "mean_defense_score"}
}

func summaryRecord(runID string, s model.ClusterSummary) []any {
	var mean any
	if !math.IsNaN(s.MeanScore) {
		mean = s.MeanScore
	}
	return []any{runID, s.Label, s.Size, mean}
}
