package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Excel writes the result table to an .xlsx workbook with a results sheet
// and a cluster summary sheet.
type Excel struct {
	path string
	log  logger.Logger
}

// NewExcel creates an Excel sink writing to path.
func NewExcel(path string, log logger.Logger) *Excel {
	if log == nil {
		log = logger.Get().Named("sink")
	}
	return &Excel{path: path, log: log}
}

// Kind implements Sink.
func (e *Excel) Kind() string { return "xlsx" }

// Close implements Sink.
func (e *Excel) Close() error { return nil }

// Write builds the workbook in a temporary file next to the target and
// renames it into place.
func (e *Excel) Write(ctx context.Context, t model.ResultTable) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ResultsTable); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := writeSheet(f, ResultsTable, toAny(t.Header()), len(t.Rows), t.Record); err != nil {
		return err
	}
	if _, err := f.NewSheet(ClustersTable); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := writeSheet(f, ClustersTable, toAny(summaryHeader()), len(t.Clusters), func(i int) []any {
		return summaryRecord(t.RunID, t.Clusters[i])
	}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmp, err := os.CreateTemp(dir, ".defscout-*.xlsx")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Rename(tmpName, e.path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	e.log.Info(ctx, "result table written",
		logger.String("path", e.path),
		logger.Int("rows", len(t.Rows)),
		logger.Int("columns", len(t.Header())),
	)
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows int, record func(int) []any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	for i := 0; i < rows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		if err := sw.SetRow(cell, record(i)); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
