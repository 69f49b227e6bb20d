package sink

import (
	"context"
	"fmt"
	"strings"
	"sync"

	_ "github.com/glebarez/go-sqlite" // sqlite driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
)

// SQL replaces the result tables of a database inside one transaction.
type SQL struct {
	driver string
	source string
	kind   string
	log    logger.Logger

	mu sync.Mutex
	db *sqlx.DB
}

// NewSQLite returns a sink for the SQLite database at path. The database
// file is created by the first Write, so a run that aborts earlier leaves
// nothing on disk.
func NewSQLite(_ context.Context, path string, log logger.Logger) (*SQL, error) {
	return newSQL("sqlite", path, "sqlite", log), nil
}

// NewPostgres connects to the PostgreSQL database at dsn.
func NewPostgres(ctx context.Context, dsn string, log logger.Logger) (*SQL, error) {
	s := newSQL("postgres", dsn, "postgres", log)
	if _, err := s.conn(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newSQL(driver, source, kind string, log logger.Logger) *SQL {
	if log == nil {
		log = logger.Get().Named("sink")
	}
	return &SQL{driver: driver, source: source, kind: kind, log: log}
}

func (s *SQL) conn(ctx context.Context) (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := sqlx.ConnectContext(ctx, s.driver, s.source)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ErrWrite, s.kind, err)
	}
	if s.driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	s.db = db
	return db, nil
}

// Kind implements Sink.
func (s *SQL) Kind() string { return s.kind }

// Close implements Sink.
func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for readers such as tests. It is nil until the
// first connection.
func (s *SQL) DB() *sqlx.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Write implements Sink.
func (s *SQL) Write(ctx context.Context, t model.ResultTable) (err error) {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	header := t.Header()
	if err = s.replace(ctx, tx, ResultsTable, header, columnTypes(header), len(t.Rows), t.Record); err != nil {
		return err
	}
	sh := summaryHeader()
	if err = s.replace(ctx, tx, ClustersTable, sh, []string{"TEXT", "INTEGER", "INTEGER", "DOUBLE PRECISION"}, len(t.Clusters), func(i int) []any {
		return summaryRecord(t.RunID, t.Clusters[i])
	}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrWrite, err)
	}
	s.log.Info(ctx, "result table written",
		logger.String("sink", s.kind),
		logger.Int("rows", len(t.Rows)),
		logger.Int("columns", len(header)),
	)
	return nil
}

func (s *SQL) replace(ctx context.Context, tx *sqlx.Tx, table string, cols, types []string, rows int, record func(int) []any) error {
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table)); err != nil {
		return fmt.Errorf("%w: drop %s: %w", ErrWrite, table, err)
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c) + " " + types[i]
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrWrite, table, err)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(quoted, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insert))
	if err != nil {
		return fmt.Errorf("%w: prepare %s: %w", ErrWrite, table, err)
	}
	defer func() { _ = stmt.Close() }()
	for i := 0; i < rows; i++ {
		if _, err := stmt.ExecContext(ctx, record(i)...); err != nil {
			return fmt.Errorf("%w: insert %s row %d: %w", ErrWrite, table, i, err)
		}
	}
	return nil
}

func columnTypes(header []string) []string {
	types := make([]string, len(header))
	for i, h := range header {
		switch h {
		case "RUN_ID", model.ColPlayerName, "POSITION":
			types[i] = "TEXT"
		case model.ColPlayerID, "cluster":
			types[i] = "BIGINT"
		default:
			types[i] = "DOUBLE PRECISION"
		}
	}
	return types
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
