package output

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/seedbed/pkg/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrUnsupportedURL is returned for database URLs with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported database url")

// ErrReservedColumn is returned when a record field would shadow the
// primary key column every table gets.
var ErrReservedColumn = errors.New("field clashes with the generated id column")

const idColumn = "id"

// Dialect captures what differs between the supported databases.
type Dialect struct {
	Name        string
	Driver      string
	Placeholder func(n int) string
	// DateType is the column type for date fields.
	DateType string
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		Driver:      "sqlite",
		Placeholder: func(int) string { return "?" },
		DateType:    "TEXT",
	}
	Postgres = Dialect{
		Name:        "postgres",
		Driver:      "pgx",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		DateType:    "DATE",
	}
)

// ParseDBURL maps a database URL to a dialect and driver DSN.
// sqlite:///abs/path.db and sqlite://relative.db open a SQLite file;
// postgres:// and postgresql:// URLs are passed to pgx unchanged.
func ParseDBURL(dburl string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dburl, "sqlite://"):
		path := strings.TrimPrefix(dburl, "sqlite://")
		if strings.TrimSpace(path) == "" {
			return Dialect{}, "", fmt.Errorf("%w: sqlite path is required", ErrUnsupportedURL)
		}
		return SQLite, filepath.Clean(path), nil
	case strings.HasPrefix(dburl, "postgres://"), strings.HasPrefix(dburl, "postgresql://"):
		return Postgres, dburl, nil
	default:
		return Dialect{}, "", fmt.Errorf("%w: %q (want sqlite:// or postgres://)", ErrUnsupportedURL, dburl)
	}
}

type table struct {
	name    string
	columns []string
	known   map[string]bool
}

// SQLWriter inserts records into one table per object type, creating
// tables and columns as they are first seen. References are stored as the
// target record's id.
type SQLWriter struct {
	db      *sql.DB
	dialect Dialect
	owned   bool
	tables  map[string]*table
}

// OpenSQL connects to dburl and returns a writer that owns the connection.
func OpenSQL(ctx context.Context, dburl string) (*SQLWriter, error) {
	dialect, dsn, err := ParseDBURL(dburl)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect.Name, err)
	}
	if dialect.Name == SQLite.Name {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect.Name, err)
	}
	w := NewSQLWriter(db, dialect)
	w.owned = true
	return w, nil
}

// NewSQLWriter writes to an existing connection. Close does not close db.
func NewSQLWriter(db *sql.DB, dialect Dialect) *SQLWriter {
	return &SQLWriter{db: db, dialect: dialect, tables: make(map[string]*table)}
}

// DB returns the underlying sql.DB instance.
func (s *SQLWriter) DB() *sql.DB {
	return s.db
}

// Write inserts records in one transaction. A failed batch leaves neither
// rows nor schema changes behind.
func (s *SQLWriter) Write(ctx context.Context, records []domain.GeneratedRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	snapshot := s.snapshot()
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			s.tables = snapshot
		}
	}()

	order, groups := groupByType(records)
	for _, objectType := range order {
		recs := groups[objectType]
		t, err := s.ensureTable(ctx, tx, objectType, recs)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := s.insert(ctx, tx, t, rec); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the connection if the writer opened it.
func (s *SQLWriter) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

func (s *SQLWriter) snapshot() map[string]*table {
	out := make(map[string]*table, len(s.tables))
	for k, t := range s.tables {
		cp := &table{name: t.name, columns: append([]string(nil), t.columns...), known: make(map[string]bool, len(t.known))}
		for c := range t.known {
			cp.known[c] = true
		}
		out[k] = cp
	}
	return out
}

func (s *SQLWriter) ensureTable(ctx context.Context, tx *sql.Tx, objectType string, recs []domain.GeneratedRecord) (*table, error) {
	cols := columns(recs)
	for _, c := range cols {
		// SQLite folds identifier case, so "Id" collides as well.
		if strings.EqualFold(c, idColumn) {
			return nil, fmt.Errorf("%w: object %s declares field %q", ErrReservedColumn, objectType, c)
		}
	}

	t, ok := s.tables[objectType]
	if !ok {
		t = &table{name: objectType, known: make(map[string]bool)}
		defs := []string{quoteIdent(idColumn) + " BIGINT PRIMARY KEY"}
		for _, c := range cols {
			defs = append(defs, quoteIdent(c)+" "+s.columnType(sample(recs, c)))
			t.columns = append(t.columns, c)
			t.known[c] = true
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(objectType), strings.Join(defs, ", "))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create table %s: %w", objectType, err)
		}
		s.tables[objectType] = t
		return t, nil
	}

	for _, c := range cols {
		if t.known[c] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quoteIdent(objectType), quoteIdent(c), s.columnType(sample(recs, c)))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("add column %s.%s: %w", objectType, c, err)
		}
		t.columns = append(t.columns, c)
		t.known[c] = true
	}
	return t, nil
}

func (s *SQLWriter) insert(ctx context.Context, tx *sql.Tx, t *table, rec domain.GeneratedRecord) error {
	names := []string{quoteIdent(idColumn)}
	marks := []string{s.dialect.Placeholder(1)}
	args := []any{int64(rec.ID)}
	for _, c := range t.columns {
		v, ok := rec.Field(c)
		if !ok {
			continue
		}
		names = append(names, quoteIdent(c))
		args = append(args, sqlValue(v))
		marks = append(marks, s.dialect.Placeholder(len(args)))
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(t.name), strings.Join(names, ", "), strings.Join(marks, ", "))
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert %s: %w", rec.Ref(), err)
	}
	return nil
}

func sample(recs []domain.GeneratedRecord, field string) any {
	for _, rec := range recs {
		if v, ok := rec.Field(field); ok && v != nil {
			return v
		}
	}
	return nil
}

func (s *SQLWriter) columnType(v any) string {
	switch v.(type) {
	case int, int32, int64, domain.RecordRef:
		return "BIGINT"
	case float32, float64:
		return "DOUBLE PRECISION"
	case bool:
		return "BOOLEAN"
	case time.Time:
		return s.dialect.DateType
	default:
		return "TEXT"
	}
}

func sqlValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case domain.RecordRef:
		return int64(x.ID)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(x)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
