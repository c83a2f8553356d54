// Package sqldb implements tabledb.DB over database/sql, with the pgx
// driver for PostgreSQL and go-sqlite3 for SQLite.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dgallion1/planreport/internal/tabledb"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateIdentifier rejects anything that is not a plain table or column
// name, since identifiers are spliced into statements.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("identifier too long (max 128 characters)")
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// DB is a tabledb.DB backed by a SQL database.
type DB struct {
	db     *sql.DB
	driver string
	schema string
}

// Open connects to a database. driver is "sqlite3" (or "sqlite") or "pgx"
// (or "postgres").
func Open(driver, dsn string) (*DB, error) {
	driver = normalizeDriver(driver)
	if driver == "" {
		return nil, fmt.Errorf("unsupported driver")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		// Each connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}
	return New(db, driver), nil
}

// New wraps an open *sql.DB.
func New(db *sql.DB, driver string) *DB {
	return &DB{db: db, driver: normalizeDriver(driver), schema: "public"}
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite":
		return DriverSQLite
	case "pgx", "postgres", "postgresql":
		return DriverPostgres
	default:
		return ""
	}
}

// Driver returns the normalized driver name.
func (d *DB) Driver() string { return d.driver }

// Ping verifies the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Exec runs a statement with no arguments, such as DDL.
func (d *DB) Exec(ctx context.Context, stmt string) error {
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

func (d *DB) placeholder(n int) string {
	if d.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// value converts a Go value into its stored form.
func value(v any) any {
	switch t := v.(type) {
	case time.Time:
		return tabledb.Timestamp(t)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return v
	}
}

// where renders the filter as a WHERE clause; args continues from start.
func (d *DB) where(where tabledb.Filter, start int) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}
	var parts []string
	var args []any
	for i, k := range tabledb.Keys(where) {
		if err := validateIdentifier(k); err != nil {
			return "", nil, err
		}
		parts = append(parts, quoteIdentifier(k)+" = "+d.placeholder(start+i))
		args = append(args, value(where[k]))
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// Insert adds one row.
func (d *DB) Insert(ctx context.Context, table string, row tabledb.Row) error {
	if err := validateIdentifier(table); err != nil {
		return err
	}
	if len(row) == 0 {
		return fmt.Errorf("insert %s: empty row", table)
	}
	keys := tabledb.Keys(row)
	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		if err := validateIdentifier(k); err != nil {
			return err
		}
		cols[i] = quoteIdentifier(k)
		marks[i] = d.placeholder(i + 1)
		args[i] = value(row[k])
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := d.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update sets columns on every matching row and returns the count.
func (d *DB) Update(ctx context.Context, table string, set tabledb.Row, where tabledb.Filter) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, fmt.Errorf("update %s: nothing to set", table)
	}
	keys := tabledb.Keys(set)
	parts := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		if err := validateIdentifier(k); err != nil {
			return 0, err
		}
		parts[i] = quoteIdentifier(k) + " = " + d.placeholder(i+1)
		args[i] = value(set[k])
	}
	clause, wargs, err := d.where(where, len(keys)+1)
	if err != nil {
		return 0, err
	}
	q := fmt.Sprintf("UPDATE %s SET %s%s", quoteIdentifier(table), strings.Join(parts, ", "), clause)
	res, err := d.db.ExecContext(ctx, q, append(args, wargs...)...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return res.RowsAffected()
}

// Delete removes every matching row and returns the count.
func (d *DB) Delete(ctx context.Context, table string, where tabledb.Filter) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	clause, args, err := d.where(where, 1)
	if err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, "DELETE FROM "+quoteIdentifier(table)+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return res.RowsAffected()
}

// Select returns every matching row.
func (d *DB) Select(ctx context.Context, table string, where tabledb.Filter, orderBy string) ([]tabledb.Row, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	clause, args, err := d.where(where, 1)
	if err != nil {
		return nil, err
	}
	q := "SELECT * FROM " + quoteIdentifier(table) + clause
	if orderBy != "" {
		col, dir := strings.TrimPrefix(orderBy, "-"), "ASC"
		if strings.HasPrefix(orderBy, "-") {
			dir = "DESC"
		}
		if err := validateIdentifier(col); err != nil {
			return nil, err
		}
		q += " ORDER BY " + quoteIdentifier(col) + " " + dir
	}
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// HasTable reports whether table exists.
func (d *DB) HasTable(ctx context.Context, table string) (bool, error) {
	var q string
	var args []any
	switch d.driver {
	case DriverPostgres:
		q = `SELECT table_name FROM information_schema.tables
		     WHERE table_schema = $1 AND table_name = $2`
		args = []any{d.schema, table}
	default:
		q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`
		args = []any{table}
	}
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", table, err)
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

func scanRows(rows *sql.Rows) ([]tabledb.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []tabledb.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(tabledb.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
