// Package tabledb is a small row-level table interface shared by the SQL
// and hosted REST backends. Rows are column maps; filters are equality
// matches joined with AND.
package tabledb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Row is one table row keyed by column name.
type Row map[string]any

// Filter matches rows whose columns equal every given value.
type Filter map[string]any

// DB is a table-level store. orderBy names a column; a leading "-" sorts
// descending. An empty orderBy leaves the order to the backend.
type DB interface {
	Insert(ctx context.Context, table string, row Row) error
	Update(ctx context.Context, table string, set Row, where Filter) (int64, error)
	Delete(ctx context.Context, table string, where Filter) (int64, error)
	Select(ctx context.Context, table string, where Filter, orderBy string) ([]Row, error)
	HasTable(ctx context.Context, table string) (bool, error)
}

// Migrator is implemented by backends that accept DDL.
type Migrator interface {
	Exec(ctx context.Context, stmt string) error
}

// ErrNoMigrate is returned when schema changes are requested from a
// backend that is not a Migrator.
var ErrNoMigrate = errors.New("backend does not support migrations")

// RetryableError indicates a transient backend failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, msg)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Keys returns the column names of a row or filter in sorted order, so
// generated statements are stable.
func Keys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// timestampLayout is fixed-width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp is the stored form of a time: UTC RFC 3339 with microseconds.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// String returns column k as a string; nil and missing columns are "".
func (r Row) String(k string) string {
	switch v := r[k].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return Timestamp(v)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns column k as a float64, or 0 when it is not numeric.
func (r Row) Float(k string) float64 {
	switch v := r[k].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	default:
		return 0
	}
}

// Int returns column k truncated to an int.
func (r Row) Int(k string) int {
	return int(r.Float(k))
}

// Time returns column k as a time, or the zero time when it is missing or
// unparseable.
func (r Row) Time(k string) time.Time {
	switch v := r[k].(type) {
	case time.Time:
		return v.UTC()
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	default:
		return time.Time{}
	}
}
