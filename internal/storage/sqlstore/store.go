// Package sqlstore holds the SQL shared by the SQLite and PostgreSQL
// providers. Queries are written with ? placeholders and rebound for the
// dialect at execution time.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// Store implements the data half of storage.Provider over a *sql.DB. The
// zero value reports ErrNotInitialized from every method.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) Store {
	return Store{db: db, dialect: dialect}
}

// DB returns the underlying connection, nil before Init or Load.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ready() error {
	if s.db == nil {
		return errors.ErrNotInitialized
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, errors.ErrNotFound)
	}
	return nil
}

// Column encodings. Days are YYYY-MM-DD, instants RFC3339 in UTC.

func formatDay(t time.Time) string {
	return utils.DayKey(t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDay(*t)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func parseNullDay(ns sql.NullString, field, id string) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := utils.ParseDay(ns.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s for %s: %w", field, id, err)
	}
	return &t, nil
}

func parseNullTime(ns sql.NullString, field, id string) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s for %s: %w", field, id, err)
	}
	return &t, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeSlots(slots models.SlotSet) (string, error) {
	if len(slots) == 0 {
		return "", nil
	}
	return encodeJSON(slots)
}

// storedConfig mirrors models.Config with the enum-bearing fields left raw so
// that each goes through its models decoder and its documented fallback.
type storedConfig struct {
	Kind       string          `json:"kind"`
	Recurrence json.RawMessage `json:"recurrence"`
	Slots      json.RawMessage `json:"slots"`
	Target     float64         `json:"target"`
	Unit       string          `json:"unit"`
	ParentID   string          `json:"parent_id"`
}

// decodeConfig never fails: a corrupt snapshot decodes as a daily checkbox.
func decodeConfig(raw string) models.Config {
	var sc storedConfig
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()}
	}
	return models.Config{
		Kind:       models.ParseItemKind(sc.Kind),
		Recurrence: models.ParseRecurrence(string(sc.Recurrence)),
		Slots:      models.ParseSlotSet(string(sc.Slots)),
		Target:     sc.Target,
		Unit:       sc.Unit,
		ParentID:   sc.ParentID,
	}
}
