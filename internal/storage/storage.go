// Package storage defines the persistence contract the CLI works against.
// Concrete providers live in the sqlite and postgres sub-packages and share
// their SQL through sqlstore.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/history"
	"github.com/julianstephens/tally/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	GetConfigPath() string
	GetDB() *sql.DB

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error

	// Items
	AddItem(ctx context.Context, item models.Item) error
	GetItem(ctx context.Context, id string) (models.Item, error)
	GetItemByName(ctx context.Context, name string) (models.Item, error)
	GetAllItems(ctx context.Context, includeArchived, includeDeleted bool) ([]models.Item, error)
	// UpdateItem rewrites the live row without touching snapshots. Structural
	// changes that must preserve history go through ApplyEdit.
	UpdateItem(ctx context.Context, item models.Item) error
	DeleteItem(ctx context.Context, id string) error
	RestoreItem(ctx context.Context, id string) error

	// Snapshots
	// GetSnapshots returns the snapshots of one item, or of every item when
	// itemID is empty.
	GetSnapshots(ctx context.Context, itemID string) ([]models.Snapshot, error)
	// ApplyEdit writes the item and its optional snapshot in one transaction.
	ApplyEdit(ctx context.Context, edit history.Edit) error

	// Logs
	AddLog(ctx context.Context, l models.Log) error
	DeleteLog(ctx context.Context, id string) error
	GetLogs(ctx context.Context, from, to time.Time) ([]models.Log, error)
	GetAllLogs(ctx context.Context) ([]models.Log, error)
	GetLogsForItem(ctx context.Context, itemID string) ([]models.Log, error)

	// Vacations
	// ToggleVacation marks day as a vacation day, or clears the mark if it
	// was already set. It reports whether the day is a vacation day afterwards.
	ToggleVacation(ctx context.Context, day time.Time, note string) (bool, error)
	GetVacations(ctx context.Context) ([]models.VacationDay, error)

	// Bulk
	// Dataset loads every item (deleted included), snapshot, log and
	// vacation day in one pass for the engine.
	Dataset(ctx context.Context) (models.Dataset, error)
	// ImportDataset upserts every record of ds by id in one transaction.
	ImportDataset(ctx context.Context, ds models.Dataset) error
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
