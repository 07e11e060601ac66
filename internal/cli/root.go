package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/tally/internal/aggregate"
	"github.com/julianstephens/tally/internal/backup"
	"github.com/julianstephens/tally/internal/config"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/keyring"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/storage/postgres"
	"github.com/julianstephens/tally/internal/storage/sqlite"
	"github.com/julianstephens/tally/internal/utils"
)

type Context struct {
	Store  storage.Provider
	Config config.Config
	Out    io.Writer

	// Now and Confirm are swapped out in tests.
	Now     func() time.Time
	Confirm func(title, description string, def bool) (bool, error)
}

func NewContext(store storage.Provider, cfg config.Config) *Context {
	return &Context{
		Store:   store,
		Config:  cfg,
		Out:     os.Stdout,
		Now:     time.Now,
		Confirm: Confirm,
	}
}

// Ctx is the context passed to storage calls.
func (c *Context) Ctx() context.Context {
	return context.Background()
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// Settings returns the stored settings with config file and environment
// overrides applied.
func (c *Context) Settings() (models.Settings, error) {
	s, err := c.Store.GetSettings(c.Ctx())
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	c.Config.Apply(&s)
	return s, nil
}

func (c *Context) Location() (*time.Location, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	loc, err := utils.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Today is the current civil day in the configured timezone.
func (c *Context) Today() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	return utils.Day(c.Now().In(loc)), nil
}

// ResolveDay accepts YYYY-MM-DD, "today", "yesterday" or the empty string
// (today).
func (c *Context) ResolveDay(s string) (time.Time, error) {
	today, err := c.Today()
	if err != nil {
		return time.Time{}, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return utils.AddDays(today, -1), nil
	}
	day, err := utils.ParseDay(s)
	if err != nil {
		return time.Time{}, errors.Invalid("invalid day %q (expected YYYY-MM-DD, today or yesterday)", s)
	}
	return day, nil
}

// Engine loads the whole dataset and builds a fresh aggregation engine.
func (c *Context) Engine() (*aggregate.Engine, models.Dataset, error) {
	ds, err := c.Store.Dataset(c.Ctx())
	if err != nil {
		return nil, models.Dataset{}, fmt.Errorf("failed to load data: %w", err)
	}
	return aggregate.FromDataset(ds), ds, nil
}

// ResolveItem finds an item by id or by name. Deleted items are only found
// when includeDeleted is set.
func (c *Context) ResolveItem(ref string, includeDeleted bool) (models.Item, error) {
	ref = strings.TrimSpace(ref)
	if item, err := c.Store.GetItem(c.Ctx(), ref); err == nil {
		if includeDeleted || item.DeletedAt == nil {
			return item, nil
		}
	} else if !errors.Is(err, errors.ErrNotFound) {
		return models.Item{}, err
	}

	if item, err := c.Store.GetItemByName(c.Ctx(), ref); err == nil {
		return item, nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return models.Item{}, err
	}

	if includeDeleted {
		items, err := c.Store.GetAllItems(c.Ctx(), true, true)
		if err != nil {
			return models.Item{}, err
		}
		for _, item := range items {
			if strings.EqualFold(item.Name, ref) {
				return item, nil
			}
		}
	}
	return models.Item{}, fmt.Errorf("%w: no item named %q", errors.ErrNotFound, ref)
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	s, err := c.Settings()
	if err != nil || !s.AutoBackup {
		return
	}
	store, ok := c.Store.(*sqlite.Store)
	if !ok {
		logger.Debug("Skipping automatic backup, store is not SQLite")
		return
	}
	mgr := backup.NewManager(store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveDatabase picks the database to open: the config file or TALLY_DB,
// then a connection string stored in the OS keyring, then the default SQLite
// path. The second result reports whether the value came from the keyring.
func ResolveDatabase(cfg config.Config) (string, bool) {
	if cfg.Database != "" {
		return cfg.Database, false
	}
	dsn, err := keyring.GetConnectionString()
	if err == nil {
		return dsn, true
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		logger.Debug("Keyring lookup failed", "error", err)
	}
	return constants.DefaultDBPath, false
}

// OpenStore builds the provider for a SQLite path or PostgreSQL connection
// string. Embedded passwords are refused unless the string came from the
// keyring.
func OpenStore(database string, fromKeyring bool) (storage.Provider, error) {
	if postgres.IsConnString(database) {
		if ok, err := postgres.ValidateConnString(database); !ok {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, err
			}
			if !fromKeyring {
				return nil, fmt.Errorf("%w: store it with 'tally config set-dsn', or use PGPASSWORD or .pgpass", err)
			}
		}
		return postgres.New(database), nil
	}
	path, err := config.ExpandPath(database)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}
