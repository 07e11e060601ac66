package system

import (
	"fmt"

	"github.com/julianstephens/tally/internal/backup"
	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/keyring"
	"github.com/julianstephens/tally/internal/storage/sqlite"
	"github.com/julianstephens/tally/internal/utils"
	"github.com/julianstephens/tally/internal/validation"
)

type DoctorCmd struct {
	Fix bool `help:"Remove duplicate completions found during validation."`
}

type checkResult int

const (
	checkOK checkResult = iota
	checkWarn
	checkFail
	checkSkipped
)

// check is one diagnostic. Checks that need the database are skipped when it
// could not be opened.
type check struct {
	name    string
	needsDB bool
	// warnOnly checks never fail the run.
	warnOnly bool
	run      func(*cli.Context) error
}

func (cmd *DoctorCmd) checks() []check {
	return []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
		{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
		{name: "Data validation", needsDB: true, run: cmd.checkValidation},
		{name: "Timezone", needsDB: true, run: checkTimezone},
		{name: "OS keyring", warnOnly: true, run: checkKeyring},
	}
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := false
	for i, c := range cmd.checks() {
		if c.needsDB && !dbReachable {
			report(ctx, c.name, checkSkipped, fmt.Errorf("database not reachable"))
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			report(ctx, c.name, checkOK, nil)
			if i == 0 {
				dbReachable = true
			}
		case c.warnOnly:
			report(ctx, c.name, checkWarn, err)
		default:
			report(ctx, c.name, checkFail, err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func report(ctx *cli.Context, name string, result checkResult, err error) {
	switch result {
	case checkOK:
		ctx.Printf("✓ %s: OK\n", name)
	case checkWarn:
		ctx.Printf("⚠ %s: WARNING\n", name)
		ctx.Printf("   %v\n", err)
	case checkFail:
		ctx.Printf("❌ %s: FAIL\n", name)
		ctx.Printf("   Error: %v\n", err)
	case checkSkipped:
		ctx.Printf("⊘ %s: SKIPPED (%v)\n", name, err)
	}
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	db := ctx.Store.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var result int
	if err := db.QueryRowContext(ctx.Ctx(), "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	st, err := m.MigrationStatus()
	if err != nil {
		return err
	}
	if !st.UpToDate() {
		return fmt.Errorf("%d pending migration(s), run 'tally migrate'", len(st.Pending))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	store, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return fmt.Errorf("backups are only managed for SQLite; back up PostgreSQL with pg_dump")
	}
	backups, err := backup.NewManager(store.GetConfigPath()).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found, create one with 'tally backup create'")
	}
	return nil
}

func (cmd *DoctorCmd) checkValidation(ctx *cli.Context) error {
	ds, err := ctx.Store.Dataset(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	result := validation.New().ValidateDataset(ds)
	if !result.HasConflicts() {
		return nil
	}

	if cmd.Fix {
		actions := validation.AutoFixDuplicateCompletions(result.Conflicts, func(id string) error {
			return ctx.Store.DeleteLog(ctx.Ctx(), id)
		})
		for _, a := range actions {
			ctx.Printf("   fixed: %s\n", a.Action)
		}
		if ds, err = ctx.Store.Dataset(ctx.Ctx()); err != nil {
			return fmt.Errorf("failed to reload data: %w", err)
		}
		result = validation.New().ValidateDataset(ds)
		if !result.HasConflicts() {
			return nil
		}
	}
	return fmt.Errorf("%d problem(s) found\n%s", len(result.Conflicts), result.FormatReport())
}

func checkTimezone(ctx *cli.Context) error {
	s, err := ctx.Settings()
	if err != nil {
		return err
	}
	if !utils.ValidateTimezone(s.Timezone) {
		return fmt.Errorf("unknown timezone %q, fix it with 'tally config set timezone <name>'", s.Timezone)
	}
	return nil
}

func checkKeyring(*cli.Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}
