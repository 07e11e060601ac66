package system

import (
	"fmt"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/migration"
)

// migrator is implemented by both storage providers.
type migrator interface {
	MigrationStatus() (migration.Status, error)
}

type MigrateCmd struct {
	DryRun bool `help:"Only list pending migrations."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("storage provider does not support migrations")
	}
	before, err := m.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if before.UpToDate() {
		ctx.Printf("No migrations to apply. Database is up to date (version %d).\n", before.Current)
		return nil
	}

	for _, p := range before.Pending {
		ctx.Printf("  pending: %03d %s\n", p.Version, p.Name)
	}
	if c.DryRun {
		return nil
	}

	ctx.PerformAutomaticBackup()
	// Load applies pending migrations.
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	after, err := m.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	ctx.Printf("\nSuccessfully applied %d migration(s), now at version %d.\n", after.Current-before.Current, after.Current)
	return nil
}
