package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/config"
	"github.com/julianstephens/tally/internal/exchange"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/validation"
)

type ExportCmd struct {
	Output string `short:"o" help:"File to write; standard output when omitted or '-'."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	ds, err := ctx.Store.Dataset(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	data, err := exchange.Export(ds)
	if err != nil {
		return err
	}

	if c.Output == "" || c.Output == "-" {
		ctx.Println(string(data))
		return nil
	}
	path, err := config.ExpandPath(c.Output)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	ctx.Printf("✓ Exported %d items and %d logs to %s\n", len(ds.Items), len(ds.Logs), path)
	return nil
}

// ImportCmd merges an export into the database. Records are matched by id,
// so importing the same file twice is harmless.
type ImportCmd struct {
	File string `arg:"" help:"Export file to import." type:"existingfile"`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}
	ds, err := exchange.Import(data)
	if err != nil {
		return err
	}
	for _, item := range ds.Items {
		if err := validation.ValidateItem(item); err != nil {
			return fmt.Errorf("item %q: %w", item.Name, err)
		}
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Store.ImportDataset(ctx.Ctx(), ds); err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}
	logger.Info("Imported data", "file", c.File, "items", len(ds.Items), "logs", len(ds.Logs))
	ctx.Printf("✓ Imported %d items, %d snapshots, %d logs and %d vacation days\n",
		len(ds.Items), len(ds.Snapshots), len(ds.Logs), len(ds.Vacations))

	merged, err := ctx.Store.Dataset(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to reload data: %w", err)
	}
	if result := validation.New().ValidateDataset(merged); result.HasConflicts() {
		ctx.Printf("%s", cli.WarnStyle.Render(result.FormatReport()))
		ctx.Println("Run 'tally doctor --fix' to clean up duplicates.")
	}
	return nil
}
