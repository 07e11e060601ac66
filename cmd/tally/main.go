package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/cli/backups"
	"github.com/julianstephens/tally/internal/cli/items"
	"github.com/julianstephens/tally/internal/cli/logs"
	"github.com/julianstephens/tally/internal/cli/system"
	"github.com/julianstephens/tally/internal/cli/views"
	"github.com/julianstephens/tally/internal/config"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"string" default:"${config_file}"`
	DB       string `name:"db" help:"SQLite database path or PostgreSQL connection string. Overrides the config file. Passwords must not be embedded; use 'tally config set-dsn', .pgpass or PGPASSWORD."`
	Timezone string `help:"IANA timezone to use instead of the stored setting."`
	Debug    bool   `help:"Write debug output to the log file."`

	Init    system.InitCmd    `cmd:"" help:"Initialize tally storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`

	Today views.TodayCmd `cmd:"" default:"withargs" help:"Show what is due today."`
	Stats views.StatsCmd `cmd:"" help:"Show streaks and completion rates."`

	Done  logs.DoneCmd  `cmd:"" help:"Mark a checkbox item done."`
	Skip  logs.SkipCmd  `cmd:"" help:"Skip an item for a day."`
	Value logs.ValueCmd `cmd:"" help:"Record a value or add to a counter."`
	Undo  logs.UndoCmd  `cmd:"" help:"Remove the latest log of an item."`

	Item struct {
		Add     items.AddCmd     `cmd:"" help:"Add an item."`
		Edit    items.EditCmd    `cmd:"" help:"Edit an item."`
		List    items.ListCmd    `cmd:"" default:"1" help:"List items."`
		Stop    items.StopCmd    `cmd:"" help:"Stop tracking an item from a day on."`
		Archive items.ArchiveCmd `cmd:"" help:"Archive an item."`
		Delete  items.DeleteCmd  `cmd:"" help:"Delete an item."`
		Restore items.RestoreCmd `cmd:"" help:"Restore a deleted item."`
	} `cmd:"" help:"Manage tracked items."`

	Vacation struct {
		Toggle logs.VacationToggleCmd `cmd:"" default:"withargs" help:"Mark or unmark a vacation day."`
		List   logs.VacationListCmd   `cmd:"" help:"List vacation days."`
	} `cmd:"" help:"Manage vacation days."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`

	Export    system.ExportCmd `cmd:"" help:"Export all data as JSON."`
	Import    system.ImportCmd `cmd:"" help:"Import data from a JSON export."`
	Configure system.ConfigCmd `cmd:"" name:"config" help:"Show and change configuration."`
	DebugCmd  system.DebugCmd  `cmd:"" name:"debug" hidden:"" help:"Debug commands for troubleshooting."`
}

// selfLoading commands open the database themselves.
var selfLoading = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
}

func parserOptions() []kong.Option {
	return []kong.Option{
		kong.Name(constants.AppName),
		kong.Description("Track habits, counters and routines day by day."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_file": constants.DefaultConfigFile,
		},
	}
}

func main() {
	ctx := kong.Parse(&CLI, parserOptions()...)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.DB != "" {
		cfg.Database = CLI.DB
	}
	if CLI.Timezone != "" {
		cfg.Timezone = CLI.Timezone
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	database, fromKeyring := cli.ResolveDatabase(cfg)
	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.LogDir(database)}); err != nil {
		// No log file; keep warnings on the terminal.
		logger.InitWriter(os.Stderr, log.WarnLevel)
		logger.Warn("Failed to initialize log file", "error", err)
	}

	store, err := cli.OpenStore(database, fromKeyring)
	if err != nil {
		errors.Fatal(err)
	}

	if !selfLoading[commandName(ctx)] {
		if err := store.Load(); err != nil {
			if errors.Is(err, errors.ErrNotInitialized) {
				errors.Fatalf("%v (run 'tally init' first)", err)
			}
			errors.Fatal(err)
		}
	}

	err = ctx.Run(cli.NewContext(store, cfg))
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("Failed to close database", "error", closeErr)
	}
	errors.Fatal(err)
}

// commandName is the top-level command that was selected.
func commandName(ctx *kong.Context) string {
	node := ctx.Selected()
	if node == nil {
		return ""
	}
	for node.Parent != nil && node.Parent.Type != kong.ApplicationNode {
		node = node.Parent
	}
	return node.Name
}
