package system

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/utils"
)

type DebugCmd struct {
	DBPath       DebugDBPathCmd       `cmd:"" name:"db-path" help:"Show database path."`
	DumpItem     DebugDumpItemCmd     `cmd:"" help:"Dump an item and its history as JSON."`
	DumpDay      DebugDumpDayCmd      `cmd:"" help:"Dump the logs of a day as JSON."`
	DumpSettings DebugDumpSettingsCmd `cmd:"" help:"Dump settings as JSON."`
}

func printJSON(ctx *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{"path": maskPassword(ctx.Store.GetConfigPath())})
}

type DebugDumpItemCmd struct {
	Item string `arg:"" help:"Item name or ID."`
}

func (cmd *DebugDumpItemCmd) Run(ctx *cli.Context) error {
	item, err := ctx.ResolveItem(cmd.Item, true)
	if err != nil {
		return err
	}
	snaps, err := ctx.Store.GetSnapshots(ctx.Ctx(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to get snapshots: %w", err)
	}
	logs, err := ctx.Store.GetLogsForItem(ctx.Ctx(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to get logs: %w", err)
	}
	return printJSON(ctx, map[string]interface{}{
		"item":      item,
		"snapshots": snaps,
		"log_count": len(logs),
	})
}

type DebugDumpDayCmd struct {
	Day string `arg:"" optional:"" help:"Day to dump (YYYY-MM-DD, today, yesterday)."`
}

func (cmd *DebugDumpDayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(cmd.Day)
	if err != nil {
		return err
	}
	logs, err := ctx.Store.GetLogs(ctx.Ctx(), day, day)
	if err != nil {
		return fmt.Errorf("failed to get logs: %w", err)
	}
	return printJSON(ctx, map[string]interface{}{
		"day":  utils.DayKey(day),
		"logs": logs,
	})
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	return printJSON(ctx, settings)
}
