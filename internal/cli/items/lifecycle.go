package items

import (
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/utils"
)

// StopCmd ends tracking after a day. The item stays visible in history.
type StopCmd struct {
	Item   string `arg:"" help:"Item name or ID."`
	On     string `help:"Last tracked day (YYYY-MM-DD). Defaults to today."`
	Resume bool   `help:"Clear the stop date and track the item again."`
}

func (c *StopCmd) Run(ctx *cli.Context) error {
	item, err := ctx.ResolveItem(c.Item, false)
	if err != nil {
		return err
	}

	if c.Resume {
		if item.StoppedDate == nil {
			ctx.Printf("%q is not stopped.\n", item.Name)
			return nil
		}
		item.StoppedDate = nil
		if err := ctx.Store.UpdateItem(ctx.Ctx(), item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		ctx.Printf("✓ Resumed %q\n", item.Name)
		return nil
	}

	day, err := ctx.ResolveDay(c.On)
	if err != nil {
		return err
	}
	if day.Before(utils.Day(item.CreatedDate)) {
		return errors.Invalid("%q was created on %s, it cannot stop before that", item.Name, utils.DayKey(item.CreatedDate))
	}
	item.StoppedDate = &day
	if err := ctx.Store.UpdateItem(ctx.Ctx(), item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	logger.Info("Item stopped", "id", item.ID, "day", utils.DayKey(day))
	ctx.Printf("✓ Stopped %q after %s\n", item.Name, utils.DayKey(day))
	return nil
}

// ArchiveCmd hides an item from the day view and listings.
type ArchiveCmd struct {
	Item string `arg:"" help:"Item name or ID."`
	Undo bool   `help:"Unarchive the item."`
}

func (c *ArchiveCmd) Run(ctx *cli.Context) error {
	item, err := ctx.ResolveItem(c.Item, false)
	if err != nil {
		return err
	}

	if c.Undo {
		if !item.Archived {
			ctx.Printf("%q is not archived.\n", item.Name)
			return nil
		}
		item.Archived = false
		item.ArchivedAt = nil
		if err := ctx.Store.UpdateItem(ctx.Ctx(), item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		ctx.Printf("✓ Unarchived %q\n", item.Name)
		return nil
	}

	if item.Archived {
		ctx.Printf("%q is already archived.\n", item.Name)
		return nil
	}
	today, err := ctx.Today()
	if err != nil {
		return err
	}
	item.Archived = true
	item.ArchivedAt = &today
	if err := ctx.Store.UpdateItem(ctx.Ctx(), item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	logger.Info("Item archived", "id", item.ID)
	ctx.Printf("✓ Archived %q\n", item.Name)
	return nil
}

type DeleteCmd struct {
	Item string `arg:"" help:"Item name or ID."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	item, err := ctx.ResolveItem(c.Item, false)
	if err != nil {
		return err
	}

	if item.IsContainer() {
		engine, _, err := ctx.Engine()
		if err != nil {
			return err
		}
		if children := engine.Scheduler().Graph().Children(item.ID); len(children) > 0 {
			return errors.Invalid("container %q still holds %d item(s); move or delete them first", item.Name, len(children))
		}
	}

	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete %q?", item.Name), "Its history is kept and 'tally item restore' brings it back.", false)
		if stderrors.Is(err, cli.ErrCancelled) || (err == nil && !ok) {
			ctx.Println("Delete cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Store.DeleteItem(ctx.Ctx(), item.ID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	logger.Info("Item deleted", "id", item.ID)
	ctx.Printf("✓ Deleted %q\n", item.Name)
	return nil
}

type RestoreCmd struct {
	Item string `arg:"" help:"Name or ID of a deleted item."`
}

func (c *RestoreCmd) Run(ctx *cli.Context) error {
	item, err := ctx.ResolveItem(c.Item, true)
	if err != nil {
		return err
	}
	if item.DeletedAt == nil {
		ctx.Printf("%q is not deleted.\n", item.Name)
		return nil
	}
	if err := ensureNameFree(ctx, item.Name, item.ID); err != nil {
		return err
	}
	if err := ctx.Store.RestoreItem(ctx.Ctx(), item.ID); err != nil {
		return fmt.Errorf("failed to restore item: %w", err)
	}
	ctx.Printf("✓ Restored %q\n", item.Name)
	return nil
}
