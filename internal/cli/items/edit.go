package items

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/history"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/scheduler"
	"github.com/julianstephens/tally/internal/utils"
	"github.com/julianstephens/tally/internal/validation"
)

// EditCmd changes an item. Flags left empty keep their current value.
type EditCmd struct {
	Item        string `arg:"" help:"Item name or ID."`
	Name        string `help:"New name."`
	Kind        string `help:"Item kind (checkbox|value|cumulative|metric|container)."`
	Every       string `help:"Recurrence: daily, weekly:mon,wed, monthly:1,15, sticky or on:YYYY-MM-DD."`
	Slots       string `help:"Comma-separated session names, or 'none' for a single session."`
	Target      string `help:"Daily target for cumulative counters, or 'none'."`
	Unit        string `help:"Unit shown next to values, or 'none'."`
	Aggregation string `help:"How a counter folds a day's values (sum|average)."`
	Parent      string `help:"Container to nest under (name or ID), or 'none' to detach."`
	Icon        string `help:"Icon shown next to the name."`
	Color       string `help:"Display color."`

	FutureOnly bool `help:"Keep past days on the current settings without asking." xor:"mode"`
	Rewrite    bool `help:"Apply the change to the item's whole history without asking." xor:"mode"`
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	item, err := ctx.ResolveItem(c.Item, false)
	if err != nil {
		return err
	}

	updated, displayChanged, err := c.applyDisplay(ctx, item)
	if err != nil {
		return err
	}
	next, err := c.nextConfig(ctx, item.Config)
	if err != nil {
		return err
	}
	if err := validation.ValidateItem(updated.WithConfig(next)); err != nil {
		return err
	}

	if next.Equal(item.Config) {
		if !displayChanged {
			ctx.Println("Nothing to change.")
			return nil
		}
		if err := ctx.Store.UpdateItem(ctx.Ctx(), updated); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		ctx.Printf("✓ Updated %q\n", updated.Name)
		return nil
	}

	today, err := ctx.Today()
	if err != nil {
		return err
	}
	engine, _, err := ctx.Engine()
	if err != nil {
		return err
	}
	hasHistory := pastDependsOn(engine.Scheduler(), item, next)
	mode, err := c.mode(ctx, updated, hasHistory)
	if stderrors.Is(err, cli.ErrCancelled) {
		ctx.Println("Edit cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	snaps, err := ctx.Store.GetSnapshots(ctx.Ctx(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to load item history: %w", err)
	}

	edit, err := history.PlanEdit(updated, next, today, snaps, hasHistory, mode)
	if err != nil {
		return errors.Invalid("%v", err)
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Store.ApplyEdit(ctx.Ctx(), edit); err != nil {
		return fmt.Errorf("failed to save edit: %w", err)
	}

	logger.Info("Item edited", "id", item.ID, "mode", mode.String(), "snapshot", edit.Snapshot != nil)
	ctx.Printf("✓ Updated %q\n", edit.Item.Name)
	if edit.Snapshot != nil {
		ctx.Printf("  Days from %s through %s keep the previous settings.\n",
			utils.DayKey(edit.Snapshot.EffectiveFrom), utils.DayKey(edit.Snapshot.EffectiveUntil))
	} else if hasHistory && mode == history.Rewrite {
		ctx.Println("  History was re-evaluated with the new settings.")
	}
	return nil
}

// pastDependsOn reports whether changing item to next would move any past
// result: the item or a child it held has logs, or the item changes container
// and either container has logged children.
func pastDependsOn(sched *scheduler.Scheduler, item models.Item, next models.Config) bool {
	if sched.HasHistory(item) {
		return true
	}
	if next.ParentID == item.ParentID {
		return false
	}
	for _, id := range []string{item.ParentID, next.ParentID} {
		if parent, ok := sched.Graph().Get(id); ok && sched.HasHistory(parent) {
			return true
		}
	}
	return false
}

func (c *EditCmd) applyDisplay(ctx *cli.Context, item models.Item) (models.Item, bool, error) {
	changed := false
	if c.Name != "" {
		name := validation.SanitizeText(c.Name)
		if name != item.Name {
			if err := ensureNameFree(ctx, name, item.ID); err != nil {
				return item, false, err
			}
			item.Name = name
			changed = true
		}
	}
	if c.Icon != "" && c.Icon != item.Icon {
		item.Icon = c.Icon
		changed = true
	}
	if c.Color != "" && c.Color != item.Color {
		item.Color = c.Color
		changed = true
	}
	if c.Aggregation != "" {
		mode := models.AggregationMode(strings.ToLower(c.Aggregation))
		if mode != models.AggregateSum && mode != models.AggregateAverage {
			return item, false, errors.Invalid("unknown aggregation %q (use sum or average)", c.Aggregation)
		}
		if mode != item.Aggregation {
			item.Aggregation = mode
			changed = true
		}
	}
	return item, changed, nil
}

func (c *EditCmd) nextConfig(ctx *cli.Context, next models.Config) (models.Config, error) {
	if c.Kind != "" {
		kind, err := cli.ParseKind(c.Kind)
		if err != nil {
			return next, err
		}
		next.Kind = kind
	}
	if c.Every != "" {
		rule, err := cli.ParseRecurrence(c.Every)
		if err != nil {
			return next, err
		}
		next.Recurrence = rule
	}
	if c.Slots != "" {
		next.Slots = parseSlots(c.Slots)
	}
	if c.Target != "" {
		target, err := parseTarget(c.Target)
		if err != nil {
			return next, err
		}
		next.Target = target
	}
	if c.Unit != "" {
		next.Unit = c.Unit
		if strings.EqualFold(c.Unit, "none") {
			next.Unit = ""
		}
	}
	if c.Parent != "" {
		parentID, err := resolveParent(ctx, c.Parent)
		if err != nil {
			return next, err
		}
		next.ParentID = parentID
	}
	return next, nil
}

// mode decides how the edit treats past days. Without logged history there is
// nothing to protect, so no question is asked.
func (c *EditCmd) mode(ctx *cli.Context, item models.Item, hasHistory bool) (history.Mode, error) {
	switch {
	case c.Rewrite:
		return history.Rewrite, nil
	case c.FutureOnly, !hasHistory:
		return history.FutureOnly, nil
	}
	futureOnly, err := ctx.Confirm(
		fmt.Sprintf("Apply the change to %q from today on?", item.Name),
		"Yes keeps past days on the current settings. No re-evaluates the whole history with the new settings.",
		true,
	)
	if err != nil {
		return history.FutureOnly, err
	}
	if futureOnly {
		return history.FutureOnly, nil
	}
	return history.Rewrite, nil
}
