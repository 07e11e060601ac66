package logs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/logbook"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
	"github.com/julianstephens/tally/internal/validation"
)

// target is the item, day and slot a log command acts on, resolved against
// the config that was in effect that day.
type target struct {
	item    models.Item
	day     time.Time
	cfg     models.Config
	slot    models.TimeSlot
	summary logbook.Summary
}

func (t target) label() string {
	if t.slot.ID == "" {
		return fmt.Sprintf("%q on %s", t.item.Name, utils.DayKey(t.day))
	}
	return fmt.Sprintf("%q (%s) on %s", t.item.Name, t.slot.Name, utils.DayKey(t.day))
}

// resolve loads the item and the day's logs. With an empty slot on a
// multi-session item, the first session without a log is chosen.
func resolve(ctx *cli.Context, ref, dayArg, slotArg string) (target, error) {
	item, err := ctx.ResolveItem(ref, false)
	if err != nil {
		return target{}, err
	}
	day, err := ctx.ResolveDay(dayArg)
	if err != nil {
		return target{}, err
	}
	today, err := ctx.Today()
	if err != nil {
		return target{}, err
	}
	if day.After(today) {
		return target{}, errors.Invalid("cannot log %s, it is in the future", utils.DayKey(day))
	}

	engine, _, err := ctx.Engine()
	if err != nil {
		return target{}, err
	}
	sched := engine.Scheduler()
	cfg := sched.History().Effective(item, day)
	if cfg.Kind == models.KindContainer {
		return target{}, errors.Invalid("%q is a container; log the items inside it", item.Name)
	}
	t := target{item: item, day: day, cfg: cfg, summary: sched.Logs().Summary(item.ID, day)}

	// A carried occurrence is resolved in the open sessions of its origin day.
	slots, multi := cfg.Slots, cfg.Slots.IsMulti()
	if !sched.IsApplicable(item, day) {
		if carry, ok := sched.Backlog(item, day); ok {
			slots, multi = carry.Overdue, sched.History().EffectiveSlots(item, carry.Origin).IsMulti()
		}
	}

	t.slot, err = pickSlot(slots, multi, slotArg, t.summary)
	if err != nil {
		return target{}, fmt.Errorf("%s: %w", item.Name, err)
	}
	return t, nil
}

func pickSlot(slots models.SlotSet, multi bool, arg string, day logbook.Summary) (models.TimeSlot, error) {
	arg = strings.TrimSpace(arg)
	if !multi {
		if arg != "" && (len(slots) == 0 || !matches(slots[0], arg)) {
			return models.TimeSlot{}, errors.Invalid("has no session %q", arg)
		}
		return models.AllDay, nil
	}
	if arg != "" {
		for _, slot := range slots {
			if matches(slot, arg) {
				return slot, nil
			}
		}
		return models.TimeSlot{}, errors.Invalid("has no session %q (sessions: %s)", arg, strings.Join(slotNames(slots), ", "))
	}
	for _, slot := range slots {
		if !day.Touched(slot.ID) {
			return slot, nil
		}
	}
	return models.TimeSlot{}, errors.Invalid("every session is already logged; pass --slot")
}

func matches(slot models.TimeSlot, arg string) bool {
	return strings.EqualFold(slot.ID, arg) || strings.EqualFold(slot.Name, arg)
}

func slotNames(slots models.SlotSet) []string {
	names := make([]string, 0, len(slots))
	for _, slot := range slots {
		names = append(names, slot.Name)
	}
	return names
}

func (t target) newLog(ctx *cli.Context, status models.LogStatus) models.Log {
	return models.Log{
		ID:          uuid.NewString(),
		ItemID:      t.item.ID,
		Day:         t.day,
		SlotID:      t.slot.ID,
		Status:      status,
		CompletedAt: ctx.Now().UTC(),
	}
}

func save(ctx *cli.Context, l models.Log) error {
	if err := validation.ValidateLog(l); err != nil {
		return err
	}
	if err := ctx.Store.AddLog(ctx.Ctx(), l); err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	logger.Debug("Log recorded", "item", l.ItemID, "day", utils.DayKey(l.Day), "slot", l.SlotID, "status", l.Status)
	return nil
}

func formatValue(v float64, unit string) string {
	return strings.TrimSpace(strconv.FormatFloat(v, 'f', -1, 64) + " " + unit)
}

type DoneCmd struct {
	Item string `arg:"" help:"Item name or ID."`
	Day  string `help:"Day to log (YYYY-MM-DD, today, yesterday)." default:"today"`
	Slot string `help:"Session to log for multi-session items."`
}

func (c *DoneCmd) Run(ctx *cli.Context) error {
	t, err := resolve(ctx, c.Item, c.Day, c.Slot)
	if err != nil {
		return err
	}
	if t.cfg.Kind != models.KindCheckbox {
		return errors.Invalid("%q tracks a %s; record it with 'tally value'", t.item.Name, t.cfg.Kind)
	}
	if t.summary.Completed(t.slot.ID) {
		ctx.Printf("%s is already done.\n", t.label())
		return nil
	}
	if err := save(ctx, t.newLog(ctx, models.LogCompleted)); err != nil {
		return err
	}
	ctx.Printf("✓ Done: %s\n", t.label())
	return nil
}

type SkipCmd struct {
	Item   string `arg:"" help:"Item name or ID."`
	Day    string `help:"Day to log (YYYY-MM-DD, today, yesterday)." default:"today"`
	Slot   string `help:"Session to skip for multi-session items."`
	Reason string `help:"Why it was skipped."`
}

func (c *SkipCmd) Run(ctx *cli.Context) error {
	t, err := resolve(ctx, c.Item, c.Day, c.Slot)
	if err != nil {
		return err
	}
	if t.summary.Completed(t.slot.ID) {
		return errors.Invalid("%s is already completed; undo it first", t.label())
	}
	if t.summary.Skipped(t.slot.ID) {
		ctx.Printf("%s is already skipped.\n", t.label())
		return nil
	}
	l := t.newLog(ctx, models.LogSkipped)
	l.SkipReason = validation.SanitizeText(c.Reason)
	if err := save(ctx, l); err != nil {
		return err
	}
	ctx.Printf("↷ Skipped: %s\n", t.label())
	return nil
}

// ValueCmd records a number. Cumulative counters add an entry per call;
// value and metric items keep one reading per session, replacing the last.
type ValueCmd struct {
	Item   string  `arg:"" help:"Item name or ID."`
	Amount float64 `arg:"" help:"Value to record."`
	Day    string  `help:"Day to log (YYYY-MM-DD, today, yesterday)." default:"today"`
	Slot   string  `help:"Session to log for multi-session items."`
}

func (c *ValueCmd) Run(ctx *cli.Context) error {
	t, err := resolve(ctx, c.Item, c.Day, c.Slot)
	if err != nil {
		return err
	}
	if t.cfg.Kind == models.KindCheckbox {
		return errors.Invalid("%q is a checkbox; use 'tally done'", t.item.Name)
	}

	if t.cfg.Kind != models.KindCumulative {
		for _, prev := range t.summary.Logs() {
			if prev.Status != models.LogCompleted || (t.slot.ID != "" && prev.SlotID != t.slot.ID) {
				continue
			}
			if err := ctx.Store.DeleteLog(ctx.Ctx(), prev.ID); err != nil {
				return fmt.Errorf("failed to replace previous value: %w", err)
			}
		}
	}

	l := t.newLog(ctx, models.LogCompleted)
	amount := c.Amount
	l.Value = &amount
	if err := save(ctx, l); err != nil {
		return err
	}

	if t.cfg.Kind == models.KindCumulative {
		total := logbook.Summarize(append(t.summary.Logs(), l)).Aggregate(t.item.Aggregation)
		progress := formatValue(total, t.cfg.Unit)
		if t.cfg.Target > 0 {
			progress += " / " + formatValue(t.cfg.Target, t.cfg.Unit)
		}
		ctx.Printf("✓ Added %s to %s (%s)\n", formatValue(amount, t.cfg.Unit), t.label(), progress)
		return nil
	}
	ctx.Printf("✓ Recorded %s for %s\n", formatValue(amount, t.cfg.Unit), t.label())
	return nil
}

// UndoCmd removes the most recent log of the day (in the session, if given).
type UndoCmd struct {
	Item string `arg:"" help:"Item name or ID."`
	Day  string `help:"Day to undo (YYYY-MM-DD, today, yesterday)." default:"today"`
	Slot string `help:"Only undo logs of this session."`
}

func (c *UndoCmd) Run(ctx *cli.Context) error {
	item, err := ctx.ResolveItem(c.Item, false)
	if err != nil {
		return err
	}
	day, err := ctx.ResolveDay(c.Day)
	if err != nil {
		return err
	}
	dayLogs, err := ctx.Store.GetLogs(ctx.Ctx(), day, day)
	if err != nil {
		return fmt.Errorf("failed to load logs: %w", err)
	}

	var latest *models.Log
	for i := range dayLogs {
		l := &dayLogs[i]
		if l.ItemID != item.ID {
			continue
		}
		if c.Slot != "" && !strings.EqualFold(l.SlotID, c.Slot) {
			continue
		}
		if latest == nil || !l.CompletedAt.Before(latest.CompletedAt) {
			latest = l
		}
	}
	if latest == nil {
		ctx.Printf("Nothing to undo for %q on %s.\n", item.Name, utils.DayKey(day))
		return nil
	}

	if err := ctx.Store.DeleteLog(ctx.Ctx(), latest.ID); err != nil {
		return fmt.Errorf("failed to undo: %w", err)
	}
	logger.Info("Log removed", "item", item.ID, "log", latest.ID)
	ctx.Printf("✓ Removed the %s log of %q on %s\n", latest.Status, item.Name, utils.DayKey(day))
	return nil
}
