// Package aggregate computes day completion, multi-day rates and streaks.
//
// All lookups of schedule, slots, kind, target and container membership go
// through the scheduler and its snapshot store, so results for past days do not
// move when an item is edited for future days only.
package aggregate

import (
	"time"

	"github.com/julianstephens/tally/internal/history"
	"github.com/julianstephens/tally/internal/logbook"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/scheduler"
	"github.com/julianstephens/tally/internal/utils"
)

type Engine struct {
	sched *scheduler.Scheduler
}

func New(s *scheduler.Scheduler) *Engine {
	return &Engine{sched: s}
}

// FromDataset builds a ready engine over a loaded dataset.
func FromDataset(ds models.Dataset) *Engine {
	return New(scheduler.FromDataset(ds))
}

func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }

func (e *Engine) history() *history.Store { return e.sched.History() }
func (e *Engine) logs() *logbook.Book     { return e.sched.Logs() }

// Contribution returns the item's weighted progress on day, including
// children carried onto a container and a leaf's own carried backlog.
func (e *Engine) Contribution(item models.Item, day time.Time) Tally {
	day = utils.Day(day)
	if e.history().EffectiveKind(item, day) != models.KindContainer {
		return e.leaf(item, day)
	}
	if !e.sched.IsApplicable(item, day) {
		return Tally{}
	}
	var t Tally
	for _, child := range e.sched.ApplicableChildren(item, day) {
		t.Add(e.leaf(child, day))
	}
	return t
}

func (e *Engine) leaf(item models.Item, day time.Time) Tally {
	if e.sched.IsApplicable(item, day) {
		return e.scheduled(item, day)
	}
	if carry, ok := e.sched.Backlog(item, day); ok {
		multi := e.history().EffectiveSlots(item, carry.Origin).IsMulti()
		return slotTally(carry.Overdue, multi, e.logs().Summary(item.ID, day))
	}
	return Tally{}
}

func (e *Engine) scheduled(item models.Item, day time.Time) Tally {
	cfg := e.history().Effective(item, day)
	summary := e.logs().Summary(item.ID, day)
	if cfg.Kind == models.KindCumulative {
		return counterTally(cfg.Target, item.Aggregation, summary)
	}
	return slotTally(cfg.Slots.Normalize(), cfg.Slots.IsMulti(), summary)
}

// DayResult is the completion of a set of items on one day.
type DayResult struct {
	Rate       float64
	AllSkipped bool
	// Scheduled is false when nothing contributed at all, which callers show
	// differently from a day where everything was skipped.
	Scheduled bool
}

// DayStatus folds the contributions of items (normally the top-level items
// of day) into a single rate.
func (e *Engine) DayStatus(items []models.Item, day time.Time) DayResult {
	var t Tally
	for _, item := range items {
		t.Add(e.Contribution(item, day))
	}
	switch {
	case t.Units == 0:
		return DayResult{}
	case t.AllSkipped():
		return DayResult{AllSkipped: true, Scheduled: true}
	default:
		return DayResult{Rate: t.Fraction(), Scheduled: true}
	}
}

// IsCompleted reports whether every slot (or the target) of the item was met
// on day. Containers delegate to IsContainerCompleted.
func (e *Engine) IsCompleted(item models.Item, day time.Time) bool {
	cfg := e.history().Effective(item, day)
	switch {
	case cfg.Kind == models.KindContainer:
		return e.IsContainerCompleted(item, day)
	case e.informational(item, day):
		return e.sched.IsApplicable(item, day) && e.logs().Summary(item.ID, day).CompletedCount() > 0
	default:
		return e.leaf(item, day).Full()
	}
}

// IsSkipped reports whether the item was skipped on day without any completion.
func (e *Engine) IsSkipped(item models.Item, day time.Time) bool {
	cfg := e.history().Effective(item, day)
	switch {
	case cfg.Kind == models.KindContainer:
		return e.IsContainerSkipped(item, day)
	case e.informational(item, day):
		s := e.logs().Summary(item.ID, day)
		return e.sched.IsApplicable(item, day) && s.CompletedCount() == 0 && s.SkippedCount() > 0
	default:
		return e.leaf(item, day).AllSkipped()
	}
}

// IsContainerCompleted is true when the container has at least one applicable
// child on day and each of them is either completed or skipped. Counters
// without a target are left out like they are from ratios, unless they are
// all the container holds that day.
func (e *Engine) IsContainerCompleted(container models.Item, day time.Time) bool {
	children := e.scored(container, day)
	if len(children) == 0 {
		return false
	}
	for _, child := range children {
		if !e.IsCompleted(child, day) && !e.IsSkipped(child, day) {
			return false
		}
	}
	return true
}

// IsContainerSkipped is true when every scored child was skipped and none
// has a completion.
func (e *Engine) IsContainerSkipped(container models.Item, day time.Time) bool {
	children := e.scored(container, day)
	if len(children) == 0 {
		return false
	}
	for _, child := range children {
		if !e.IsSkipped(child, day) {
			return false
		}
	}
	return true
}

// scored returns the applicable children of container that decide its
// completion on day.
func (e *Engine) scored(container models.Item, day time.Time) []models.Item {
	if !e.sched.IsApplicable(container, day) {
		return nil
	}
	children := e.sched.ApplicableChildren(container, day)
	var out []models.Item
	for _, child := range children {
		if !e.informational(child, day) {
			out = append(out, child)
		}
	}
	if len(out) == 0 {
		return children
	}
	return out
}

// informational reports whether item is a counter with no target on day.
func (e *Engine) informational(item models.Item, day time.Time) bool {
	cfg := e.history().Effective(item, day)
	return cfg.Kind == models.KindCumulative && cfg.Target <= 0
}

// CompletionRate walks the last days calendar days ending at today.
//
// Vacation days, days outside the item's lifecycle and days not scheduled
// under their own effective rule are left out. Skipped units drop out of the
// denominator. A container day counts as one expected unit scored by its
// fractional completion, so the result is the mean of its daily fractions.
func (e *Engine) CompletionRate(item models.Item, days int, today time.Time) float64 {
	today = utils.Day(today)
	var expected, completed float64
	for i := 0; i < days; i++ {
		d := utils.AddDays(today, -i)
		if e.logs().IsVacation(d) || !e.sched.IsApplicable(item, d) {
			continue
		}
		if e.history().EffectiveKind(item, d) == models.KindContainer {
			t := e.Contribution(item, d)
			if t.Total > 0 {
				expected++
				completed += t.Fraction()
			}
			continue
		}
		t := e.scheduled(item, d)
		expected += t.Total
		completed += t.Done
	}
	if expected <= 0 {
		return 0
	}
	return completed / expected
}
