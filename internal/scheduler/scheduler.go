package scheduler

import (
	"sort"
	"time"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/graph"
	"github.com/julianstephens/tally/internal/history"
	"github.com/julianstephens/tally/internal/logbook"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// Scheduler decides which items are relevant on a given day.
//
// It is stateless beyond the collections it is built from; callers construct
// a new one after every mutation instead of updating it.
type Scheduler struct {
	graph   *graph.Graph
	history *history.Store
	logs    *logbook.Book
}

func New(g *graph.Graph, h *history.Store, logs *logbook.Book) *Scheduler {
	return &Scheduler{graph: g, history: h, logs: logs}
}

// FromDataset builds the graph, snapshot store and log book in one step.
func FromDataset(ds models.Dataset) *Scheduler {
	return New(graph.New(ds.Items), history.NewStore(ds.Snapshots), logbook.New(ds.Logs, ds.Vacations))
}

func (s *Scheduler) Graph() *graph.Graph     { return s.graph }
func (s *Scheduler) History() *history.Store { return s.history }
func (s *Scheduler) Logs() *logbook.Book     { return s.logs }

// InLifecycle reports whether day falls between the item's creation and its
// stop date. Archived items without a stop date are closed at archive time.
// A deleted item ends the day before it was deleted.
func (s *Scheduler) InLifecycle(item models.Item, day time.Time) bool {
	day = utils.Day(day)
	if day.Before(utils.Day(item.CreatedDate)) {
		return false
	}
	if item.DeletedAt != nil && !day.Before(utils.Day(*item.DeletedAt)) {
		return false
	}
	if item.StoppedDate != nil {
		return !day.After(utils.Day(*item.StoppedDate))
	}
	if item.Archived && item.ArchivedAt != nil {
		return !day.After(utils.Day(*item.ArchivedAt))
	}
	return true
}

// IsApplicable reports whether the item is due on day under the rule that was
// in effect on that day.
//
// Sticky items stay applicable until they have as many completions as slots.
// Only completions dated before day count, so the day an item is finished on
// remains applicable.
func (s *Scheduler) IsApplicable(item models.Item, day time.Time) bool {
	day = utils.Day(day)
	if !s.InLifecycle(item, day) {
		return false
	}
	cfg := s.history.Effective(item, day)
	if cfg.Recurrence.Kind == models.RecurrenceSticky {
		return s.logs.CompletedBefore(item.ID, day) < cfg.Slots.SessionsPerDay()
	}
	return cfg.Recurrence.IsScheduled(day)
}

// Carry is a missed periodic occurrence surfacing on a later day.
type Carry struct {
	Origin  time.Time
	Overdue models.SlotSet
}

// Backlog returns the slots of the most recent missed periodic occurrence
// that were still unresolved at the start of day. Resolutions logged on day
// itself are not subtracted, so a carried item stays visible on the day it is
// dealt with.
func (s *Scheduler) Backlog(item models.Item, day time.Time) (Carry, bool) {
	day = utils.Day(day)
	if !s.InLifecycle(item, day) || !carries(s.history.EffectiveKind(item, day)) {
		return Carry{}, false
	}
	if s.IsApplicable(item, day) {
		return Carry{}, false
	}

	origin, ok := s.lastOccurrence(item, day)
	if !ok {
		return Carry{}, false
	}
	cfg := s.history.Effective(item, origin)
	if !cfg.Recurrence.IsPeriodic() || !carries(cfg.Kind) {
		return Carry{}, false
	}

	resolved := logbook.Summarize(s.logs.InRange(item.ID, origin, utils.AddDays(day, -1)))
	overdue := unresolved(cfg.Slots.Normalize(), cfg.Slots.IsMulti(), resolved)
	if len(overdue) == 0 {
		return Carry{}, false
	}
	return Carry{Origin: origin, Overdue: overdue}, true
}

// CarryForward returns the slots of a missed periodic occurrence that are
// still outstanding on day, or false if nothing is overdue.
//
// An item scheduled on day never carries; the fresh occurrence supersedes the
// backlog. The backward scan is bounded and resolves each candidate day
// against that day's own effective rule.
func (s *Scheduler) CarryForward(item models.Item, day time.Time) (Carry, bool) {
	backlog, ok := s.Backlog(item, day)
	if !ok {
		return Carry{}, false
	}
	multi := s.history.EffectiveSlots(item, backlog.Origin).IsMulti()
	overdue := unresolved(backlog.Overdue, multi, s.logs.Summary(item.ID, day))
	if len(overdue) == 0 {
		return Carry{}, false
	}
	return Carry{Origin: backlog.Origin, Overdue: overdue}, true
}

// lastOccurrence scans backward from the day before day for the most recent
// scheduled day, never past creation or the lookback bound.
func (s *Scheduler) lastOccurrence(item models.Item, day time.Time) (time.Time, bool) {
	created := utils.Day(item.CreatedDate)
	for i := 1; i <= constants.CarryForwardLookbackDays; i++ {
		d := utils.AddDays(day, -i)
		if d.Before(created) {
			return time.Time{}, false
		}
		if s.history.EffectiveRecurrence(item, d).IsScheduled(d) {
			return d, true
		}
	}
	return time.Time{}, false
}

// ApplicableChildren returns the items that belonged to container on day and
// are either due that day or carrying a backlog onto it, in display order.
// Membership is resolved per child through the snapshot store.
func (s *Scheduler) ApplicableChildren(container models.Item, day time.Time) []models.Item {
	day = utils.Day(day)
	var out []models.Item
	for _, child := range s.graph.Every() {
		if child.ID == container.ID {
			continue
		}
		cfg := s.history.Effective(child, day)
		if cfg.ParentID != container.ID || cfg.Kind == models.KindContainer {
			continue
		}
		if s.IsApplicable(child, day) {
			out = append(out, child)
			continue
		}
		if _, ok := s.Backlog(child, day); ok {
			out = append(out, child)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return graph.Less(out[i], out[j]) })
	return out
}

// TopLevel returns the items that had no parent on day and were alive on it.
func (s *Scheduler) TopLevel(day time.Time) []models.Item {
	var out []models.Item
	for _, item := range s.graph.Every() {
		if item.DeletedAt != nil && !s.InLifecycle(item, day) {
			continue
		}
		if s.history.EffectiveParent(item, day) == "" {
			out = append(out, item)
		}
	}
	return out
}

// HasHistory reports whether any log depends on the item's past structure:
// one of its own, or one of an item that was its child on the logged day.
func (s *Scheduler) HasHistory(item models.Item) bool {
	if s.logs.HasLogs(item.ID) {
		return true
	}
	for _, other := range s.graph.Every() {
		if other.ID == item.ID {
			continue
		}
		for _, l := range s.logs.ForItem(other.ID) {
			if s.history.EffectiveParent(other, l.Day) == item.ID {
				return true
			}
		}
	}
	return false
}

func carries(kind models.ItemKind) bool {
	return kind != models.KindContainer && kind != models.KindCumulative
}

// unresolved returns the slots of set with no completion or skip in logs.
// Single-slot items match logs in any slot.
func unresolved(set models.SlotSet, multi bool, logs logbook.Summary) models.SlotSet {
	var out models.SlotSet
	for _, slot := range set {
		id := slot.ID
		if !multi {
			id = ""
		}
		if !logs.Touched(id) {
			out = append(out, slot)
		}
	}
	return out
}
