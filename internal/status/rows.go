package status

import (
	"time"

	"github.com/julianstephens/tally/internal/models"
)

// State is the one-word status shown next to a row.
type State string

const (
	StateDone    State = "done"
	StateSkipped State = "skipped"
	StatePartial State = "partial"
	StateOpen    State = "open"
)

// Row is one line of the day view.
type Row struct {
	Item models.Item
	// Config is the item's structure as it was on the row's day.
	Config   models.Config
	Depth    int
	State    State
	Progress float64
	// CarriedFrom is set when the row is a missed occurrence from an earlier day.
	CarriedFrom *time.Time
	Value       *float64
	SkipReason  string
}

// Rows flattens the applicable items and, beneath each container, its
// applicable children. Items that are neither due nor carried are omitted.
func (s *Status) Rows(items []models.Item) []Row {
	sched := s.engine.Scheduler()
	var rows []Row
	for _, item := range items {
		cfg := sched.History().Effective(item, s.day)
		if cfg.Kind == models.KindContainer {
			if !sched.IsApplicable(item, s.day) {
				continue
			}
			rows = append(rows, s.row(item, 0))
			for _, child := range sched.ApplicableChildren(item, s.day) {
				rows = append(rows, s.row(child, 1))
			}
			continue
		}
		if !sched.IsApplicable(item, s.day) {
			if _, ok := sched.Backlog(item, s.day); !ok {
				continue
			}
		}
		rows = append(rows, s.row(item, 0))
	}
	return rows
}

func (s *Status) row(item models.Item, depth int) Row {
	sched := s.engine.Scheduler()
	cfg := sched.History().Effective(item, s.day)
	r := Row{
		Item:       item,
		Config:     cfg,
		Depth:      depth,
		Progress:   s.CompletionFraction([]models.Item{item}),
		SkipReason: s.SkipReason(item),
	}
	switch {
	case s.IsSkipped(item):
		r.State = StateSkipped
	case s.IsFullyCompleted(item):
		r.State = StateDone
	case s.engine.Contribution(item, s.day).Completed > 0:
		r.State = StatePartial
	default:
		r.State = StateOpen
	}
	if !sched.IsApplicable(item, s.day) {
		if carry, ok := sched.Backlog(item, s.day); ok {
			origin := carry.Origin
			r.CarriedFrom = &origin
		}
	}
	if cfg.Kind == models.KindCumulative {
		v := s.CumulativeValue(item)
		r.Value = &v
	} else {
		r.Value = s.LatestValue(item, "")
	}
	return r
}
