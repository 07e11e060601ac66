package aggregate

import (
	"time"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// DayClass is how a single day affects a streak.
type DayClass int

const (
	NotScheduled DayClass = iota
	Vacation
	Completed
	Skipped
	Missed
)

func (c DayClass) String() string {
	switch c {
	case Vacation:
		return "vacation"
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	case Missed:
		return "missed"
	default:
		return "not scheduled"
	}
}

// Classify places day in one of the streak classes for item. A completed
// vacation day still counts as completed.
func (e *Engine) Classify(item models.Item, day time.Time) DayClass {
	day = utils.Day(day)
	if !e.sched.IsApplicable(item, day) {
		return NotScheduled
	}
	if e.history().EffectiveKind(item, day) == models.KindContainer &&
		len(e.sched.ApplicableChildren(item, day)) == 0 {
		return NotScheduled
	}
	switch {
	case e.IsSkipped(item, day):
		return Skipped
	case e.IsCompleted(item, day):
		return Completed
	case e.logs().IsVacation(day):
		return Vacation
	default:
		return Missed
	}
}

// CurrentStreak counts completed days walking back from today. Unscheduled,
// vacation and fully skipped days pass through. An unfinished today does not
// break the streak since the day is still in progress.
func (e *Engine) CurrentStreak(item models.Item, today time.Time) int {
	today = utils.Day(today)
	run := 0
	for d := today; !d.Before(streakStart(item, today)); d = utils.AddDays(d, -1) {
		switch e.Classify(item, d) {
		case Completed:
			run++
		case Missed:
			if d.Equal(today) {
				continue
			}
			return run
		}
	}
	return run
}

// LongestStreak is the longest run of completed days from creation through
// today, with the same pass-through rules as CurrentStreak.
func (e *Engine) LongestStreak(item models.Item, today time.Time) int {
	today = utils.Day(today)
	run, best := 0, 0
	for d := streakStart(item, today); !d.After(today); d = utils.AddDays(d, 1) {
		switch e.Classify(item, d) {
		case Completed:
			run++
			if run > best {
				best = run
			}
		case Missed:
			if !d.Equal(today) {
				run = 0
			}
		}
	}
	return best
}

func streakStart(item models.Item, today time.Time) time.Time {
	start := utils.Day(item.CreatedDate)
	limit := utils.AddDays(today, -constants.MaxStreakLookbackDays)
	if start.Before(limit) {
		return limit
	}
	return start
}

// Stats bundles the numbers shown by `tally stats`.
type Stats struct {
	CurrentStreak int
	LongestStreak int
	Rate7         float64
	Rate30        float64
}

func (e *Engine) Stats(item models.Item, today time.Time) Stats {
	return Stats{
		CurrentStreak: e.CurrentStreak(item, today),
		LongestStreak: e.LongestStreak(item, today),
		Rate7:         e.CompletionRate(item, 7, today),
		Rate30:        e.CompletionRate(item, 30, today),
	}
}
