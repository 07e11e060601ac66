package aggregate

import (
	"math"

	"github.com/julianstephens/tally/internal/logbook"
	"github.com/julianstephens/tally/internal/models"
)

const epsilon = 1e-9

// Tally is the weighted progress of some set of units (slots, counters, or a
// container's children) on one day.
//
// A unit skipped without any completion takes no part in Total or Done; it is
// only counted in Skipped.
type Tally struct {
	Total     float64
	Done      float64
	Units     int
	Skipped   int
	Completed int
}

func (t *Tally) Add(o Tally) {
	t.Total += o.Total
	t.Done += o.Done
	t.Units += o.Units
	t.Skipped += o.Skipped
	t.Completed += o.Completed
}

// Fraction is Done/Total, or 0 when nothing counts.
func (t Tally) Fraction() float64 {
	if t.Total <= 0 {
		return 0
	}
	return math.Min(t.Done/t.Total, 1)
}

// AllSkipped reports whether every unit was skipped and none completed.
func (t Tally) AllSkipped() bool {
	return t.Units > 0 && t.Skipped == t.Units
}

// Full reports whether every counted unit is done.
func (t Tally) Full() bool {
	return t.Total > 0 && t.Done >= t.Total-epsilon
}

// slotTally weighs each slot as one unit. Single-slot items match logs in any
// slot.
func slotTally(slots models.SlotSet, multi bool, day logbook.Summary) Tally {
	var t Tally
	for _, slot := range slots {
		id := slot.ID
		if !multi {
			id = ""
		}
		t.Units++
		switch {
		case day.Completed(id):
			t.Total++
			t.Done++
			t.Completed++
		case day.Skipped(id):
			t.Skipped++
		default:
			t.Total++
		}
	}
	return t
}

// counterTally weighs a cumulative counter as one unit whose progress is the
// day's aggregate over the target. Counters without a target are
// informational and contribute nothing.
func counterTally(target float64, mode models.AggregationMode, day logbook.Summary) Tally {
	if target <= 0 {
		return Tally{}
	}
	if day.CompletedCount() == 0 && day.SkippedCount() > 0 {
		return Tally{Units: 1, Skipped: 1}
	}
	t := Tally{Units: 1, Total: 1}
	if day.CompletedCount() > 0 {
		t.Completed = 1
	}
	t.Done = math.Min(day.Aggregate(mode)/target, 1)
	return t
}
