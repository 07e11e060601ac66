package logbook

import (
	"github.com/julianstephens/tally/internal/models"
)

// Summary is one item's activity on one day.
//
// Slot queries take a slot id; the empty id matches logs in any slot, which
// is how single-slot items are evaluated.
type Summary struct {
	logs      []models.Log
	completed map[string]int
	skipped   map[string]int
}

func Summarize(logs []models.Log) Summary {
	s := Summary{logs: logs, completed: map[string]int{}, skipped: map[string]int{}}
	for _, l := range logs {
		switch l.Status {
		case models.LogSkipped:
			s.skipped[l.SlotID]++
		default:
			s.completed[l.SlotID]++
		}
	}
	return s
}

func (s Summary) Logs() []models.Log { return s.logs }

func (s Summary) Completed(slotID string) bool {
	return count(s.completed, slotID) > 0
}

func (s Summary) Skipped(slotID string) bool {
	return count(s.skipped, slotID) > 0
}

// Touched reports whether the slot has any log at all.
func (s Summary) Touched(slotID string) bool {
	return s.Completed(slotID) || s.Skipped(slotID)
}

func (s Summary) CompletedCount() int { return count(s.completed, "") }
func (s Summary) SkippedCount() int   { return count(s.skipped, "") }

// Values returns the numeric values of completed logs in recording order.
func (s Summary) Values() []float64 {
	var out []float64
	for _, l := range s.logs {
		if l.Status == models.LogCompleted && l.Value != nil {
			out = append(out, *l.Value)
		}
	}
	return out
}

// Aggregate folds completed values by sum or average. No values yields 0.
func (s Summary) Aggregate(mode models.AggregationMode) float64 {
	values := s.Values()
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	if mode == models.AggregateAverage {
		return total / float64(len(values))
	}
	return total
}

// LatestValue returns the most recently recorded completed value in the slot.
func (s Summary) LatestValue(slotID string) *float64 {
	for i := len(s.logs) - 1; i >= 0; i-- {
		l := s.logs[i]
		if l.Status != models.LogCompleted || l.Value == nil {
			continue
		}
		if slotID == "" || l.SlotID == slotID {
			v := *l.Value
			return &v
		}
	}
	return nil
}

// SkipReason returns the reason on the most recent skip, if any.
func (s Summary) SkipReason() string {
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].Status == models.LogSkipped && s.logs[i].SkipReason != "" {
			return s.logs[i].SkipReason
		}
	}
	return ""
}

func count(m map[string]int, slotID string) int {
	if slotID != "" {
		return m[slotID]
	}
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}
