// Package status is the read model the presentation layer consumes for a
// single day. It never evaluates schedules itself; everything goes through the
// aggregation engine.
package status

import (
	"time"

	"github.com/julianstephens/tally/internal/aggregate"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

type Status struct {
	day    time.Time
	engine *aggregate.Engine
}

func New(day time.Time, engine *aggregate.Engine) *Status {
	return &Status{day: utils.Day(day), engine: engine}
}

func (s *Status) Day() time.Time { return s.day }

func (s *Status) IsFullyCompleted(item models.Item) bool {
	return s.engine.IsCompleted(item, s.day)
}

func (s *Status) IsSkipped(item models.Item) bool {
	return s.engine.IsSkipped(item, s.day)
}

// SkipReason returns the reason recorded on the day's latest skip.
func (s *Status) SkipReason(item models.Item) string {
	return s.engine.Scheduler().Logs().Summary(item.ID, s.day).SkipReason()
}

// LatestValue returns the most recent value logged on the day. An empty
// slotID matches any slot.
func (s *Status) LatestValue(item models.Item, slotID string) *float64 {
	return s.engine.Scheduler().Logs().Summary(item.ID, s.day).LatestValue(slotID)
}

// CumulativeValue folds the day's values with the item's aggregation mode.
func (s *Status) CumulativeValue(item models.Item) float64 {
	return s.engine.Scheduler().Logs().Summary(item.ID, s.day).Aggregate(item.Aggregation)
}

// CompletionFraction is the weighted progress of items on the day: 1 for an
// empty list or one with nothing to do, 0 when everything present was skipped.
func (s *Status) CompletionFraction(items []models.Item) float64 {
	if len(items) == 0 {
		return 1
	}
	var t aggregate.Tally
	for _, item := range items {
		t.Add(s.engine.Contribution(item, s.day))
	}
	switch {
	case t.AllSkipped():
		return 0
	case t.Total <= 0:
		return 1
	default:
		return t.Fraction()
	}
}
