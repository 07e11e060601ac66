package models

import (
	"time"

	"github.com/julianstephens/tally/internal/utils"
)

// Snapshot preserves an item's structural config for a closed range of past days.
// Both bounds are inclusive calendar days.
type Snapshot struct {
	ID             string    `json:"id" validate:"required"`
	ItemID         string    `json:"item_id" validate:"required"`
	Config         Config    `json:"config"`
	EffectiveFrom  time.Time `json:"effective_from"`
	EffectiveUntil time.Time `json:"effective_until"`
	CreatedAt      time.Time `json:"created_at"`
}

// Covers reports whether day falls within the snapshot's range.
func (s Snapshot) Covers(day time.Time) bool {
	day = utils.Day(day)
	return !day.Before(utils.Day(s.EffectiveFrom)) && !day.After(utils.Day(s.EffectiveUntil))
}

// Overlaps reports whether two snapshot ranges share a day.
func (s Snapshot) Overlaps(o Snapshot) bool {
	return !utils.Day(s.EffectiveUntil).Before(utils.Day(o.EffectiveFrom)) &&
		!utils.Day(o.EffectiveUntil).Before(utils.Day(s.EffectiveFrom))
}
