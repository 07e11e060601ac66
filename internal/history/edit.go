package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// Mode selects how a structural edit treats the past.
type Mode int

const (
	// FutureOnly preserves the pre-edit config for every day before today.
	FutureOnly Mode = iota
	// Rewrite applies the new config to the item's whole history.
	Rewrite
)

func (m Mode) String() string {
	if m == Rewrite {
		return "rewrite"
	}
	return "future-only"
}

// Edit is the outcome of planning a structural change. Item and Snapshot must
// be persisted together; see storage.Provider.ApplyEdit.
type Edit struct {
	Item     models.Item
	Snapshot *models.Snapshot
	Changed  bool
}

// PlanEdit computes the records a structural edit produces.
//
// In FutureOnly mode, when logged history depends on the item (its own logs,
// or logs of children it held), the pre-edit config is captured in a snapshot
// running from the item's creation (or the day after its latest snapshot)
// through yesterday. The range is empty when the item was
// created today or has already been snapshotted through yesterday, in which
// case no snapshot is produced. Ranges never overlap existing snapshots.
func PlanEdit(item models.Item, next models.Config, today time.Time, existing []models.Snapshot, hasHistory bool, mode Mode) (Edit, error) {
	if next.ParentID != "" && next.ParentID == item.ID {
		return Edit{}, fmt.Errorf("item %s cannot be its own parent", item.ID)
	}
	if item.Config.Equal(next) {
		return Edit{Item: item}, nil
	}

	edit := Edit{Item: item.WithConfig(next), Changed: true}
	if mode == Rewrite || !hasHistory {
		return edit, nil
	}

	today = utils.Day(today)
	from := utils.Day(item.CreatedDate)
	for _, snap := range existing {
		if snap.ItemID != item.ID {
			continue
		}
		if after := utils.AddDays(snap.EffectiveUntil, 1); after.After(from) {
			from = after
		}
	}
	until := utils.AddDays(today, -1)
	if from.After(until) {
		return edit, nil
	}

	edit.Snapshot = &models.Snapshot{
		ID:             uuid.NewString(),
		ItemID:         item.ID,
		Config:         item.Config,
		EffectiveFrom:  from,
		EffectiveUntil: until,
		CreatedAt:      time.Now().UTC(),
	}
	return edit, nil
}
