package history

import (
	"sort"
	"time"

	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
)

// Overlap records two snapshots of the same item whose ranges share a day.
// Snapshot creation never produces these; they only appear in damaged or
// hand-edited data.
type Overlap struct {
	ItemID string
	First  models.Snapshot
	Second models.Snapshot
}

// Store answers "what was this item's structure on day D".
//
// Every engine computation that depends on an item's schedule, slots, kind,
// target or parent must resolve it through a Store rather than reading the
// item's live fields.
type Store struct {
	byItem   map[string][]models.Snapshot
	overlaps []Overlap
}

// NewStore indexes snapshots by item. Overlapping ranges are detected once
// here and reported as warnings.
func NewStore(snapshots []models.Snapshot) *Store {
	s := &Store{byItem: make(map[string][]models.Snapshot)}
	for _, snap := range snapshots {
		s.byItem[snap.ItemID] = append(s.byItem[snap.ItemID], snap)
	}
	for itemID, list := range s.byItem {
		sort.SliceStable(list, func(i, j int) bool {
			if !list[i].EffectiveFrom.Equal(list[j].EffectiveFrom) {
				return list[i].EffectiveFrom.Before(list[j].EffectiveFrom)
			}
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if list[i].Overlaps(list[j]) {
					s.overlaps = append(s.overlaps, Overlap{ItemID: itemID, First: list[i], Second: list[j]})
					logger.Warn("Overlapping configuration snapshots",
						"item", itemID, "first", list[i].ID, "second", list[j].ID)
				}
			}
		}
	}
	return s
}

// Overlaps returns every pair of overlapping snapshots found at construction.
func (s *Store) Overlaps() []Overlap {
	return s.overlaps
}

// ForItem returns the item's snapshots ordered by EffectiveFrom.
func (s *Store) ForItem(itemID string) []models.Snapshot {
	return s.byItem[itemID]
}

// Covering returns the snapshot whose range contains day. If damaged data
// yields several candidates the most recently created one wins.
func (s *Store) Covering(itemID string, day time.Time) (models.Snapshot, bool) {
	var (
		best  models.Snapshot
		found bool
	)
	for _, snap := range s.byItem[itemID] {
		if !snap.Covers(day) {
			continue
		}
		if !found || snap.CreatedAt.After(best.CreatedAt) ||
			(snap.CreatedAt.Equal(best.CreatedAt) && snap.ID > best.ID) {
			best = snap
			found = true
		}
	}
	return best, found
}

// Effective returns the item's structural config as it stood on day.
func (s *Store) Effective(item models.Item, day time.Time) models.Config {
	if s != nil {
		if snap, ok := s.Covering(item.ID, day); ok {
			return snap.Config
		}
	}
	return item.Config
}

func (s *Store) EffectiveRecurrence(item models.Item, day time.Time) models.Recurrence {
	return s.Effective(item, day).Recurrence
}

func (s *Store) EffectiveSlots(item models.Item, day time.Time) models.SlotSet {
	return s.Effective(item, day).Slots
}

func (s *Store) EffectiveParent(item models.Item, day time.Time) string {
	return s.Effective(item, day).ParentID
}

func (s *Store) EffectiveKind(item models.Item, day time.Time) models.ItemKind {
	return s.Effective(item, day).Kind
}

func (s *Store) EffectiveTarget(item models.Item, day time.Time) float64 {
	return s.Effective(item, day).Target
}
