package validation

import (
	"fmt"
	"sort"

	"github.com/julianstephens/tally/internal/history"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictOverlappingSnapshots ConflictType = "overlapping_snapshots"
	ConflictInvertedSnapshot     ConflictType = "inverted_snapshot"
	ConflictOrphanSnapshot       ConflictType = "orphan_snapshot"
	ConflictNestedContainer      ConflictType = "nested_container"
	ConflictDanglingParent       ConflictType = "dangling_parent"
	ConflictOrphanLog            ConflictType = "orphan_log"
	ConflictDuplicateCompletion  ConflictType = "duplicate_completion"
	ConflictUnknownSlot          ConflictType = "unknown_slot"
	ConflictDuplicateItemName    ConflictType = "duplicate_item_name"
	ConflictInvalidField         ConflictType = "invalid_field"
)

// Conflict represents a detected integrity problem in the stored data
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD format (if applicable)
	Items       []string // Item names involved
	ItemIDs     []string
	LogIDs      []string // Logs involved (for auto-fixing)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

// Validator checks a loaded dataset for integrity problems
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateDataset reports every integrity problem it can find. The engine
// tolerates all of them with documented fallbacks; this is what `doctor`
// surfaces to the user.
func (v *Validator) ValidateDataset(ds models.Dataset) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	items := make(map[string]models.Item, len(ds.Items))
	nameIDs := make(map[string][]string)
	for _, item := range ds.Items {
		if item.DeletedAt != nil {
			continue
		}
		items[item.ID] = item
		if item.Name != "" {
			nameIDs[item.Name] = append(nameIDs[item.Name], item.ID)
		}
	}

	names := make([]string, 0, len(nameIDs))
	for name := range nameIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ids := nameIDs[name]; len(ids) > 1 {
			result.add(Conflict{
				Type:        ConflictDuplicateItemName,
				Description: fmt.Sprintf("Duplicate item name: \"%s\" (IDs: %v)", name, ids),
				Items:       []string{name},
				ItemIDs:     ids,
			})
		}
	}

	for _, item := range ds.Items {
		if item.DeletedAt != nil {
			continue
		}
		if err := ValidateItem(item); err != nil {
			result.add(Conflict{
				Type:        ConflictInvalidField,
				Description: fmt.Sprintf("Item \"%s\": %v", item.Name, err),
				Items:       []string{item.Name},
				ItemIDs:     []string{item.ID},
			})
		}
		if item.ParentID == "" {
			continue
		}
		parent, ok := items[item.ParentID]
		switch {
		case !ok:
			result.add(Conflict{
				Type:        ConflictDanglingParent,
				Description: fmt.Sprintf("Item \"%s\" belongs to missing container %s", item.Name, item.ParentID),
				Items:       []string{item.Name},
				ItemIDs:     []string{item.ID},
			})
		case !parent.IsContainer() || item.IsContainer():
			result.add(Conflict{
				Type:        ConflictNestedContainer,
				Description: fmt.Sprintf("Item \"%s\" is nested under \"%s\", only one level of leaf items under a container is supported", item.Name, parent.Name),
				Items:       []string{item.Name, parent.Name},
				ItemIDs:     []string{item.ID, parent.ID},
			})
		}
	}

	store := history.NewStore(ds.Snapshots)
	for _, o := range store.Overlaps() {
		result.add(Conflict{
			Type: ConflictOverlappingSnapshots,
			Description: fmt.Sprintf("Snapshots %s (%s..%s) and %s (%s..%s) of item %s overlap",
				o.First.ID, utils.DayKey(o.First.EffectiveFrom), utils.DayKey(o.First.EffectiveUntil),
				o.Second.ID, utils.DayKey(o.Second.EffectiveFrom), utils.DayKey(o.Second.EffectiveUntil),
				itemLabel(items, o.ItemID)),
			ItemIDs: []string{o.ItemID},
		})
	}
	for _, snap := range ds.Snapshots {
		if _, ok := items[snap.ItemID]; !ok {
			result.add(Conflict{
				Type:        ConflictOrphanSnapshot,
				Description: fmt.Sprintf("Snapshot %s refers to missing item %s", snap.ID, snap.ItemID),
				ItemIDs:     []string{snap.ItemID},
			})
		}
		if utils.Day(snap.EffectiveFrom).After(utils.Day(snap.EffectiveUntil)) {
			result.add(Conflict{
				Type:        ConflictInvertedSnapshot,
				Description: fmt.Sprintf("Snapshot %s ends before it starts", snap.ID),
				ItemIDs:     []string{snap.ItemID},
			})
		}
	}

	v.validateLogs(ds.Logs, items, store, &result)
	return result
}

func (v *Validator) validateLogs(logs []models.Log, items map[string]models.Item, store *history.Store, result *ValidationResult) {
	type dayKey struct{ item, day, slot string }
	completions := make(map[dayKey][]string)

	for _, l := range logs {
		item, ok := items[l.ItemID]
		if !ok {
			result.add(Conflict{
				Type:        ConflictOrphanLog,
				Description: fmt.Sprintf("Log %s refers to missing item %s", l.ID, l.ItemID),
				Date:        utils.DayKey(l.Day),
				LogIDs:      []string{l.ID},
			})
			continue
		}
		cfg := store.Effective(item, l.Day)
		if cfg.Slots.IsMulti() {
			if _, found := cfg.Slots.Find(l.SlotID); !found {
				result.add(Conflict{
					Type:        ConflictUnknownSlot,
					Description: fmt.Sprintf("Log %s for \"%s\" on %s uses slot %q which the item did not have that day", l.ID, item.Name, utils.DayKey(l.Day), l.SlotID),
					Date:        utils.DayKey(l.Day),
					Items:       []string{item.Name},
					LogIDs:      []string{l.ID},
				})
			}
		}
		if l.Status == models.LogCompleted && cfg.Kind != models.KindCumulative {
			slot := l.SlotID
			if !cfg.Slots.IsMulti() {
				slot = ""
			}
			k := dayKey{item.ID, utils.DayKey(l.Day), slot}
			completions[k] = append(completions[k], l.ID)
		}
	}

	keys := make([]dayKey, 0, len(completions))
	for k := range completions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].item != keys[j].item {
			return keys[i].item < keys[j].item
		}
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].slot < keys[j].slot
	})
	for _, k := range keys {
		ids := completions[k]
		if len(ids) < 2 {
			continue
		}
		name := items[k.item].Name
		result.add(Conflict{
			Type:        ConflictDuplicateCompletion,
			Description: fmt.Sprintf("\"%s\" has %d completions on %s", name, len(ids), k.day),
			Date:        k.day,
			Items:       []string{name},
			ItemIDs:     []string{k.item},
			LogIDs:      ids,
		})
	}
}

// AutoFixDuplicateCompletions keeps the first completion of each duplicate
// group and deletes the rest through deleteFunc.
func AutoFixDuplicateCompletions(conflicts []Conflict, deleteFunc func(id string) error) []FixAction {
	actions := []FixAction{}
	for _, conflict := range conflicts {
		if conflict.Type != ConflictDuplicateCompletion || len(conflict.LogIDs) <= 1 {
			continue
		}
		var deleted, failed []string
		for _, id := range conflict.LogIDs[1:] {
			if err := deleteFunc(id); err != nil {
				failed = append(failed, id)
				continue
			}
			deleted = append(deleted, id)
		}
		if len(deleted) > 0 {
			msg := fmt.Sprintf("Removed %d duplicate completion(s) of \"%s\" on %s", len(deleted), firstOr(conflict.Items, "?"), conflict.Date)
			if len(failed) > 0 {
				msg += fmt.Sprintf(" (failed to remove: %v)", failed)
			}
			actions = append(actions, FixAction{Action: msg, SourceConflict: conflict})
		} else if len(failed) > 0 {
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Failed to remove duplicates for \"%s\": %v", firstOr(conflict.Items, "?"), failed),
				SourceConflict: conflict,
			})
		}
	}
	return actions
}

func (vr *ValidationResult) add(c Conflict) {
	vr.Conflicts = append(vr.Conflicts, c)
}

func itemLabel(items map[string]models.Item, id string) string {
	if item, ok := items[id]; ok {
		return fmt.Sprintf("\"%s\"", item.Name)
	}
	return id
}

func firstOr(s []string, fallback string) string {
	if len(s) == 0 {
		return fallback
	}
	return s[0]
}
