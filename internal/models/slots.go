package models

import (
	"encoding/json"
	"strings"
)

// TimeSlot is one named session within a day (e.g. Morning).
type TimeSlot struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// SlotSet is the ordered set of sessions an item is tracked in.
// An empty set means the implicit single all-day slot.
type SlotSet []TimeSlot

// AllDay is the implicit slot of an item without named sessions. Its empty id
// matches logs in any slot.
var AllDay = TimeSlot{ID: "", Name: "All day"}

// Normalize returns the slots to evaluate, substituting AllDay for an empty set.
func (s SlotSet) Normalize() SlotSet {
	if len(s) == 0 {
		return SlotSet{AllDay}
	}
	return s
}

// SessionsPerDay is the number of independent completions an item expects per day.
func (s SlotSet) SessionsPerDay() int {
	if len(s) < 1 {
		return 1
	}
	return len(s)
}

// IsMulti reports whether completion is tracked per slot.
func (s SlotSet) IsMulti() bool {
	return len(s) > 1
}

// IDs returns the slot identifiers in order.
func (s SlotSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, slot := range s {
		ids = append(ids, slot.ID)
	}
	return ids
}

// Find returns the slot with the given id.
func (s SlotSet) Find(id string) (TimeSlot, bool) {
	for _, slot := range s {
		if slot.ID == id {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// Equal compares two slot sets by id and order.
func (s SlotSet) Equal(o SlotSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i].ID != o[i].ID {
			return false
		}
	}
	return true
}

// NewSlotSet builds a slot set from names, deriving ids from the names.
func NewSlotSet(names ...string) SlotSet {
	var out SlotSet
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, TimeSlot{ID: strings.ToLower(strings.ReplaceAll(name, " ", "-")), Name: name})
	}
	return out
}

// ParseSlotSet decodes a persisted slot set. Corrupt or empty data yields the
// implicit single slot rather than an error.
func ParseSlotSet(raw string) SlotSet {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var slots SlotSet
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil
	}
	valid := slots[:0]
	for _, slot := range slots {
		if slot.ID != "" {
			valid = append(valid, slot)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}
