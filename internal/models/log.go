package models

import (
	"strings"
	"time"
)

// LogStatus records what the user did for an item on a day.
type LogStatus string

const (
	LogCompleted LogStatus = "completed"
	LogSkipped   LogStatus = "skipped"
)

// IsValid reports whether s is a known log status.
func (s LogStatus) IsValid() bool {
	return s == LogCompleted || s == LogSkipped
}

// ParseLogStatus decodes a persisted status. Unknown values are treated as completed,
// since a log row only exists because the user acted on the item.
func ParseLogStatus(s string) LogStatus {
	if LogStatus(strings.TrimSpace(strings.ToLower(s))) == LogSkipped {
		return LogSkipped
	}
	return LogCompleted
}

// Log is one user action on an item for a calendar day and (optionally) a slot.
type Log struct {
	ID          string    `json:"id" validate:"required"`
	ItemID      string    `json:"item_id" validate:"required"`
	Day         time.Time `json:"day"`
	SlotID      string    `json:"slot_id,omitempty"`
	Status      LogStatus `json:"status" validate:"log_status"`
	Value       *float64  `json:"value,omitempty"`
	SkipReason  string    `json:"skip_reason,omitempty" validate:"max=280"`
	CompletedAt time.Time `json:"completed_at"`
}

// VacationDay marks a calendar day excluded from rate and streak accounting.
type VacationDay struct {
	Day  time.Time `json:"day"`
	Note string    `json:"note,omitempty"`
}
