package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ItemKind represents what kind of trackable unit an item is.
type ItemKind string

const (
	KindCheckbox   ItemKind = "checkbox"
	KindValue      ItemKind = "value"
	KindCumulative ItemKind = "cumulative"
	KindMetric     ItemKind = "metric"
	KindContainer  ItemKind = "container"
)

// IsValid reports whether k is one of the known item kinds.
func (k ItemKind) IsValid() bool {
	switch k {
	case KindCheckbox, KindValue, KindCumulative, KindMetric, KindContainer:
		return true
	default:
		return false
	}
}

// ParseItemKind decodes a persisted item kind. Unknown values fall back to checkbox.
func ParseItemKind(s string) ItemKind {
	k := ItemKind(strings.TrimSpace(strings.ToLower(s)))
	if !k.IsValid() {
		return KindCheckbox
	}
	return k
}

// AggregationMode selects how a cumulative counter folds a day's values.
type AggregationMode string

const (
	AggregateSum     AggregationMode = "sum"
	AggregateAverage AggregationMode = "average"
)

// ParseAggregationMode decodes a persisted aggregation mode. Missing or unknown values mean sum.
func ParseAggregationMode(s string) AggregationMode {
	switch AggregationMode(strings.TrimSpace(strings.ToLower(s))) {
	case AggregateAverage:
		return AggregateAverage
	default:
		return AggregateSum
	}
}

// ParseRecurrence decodes a persisted recurrence rule. Corrupt data yields daily.
func ParseRecurrence(raw string) Recurrence {
	if strings.TrimSpace(raw) == "" {
		return Daily()
	}
	var r Recurrence
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Daily()
	}
	r.Kind = ParseRecurrenceKind(string(r.Kind))
	if r.Kind == RecurrenceOnDate && r.Date == nil {
		return Daily()
	}
	return r
}

// Config is the structural part of an item: everything whose change would
// reinterpret the past. Snapshots capture exactly these fields.
type Config struct {
	Kind       ItemKind   `json:"kind" validate:"item_kind"`
	Recurrence Recurrence `json:"recurrence"`
	Slots      SlotSet    `json:"slots,omitempty" validate:"dive"`
	Target     float64    `json:"target,omitempty" validate:"gte=0"`
	Unit       string     `json:"unit,omitempty" validate:"max=32"`
	ParentID   string     `json:"parent_id,omitempty"`
}

// Equal reports whether two configs describe the same structure.
func (c Config) Equal(o Config) bool {
	return c.Kind == o.Kind &&
		c.Recurrence.Equal(o.Recurrence) &&
		c.Slots.Equal(o.Slots) &&
		c.Target == o.Target &&
		c.Unit == o.Unit &&
		c.ParentID == o.ParentID
}

// Item is a trackable unit: a leaf (checkbox, value, counter, metric) or a container.
type Item struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required,max=120"`
	Icon        string          `json:"icon,omitempty"`
	Color       string          `json:"color,omitempty"`
	Config
	Aggregation AggregationMode `json:"aggregation,omitempty" validate:"aggregation"`
	SortOrder   int             `json:"sort_order"`
	CreatedDate time.Time       `json:"created_date"`
	StoppedDate *time.Time      `json:"stopped_date,omitempty"`
	Archived    bool            `json:"archived"`
	ArchivedAt  *time.Time      `json:"archived_at,omitempty"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// IsContainer reports whether the item's live kind is container.
func (i Item) IsContainer() bool {
	return i.Kind == KindContainer
}

// WithConfig returns a copy of the item carrying the given structural config.
func (i Item) WithConfig(c Config) Item {
	i.Config = c
	return i
}
