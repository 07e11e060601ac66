// Package exchange reads and writes the portable JSON document used by
// `tally export` and `tally import`.
package exchange

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// Document is the on-disk export format.
//
// Version 1 files predate time slots, aggregation modes, snapshots and
// vacation days; the missing fields take their defaults on import.
type Document struct {
	Version    int                  `json:"version"`
	ExportedAt time.Time            `json:"exported_at"`
	Items      []models.Item        `json:"items"`
	Snapshots  []models.Snapshot    `json:"snapshots,omitempty"`
	Logs       []models.Log         `json:"logs"`
	Vacations  []models.VacationDay `json:"vacations,omitempty"`
}

// Export encodes a dataset as an indented current-version document.
func Export(ds models.Dataset) ([]byte, error) {
	doc := Document{
		Version:    constants.ExportVersion,
		ExportedAt: time.Now().UTC(),
		Items:      nonNil(ds.Items),
		Snapshots:  ds.Snapshots,
		Logs:       nonNil(ds.Logs),
		Vacations:  ds.Vacations,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// Import decodes a document of any supported version into a dataset with
// every enum and day normalized. Identifiers are kept as written.
func Import(data []byte) (models.Dataset, error) {
	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return models.Dataset{}, errors.Invalid("not a tally export: %v", err)
	}
	switch {
	case header.Version < 1:
		return models.Dataset{}, errors.Invalid("export has no version")
	case header.Version > constants.ExportVersion:
		return models.Dataset{}, errors.Invalid("export version %d is newer than supported version %d", header.Version, constants.ExportVersion)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Dataset{}, errors.Invalid("malformed export: %v", err)
	}

	ds := models.Dataset{
		Items:     make([]models.Item, 0, len(doc.Items)),
		Snapshots: make([]models.Snapshot, 0, len(doc.Snapshots)),
		Logs:      make([]models.Log, 0, len(doc.Logs)),
		Vacations: make([]models.VacationDay, 0, len(doc.Vacations)),
	}
	for i, item := range doc.Items {
		if item.ID == "" {
			return models.Dataset{}, errors.Invalid("item %d has no id", i)
		}
		ds.Items = append(ds.Items, normalizeItem(item))
	}
	for i, snap := range doc.Snapshots {
		if snap.ID == "" || snap.ItemID == "" {
			return models.Dataset{}, errors.Invalid("snapshot %d is missing its id or item", i)
		}
		snap.Config = normalizeConfig(snap.Config)
		snap.EffectiveFrom = utils.Day(snap.EffectiveFrom)
		snap.EffectiveUntil = utils.Day(snap.EffectiveUntil)
		ds.Snapshots = append(ds.Snapshots, snap)
	}
	for i, l := range doc.Logs {
		if l.ID == "" || l.ItemID == "" {
			return models.Dataset{}, errors.Invalid("log %d is missing its id or item", i)
		}
		l.Status = models.ParseLogStatus(string(l.Status))
		l.Day = utils.Day(l.Day)
		ds.Logs = append(ds.Logs, l)
	}
	for _, v := range doc.Vacations {
		v.Day = utils.Day(v.Day)
		ds.Vacations = append(ds.Vacations, v)
	}
	return ds, nil
}

func normalizeItem(item models.Item) models.Item {
	item.Config = normalizeConfig(item.Config)
	item.Aggregation = models.ParseAggregationMode(string(item.Aggregation))
	item.CreatedDate = utils.Day(item.CreatedDate)
	if item.StoppedDate != nil {
		d := utils.Day(*item.StoppedDate)
		item.StoppedDate = &d
	}
	return item
}

// normalizeConfig applies the same fallbacks the database decoders use.
func normalizeConfig(c models.Config) models.Config {
	c.Kind = models.ParseItemKind(string(c.Kind))
	c.Recurrence.Kind = models.ParseRecurrenceKind(string(c.Recurrence.Kind))
	if c.Recurrence.Kind == models.RecurrenceOnDate {
		if c.Recurrence.Date == nil {
			c.Recurrence = models.Daily()
		} else {
			c.Recurrence = models.OnDate(*c.Recurrence.Date)
		}
	}
	var slots models.SlotSet
	for _, slot := range c.Slots {
		if slot.ID != "" {
			slots = append(slots, slot)
		}
	}
	c.Slots = slots
	return c
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
