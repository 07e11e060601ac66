// Package logbook indexes logs and vacation days for per-day lookups.
package logbook

import (
	"sort"
	"time"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

type Book struct {
	byItem    map[string][]models.Log
	byDay     map[string]map[string][]models.Log
	vacations map[string]models.VacationDay
}

func New(logs []models.Log, vacations []models.VacationDay) *Book {
	b := &Book{
		byItem:    make(map[string][]models.Log),
		byDay:     make(map[string]map[string][]models.Log),
		vacations: make(map[string]models.VacationDay, len(vacations)),
	}
	sorted := make([]models.Log, len(logs))
	for i, l := range logs {
		l.Day = utils.Day(l.Day)
		sorted[i] = l
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Day.Equal(sorted[j].Day) {
			return sorted[i].Day.Before(sorted[j].Day)
		}
		return sorted[i].CompletedAt.Before(sorted[j].CompletedAt)
	})
	for _, l := range sorted {
		b.byItem[l.ItemID] = append(b.byItem[l.ItemID], l)
		days := b.byDay[l.ItemID]
		if days == nil {
			days = make(map[string][]models.Log)
			b.byDay[l.ItemID] = days
		}
		key := utils.DayKey(l.Day)
		days[key] = append(days[key], l)
	}
	for _, v := range vacations {
		b.vacations[utils.DayKey(v.Day)] = v
	}
	return b
}

// ForItem returns every log for the item, oldest first.
func (b *Book) ForItem(itemID string) []models.Log {
	return b.byItem[itemID]
}

func (b *Book) HasLogs(itemID string) bool {
	return len(b.byItem[itemID]) > 0
}

// ForDay returns the item's logs on day in the order they were recorded.
func (b *Book) ForDay(itemID string, day time.Time) []models.Log {
	return b.byDay[itemID][utils.DayKey(day)]
}

// InRange returns the item's logs dated within [from, to].
func (b *Book) InRange(itemID string, from, to time.Time) []models.Log {
	from, to = utils.Day(from), utils.Day(to)
	var out []models.Log
	for _, l := range b.byItem[itemID] {
		if l.Day.Before(from) {
			continue
		}
		if l.Day.After(to) {
			break
		}
		out = append(out, l)
	}
	return out
}

// CompletedBefore counts completed logs dated strictly before day.
func (b *Book) CompletedBefore(itemID string, day time.Time) int {
	day = utils.Day(day)
	n := 0
	for _, l := range b.byItem[itemID] {
		if !l.Day.Before(day) {
			break
		}
		if l.Status == models.LogCompleted {
			n++
		}
	}
	return n
}

// Summary folds the item's logs on day.
func (b *Book) Summary(itemID string, day time.Time) Summary {
	return Summarize(b.ForDay(itemID, day))
}

func (b *Book) IsVacation(day time.Time) bool {
	_, ok := b.vacations[utils.DayKey(day)]
	return ok
}

// Vacations returns the vacation days in calendar order.
func (b *Book) Vacations() []models.VacationDay {
	out := make([]models.VacationDay, 0, len(b.vacations))
	for _, v := range b.vacations {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}
