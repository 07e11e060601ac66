package models

import (
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/tally/internal/utils"
)

// RecurrenceKind represents the closed set of recurrence variants.
type RecurrenceKind string

const (
	RecurrenceDaily   RecurrenceKind = "daily"
	RecurrenceWeekly  RecurrenceKind = "weekly"
	RecurrenceMonthly RecurrenceKind = "monthly"
	RecurrenceSticky  RecurrenceKind = "sticky"
	RecurrenceOnDate  RecurrenceKind = "on_date"
)

// IsValid reports whether k is one of the known recurrence variants.
func (k RecurrenceKind) IsValid() bool {
	switch k {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceSticky, RecurrenceOnDate:
		return true
	default:
		return false
	}
}

// ParseRecurrenceKind decodes a persisted recurrence kind.
// Unknown or empty values fall back to daily.
func ParseRecurrenceKind(s string) RecurrenceKind {
	k := RecurrenceKind(strings.TrimSpace(strings.ToLower(s)))
	if !k.IsValid() {
		return RecurrenceDaily
	}
	return k
}

// Recurrence describes when an item recurs.
//
// Weekdays use ISO numbering (Monday=1 .. Sunday=7). MonthDays are 1..31.
// Date is only meaningful for RecurrenceOnDate.
type Recurrence struct {
	Kind      RecurrenceKind `json:"kind" validate:"recurrence_kind"`
	Weekdays  []int          `json:"weekdays,omitempty" validate:"dive,min=1,max=7"`
	MonthDays []int          `json:"month_days,omitempty" validate:"dive,min=1,max=31"`
	Date      *time.Time     `json:"date,omitempty"`
}

func Daily() Recurrence { return Recurrence{Kind: RecurrenceDaily} }

func Weekly(isoWeekdays ...int) Recurrence {
	return Recurrence{Kind: RecurrenceWeekly, Weekdays: normalizeSet(isoWeekdays)}
}

func Monthly(days ...int) Recurrence {
	return Recurrence{Kind: RecurrenceMonthly, MonthDays: normalizeSet(days)}
}

func Sticky() Recurrence { return Recurrence{Kind: RecurrenceSticky} }

func OnDate(day time.Time) Recurrence {
	d := utils.Day(day)
	return Recurrence{Kind: RecurrenceOnDate, Date: &d}
}

// IsScheduled evaluates the rule against a calendar day.
//
// Weekly and monthly rules with an empty day set mean every day. Sticky rules
// are always scheduled here; the completion threshold is applied by the
// scheduler, which has access to the item's logs.
func (r Recurrence) IsScheduled(day time.Time) bool {
	day = utils.Day(day)
	switch r.Kind {
	case RecurrenceWeekly:
		if len(r.Weekdays) == 0 {
			return true
		}
		return slices.Contains(r.Weekdays, utils.ISOWeekday(day))
	case RecurrenceMonthly:
		if len(r.MonthDays) == 0 {
			return true
		}
		return slices.Contains(r.MonthDays, day.Day())
	case RecurrenceOnDate:
		return r.Date != nil && utils.SameDay(*r.Date, day)
	case RecurrenceSticky:
		return true
	default:
		return true
	}
}

// IsPeriodic reports whether missed occurrences of this rule carry forward.
func (r Recurrence) IsPeriodic() bool {
	return r.Kind == RecurrenceWeekly || r.Kind == RecurrenceMonthly
}

// Equal compares two rules by value.
func (r Recurrence) Equal(o Recurrence) bool {
	if r.Kind != o.Kind {
		return false
	}
	if !slices.Equal(normalizeSet(r.Weekdays), normalizeSet(o.Weekdays)) {
		return false
	}
	if !slices.Equal(normalizeSet(r.MonthDays), normalizeSet(o.MonthDays)) {
		return false
	}
	switch {
	case r.Date == nil && o.Date == nil:
		return true
	case r.Date == nil || o.Date == nil:
		return false
	default:
		return utils.SameDay(*r.Date, *o.Date)
	}
}

func normalizeSet(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
