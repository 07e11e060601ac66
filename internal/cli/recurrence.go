package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

var weekdayNames = map[string]int{
	"mon": 1, "monday": 1,
	"tue": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
	"sun": 7, "sunday": 7,
}

var weekdayAbbrev = [...]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ParseRecurrence parses the command-line form of a rule:
//
//	daily
//	weekly:mon,wed,fri   (or ISO numbers 1-7)
//	monthly:1,15
//	sticky
//	on:2026-01-05
func ParseRecurrence(s string) (models.Recurrence, error) {
	kind, arg, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	switch kind {
	case "", "daily":
		return models.Daily(), nil
	case "sticky":
		return models.Sticky(), nil
	case "weekly":
		days, err := ParseWeekdays(arg)
		if err != nil {
			return models.Recurrence{}, err
		}
		return models.Weekly(days...), nil
	case "monthly":
		days, err := parseList(arg, func(part string) (int, error) {
			n, err := strconv.Atoi(part)
			if err != nil || n < 1 || n > 31 {
				return 0, errors.Invalid("invalid day of month: %s", part)
			}
			return n, nil
		})
		if err != nil {
			return models.Recurrence{}, err
		}
		return models.Monthly(days...), nil
	case "on", "on_date":
		day, err := utils.ParseDay(arg)
		if err != nil {
			return models.Recurrence{}, errors.Invalid("invalid date %q (expected YYYY-MM-DD)", arg)
		}
		return models.OnDate(day), nil
	default:
		return models.Recurrence{}, errors.Invalid("unknown recurrence %q (use daily, weekly:mon,wed, monthly:1,15, sticky or on:YYYY-MM-DD)", s)
	}
}

// ParseWeekdays parses a comma-separated list of weekday names or ISO
// numbers (Monday=1 .. Sunday=7). An empty list means every day.
func ParseWeekdays(s string) ([]int, error) {
	return parseList(s, func(part string) (int, error) {
		if wd, ok := weekdayNames[part]; ok {
			return wd, nil
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 7 {
			return 0, errors.Invalid("invalid weekday: %s", part)
		}
		return n, nil
	})
}

func parseList(s string, parse func(string) (int, error)) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		n, err := parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// FormatRecurrence formats a recurrence rule into a human-readable string
func FormatRecurrence(rec models.Recurrence) string {
	switch rec.Kind {
	case models.RecurrenceDaily:
		return "daily"
	case models.RecurrenceWeekly:
		if len(rec.Weekdays) == 0 {
			return "weekly"
		}
		days := make([]string, 0, len(rec.Weekdays))
		for _, wd := range rec.Weekdays {
			if wd >= 1 && wd <= 7 {
				days = append(days, weekdayAbbrev[wd])
			}
		}
		return "weekly on " + strings.Join(days, ",")
	case models.RecurrenceMonthly:
		if len(rec.MonthDays) == 0 {
			return "monthly"
		}
		days := make([]string, 0, len(rec.MonthDays))
		for _, d := range rec.MonthDays {
			days = append(days, strconv.Itoa(d))
		}
		return "monthly on " + strings.Join(days, ",")
	case models.RecurrenceSticky:
		return "until done"
	case models.RecurrenceOnDate:
		if rec.Date == nil {
			return "once"
		}
		return "on " + utils.DayKey(*rec.Date)
	default:
		return "unknown"
	}
}

// ParseKind accepts the item kinds by name.
func ParseKind(s string) (models.ItemKind, error) {
	k := models.ItemKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", errors.Invalid("unknown item kind %q", s)
	}
	return k, nil
}

// FormatTarget renders a counter target with its unit, or "" when unset.
func FormatTarget(cfg models.Config) string {
	if cfg.Target <= 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", strconv.FormatFloat(cfg.Target, 'f', -1, 64), cfg.Unit))
}
