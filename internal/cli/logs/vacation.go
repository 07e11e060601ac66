package logs

import (
	"fmt"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/utils"
	"github.com/julianstephens/tally/internal/validation"
)

// VacationToggleCmd marks a day as vacation, or unmarks it. Vacation days
// neither break streaks nor count toward completion rates.
type VacationToggleCmd struct {
	Day  string `arg:"" optional:"" help:"Day to toggle (YYYY-MM-DD, today, yesterday). Defaults to today."`
	Note string `help:"Optional note."`
}

func (c *VacationToggleCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Day)
	if err != nil {
		return err
	}
	on, err := ctx.Store.ToggleVacation(ctx.Ctx(), day, validation.SanitizeText(c.Note))
	if err != nil {
		return fmt.Errorf("failed to toggle vacation: %w", err)
	}
	if on {
		ctx.Printf("✓ %s is a vacation day\n", utils.DayKey(day))
	} else {
		ctx.Printf("✓ %s is no longer a vacation day\n", utils.DayKey(day))
	}
	return nil
}

type VacationListCmd struct{}

func (c *VacationListCmd) Run(ctx *cli.Context) error {
	engine, _, err := ctx.Engine()
	if err != nil {
		return err
	}
	days := engine.Scheduler().Logs().Vacations()
	if len(days) == 0 {
		ctx.Println("No vacation days.")
		return nil
	}
	for _, v := range days {
		line := utils.DayKey(v.Day) + "  " + utils.Day(v.Day).Weekday().String()[:3]
		if v.Note != "" {
			line += "  " + cli.MutedStyle.Render(v.Note)
		}
		ctx.Println(line)
	}
	return nil
}
