package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/tally/internal/aggregate"
	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/status"
	"github.com/julianstephens/tally/internal/utils"
)

// TodayCmd prints the day view: every due or carried item with its state,
// and the day's completion rate.
type TodayCmd struct {
	Day string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, today, yesterday). Defaults to today."`
}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Day)
	if err != nil {
		return err
	}
	engine, _, err := ctx.Engine()
	if err != nil {
		return err
	}

	top := engine.Scheduler().TopLevel(day)
	st := status.New(day, engine)
	rows := st.Rows(top)

	title := fmt.Sprintf("%s %s", day.Weekday().String()[:3], utils.DayKey(day))
	if engine.Scheduler().Logs().IsVacation(day) {
		title += " · vacation"
	}
	ctx.Println(cli.TitleStyle.Render(title))
	ctx.Println()

	if len(rows) == 0 {
		ctx.Println(cli.MutedStyle.Render("Nothing scheduled."))
		return nil
	}
	for _, row := range rows {
		ctx.Println(renderRow(row, day))
	}
	ctx.Println()
	ctx.Println(summaryLine(engine.DayStatus(top, day)))
	return nil
}

func renderRow(row status.Row, day time.Time) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", row.Depth))

	switch row.State {
	case status.StateDone:
		b.WriteString(cli.DoneStyle.Render("✓"))
	case status.StateSkipped:
		b.WriteString(cli.MutedStyle.Render("↷"))
	case status.StatePartial:
		b.WriteString(cli.PartialStyle.Render("◐"))
	default:
		b.WriteString(cli.OpenStyle.Render("○"))
	}
	b.WriteString(" ")

	name := row.Item.Name
	if row.Item.Icon != "" {
		name = row.Item.Icon + " " + name
	}
	b.WriteString(name)

	if detail := rowDetail(row); detail != "" {
		b.WriteString("  ")
		b.WriteString(cli.MutedStyle.Render(detail))
	}
	if row.CarriedFrom != nil {
		b.WriteString("  ")
		b.WriteString(cli.WarnStyle.Render(overdue(*row.CarriedFrom, day)))
	}
	if row.SkipReason != "" {
		b.WriteString("  ")
		b.WriteString(cli.MutedStyle.Render("(" + row.SkipReason + ")"))
	}
	return b.String()
}

func overdue(origin, day time.Time) string {
	return fmt.Sprintf("overdue since %s %s (%s)", origin.Weekday().String()[:3], utils.DayKey(origin), days(utils.DaysBetween(origin, day)))
}

func rowDetail(row status.Row) string {
	cfg := row.Config
	switch {
	case cfg.Kind == models.KindCumulative && row.Value != nil:
		detail := formatNumber(*row.Value)
		if cfg.Target > 0 {
			detail += " / " + formatNumber(cfg.Target)
		}
		return strings.TrimSpace(detail + " " + cfg.Unit)
	case row.Value != nil:
		return strings.TrimSpace(formatNumber(*row.Value) + " " + cfg.Unit)
	case row.State == status.StatePartial || cfg.Kind == models.KindContainer:
		return cli.Percent(row.Progress)
	default:
		return ""
	}
}

func summaryLine(result aggregate.DayResult) string {
	switch {
	case !result.Scheduled:
		return cli.MutedStyle.Render("Nothing to track today.")
	case result.AllSkipped:
		return cli.MutedStyle.Render("Everything skipped.")
	default:
		return cli.ProgressBar(result.Rate, 20) + " " + cli.Percent(result.Rate)
	}
}

func formatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
