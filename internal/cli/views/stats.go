package views

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/models"
)

// StatsCmd shows streaks and recent completion rates.
type StatsCmd struct {
	Item string `arg:"" optional:"" help:"Only show this item."`
	All  bool   `help:"Include stopped and archived items."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	today, err := ctx.Today()
	if err != nil {
		return err
	}
	engine, _, err := ctx.Engine()
	if err != nil {
		return err
	}

	var items []models.Item
	if c.Item != "" {
		item, err := ctx.ResolveItem(c.Item, false)
		if err != nil {
			return err
		}
		items = []models.Item{item}
	} else {
		for _, item := range engine.Scheduler().Graph().All() {
			if !c.All && (item.ArchivedAt != nil || (item.StoppedDate != nil && item.StoppedDate.Before(today))) {
				continue
			}
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		ctx.Println("No items yet. Add one with 'tally item add'.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.MutedStyle).
		Headers("ITEM", "STREAK", "BEST", "7 DAYS", "30 DAYS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cli.HeaderStyle
			}
			return cli.CellStyle
		})
	for _, item := range items {
		s := engine.Stats(item, today)
		t.Row(
			item.Name,
			days(s.CurrentStreak),
			days(s.LongestStreak),
			cli.Percent(s.Rate7),
			cli.Percent(s.Rate30),
		)
	}
	ctx.Println(t.Render())
	return nil
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
