package items

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/graph"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

type ListCmd struct {
	All     bool `help:"Include archived items."`
	Deleted bool `help:"Include deleted items."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	items, err := ctx.Store.GetAllItems(ctx.Ctx(), c.All, c.Deleted)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	if len(items) == 0 {
		ctx.Println("No items yet. Add one with 'tally item add <name>'.")
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, entry := range nest(items) {
		item := entry.item
		name := item.Name
		if item.Icon != "" {
			name = item.Icon + " " + name
		}
		if entry.depth > 0 {
			name = "└ " + name
		}
		sessions := "1"
		if item.Slots.IsMulti() {
			sessions = strconv.Itoa(item.Slots.SessionsPerDay())
		}
		rows = append(rows, []string{
			name,
			string(item.Kind),
			cli.FormatRecurrence(item.Recurrence),
			sessions,
			cli.FormatTarget(item.Config),
			state(item),
			item.ID[:min(8, len(item.ID))],
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.MutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cli.HeaderStyle
			}
			return cli.CellStyle
		}).
		Headers("NAME", "KIND", "SCHEDULE", "SESSIONS", "TARGET", "STATE", "ID").
		Rows(rows...)
	ctx.Println(t.Render())
	return nil
}

type nested struct {
	item  models.Item
	depth int
}

// nest orders items for display: each top-level item followed by its
// children. Children of a container that is not in the list are shown at the
// top level.
func nest(items []models.Item) []nested {
	sort.SliceStable(items, func(i, j int) bool { return graph.Less(items[i], items[j]) })

	present := make(map[string]bool, len(items))
	for _, item := range items {
		present[item.ID] = true
	}
	children := make(map[string][]models.Item)
	var out []nested
	for _, item := range items {
		if item.ParentID != "" && present[item.ParentID] {
			children[item.ParentID] = append(children[item.ParentID], item)
		}
	}
	for _, item := range items {
		if item.ParentID != "" && present[item.ParentID] {
			continue
		}
		out = append(out, nested{item: item})
		for _, child := range children[item.ID] {
			out = append(out, nested{item: child, depth: 1})
		}
	}
	return out
}

func state(item models.Item) string {
	switch {
	case item.DeletedAt != nil:
		return "deleted"
	case item.Archived:
		return "archived"
	case item.StoppedDate != nil:
		return "stopped " + utils.DayKey(*item.StoppedDate)
	default:
		return "active"
	}
}
