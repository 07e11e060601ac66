// Package graph holds the item hierarchy as an arena addressed by id.
package graph

import (
	"sort"

	"github.com/julianstephens/tally/internal/models"
)

type Graph struct {
	items map[string]models.Item
	order []string
}

// New builds a graph from items. Soft-deleted items stay in the arena so past
// days still see them; All and Children hide them.
func New(items []models.Item) *Graph {
	g := &Graph{items: make(map[string]models.Item, len(items))}
	for _, item := range items {
		g.items[item.ID] = item
	}
	g.order = make([]string, 0, len(g.items))
	for id := range g.items {
		g.order = append(g.order, id)
	}
	sort.Slice(g.order, func(i, j int) bool {
		return Less(g.items[g.order[i]], g.items[g.order[j]])
	})
	return g
}

// Less is the stable display order: sort order, then creation, then id.
func Less(a, b models.Item) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	if !a.CreatedDate.Equal(b.CreatedDate) {
		return a.CreatedDate.Before(b.CreatedDate)
	}
	return a.ID < b.ID
}

// Get also returns soft-deleted items.
func (g *Graph) Get(id string) (models.Item, bool) {
	item, ok := g.items[id]
	return item, ok
}

// All returns every live item in display order.
func (g *Graph) All() []models.Item {
	return g.filter(func(item models.Item) bool { return item.DeletedAt == nil })
}

// Every returns all items in display order, soft-deleted ones included.
func (g *Graph) Every() []models.Item {
	return g.filter(func(models.Item) bool { return true })
}

// Children returns the live items whose current parent is id.
//
// This is the current membership only. Anything that evaluates a past day
// must use scheduler.ApplicableChildren instead.
func (g *Graph) Children(id string) []models.Item {
	return g.filter(func(item models.Item) bool { return item.DeletedAt == nil && item.ParentID == id })
}

func (g *Graph) filter(keep func(models.Item) bool) []models.Item {
	var out []models.Item
	for _, id := range g.order {
		if item := g.items[id]; keep(item) {
			out = append(out, item)
		}
	}
	return out
}
