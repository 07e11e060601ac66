package items

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/validation"
)

type AddCmd struct {
	Name        string  `arg:"" help:"Item name."`
	Kind        string  `help:"Item kind (checkbox|value|cumulative|metric|container)." default:"checkbox"`
	Every       string  `help:"Recurrence: daily, weekly:mon,wed, monthly:1,15, sticky or on:YYYY-MM-DD." default:"daily"`
	Slots       string  `help:"Comma-separated session names, e.g. Morning,Evening."`
	Target      float64 `help:"Daily target for cumulative counters."`
	Unit        string  `help:"Unit shown next to values (ml, km, ...)."`
	Aggregation string  `help:"How a counter folds a day's values (sum|average)." enum:"sum,average" default:"sum"`
	Parent      string  `help:"Container to nest this item under (name or ID)."`
	Icon        string  `help:"Icon shown next to the name."`
	Color       string  `help:"Display color."`
	Start       string  `help:"First day the item is tracked (YYYY-MM-DD). Defaults to today."`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	name := validation.SanitizeText(c.Name)
	if err := ensureNameFree(ctx, name, ""); err != nil {
		return err
	}

	kind := models.KindCheckbox
	if c.Kind != "" {
		k, err := cli.ParseKind(c.Kind)
		if err != nil {
			return err
		}
		kind = k
	}
	rule, err := cli.ParseRecurrence(c.Every)
	if err != nil {
		return err
	}
	parentID, err := resolveParent(ctx, c.Parent)
	if err != nil {
		return err
	}
	created, err := ctx.ResolveDay(c.Start)
	if err != nil {
		return err
	}
	existing, err := ctx.Store.GetAllItems(ctx.Ctx(), true, false)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	item := models.Item{
		ID:    uuid.NewString(),
		Name:  name,
		Icon:  c.Icon,
		Color: c.Color,
		Config: models.Config{
			Kind:       kind,
			Recurrence: rule,
			Slots:      parseSlots(c.Slots),
			Target:     c.Target,
			Unit:       c.Unit,
			ParentID:   parentID,
		},
		Aggregation: models.ParseAggregationMode(c.Aggregation),
		SortOrder:   len(existing),
		CreatedDate: created,
	}
	if err := validation.ValidateItem(item); err != nil {
		return err
	}
	if err := ctx.Store.AddItem(ctx.Ctx(), item); err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}

	logger.Info("Item added", "id", item.ID, "name", item.Name, "kind", item.Kind)
	ctx.Printf("✓ Added %s %q (%s)\n", item.Kind, item.Name, cli.FormatRecurrence(item.Recurrence))
	return nil
}

// ensureNameFree rejects a name already used by another live item.
func ensureNameFree(ctx *cli.Context, name, selfID string) error {
	other, err := ctx.Store.GetItemByName(ctx.Ctx(), name)
	switch {
	case err == nil && other.ID != selfID:
		return errors.Invalid("an item named %q already exists", name)
	case err == nil, errors.Is(err, errors.ErrNotFound):
		return nil
	default:
		return err
	}
}

func resolveParent(ctx *cli.Context, ref string) (string, error) {
	if ref == "" || strings.EqualFold(ref, "none") {
		return "", nil
	}
	parent, err := ctx.ResolveItem(ref, false)
	if err != nil {
		return "", fmt.Errorf("container: %w", err)
	}
	if !parent.IsContainer() {
		return "", errors.Invalid("%q is not a container", parent.Name)
	}
	return parent.ID, nil
}

// parseSlots turns "Morning, Evening" into a slot set. "none" or an empty
// string mean the single all-day session.
func parseSlots(s string) models.SlotSet {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return nil
	}
	return models.NewSlotSet(strings.Split(s, ",")...)
}

func parseTarget(s string) (float64, error) {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0, errors.Invalid("invalid target %q", s)
	}
	return v, nil
}
