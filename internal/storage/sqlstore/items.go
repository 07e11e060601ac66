package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

const itemColumns = `id, name, icon, color, kind, recurrence, slots, target, unit, parent_id,
	aggregation, sort_order, created_date, stopped_date, archived, archived_at, deleted_at`

const upsertItemSQL = `
	INSERT INTO items (` + itemColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		icon = excluded.icon,
		color = excluded.color,
		kind = excluded.kind,
		recurrence = excluded.recurrence,
		slots = excluded.slots,
		target = excluded.target,
		unit = excluded.unit,
		parent_id = excluded.parent_id,
		aggregation = excluded.aggregation,
		sort_order = excluded.sort_order,
		created_date = excluded.created_date,
		stopped_date = excluded.stopped_date,
		archived = excluded.archived,
		archived_at = excluded.archived_at,
		deleted_at = excluded.deleted_at`

func itemArgs(item models.Item) ([]any, error) {
	recurrence, err := encodeJSON(item.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recurrence for %s: %w", item.ID, err)
	}
	slots, err := encodeSlots(item.Slots)
	if err != nil {
		return nil, fmt.Errorf("failed to encode slots for %s: %w", item.ID, err)
	}
	aggregation := item.Aggregation
	if aggregation == "" {
		aggregation = models.AggregateSum
	}
	return []any{
		item.ID, item.Name, item.Icon, item.Color, string(item.Kind), recurrence, slots,
		item.Target, item.Unit, item.ParentID, string(aggregation), item.SortOrder,
		formatDay(item.CreatedDate), nullDay(item.StoppedDate), item.Archived,
		nullTime(item.ArchivedAt), nullTime(item.DeletedAt),
	}, nil
}

func (s *Store) putItem(ctx context.Context, q execer, item models.Item) error {
	args, err := itemArgs(item)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, q, upsertItemSQL, args...)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (models.Item, error) {
	var (
		item                    models.Item
		kind, recurrence, slots string
		aggregation, created    string
		stopped                 sql.NullString
		archivedAt, deletedAt   sql.NullString
	)
	err := row.Scan(&item.ID, &item.Name, &item.Icon, &item.Color, &kind, &recurrence, &slots,
		&item.Target, &item.Unit, &item.ParentID, &aggregation, &item.SortOrder,
		&created, &stopped, &item.Archived, &archivedAt, &deletedAt)
	if err != nil {
		return models.Item{}, err
	}

	item.Kind = models.ParseItemKind(kind)
	item.Recurrence = models.ParseRecurrence(recurrence)
	item.Slots = models.ParseSlotSet(slots)
	item.Aggregation = models.ParseAggregationMode(aggregation)

	if item.CreatedDate, err = utils.ParseDay(created); err != nil {
		return models.Item{}, fmt.Errorf("failed to parse created_date for %s: %w", item.ID, err)
	}
	if item.StoppedDate, err = parseNullDay(stopped, "stopped_date", item.ID); err != nil {
		return models.Item{}, err
	}
	if item.ArchivedAt, err = parseNullTime(archivedAt, "archived_at", item.ID); err != nil {
		return models.Item{}, err
	}
	if item.DeletedAt, err = parseNullTime(deletedAt, "deleted_at", item.ID); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

func (s *Store) AddItem(ctx context.Context, item models.Item) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.putItem(ctx, s.db, item)
}

func (s *Store) GetItem(ctx context.Context, id string) (models.Item, error) {
	if err := s.ready(); err != nil {
		return models.Item{}, err
	}
	item, err := scanItem(s.queryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.Item{}, fmt.Errorf("item %s: %w", id, errors.ErrNotFound)
	}
	return item, err
}

// GetItemByName looks up a live item by exact name.
func (s *Store) GetItemByName(ctx context.Context, name string) (models.Item, error) {
	if err := s.ready(); err != nil {
		return models.Item{}, err
	}
	item, err := scanItem(s.queryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE name = ? AND deleted_at IS NULL ORDER BY created_date LIMIT 1`, name))
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.Item{}, fmt.Errorf("item %q: %w", name, errors.ErrNotFound)
	}
	return item, err
}

func (s *Store) GetAllItems(ctx context.Context, includeArchived, includeDeleted bool) ([]models.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	if !includeArchived {
		query += " AND archived = ?"
	}
	query += " ORDER BY sort_order, created_date, id"

	var args []any
	if !includeArchived {
		args = append(args, false)
	}
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) UpdateItem(ctx context.Context, item models.Item) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.GetItem(ctx, item.ID); err != nil {
		return err
	}
	return s.putItem(ctx, s.db, item)
}

// DeleteItem soft-deletes an item. Its logs and snapshots stay in place so a
// restore brings its history back.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.DeletedAt != nil {
		return fmt.Errorf("item %s is already deleted", id)
	}
	res, err := s.exec(ctx, s.db, `UPDATE items SET deleted_at = ? WHERE id = ?`, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "item", id)
}

func (s *Store) RestoreItem(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.DeletedAt == nil {
		return fmt.Errorf("item %s is not deleted", id)
	}
	res, err := s.exec(ctx, s.db, `UPDATE items SET deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "item", id)
}
