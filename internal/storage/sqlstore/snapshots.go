package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/tally/internal/history"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/utils"
)

const snapshotColumns = `id, item_id, config, effective_from, effective_until, created_at`

func (s *Store) putSnapshot(ctx context.Context, q execer, snap models.Snapshot) error {
	config, err := encodeJSON(snap.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config for snapshot %s: %w", snap.ID, err)
	}
	_, err = s.exec(ctx, q, `
		INSERT INTO snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			item_id = excluded.item_id,
			config = excluded.config,
			effective_from = excluded.effective_from,
			effective_until = excluded.effective_until,
			created_at = excluded.created_at`,
		snap.ID, snap.ItemID, config, formatDay(snap.EffectiveFrom), formatDay(snap.EffectiveUntil), formatTime(snap.CreatedAt))
	return err
}

func scanSnapshot(row scanner) (models.Snapshot, error) {
	var (
		snap                models.Snapshot
		config, from, until string
		createdAt           string
	)
	if err := row.Scan(&snap.ID, &snap.ItemID, &config, &from, &until, &createdAt); err != nil {
		return models.Snapshot{}, err
	}
	snap.Config = decodeConfig(config)

	var err error
	if snap.EffectiveFrom, err = utils.ParseDay(from); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse effective_from for snapshot %s: %w", snap.ID, err)
	}
	if snap.EffectiveUntil, err = utils.ParseDay(until); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse effective_until for snapshot %s: %w", snap.ID, err)
	}
	if snap.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse created_at for snapshot %s: %w", snap.ID, err)
	}
	return snap, nil
}

func (s *Store) GetSnapshots(ctx context.Context, itemID string) ([]models.Snapshot, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var (
		rows *sql.Rows
		err  error
	)
	if itemID == "" {
		rows, err = s.query(ctx, `SELECT `+snapshotColumns+` FROM snapshots ORDER BY item_id, effective_from, created_at`)
	} else {
		rows, err = s.query(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE item_id = ? ORDER BY effective_from, created_at`, itemID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps := []models.Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// ApplyEdit persists a planned edit: the snapshot (if any) and the updated
// live item commit together or not at all.
func (s *Store) ApplyEdit(ctx context.Context, edit history.Edit) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.GetItem(ctx, edit.Item.ID); err != nil {
		return err
	}
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if edit.Snapshot != nil {
			if err := s.putSnapshot(ctx, tx, *edit.Snapshot); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
		}
		if err := s.putItem(ctx, tx, edit.Item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if edit.Snapshot != nil {
		logger.Debug("Snapshot written", "item", edit.Item.ID, "from", utils.DayKey(edit.Snapshot.EffectiveFrom), "until", utils.DayKey(edit.Snapshot.EffectiveUntil))
	}
	return nil
}
