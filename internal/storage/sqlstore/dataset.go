package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

// Dataset loads everything the engine needs. Deleted items are included so
// their snapshots and logs still resolve; the graph drops them itself.
func (s *Store) Dataset(ctx context.Context) (models.Dataset, error) {
	var ds models.Dataset
	var err error
	if ds.Items, err = s.GetAllItems(ctx, true, true); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to load items: %w", err)
	}
	if ds.Snapshots, err = s.GetSnapshots(ctx, ""); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if ds.Logs, err = s.GetAllLogs(ctx); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to load logs: %w", err)
	}
	if ds.Vacations, err = s.GetVacations(ctx); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to load vacations: %w", err)
	}
	return ds, nil
}

func (s *Store) ImportDataset(ctx context.Context, ds models.Dataset) error {
	if err := s.ready(); err != nil {
		return err
	}
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, item := range ds.Items {
			if err := s.putItem(ctx, tx, item); err != nil {
				return fmt.Errorf("failed to import item %s: %w", item.ID, err)
			}
		}
		for _, snap := range ds.Snapshots {
			if err := s.putSnapshot(ctx, tx, snap); err != nil {
				return fmt.Errorf("failed to import snapshot %s: %w", snap.ID, err)
			}
		}
		for _, l := range ds.Logs {
			if err := s.putLog(ctx, tx, l); err != nil {
				return fmt.Errorf("failed to import log %s: %w", l.ID, err)
			}
		}
		for _, v := range ds.Vacations {
			if err := s.putVacation(ctx, tx, v); err != nil {
				return fmt.Errorf("failed to import vacation day: %w", err)
			}
		}
		return nil
	})
}
