package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/utils"
)

const logColumns = `id, item_id, day, slot_id, status, value, skip_reason, completed_at`

func (s *Store) putLog(ctx context.Context, q execer, l models.Log) error {
	var value any
	if l.Value != nil {
		value = *l.Value
	}
	completedAt := l.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}
	_, err := s.exec(ctx, q, `
		INSERT INTO logs (`+logColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			item_id = excluded.item_id,
			day = excluded.day,
			slot_id = excluded.slot_id,
			status = excluded.status,
			value = excluded.value,
			skip_reason = excluded.skip_reason,
			completed_at = excluded.completed_at`,
		l.ID, l.ItemID, formatDay(l.Day), l.SlotID, string(l.Status), value, l.SkipReason, formatTime(completedAt))
	return err
}

func scanLog(row scanner) (models.Log, error) {
	var (
		l                  models.Log
		day, status, stamp string
		value              sql.NullFloat64
	)
	if err := row.Scan(&l.ID, &l.ItemID, &day, &l.SlotID, &status, &value, &l.SkipReason, &stamp); err != nil {
		return models.Log{}, err
	}
	l.Status = models.ParseLogStatus(status)
	if value.Valid {
		v := value.Float64
		l.Value = &v
	}

	var err error
	if l.Day, err = utils.ParseDay(day); err != nil {
		return models.Log{}, fmt.Errorf("failed to parse day for log %s: %w", l.ID, err)
	}
	if l.CompletedAt, err = parseTime(stamp); err != nil {
		return models.Log{}, fmt.Errorf("failed to parse completed_at for log %s: %w", l.ID, err)
	}
	return l, nil
}

func (s *Store) collectLogs(rows *sql.Rows, err error) ([]models.Log, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *Store) AddLog(ctx context.Context, l models.Log) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.putLog(ctx, s.db, l)
}

// DeleteLog removes a log outright; undo has no tombstone.
func (s *Store) DeleteLog(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.exec(ctx, s.db, `DELETE FROM logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "log", id)
}

// GetLogs returns logs whose day falls in [from, to].
func (s *Store) GetLogs(ctx context.Context, from, to time.Time) ([]models.Log, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.collectLogs(s.query(ctx,
		`SELECT `+logColumns+` FROM logs WHERE day >= ? AND day <= ? ORDER BY day, completed_at`,
		formatDay(from), formatDay(to)))
}

func (s *Store) GetAllLogs(ctx context.Context) ([]models.Log, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.collectLogs(s.query(ctx, `SELECT `+logColumns+` FROM logs ORDER BY day, completed_at`))
}

func (s *Store) GetLogsForItem(ctx context.Context, itemID string) ([]models.Log, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.collectLogs(s.query(ctx,
		`SELECT `+logColumns+` FROM logs WHERE item_id = ? ORDER BY day, completed_at`, itemID))
}

func (s *Store) ToggleVacation(ctx context.Context, day time.Time, note string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	key := formatDay(day)
	on := false
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT day FROM vacations WHERE day = ?`), key).Scan(&existing)
		switch {
		case stderrors.Is(err, sql.ErrNoRows):
			on = true
			_, err = s.exec(ctx, tx, `INSERT INTO vacations (day, note) VALUES (?, ?)`, key, note)
			return err
		case err != nil:
			return err
		default:
			_, err = s.exec(ctx, tx, `DELETE FROM vacations WHERE day = ?`, key)
			return err
		}
	})
	return on, err
}

func (s *Store) putVacation(ctx context.Context, q execer, v models.VacationDay) error {
	_, err := s.exec(ctx, q, `
		INSERT INTO vacations (day, note) VALUES (?, ?)
		ON CONFLICT (day) DO UPDATE SET note = excluded.note`,
		formatDay(v.Day), v.Note)
	return err
}

func (s *Store) GetVacations(ctx context.Context) ([]models.VacationDay, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, `SELECT day, note FROM vacations ORDER BY day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []models.VacationDay{}
	for rows.Next() {
		var key string
		var v models.VacationDay
		if err := rows.Scan(&key, &v.Note); err != nil {
			return nil, err
		}
		if v.Day, err = utils.ParseDay(key); err != nil {
			return nil, fmt.Errorf("failed to parse vacation day: %w", err)
		}
		days = append(days, v)
	}
	return days, rows.Err()
}
