package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/tally/internal/history"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// TestStore_Integration runs against a real server.
// Example: TALLY_TEST_POSTGRES_DSN="postgres://tally@localhost:5432/tally_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("TALLY_TEST_POSTGRES_DSN")
	if connStr == "" {
		t.Skip("TALLY_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	t.Run("Settings", func(t *testing.T) {
		settings, err := store.GetSettings(ctx)
		if err != nil {
			t.Fatalf("Failed to get settings: %v", err)
		}
		settings.WeekStart = 7
		if err := store.SaveSettings(ctx, settings); err != nil {
			t.Fatalf("Failed to save settings: %v", err)
		}
		updated, err := store.GetSettings(ctx)
		if err != nil || updated.WeekStart != 7 {
			t.Errorf("updated settings = %+v, %v", updated, err)
		}
	})

	t.Run("ItemsEditsAndLogs", func(t *testing.T) {
		item := models.Item{
			ID:          uuid.NewString(),
			Name:        "Integration " + uuid.NewString()[:8],
			Config:      models.Config{Kind: models.KindCheckbox, Recurrence: models.Weekly(1, 3, 5), Slots: models.NewSlotSet("AM", "PM")},
			CreatedDate: utils.Date(2026, 1, 1),
		}
		if err := store.AddItem(ctx, item); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		defer store.DeleteItem(ctx, item.ID)

		got, err := store.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatalf("GetItem failed: %v", err)
		}
		if !got.Config.Equal(item.Config) || got.Archived {
			t.Errorf("GetItem = %+v", got)
		}

		edit, err := history.PlanEdit(item, models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()}, utils.Date(2026, 2, 1), nil, true, history.FutureOnly)
		if err != nil {
			t.Fatalf("PlanEdit failed: %v", err)
		}
		if err := store.ApplyEdit(ctx, edit); err != nil {
			t.Fatalf("ApplyEdit failed: %v", err)
		}
		snaps, err := store.GetSnapshots(ctx, item.ID)
		if err != nil || len(snaps) != 1 {
			t.Fatalf("GetSnapshots = %d, %v", len(snaps), err)
		}

		logID := uuid.NewString()
		v := 3.5
		if err := store.AddLog(ctx, models.Log{ID: logID, ItemID: item.ID, Day: utils.Date(2026, 1, 5), SlotID: "am", Status: models.LogCompleted, Value: &v, CompletedAt: time.Now()}); err != nil {
			t.Fatalf("AddLog failed: %v", err)
		}
		logs, err := store.GetLogsForItem(ctx, item.ID)
		if err != nil || len(logs) != 1 || logs[0].Value == nil || *logs[0].Value != v {
			t.Errorf("GetLogsForItem = %+v, %v", logs, err)
		}
		if err := store.DeleteLog(ctx, logID); err != nil {
			t.Errorf("DeleteLog failed: %v", err)
		}
	})

	t.Run("Vacation", func(t *testing.T) {
		day := utils.Date(1999, 12, 31)
		on, err := store.ToggleVacation(ctx, day, "party")
		if err != nil || !on {
			t.Fatalf("ToggleVacation = %v, %v", on, err)
		}
		if on, err = store.ToggleVacation(ctx, day, ""); err != nil || on {
			t.Errorf("second ToggleVacation = %v, %v", on, err)
		}
	})
}
