package sqlite

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/history"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/utils"
	"github.com/julianstephens/tally/migrations"
)

var _ storage.Provider = (*Store)(nil)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testItem(id, name string, cfg models.Config) models.Item {
	return models.Item{ID: id, Name: name, Config: cfg, CreatedDate: utils.Date(2026, 1, 1)}
}

func num(v float64) *float64 { return &v }

func TestLoadBeforeInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("Load should fail when the database file does not exist")
	}
	if _, err := store.GetAllItems(context.Background(), false, false); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("GetAllItems before Load = %v, want ErrNotInitialized", err)
	}
}

func TestInitWritesDefaultSettings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}

	settings.Timezone = "America/New_York"
	settings.AutoBackup = false
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	reopened := NewStore(store.GetConfigPath())
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings after reload failed: %v", err)
	}
	if got != settings {
		t.Errorf("settings after reload = %+v, want %+v", got, settings)
	}
}

func TestItemRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	stopped := utils.Date(2026, 3, 1)
	item := testItem("weigh", "Weigh in", models.Config{
		Kind:       models.KindValue,
		Recurrence: models.Weekly(1, 4),
		Slots:      models.NewSlotSet("Morning", "Evening"),
		Unit:       "kg",
	})
	item.Icon = "⚖"
	item.SortOrder = 3
	item.StoppedDate = &stopped

	if err := store.AddItem(ctx, item); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	got, err := store.GetItem(ctx, "weigh")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if !got.Config.Equal(item.Config) {
		t.Errorf("config = %+v, want %+v", got.Config, item.Config)
	}
	if got.Aggregation != models.AggregateSum {
		t.Errorf("aggregation = %q, want sum default", got.Aggregation)
	}
	if got.Icon != item.Icon || got.SortOrder != 3 || !got.CreatedDate.Equal(item.CreatedDate) {
		t.Errorf("display fields = %+v", got)
	}
	if got.StoppedDate == nil || !got.StoppedDate.Equal(stopped) {
		t.Errorf("stopped date = %v, want %v", got.StoppedDate, stopped)
	}

	byName, err := store.GetItemByName(ctx, "Weigh in")
	if err != nil || byName.ID != "weigh" {
		t.Errorf("GetItemByName = %v, %v", byName.ID, err)
	}

	if _, err := store.GetItem(ctx, "nope"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetItem(missing) = %v, want ErrNotFound", err)
	}
	if err := store.UpdateItem(ctx, testItem("nope", "x", models.Config{Kind: models.KindCheckbox})); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateItem(missing) = %v, want ErrNotFound", err)
	}
}

func TestGetAllItemsFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	daily := models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()}
	live := testItem("live", "Live", daily)
	archived := testItem("old", "Old", daily)
	archived.Archived = true
	gone := testItem("gone", "Gone", daily)
	gone.SortOrder = -1
	for _, item := range []models.Item{live, archived, gone} {
		if err := store.AddItem(ctx, item); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
	}
	if err := store.DeleteItem(ctx, "gone"); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if err := store.DeleteItem(ctx, "gone"); err == nil {
		t.Error("deleting twice should fail")
	}

	tests := []struct {
		archived, deleted bool
		want              []string
	}{
		{false, false, []string{"live"}},
		{true, false, []string{"live", "old"}},
		{true, true, []string{"gone", "live", "old"}},
	}
	for _, tt := range tests {
		items, err := store.GetAllItems(ctx, tt.archived, tt.deleted)
		if err != nil {
			t.Fatalf("GetAllItems failed: %v", err)
		}
		var ids []string
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		if len(ids) != len(tt.want) {
			t.Errorf("GetAllItems(%v, %v) = %v, want %v", tt.archived, tt.deleted, ids, tt.want)
			continue
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Errorf("GetAllItems(%v, %v) = %v, want %v", tt.archived, tt.deleted, ids, tt.want)
				break
			}
		}
	}

	if err := store.RestoreItem(ctx, "gone"); err != nil {
		t.Fatalf("RestoreItem failed: %v", err)
	}
	if item, _ := store.GetItem(ctx, "gone"); item.DeletedAt != nil {
		t.Error("restored item still has deleted_at")
	}
}

func TestApplyEditWritesSnapshotAndItem(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := testItem("gym", "Gym", models.Config{Kind: models.KindCheckbox, Recurrence: models.Weekly(1, 3, 5)})
	if err := store.AddItem(ctx, item); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	today := utils.Date(2026, 2, 10)
	edit, err := history.PlanEdit(item, models.Config{Kind: models.KindCheckbox, Recurrence: models.Weekly(2, 4)}, today, nil, true, history.FutureOnly)
	if err != nil {
		t.Fatalf("PlanEdit failed: %v", err)
	}
	if edit.Snapshot == nil {
		t.Fatal("expected a snapshot for a future-only edit with logs")
	}
	if err := store.ApplyEdit(ctx, edit); err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}

	snaps, err := store.GetSnapshots(ctx, "gym")
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	snap := snaps[0]
	if !snap.Config.Recurrence.Equal(models.Weekly(1, 3, 5)) {
		t.Errorf("snapshot recurrence = %+v, want Mon/Wed/Fri", snap.Config.Recurrence)
	}
	if !snap.EffectiveFrom.Equal(item.CreatedDate) || !snap.EffectiveUntil.Equal(utils.AddDays(today, -1)) {
		t.Errorf("snapshot range = %s..%s", utils.DayKey(snap.EffectiveFrom), utils.DayKey(snap.EffectiveUntil))
	}

	live, err := store.GetItem(ctx, "gym")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if !live.Recurrence.Equal(models.Weekly(2, 4)) {
		t.Errorf("live recurrence = %+v, want Tue/Thu", live.Recurrence)
	}
}

func TestApplyEditMissingItemWritesNothing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ghost := testItem("ghost", "Ghost", models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()})
	edit := history.Edit{
		Item:    ghost,
		Changed: true,
		Snapshot: &models.Snapshot{
			ID: "s1", ItemID: "ghost", Config: ghost.Config,
			EffectiveFrom: utils.Date(2026, 1, 1), EffectiveUntil: utils.Date(2026, 1, 31), CreatedAt: time.Now(),
		},
	}
	if err := store.ApplyEdit(ctx, edit); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("ApplyEdit(missing) = %v, want ErrNotFound", err)
	}
	snaps, err := store.GetSnapshots(ctx, "")
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("snapshots = %d, want none", len(snaps))
	}
}

func TestLogs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	day := utils.Date(2026, 1, 5)
	logs := []models.Log{
		{ID: "a", ItemID: "water", Day: day, Status: models.LogCompleted, Value: num(250), CompletedAt: day.Add(9 * time.Hour)},
		{ID: "b", ItemID: "water", Day: day, Status: models.LogCompleted, Value: num(500), CompletedAt: day.Add(13 * time.Hour)},
		{ID: "c", ItemID: "run", Day: utils.AddDays(day, 1), Status: models.LogSkipped, SkipReason: "rain", CompletedAt: day.Add(30 * time.Hour)},
		{ID: "d", ItemID: "run", Day: utils.AddDays(day, 7), SlotID: "am", Status: models.LogCompleted, CompletedAt: day.Add(175 * time.Hour)},
	}
	for _, l := range logs {
		if err := store.AddLog(ctx, l); err != nil {
			t.Fatalf("AddLog failed: %v", err)
		}
	}

	ranged, err := store.GetLogs(ctx, day, utils.AddDays(day, 1))
	if err != nil {
		t.Fatalf("GetLogs failed: %v", err)
	}
	if len(ranged) != 3 {
		t.Fatalf("GetLogs = %d logs, want 3", len(ranged))
	}
	if ranged[0].ID != "a" || ranged[0].Value == nil || *ranged[0].Value != 250 {
		t.Errorf("first log = %+v", ranged[0])
	}
	if ranged[2].Status != models.LogSkipped || ranged[2].SkipReason != "rain" || ranged[2].Value != nil {
		t.Errorf("skip log = %+v", ranged[2])
	}

	forRun, err := store.GetLogsForItem(ctx, "run")
	if err != nil {
		t.Fatalf("GetLogsForItem failed: %v", err)
	}
	if len(forRun) != 2 || forRun[1].SlotID != "am" {
		t.Errorf("GetLogsForItem = %+v", forRun)
	}

	if err := store.DeleteLog(ctx, "b"); err != nil {
		t.Fatalf("DeleteLog failed: %v", err)
	}
	if err := store.DeleteLog(ctx, "b"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("DeleteLog twice = %v, want ErrNotFound", err)
	}
	all, _ := store.GetAllLogs(ctx)
	if len(all) != 3 {
		t.Errorf("GetAllLogs = %d, want 3", len(all))
	}
}

func TestToggleVacation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	day := utils.Date(2026, 7, 14)

	on, err := store.ToggleVacation(ctx, day, "beach")
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v, want on", on, err)
	}
	days, _ := store.GetVacations(ctx)
	if len(days) != 1 || !days[0].Day.Equal(day) || days[0].Note != "beach" {
		t.Errorf("vacations = %+v", days)
	}

	on, err = store.ToggleVacation(ctx, day, "")
	if err != nil || on {
		t.Fatalf("second toggle = %v, %v, want off", on, err)
	}
	days, _ = store.GetVacations(ctx)
	if len(days) != 0 {
		t.Errorf("vacations after toggle off = %+v", days)
	}
}

func TestCorruptColumnsUseFallbacks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetDB().Exec(`
		INSERT INTO items (id, name, kind, recurrence, slots, aggregation, created_date)
		VALUES ('x', 'Mystery', 'gauge', '{not json', '[{"id":""}]', 'median', '2026-01-01')`)
	if err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}
	_, err = store.GetDB().Exec(`
		INSERT INTO logs (id, item_id, day, status, completed_at)
		VALUES ('l', 'x', '2026-01-02', 'partial', '2026-01-02T08:00:00Z')`)
	if err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	item, err := store.GetItem(ctx, "x")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Kind != models.KindCheckbox || item.Recurrence.Kind != models.RecurrenceDaily || item.Slots != nil || item.Aggregation != models.AggregateSum {
		t.Errorf("fallbacks not applied: %+v", item)
	}

	logs, err := store.GetLogsForItem(ctx, "x")
	if err != nil {
		t.Fatalf("GetLogsForItem failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != models.LogCompleted {
		t.Errorf("log status fallback = %+v", logs)
	}
}

func TestDatasetAndImport(t *testing.T) {
	src := setupTestStore(t)
	ctx := context.Background()

	item := testItem("read", "Read", models.Config{Kind: models.KindCumulative, Recurrence: models.Daily(), Target: 30, Unit: "pages"})
	item.Aggregation = models.AggregateAverage
	if err := src.AddItem(ctx, item); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := src.AddLog(ctx, models.Log{ID: "l1", ItemID: "read", Day: utils.Date(2026, 1, 2), Status: models.LogCompleted, Value: num(12), CompletedAt: time.Now()}); err != nil {
		t.Fatalf("AddLog failed: %v", err)
	}
	if _, err := src.ToggleVacation(ctx, utils.Date(2026, 1, 3), ""); err != nil {
		t.Fatalf("ToggleVacation failed: %v", err)
	}
	edit, _ := history.PlanEdit(item, models.Config{Kind: models.KindCumulative, Recurrence: models.Daily(), Target: 40, Unit: "pages"}, utils.Date(2026, 1, 10), nil, true, history.FutureOnly)
	if err := src.ApplyEdit(ctx, edit); err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}

	ds, err := src.Dataset(ctx)
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if len(ds.Items) != 1 || len(ds.Snapshots) != 1 || len(ds.Logs) != 1 || len(ds.Vacations) != 1 {
		t.Fatalf("dataset sizes = %d/%d/%d/%d", len(ds.Items), len(ds.Snapshots), len(ds.Logs), len(ds.Vacations))
	}

	dst := setupTestStore(t)
	for i := 0; i < 2; i++ {
		if err := dst.ImportDataset(ctx, ds); err != nil {
			t.Fatalf("ImportDataset #%d failed: %v", i+1, err)
		}
	}
	got, err := dst.Dataset(ctx)
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if len(got.Items) != 1 || len(got.Snapshots) != 1 || len(got.Logs) != 1 || len(got.Vacations) != 1 {
		t.Fatalf("imported sizes = %d/%d/%d/%d, want one of each", len(got.Items), len(got.Snapshots), len(got.Logs), len(got.Vacations))
	}
	if got.Items[0].Aggregation != models.AggregateAverage || got.Items[0].Target != 40 {
		t.Errorf("imported item = %+v", got.Items[0])
	}
	if got.Snapshots[0].Config.Target != 30 {
		t.Errorf("imported snapshot target = %v, want 30", got.Snapshots[0].Config.Target)
	}
}

func TestLoadMigratesOlderSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	schema, err := fs.ReadFile(migrations.FS, "sqlite/001_init.sql")
	if err != nil {
		t.Fatalf("read migration failed: %v", err)
	}
	for _, stmt := range []string{
		string(schema),
		`CREATE TABLE schema_version (version INTEGER PRIMARY KEY)`,
		`INSERT INTO schema_version (version) VALUES (1)`,
		`INSERT INTO settings (key, value) VALUES ('timezone', 'UTC')`,
		`INSERT INTO items (id, name, kind, created_date) VALUES ('w', 'Water', 'cumulative', '2025-06-01')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	db.Close()

	store := NewStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer store.Close()

	status, err := store.MigrationStatus()
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if !status.UpToDate() || status.Current < 2 {
		t.Errorf("status after load = %+v", status)
	}
	item, err := store.GetItem(context.Background(), "w")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Aggregation != models.AggregateSum {
		t.Errorf("aggregation after migration = %q, want sum", item.Aggregation)
	}
}
