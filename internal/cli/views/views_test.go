package views

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/config"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage/sqlite"
	"github.com/julianstephens/tally/internal/utils"
)

// Tuesday.
var today = utils.Date(2026, 1, 6)

func setupTestViews(t *testing.T, items []models.Item, logs []models.Log) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := cli.NewContext(store, config.Config{Timezone: "UTC"})
	out := &bytes.Buffer{}
	ctx.Out = out
	ctx.Now = func() time.Time { return today.Add(18 * time.Hour) }

	err := store.ImportDataset(ctx.Ctx(), models.Dataset{Items: items, Logs: logs})
	if err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return ctx, out
}

func newItem(id string, cfg models.Config) models.Item {
	return models.Item{ID: id, Name: id, Config: cfg, CreatedDate: utils.Date(2026, 1, 1)}
}

func completion(id, itemID string, day time.Time, value *float64) models.Log {
	return models.Log{
		ID:          id,
		ItemID:      itemID,
		Day:         day,
		Status:      models.LogCompleted,
		CompletedAt: day.Add(9 * time.Hour),
		Value:       value,
	}
}

func ptr(v float64) *float64 { return &v }

func TestTodayCmdEmpty(t *testing.T) {
	ctx, out := setupTestViews(t, nil, nil)

	if err := (&TodayCmd{}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if !strings.Contains(out.String(), "Tue 2026-01-06") {
		t.Errorf("missing title: %q", out.String())
	}
	if !strings.Contains(out.String(), "Nothing scheduled.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTodayCmd(t *testing.T) {
	items := []models.Item{
		newItem("walk", models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()}),
		newItem("water", models.Config{Kind: models.KindCumulative, Recurrence: models.Daily(), Target: 2000, Unit: "ml"}),
		newItem("review", models.Config{Kind: models.KindCheckbox, Recurrence: models.Weekly(1)}),
		newItem("laundry", models.Config{Kind: models.KindCheckbox, Recurrence: models.Weekly(3)}),
	}
	logs := []models.Log{
		completion("l1", "walk", today, nil),
		completion("l2", "water", today, ptr(500)),
	}
	ctx, out := setupTestViews(t, items, logs)

	if err := (&TodayCmd{}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	got := out.String()

	for _, want := range []string{"✓ walk", "500 / 2000 ml", "review", "overdue since Mon 2026-01-05 (1 day)", "%"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	// First due tomorrow, so neither due nor overdue today.
	if strings.Contains(got, "laundry") {
		t.Errorf("laundry should not be listed:\n%s", got)
	}
}

func TestTodayCmdAllSkipped(t *testing.T) {
	items := []models.Item{newItem("walk", models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()})}
	skip := completion("l1", "walk", today, nil)
	skip.Status = models.LogSkipped
	skip.SkipReason = "rain"
	ctx, out := setupTestViews(t, items, []models.Log{skip})

	if err := (&TodayCmd{Day: "today"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "(rain)") || !strings.Contains(out.String(), "Everything skipped.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTodayCmdVacation(t *testing.T) {
	ctx, out := setupTestViews(t, []models.Item{newItem("walk", models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()})}, nil)
	if _, err := ctx.Store.ToggleVacation(ctx.Ctx(), utils.Date(2026, 1, 5), ""); err != nil {
		t.Fatal(err)
	}

	if err := (&TodayCmd{Day: "yesterday"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Mon 2026-01-05 · vacation") {
		t.Errorf("output = %q", out.String())
	}
}

func TestStatsCmd(t *testing.T) {
	items := []models.Item{
		newItem("walk", models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()}),
		newItem("old", models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()}),
	}
	archived := utils.Date(2026, 1, 3)
	items[1].ArchivedAt = &archived
	logs := []models.Log{
		completion("l1", "walk", utils.Date(2026, 1, 4), nil),
		completion("l2", "walk", utils.Date(2026, 1, 5), nil),
	}
	ctx, out := setupTestViews(t, items, logs)

	if err := (&StatsCmd{}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "walk") || !strings.Contains(got, "2 days") {
		t.Errorf("output = %q", got)
	}
	if strings.Contains(got, "old") {
		t.Errorf("archived items are hidden without --all:\n%s", got)
	}

	out.Reset()
	if err := (&StatsCmd{All: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "old") {
		t.Errorf("--all should include archived items:\n%s", out.String())
	}

	out.Reset()
	if err := (&StatsCmd{Item: "walk"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "STREAK") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDays(t *testing.T) {
	if got := days(1); got != "1 day" {
		t.Errorf("days(1) = %q", got)
	}
	if got := days(0); got != "0 days" {
		t.Errorf("days(0) = %q", got)
	}
}

func TestTodayCmdPastDayUsesThatDaysSettings(t *testing.T) {
	water := newItem("water", models.Config{Kind: models.KindCumulative, Recurrence: models.Daily(), Target: 3, Unit: "l"})
	ctx, out := setupTestViews(t, []models.Item{water}, []models.Log{completion("l1", "water", utils.Date(2026, 1, 4), ptr(500))})
	snap := models.Snapshot{
		ID:             "s1",
		ItemID:         "water",
		Config:         models.Config{Kind: models.KindCumulative, Recurrence: models.Daily(), Target: 2000, Unit: "ml"},
		EffectiveFrom:  utils.Date(2026, 1, 1),
		EffectiveUntil: utils.Date(2026, 1, 5),
		CreatedAt:      today,
	}
	if err := ctx.Store.ImportDataset(ctx.Ctx(), models.Dataset{Snapshots: []models.Snapshot{snap}}); err != nil {
		t.Fatal(err)
	}

	if err := (&TodayCmd{Day: "2026-01-04"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.Contains(got, "500 / 2000 ml") || strings.Contains(got, " l\n") {
		t.Errorf("past day should render with the settings of that day:\n%s", got)
	}

	out.Reset()
	if err := (&TodayCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.Contains(got, "0 / 3 l") {
		t.Errorf("today should render with the current settings:\n%s", got)
	}
}
