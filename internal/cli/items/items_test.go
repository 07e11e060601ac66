package items

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/config"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage/sqlite"
	"github.com/julianstephens/tally/internal/utils"
)

// today is a Tuesday.
var today = utils.Date(2026, 1, 6)

func setupTestItems(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	off := false
	ctx := cli.NewContext(store, config.Config{Timezone: "UTC", AutoBackup: &off})
	out := &bytes.Buffer{}
	ctx.Out = out
	ctx.Now = func() time.Time { return today.Add(10 * time.Hour) }
	ctx.Confirm = func(string, string, bool) (bool, error) {
		t.Fatal("unexpected prompt")
		return false, nil
	}
	return ctx, out
}

func mustItem(t *testing.T, ctx *cli.Context, ref string) models.Item {
	t.Helper()
	item, err := ctx.ResolveItem(ref, true)
	if err != nil {
		t.Fatalf("ResolveItem(%q): %v", ref, err)
	}
	return item
}

func TestAddCmd(t *testing.T) {
	ctx, out := setupTestItems(t)

	cmd := &AddCmd{Name: "  Water ", Kind: "cumulative", Every: "daily", Target: 2000, Unit: "ml", Aggregation: "sum"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	water := mustItem(t, ctx, "Water")
	if water.Kind != models.KindCumulative || water.Target != 2000 || water.Unit != "ml" {
		t.Errorf("unexpected item %+v", water)
	}
	if !water.CreatedDate.Equal(today) {
		t.Errorf("CreatedDate = %s, want today", utils.DayKey(water.CreatedDate))
	}
	if !strings.Contains(out.String(), `Added cumulative "Water"`) {
		t.Errorf("unexpected output %q", out.String())
	}

	if err := (&AddCmd{Name: "Water"}).Run(ctx); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("duplicate name: expected ErrInvalidInput, got %v", err)
	}
}

func TestAddCmdRejects(t *testing.T) {
	tests := []struct {
		name string
		cmd  AddCmd
	}{
		{"empty name", AddCmd{Name: "  "}},
		{"bad kind", AddCmd{Name: "x", Kind: "gauge"}},
		{"bad recurrence", AddCmd{Name: "x", Every: "hourly"}},
		{"container with slots", AddCmd{Name: "x", Kind: "container", Slots: "AM,PM"}},
		{"counter with slots", AddCmd{Name: "x", Kind: "cumulative", Slots: "AM,PM"}},
		{"bad start", AddCmd{Name: "x", Start: "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestItems(t)
			if err := tt.cmd.Run(ctx); !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAddChildUnderContainer(t *testing.T) {
	ctx, _ := setupTestItems(t)
	if err := (&AddCmd{Name: "Morning", Kind: "container"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&AddCmd{Name: "Stretch", Parent: "Morning", Slots: "AM, PM"}).Run(ctx); err != nil {
		t.Fatalf("add child failed: %v", err)
	}
	box := mustItem(t, ctx, "Morning")
	child := mustItem(t, ctx, "Stretch")
	if child.ParentID != box.ID {
		t.Errorf("ParentID = %q, want %q", child.ParentID, box.ID)
	}
	if ids := child.Slots.IDs(); len(ids) != 2 || ids[0] != "am" || ids[1] != "pm" {
		t.Errorf("slots = %v", ids)
	}

	if err := (&AddCmd{Name: "Nested", Parent: "Stretch"}).Run(ctx); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("parent must be a container, got %v", err)
	}
	if err := (&AddCmd{Name: "Orphan", Parent: "Nowhere"}).Run(ctx); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing parent: expected ErrNotFound, got %v", err)
	}
}

func addLog(t *testing.T, ctx *cli.Context, item models.Item, day time.Time) {
	t.Helper()
	l := models.Log{ID: "log-" + utils.DayKey(day), ItemID: item.ID, Day: day, Status: models.LogCompleted, CompletedAt: day.Add(9 * time.Hour)}
	if err := ctx.Store.AddLog(ctx.Ctx(), l); err != nil {
		t.Fatal(err)
	}
}

func TestEditFutureOnlyKeepsHistory(t *testing.T) {
	ctx, out := setupTestItems(t)
	if err := (&AddCmd{Name: "Gym", Every: "weekly:mon,wed,fri", Start: "2025-12-01"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	gym := mustItem(t, ctx, "Gym")
	addLog(t, ctx, gym, utils.Date(2026, 1, 5))

	prompted := false
	ctx.Confirm = func(title, _ string, def bool) (bool, error) {
		prompted = true
		if !def {
			t.Error("future-only should be the default answer")
		}
		return true, nil
	}
	if err := (&EditCmd{Item: "Gym", Every: "weekly:tue,thu"}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !prompted {
		t.Error("an item with logs should prompt for the edit mode")
	}

	snaps, err := ctx.Store.GetSnapshots(ctx.Ctx(), gym.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	if !snaps[0].EffectiveFrom.Equal(utils.Date(2025, 12, 1)) || !snaps[0].EffectiveUntil.Equal(utils.Date(2026, 1, 5)) {
		t.Errorf("snapshot range %s..%s", utils.DayKey(snaps[0].EffectiveFrom), utils.DayKey(snaps[0].EffectiveUntil))
	}
	if !snaps[0].Config.Recurrence.Equal(models.Weekly(1, 3, 5)) {
		t.Errorf("snapshot should hold the old rule, got %+v", snaps[0].Config.Recurrence)
	}
	if got := mustItem(t, ctx, "Gym"); !got.Recurrence.Equal(models.Weekly(2, 4)) {
		t.Errorf("live rule = %+v", got.Recurrence)
	}
	if !strings.Contains(out.String(), "2025-12-01 through 2026-01-05") {
		t.Errorf("output should name the preserved range: %q", out.String())
	}
}

func TestEditModes(t *testing.T) {
	tests := []struct {
		name         string
		cmd          EditCmd
		answer       bool
		logged       bool
		wantSnapshot bool
	}{
		{name: "rewrite flag", cmd: EditCmd{Rewrite: true}, logged: true},
		{name: "future-only flag", cmd: EditCmd{FutureOnly: true}, logged: true, wantSnapshot: true},
		{name: "prompt answered no", answer: false, logged: true},
		{name: "no logs", logged: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestItems(t)
			if err := (&AddCmd{Name: "Read", Start: "2026-01-01"}).Run(ctx); err != nil {
				t.Fatal(err)
			}
			item := mustItem(t, ctx, "Read")
			if tt.logged {
				addLog(t, ctx, item, utils.Date(2026, 1, 2))
			}
			ctx.Confirm = func(string, string, bool) (bool, error) { return tt.answer, nil }

			cmd := tt.cmd
			cmd.Item = "Read"
			cmd.Slots = "Morning,Evening"
			if err := cmd.Run(ctx); err != nil {
				t.Fatalf("edit failed: %v", err)
			}
			snaps, err := ctx.Store.GetSnapshots(ctx.Ctx(), item.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got := len(snaps) == 1; got != tt.wantSnapshot {
				t.Errorf("snapshot written = %v, want %v", got, tt.wantSnapshot)
			}
			if got := mustItem(t, ctx, "Read"); got.Slots.SessionsPerDay() != 2 {
				t.Errorf("live slots = %v", got.Slots)
			}
		})
	}
}

func TestEditCancelled(t *testing.T) {
	ctx, out := setupTestItems(t)
	if err := (&AddCmd{Name: "Read", Start: "2026-01-01"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	item := mustItem(t, ctx, "Read")
	addLog(t, ctx, item, utils.Date(2026, 1, 2))
	ctx.Confirm = func(string, string, bool) (bool, error) { return false, cli.ErrCancelled }

	if err := (&EditCmd{Item: "Read", Kind: "value"}).Run(ctx); err != nil {
		t.Fatalf("cancel should not be an error: %v", err)
	}
	if got := mustItem(t, ctx, "Read"); got.Kind != models.KindCheckbox {
		t.Errorf("kind changed to %s after cancel", got.Kind)
	}
	if !strings.Contains(out.String(), "cancelled") {
		t.Errorf("output = %q", out.String())
	}
}

func TestEditDisplayOnly(t *testing.T) {
	ctx, _ := setupTestItems(t)
	if err := (&AddCmd{Name: "Read"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&AddCmd{Name: "Write"}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if err := (&EditCmd{Item: "Read", Name: "Read books", Icon: "📚", Aggregation: "average"}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	got := mustItem(t, ctx, "Read books")
	if got.Icon != "📚" || got.Aggregation != models.AggregateAverage {
		t.Errorf("display fields not updated: %+v", got)
	}
	snaps, err := ctx.Store.GetSnapshots(ctx.Ctx(), got.ID)
	if err != nil || len(snaps) != 0 {
		t.Errorf("display edits must not snapshot: %v %v", snaps, err)
	}

	if err := (&EditCmd{Item: "Write", Name: "Read books"}).Run(ctx); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("rename onto an existing name: expected ErrInvalidInput, got %v", err)
	}
	if err := (&EditCmd{Item: "Write", Aggregation: "median"}).Run(ctx); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("bad aggregation: expected ErrInvalidInput, got %v", err)
	}
}

func TestListCmd(t *testing.T) {
	ctx, out := setupTestItems(t)
	if err := (&ListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No items yet") {
		t.Errorf("empty list output = %q", out.String())
	}

	for _, cmd := range []AddCmd{
		{Name: "Morning", Kind: "container"},
		{Name: "Stretch", Parent: "Morning"},
		{Name: "Water", Kind: "cumulative", Target: 2000, Unit: "ml"},
		{Name: "Old"},
	} {
		if err := cmd.Run(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if err := (&ArchiveCmd{Item: "Old"}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := (&ListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	listing := out.String()
	for _, want := range []string{"Morning", "└ Stretch", "2000 ml"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
	if strings.Contains(listing, "Old") {
		t.Error("archived items should be hidden without --all")
	}

	out.Reset()
	if err := (&ListCmd{All: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "archived") {
		t.Errorf("--all should show archived items:\n%s", out.String())
	}
}

func TestNestOrdersChildrenUnderParents(t *testing.T) {
	items := []models.Item{
		{ID: "c", Name: "child", SortOrder: 0, Config: models.Config{ParentID: "p"}},
		{ID: "x", Name: "loose", SortOrder: 2, Config: models.Config{ParentID: "gone"}},
		{ID: "p", Name: "parent", SortOrder: 1, Config: models.Config{Kind: models.KindContainer}},
	}
	got := nest(items)
	want := []struct {
		id    string
		depth int
	}{{"p", 0}, {"c", 1}, {"x", 0}}
	if len(got) != len(want) {
		t.Fatalf("nest = %d rows, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].item.ID != w.id || got[i].depth != w.depth {
			t.Errorf("row %d = %s/%d, want %s/%d", i, got[i].item.ID, got[i].depth, w.id, w.depth)
		}
	}
}

func TestLifecycleCommands(t *testing.T) {
	ctx, _ := setupTestItems(t)
	if err := (&AddCmd{Name: "Run", Start: "2026-01-01"}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if err := (&StopCmd{Item: "Run", On: "2025-12-01"}).Run(ctx); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("stop before creation: expected ErrInvalidInput, got %v", err)
	}
	if err := (&StopCmd{Item: "Run", On: "2026-01-04"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := mustItem(t, ctx, "Run"); got.StoppedDate == nil || !got.StoppedDate.Equal(utils.Date(2026, 1, 4)) {
		t.Errorf("StoppedDate = %v", got.StoppedDate)
	}
	if err := (&StopCmd{Item: "Run", Resume: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := mustItem(t, ctx, "Run"); got.StoppedDate != nil {
		t.Error("resume should clear the stop date")
	}

	if err := (&ArchiveCmd{Item: "Run"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := mustItem(t, ctx, "Run"); !got.Archived || got.ArchivedAt == nil || !got.ArchivedAt.Equal(today) {
		t.Errorf("archive not recorded: %+v", got)
	}
	if err := (&ArchiveCmd{Item: "Run", Undo: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := mustItem(t, ctx, "Run"); got.Archived || got.ArchivedAt != nil {
		t.Error("unarchive should clear the archive fields")
	}

	if err := (&DeleteCmd{Item: "Run", Yes: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.ResolveItem("Run", false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted item still resolvable: %v", err)
	}
	if err := (&RestoreCmd{Item: "Run"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.ResolveItem("Run", false); err != nil {
		t.Errorf("restored item not resolvable: %v", err)
	}
}

func TestDeleteCmdGuards(t *testing.T) {
	ctx, _ := setupTestItems(t)
	if err := (&AddCmd{Name: "Box", Kind: "container"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&AddCmd{Name: "Inside", Parent: "Box"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&DeleteCmd{Item: "Box", Yes: true}).Run(ctx); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("non-empty container: expected ErrInvalidInput, got %v", err)
	}

	ctx.Confirm = func(string, string, bool) (bool, error) { return false, nil }
	if err := (&DeleteCmd{Item: "Inside"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.ResolveItem("Inside", false); err != nil {
		t.Error("declined delete should keep the item")
	}
}

func TestEditContainerFutureOnlyKeepsHistory(t *testing.T) {
	ctx, _ := setupTestItems(t)
	if err := (&AddCmd{Name: "Morning", Kind: "container", Start: "2026-01-01"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&AddCmd{Name: "Stretch", Parent: "Morning", Start: "2026-01-01"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	stretch := mustItem(t, ctx, "Stretch")
	for d := 1; d <= 5; d++ {
		addLog(t, ctx, stretch, utils.Date(2026, 1, d))
	}

	state := func() (int, bool) {
		engine, _, err := ctx.Engine()
		if err != nil {
			t.Fatal(err)
		}
		box := mustItem(t, ctx, "Morning")
		return engine.CurrentStreak(box, utils.Date(2026, 1, 5)), engine.IsContainerCompleted(box, utils.Date(2026, 1, 2))
	}
	streak, completed := state()
	if streak != 5 || !completed {
		t.Fatalf("before edit: streak = %d, completed = %v", streak, completed)
	}

	if err := (&EditCmd{Item: "Morning", Every: "weekly:mon", FutureOnly: true}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	box := mustItem(t, ctx, "Morning")
	snaps, err := ctx.Store.GetSnapshots(ctx.Ctx(), box.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || !snaps[0].Config.Recurrence.Equal(models.Daily()) {
		t.Fatalf("container snapshots = %+v, want one holding the daily rule", snaps)
	}
	if streak, completed = state(); streak != 5 || !completed {
		t.Errorf("after future-only edit: streak = %d, completed = %v", streak, completed)
	}
}

func TestEditMovingChildKeepsOldContainer(t *testing.T) {
	ctx, _ := setupTestItems(t)
	for _, cmd := range []AddCmd{
		{Name: "Morning", Kind: "container", Start: "2026-01-01"},
		{Name: "Stretch", Parent: "Morning", Start: "2026-01-01"},
		{Name: "Floss", Parent: "Morning", Start: "2026-01-01"},
	} {
		if err := cmd.Run(ctx); err != nil {
			t.Fatal(err)
		}
	}
	addLog(t, ctx, mustItem(t, ctx, "Stretch"), utils.Date(2026, 1, 2))

	prompted := false
	ctx.Confirm = func(string, string, bool) (bool, error) {
		prompted = true
		return true, nil
	}
	if err := (&EditCmd{Item: "Floss", Parent: "none"}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !prompted {
		t.Error("moving a child out of a logged container should ask how to treat the past")
	}

	floss := mustItem(t, ctx, "Floss")
	snaps, err := ctx.Store.GetSnapshots(ctx.Ctx(), floss.ID)
	if err != nil {
		t.Fatal(err)
	}
	box := mustItem(t, ctx, "Morning")
	if len(snaps) != 1 || snaps[0].Config.ParentID != box.ID {
		t.Fatalf("snapshots = %+v, want the old membership preserved", snaps)
	}

	engine, _, err := ctx.Engine()
	if err != nil {
		t.Fatal(err)
	}
	if engine.IsContainerCompleted(box, utils.Date(2026, 1, 2)) {
		t.Error("Floss was open on Jan 2, so the container stays incomplete")
	}
	if got := len(engine.Scheduler().ApplicableChildren(box, today)); got != 1 {
		t.Errorf("children today = %d, want 1", got)
	}
}
