package sqlstore

import (
	"testing"

	"github.com/julianstephens/tally/internal/models"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{DialectSQLite, "SELECT * FROM logs WHERE day >= ? AND day <= ?", "SELECT * FROM logs WHERE day >= ? AND day <= ?"},
		{DialectPostgres, "SELECT * FROM logs WHERE day >= ? AND day <= ?", "SELECT * FROM logs WHERE day >= $1 AND day <= $2"},
		{DialectPostgres, "DELETE FROM logs", "DELETE FROM logs"},
	}
	for _, tt := range tests {
		s := New(nil, tt.dialect)
		if got := s.rebind(tt.in); got != tt.want {
			t.Errorf("rebind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestZeroStoreNotInitialized(t *testing.T) {
	var s Store
	if err := s.ready(); err == nil {
		t.Fatal("zero Store should not be ready")
	}
}

func TestDecodeConfig(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.Config
	}{
		{
			name: "weekly with slots",
			raw:  `{"kind":"value","recurrence":{"kind":"weekly","weekdays":[1,3]},"slots":[{"id":"am","name":"AM"},{"id":"pm","name":"PM"}],"unit":"kg"}`,
			want: models.Config{Kind: models.KindValue, Recurrence: models.Weekly(1, 3), Slots: models.NewSlotSet("AM", "PM"), Unit: "kg"},
		},
		{
			name: "unknown kinds fall back",
			raw:  `{"kind":"gauge","recurrence":{"kind":"fortnightly"}}`,
			want: models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()},
		},
		{
			name: "corrupt json",
			raw:  `{"kind":`,
			want: models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily()},
		},
		{
			name: "container parent preserved",
			raw:  `{"kind":"checkbox","recurrence":{"kind":"daily"},"parent_id":"box"}`,
			want: models.Config{Kind: models.KindCheckbox, Recurrence: models.Daily(), ParentID: "box"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeConfig(tt.raw); !got.Equal(tt.want) {
				t.Errorf("decodeConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
