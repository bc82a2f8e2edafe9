package evolution

import (
	"testing"

	"github.com/bosflow/bosflow/model"
)

func noopMigration(version string) model.Migration {
	return model.Migration{
		Version: version,
		Up: func(doc model.Document) (model.Document, error) {
			return doc, nil
		},
	}
}

func TestRegistry_register_and_get(t *testing.T) {
	r := NewRegistry()
	r.Register(noopMigration("1.1.0"))

	m, ok := r.Get("1.1.0")
	if !ok {
		t.Fatal("expected migration to be registered")
	}
	if m.Version != "1.1.0" {
		t.Errorf("version = %q, want 1.1.0", m.Version)
	}
	if _, ok := r.Get("9.9.9"); ok {
		t.Error("expected lookup miss for unregistered version")
	}
}

func TestRegistry_register_overwrites(t *testing.T) {
	r := NewRegistry()
	first := noopMigration("1.1.0")
	first.Description = "first"
	second := noopMigration("1.1.0")
	second.Description = "second"

	r.Register(first)
	r.Register(second)

	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	m, _ := r.Get("1.1.0")
	if m.Description != "second" {
		t.Errorf("description = %q, want second", m.Description)
	}
}

func TestRegistry_register_strict_rejects_duplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterStrict(noopMigration("1.1.0")); err != nil {
		t.Fatalf("first RegisterStrict: %v", err)
	}
	if err := r.RegisterStrict(noopMigration("1.1.0")); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestRegistry_register_strict_rejects_malformed(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterStrict(model.Migration{}); err == nil {
		t.Error("expected error for missing version")
	}
	if err := r.RegisterStrict(model.Migration{Version: "1.1.0"}); err == nil {
		t.Error("expected error for missing up transform")
	}
}

func TestRegistry_all_is_sorted_regardless_of_insert_order(t *testing.T) {
	r := NewRegistry()
	r.Register(noopMigration("1.3.0"))
	r.Register(noopMigration("1.1.0"))
	r.Register(noopMigration("1.10.0"))
	r.Register(noopMigration("1.2.0"))

	want := []string{"1.1.0", "1.2.0", "1.3.0", "1.10.0"}
	all := r.All()
	if len(all) != len(want) {
		t.Fatalf("got %d migrations, want %d", len(all), len(want))
	}
	for i, m := range all {
		if m.Version != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, m.Version, want[i])
		}
	}
}

func TestRegistry_select_window(t *testing.T) {
	r := NewRegistry()
	for _, v := range []string{"1.1.0", "1.2.0", "1.3.0", "2.0.0"} {
		r.Register(noopMigration(v))
	}

	cases := []struct {
		name            string
		current, target string
		want            []string
	}{
		{"full range", "1.0.0", "2.0.0", []string{"1.1.0", "1.2.0", "1.3.0", "2.0.0"}},
		{"excludes current", "1.1.0", "1.3.0", []string{"1.2.0", "1.3.0"}},
		{"includes target", "1.2.0", "1.3.0", []string{"1.3.0"}},
		{"same version", "1.2.0", "1.2.0", nil},
		{"backwards", "1.3.0", "1.1.0", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Select(tc.current, tc.target)
			if len(got) != len(tc.want) {
				t.Fatalf("selected %d migrations, want %d", len(got), len(tc.want))
			}
			for i, m := range got {
				if m.Version != tc.want[i] {
					t.Errorf("selected[%d] = %q, want %q", i, m.Version, tc.want[i])
				}
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.1.0", -1},
		{"1.10.0", "1.2.0", 1},
		{"v1.0.0", "1.0.0", 0},
		{"abc", "abd", -1},
	}
	for _, tc := range cases {
		if got := CompareVersions(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
