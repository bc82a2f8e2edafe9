package backup

import (
	"context"
	"testing"

	"github.com/bosflow/bosflow/model"
)

func sampleDoc() model.Document {
	return model.Document{
		"version": "1.2.0",
		"flows": []any{
			map[string]any{
				"id":     "order-fulfilment",
				"stages": []any{},
			},
		},
	}
}

// storeUnderTest exercises the Store contract against any driver.
func storeUnderTest(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	rec, err := s.Create(ctx, sampleDoc(), "pre-migration", "before 1.3.0")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("record has no ID")
	}
	if rec.Version != "1.2.0" {
		t.Errorf("record version = %q, want 1.2.0", rec.Version)
	}
	if rec.Reason != "pre-migration" || rec.Label != "before 1.3.0" {
		t.Errorf("record metadata = %q / %q", rec.Reason, rec.Label)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("record has no timestamp")
	}

	restored, err := s.Restore(ctx, rec.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Version() != "1.2.0" {
		t.Errorf("restored version = %q", restored.Version())
	}
	if _, ok := restored["flows"].([]any); !ok {
		t.Errorf("restored flows = %T", restored["flows"])
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != rec.ID {
		t.Errorf("list = %+v", records)
	}

	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Restore(ctx, rec.ID); err == nil {
		t.Error("restore after delete should fail")
	}
	if err := s.Delete(ctx, rec.ID); err == nil {
		t.Error("double delete should fail")
	}
	if _, err := s.Restore(ctx, "no-such-id"); err == nil {
		t.Error("restore of unknown id should fail")
	}
}

func TestMemoryStore_contract(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestMemoryStore_snapshot_is_isolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	doc := sampleDoc()
	rec, err := s.Create(ctx, doc, "pre-migration", "")
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the original must not change the snapshot.
	doc["version"] = "9.9.9"

	restored, err := s.Restore(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Version() != "1.2.0" {
		t.Errorf("snapshot shared state with caller: version = %q", restored.Version())
	}

	// Mutating the restored copy must not corrupt the stored snapshot.
	restored["version"] = "0.0.0"
	again, _ := s.Restore(ctx, rec.ID)
	if again.Version() != "1.2.0" {
		t.Error("restore returned a shared reference")
	}
}

func TestMemoryStore_list_newest_first(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Create(ctx, sampleDoc(), "a", "")
	s.Create(ctx, sampleDoc(), "b", "")

	records, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d", len(records))
	}
	if records[0].CreatedAt.Before(records[1].CreatedAt) {
		t.Errorf("list is not newest first: %+v", records)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestFilesystemStore_contract(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	storeUnderTest(t, s)
}

func TestFilesystemStore_survives_reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := s1.Create(ctx, sampleDoc(), "pre-migration", "")
	if err != nil {
		t.Fatal(err)
	}

	s2, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := s2.Restore(ctx, rec.ID)
	if err != nil {
		t.Fatalf("restore after reopen: %v", err)
	}
	if restored.Version() != "1.2.0" {
		t.Errorf("restored version = %q", restored.Version())
	}
}
