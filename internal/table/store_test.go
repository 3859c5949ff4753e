package table

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "notas.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tbl := New()
	tbl.Append(map[string]Value{"item": "ARROZ 5KG", "qt": 3.0, "obs": nil}, "item", "qt", "obs")
	tbl.Append(map[string]Value{"item": "FEIJAO", "qt": 1.5, "obs": "X"})

	if err := store.WriteSnapshot(ctx, "notas_flat", tbl); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	got, err := store.ReadSnapshot(ctx, "notas_flat")
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}

	if got.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", got.NumRows())
	}
	if got.GetString(0, "item") != "ARROZ 5KG" {
		t.Errorf("item = %q", got.GetString(0, "item"))
	}
	if got.GetFloat(1, "qt") != 1.5 {
		t.Errorf("qt = %v, want 1.5", got.Get(1, "qt"))
	}
	if got.Get(0, "obs") != nil {
		t.Errorf("null cell came back as %v", got.Get(0, "obs"))
	}
	if got.GetString(1, "obs") != "X" {
		t.Errorf("obs = %q, want X", got.GetString(1, "obs"))
	}
}

func TestSnapshotReplacesNotAppends(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := New()
	first.Append(map[string]Value{"item": "A"})
	first.Append(map[string]Value{"item": "B"})
	if err := store.WriteSnapshot(ctx, "notas_flat", first); err != nil {
		t.Fatalf("first WriteSnapshot failed: %v", err)
	}

	second := New()
	second.Append(map[string]Value{"item": "C", "un": "KG"}, "item", "un")
	if err := store.WriteSnapshot(ctx, "notas_flat", second); err != nil {
		t.Fatalf("second WriteSnapshot failed: %v", err)
	}

	got, err := store.ReadSnapshot(ctx, "notas_flat")
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if got.NumRows() != 1 {
		t.Errorf("snapshot should replace: NumRows() = %d, want 1", got.NumRows())
	}
	if !got.HasColumn("un") {
		t.Errorf("snapshot should carry new schema, columns = %v", got.Columns())
	}
}

func TestWriteSnapshotEmptyTable(t *testing.T) {
	store := openTestStore(t)
	if err := store.WriteSnapshot(context.Background(), "vazio", New()); err == nil {
		t.Error("expected error writing a table with no columns")
	}
}
