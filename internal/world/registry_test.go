package world

import (
	"errors"
	"testing"
)

func testItem(id uint64, x, y float64) Item {
	return Item{ID: id, Rect: RectAt(Point{x, y}, 1, 1), Payload: GlyphPayload('•'), Clusterable: true}
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(testItem(1, 0, 0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(testItem(2, 5, 5)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if _, ok := r.Get(1); !ok {
		t.Error("Get(1) should exist")
	}
	if !r.Remove(1) {
		t.Error("Remove(1) should report true")
	}
	if r.Remove(1) {
		t.Error("Remove(1) twice should report false")
	}
	if _, ok := r.Get(1); ok {
		t.Error("Get(1) should be gone")
	}
	if _, ok := r.Get(2); !ok {
		t.Error("Get(2) should survive the swap-delete")
	}
}

func TestRegistryRejectsDuplicatesAndBadRects(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(testItem(1, 0, 0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(testItem(1, 2, 2)); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate id: err = %v, want ErrDuplicateID", err)
	}
	bad := Item{ID: 3, Rect: Rect{5, 5, 1, 1}}
	if err := r.Add(bad); err == nil {
		t.Error("degenerate rect should be rejected")
	}
	if r.Len() != 1 {
		t.Errorf("rejections must not mutate the registry, Len = %d", r.Len())
	}
}

func TestRegistryVersionBumps(t *testing.T) {
	r := NewRegistry()
	v0 := r.Version()
	_ = r.Add(testItem(1, 0, 0))
	if r.Version() == v0 {
		t.Error("Add must bump version")
	}
	v1 := r.Version()
	if err := r.Replace(1, testItem(0, 9, 9)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if r.Version() == v1 {
		t.Error("Replace must bump version")
	}
	got, _ := r.Get(1)
	if got.Rect.MinX != 9 {
		t.Errorf("Replace should move the item, rect = %+v", got.Rect)
	}
	v2 := r.Version()
	r.Clear()
	if r.Version() == v2 {
		t.Error("Clear must bump version")
	}
	r.Clear()
	if r.Version() != v2+1 {
		t.Error("Clear of an empty registry must not bump version")
	}
}

func TestRegistryNextIDNeverReused(t *testing.T) {
	r := NewRegistry()
	id1 := r.NextID()
	_ = r.Add(testItem(id1, 0, 0))
	r.Remove(id1)
	if id2 := r.NextID(); id2 == id1 {
		t.Errorf("NextID reused %d", id1)
	}
	// Explicit high id pushes the counter forward.
	_ = r.Add(testItem(100, 1, 1))
	if id := r.NextID(); id <= 100 {
		t.Errorf("NextID = %d, want > 100", id)
	}
}

func TestRegistryBounds(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Bounds(); ok {
		t.Error("empty registry has no bounds")
	}
	_ = r.Add(testItem(1, 0, 0))
	_ = r.Add(testItem(2, 10, -5))
	b, ok := r.Bounds()
	if !ok {
		t.Fatal("Bounds should exist")
	}
	want := Rect{MinX: 0, MinY: -5, MaxX: 11, MaxY: 1}
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
}
