package index

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"cullview/internal/world"
)

var rootBounds = world.Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}

func item(id uint64, x, y, w, h float64) world.Item {
	return world.Item{ID: id, Rect: world.RectAt(world.Point{X: x, Y: y}, w, h)}
}

// Scenario from the component contract: one small item, hits in its corner,
// nothing across the map.
func TestQueryBasic(t *testing.T) {
	qt := New(rootBounds, Options{})
	if err := qt.Insert(item(1, 10, 10, 50, 50)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got := qt.Query(world.RectAt(world.Point{X: 0, Y: 0}, 100, 100))
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("query near item = %v, want [1]", ids(got))
	}
	if got := qt.Query(world.RectAt(world.Point{X: 200, Y: 200}, 50, 50)); len(got) != 0 {
		t.Errorf("query far away = %v, want []", ids(got))
	}
}

func TestInsertRejections(t *testing.T) {
	qt := New(rootBounds, Options{})
	if err := qt.Insert(item(1, 2000, 2000, 10, 10)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("out-of-bounds insert: err = %v, want ErrOutOfBounds", err)
	}
	bad := world.Item{ID: 2, Rect: world.Rect{MinX: math.NaN(), MinY: 0, MaxX: 1, MaxY: 1}}
	if err := qt.Insert(bad); !errors.Is(err, ErrInvalidRect) {
		t.Errorf("NaN insert: err = %v, want ErrInvalidRect", err)
	}
	if qt.Len() != 0 {
		t.Errorf("rejected inserts must not change Len, got %d", qt.Len())
	}
}

// An item straddling the center line stays in the ancestor node under the
// single-owner policy, so queries touching both halves still see it once.
func TestSpanningItemSingleOwner(t *testing.T) {
	qt := New(rootBounds, Options{Capacity: 1, MaxDepth: 4})
	// Force a subdivision first.
	if err := qt.Insert(item(1, 10, 10, 5, 5)); err != nil {
		t.Fatal(err)
	}
	if err := qt.Insert(item(2, 900, 900, 5, 5)); err != nil {
		t.Fatal(err)
	}
	// Straddles the vertical center line at x=500.
	if err := qt.Insert(item(3, 480, 100, 40, 40)); err != nil {
		t.Fatal(err)
	}
	left := qt.Query(world.RectAt(world.Point{X: 470, Y: 90}, 20, 20))
	right := qt.Query(world.RectAt(world.Point{X: 510, Y: 130}, 20, 20))
	if len(left) != 1 || left[0].ID != 3 {
		t.Errorf("left-side query = %v, want [3]", ids(left))
	}
	if len(right) != 1 || right[0].ID != 3 {
		t.Errorf("right-side query = %v, want [3]", ids(right))
	}
	all := qt.Query(rootBounds)
	if n := count(all, 3); n != 1 {
		t.Errorf("spanning item returned %d times, want exactly once", n)
	}
}

// Completeness and soundness over a randomized workload: a query returns an
// item iff their rects overlap.
func TestQueryCompleteSound(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	qt := New(rootBounds, Options{Capacity: 4, MaxDepth: 6})
	items := make([]world.Item, 0, 500)
	for i := 0; i < 500; i++ {
		it := item(uint64(i+1),
			rng.Float64()*950, rng.Float64()*950,
			1+rng.Float64()*40, 1+rng.Float64()*40)
		if err := qt.Insert(it); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		items = append(items, it)
	}

	for q := 0; q < 50; q++ {
		r := world.RectAt(world.Point{X: rng.Float64() * 900, Y: rng.Float64() * 900},
			10+rng.Float64()*200, 10+rng.Float64()*200)
		got := map[uint64]int{}
		for _, it := range qt.Query(r) {
			got[it.ID]++
			if !it.Rect.Overlaps(r) {
				t.Fatalf("query %d returned non-overlapping item %d", q, it.ID)
			}
		}
		for _, it := range items {
			overlaps := it.Rect.Overlaps(r)
			switch {
			case overlaps && got[it.ID] != 1:
				t.Fatalf("query %d: item %d returned %d times, want 1", q, it.ID, got[it.ID])
			case !overlaps && got[it.ID] != 0:
				t.Fatalf("query %d: item %d should be absent", q, it.ID)
			}
		}
	}
}

func TestMaxDepthBoundsRecursion(t *testing.T) {
	qt := New(rootBounds, Options{Capacity: 1, MaxDepth: 3})
	// Everything in one tight corner: pathological clustering.
	for i := 0; i < 64; i++ {
		if err := qt.Insert(item(uint64(i+1), 1, 1, 0.5, 0.5)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if d := qt.Depth(); d > 3 {
		t.Errorf("Depth = %d, want <= 3", d)
	}
	if got := qt.Query(world.RectAt(world.Point{X: 0, Y: 0}, 5, 5)); len(got) != 64 {
		t.Errorf("corner query returned %d items, want 64", len(got))
	}
}

func TestBuildReportsRejected(t *testing.T) {
	items := []world.Item{
		item(1, 10, 10, 5, 5),
		item(2, 5000, 5000, 5, 5), // outside
		{ID: 3, Rect: world.Rect{MinX: 1, MinY: 1, MaxX: 1, MaxY: 1}}, // degenerate
	}
	qt, rejected := Build(items, rootBounds, Options{})
	if rejected != 2 {
		t.Errorf("rejected = %d, want 2", rejected)
	}
	if qt.Len() != 1 {
		t.Errorf("Len = %d, want 1", qt.Len())
	}
}

func ids(items []world.Item) []uint64 {
	out := make([]uint64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func count(items []world.Item, id uint64) int {
	n := 0
	for _, it := range items {
		if it.ID == id {
			n++
		}
	}
	return n
}
