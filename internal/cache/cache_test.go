package cache

import (
	"errors"
	"testing"
)

// fakeArtifact records whether Release ran.
type fakeArtifact struct {
	released bool
	fail     error
}

func (f *fakeArtifact) Release() error {
	f.released = true
	return f.fail
}

func key(id uint64) Key { return Key{ID: id, Epoch: 1} }

func TestGetPut(t *testing.T) {
	c := New(4)
	if _, ok := c.Get(key(1)); ok {
		t.Error("Get on empty cache should miss")
	}
	a := &fakeArtifact{}
	c.Put(key(1), a)
	got, ok := c.Get(key(1))
	if !ok || got != a {
		t.Errorf("Get = %v/%v, want the stored artifact", got, ok)
	}
}

// Inserting capacity+1 distinct keys with no intervening access evicts
// exactly the first-inserted key.
func TestLRUEvictionOrder(t *testing.T) {
	c := New(3)
	arts := make([]*fakeArtifact, 4)
	for i := range arts {
		arts[i] = &fakeArtifact{}
		c.Put(key(uint64(i+1)), arts[i])
	}
	if _, ok := c.Get(key(1)); ok {
		t.Error("key 1 should be evicted")
	}
	if !arts[0].released {
		t.Error("evicted artifact must be released")
	}
	for i := 2; i <= 4; i++ {
		if _, ok := c.Get(key(uint64(i))); !ok {
			t.Errorf("key %d should survive", i)
		}
		if arts[i-1].released {
			t.Errorf("surviving artifact %d was released", i)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

// A Get promotes the entry, changing which key the next Put evicts.
func TestGetPromotes(t *testing.T) {
	c := New(2)
	c.Put(key(1), &fakeArtifact{})
	c.Put(key(2), &fakeArtifact{})
	if _, ok := c.Get(key(1)); !ok {
		t.Fatal("key 1 should be present")
	}
	c.Put(key(3), &fakeArtifact{})
	if _, ok := c.Get(key(1)); !ok {
		t.Error("promoted key 1 should survive")
	}
	if _, ok := c.Get(key(2)); ok {
		t.Error("key 2 should be evicted instead")
	}
}

func TestPutReplaceReleasesOld(t *testing.T) {
	c := New(2)
	old := &fakeArtifact{}
	c.Put(key(1), old)
	neu := &fakeArtifact{}
	c.Put(key(1), neu)
	if !old.released {
		t.Error("replaced artifact must be released")
	}
	if got, _ := c.Get(key(1)); got != neu {
		t.Error("replacement not stored")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestClearReleasesAll(t *testing.T) {
	c := New(8)
	arts := make([]*fakeArtifact, 5)
	for i := range arts {
		arts[i] = &fakeArtifact{}
		c.Put(key(uint64(i+1)), arts[i])
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
	for i, a := range arts {
		if !a.released {
			t.Errorf("artifact %d not released on Clear", i+1)
		}
	}
	if _, ok := c.Get(key(1)); ok {
		t.Error("cleared entry still reachable")
	}
}

// Release failures are reported to the hook, never escalated.
func TestReleaseErrorHook(t *testing.T) {
	c := New(1)
	var gotKey Key
	var gotErr error
	c.ReleaseError = func(k Key, err error) { gotKey, gotErr = k, err }

	fail := errors.New("leak")
	c.Put(key(1), &fakeArtifact{fail: fail})
	c.Put(key(2), &fakeArtifact{}) // evicts key 1
	if gotKey != key(1) || !errors.Is(gotErr, fail) {
		t.Errorf("hook got %+v/%v, want key 1 with the release error", gotKey, gotErr)
	}
}

func TestStats(t *testing.T) {
	c := New(2)
	c.Put(key(1), &fakeArtifact{})
	c.Get(key(1))
	c.Get(key(1))
	c.Get(key(9))
	c.Put(key(2), &fakeArtifact{})
	c.Put(key(3), &fakeArtifact{})

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", s.Hits, s.Misses)
	}
	if s.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", s.Evictions)
	}
	if s.Entries != 2 || s.Capacity != 2 {
		t.Errorf("entries/capacity = %d/%d", s.Entries, s.Capacity)
	}
	want := 2.0 / 3.0
	if diff := s.HitRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("HitRate = %v, want %v", s.HitRate, want)
	}
}

func TestZeroCapacityFallsBack(t *testing.T) {
	c := New(0)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("Capacity = %d, want default %d", c.Capacity(), DefaultCapacity)
	}
}

func TestPutNil(t *testing.T) {
	c := New(2)
	c.Put(key(1), nil)
	if c.Len() != 0 {
		t.Error("nil artifact must not be stored")
	}
}
