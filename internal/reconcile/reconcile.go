// Package reconcile computes minimal mount/retain/unmount operations between
// two visible-item sets, keyed by stable item identity. An item visible in
// both the old and new sets keeps its render state handle, so interactive
// state survives incidental rect movement.
package reconcile

import "cullview/internal/world"

// Entry is the unit of visible identity: created on mount, updated in place
// while visible, destroyed on unmount. State is the opaque render state
// handle the host attaches at mount time.
type Entry struct {
	ID         uint64
	ScreenRect world.Rect
	Payload    world.Payload
	Count      int // >1 when the entry stands in for a collapsed cluster
	State      any
}

// Target is one desired visible unit after culling and clustering.
type Target struct {
	ID         uint64
	ScreenRect world.Rect
	Payload    world.Payload
	Count      int
}

// MountFunc builds the render state handle for a newly visible entry.
// UnmountFunc releases it. Either may be nil.
type (
	MountFunc   func(Target) any
	UnmountFunc func(*Entry)
)

// Set holds the current visible entries in stable order with an ID lookup.
type Set struct {
	entries []*Entry
	byID    map[uint64]*Entry
}

func NewSet() *Set {
	return &Set{byID: make(map[uint64]*Entry)}
}

// Entries returns the visible entries in order. Callers must not mutate the
// slice.
func (s *Set) Entries() []*Entry { return s.entries }

func (s *Set) Len() int { return len(s.entries) }

// Get returns the entry for id.
func (s *Set) Get(id uint64) (*Entry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Result reports what a Run step did.
type Result struct {
	Mounted   int
	Retained  int
	Unmounted int
	// Done is false when the step's budget ran out before every target was
	// processed; call Run again on the next tick to continue the pass.
	Done bool
}

// Changed reports whether the step produced any mount or unmount.
func (r Result) Changed() bool { return r.Mounted > 0 || r.Unmounted > 0 }

// Reconciler applies keyed diffs onto a Set.
type Reconciler struct {
	Mount   MountFunc
	Unmount UnmountFunc
}

// Pass is one resumable reconciliation of a Set against a target list.
// Abandoning an unfinished pass is safe: the set then holds the union of the
// previous entries and the targets processed so far, and the next pass's
// final sweep cleans up. That is exactly the coalescing contract — a
// superseding viewport starts a fresh pass instead of queueing.
type Pass struct {
	r       *Reconciler
	s       *Set
	targets []Target
	pos     int
	seen    map[uint64]bool
	next    []*Entry
	done    bool
}

// Begin starts a pass diffing s against targets. Identity is the target ID,
// never the list position.
func (r *Reconciler) Begin(s *Set, targets []Target) *Pass {
	return &Pass{
		r:       r,
		s:       s,
		targets: targets,
		seen:    make(map[uint64]bool, len(targets)),
		next:    make([]*Entry, 0, len(targets)),
	}
}

// Apply reconciles in a single step with no budget. Convenience for hosts
// that never need chunking.
func (r *Reconciler) Apply(s *Set, targets []Target) Result {
	return r.Begin(s, targets).Run(0)
}

// Done reports whether the pass has completed.
func (p *Pass) Done() bool { return p.done }

// Remaining returns how many targets are still unprocessed.
func (p *Pass) Remaining() int { return len(p.targets) - p.pos }

// Run processes up to budget targets (zero or negative means all) and
// returns what happened. While the pass is incomplete the set holds the
// union of already-processed targets and the previous entries not yet
// superseded, so a partial frame never flashes empty. Unmounts are deferred
// to the completing step — they are never half-applied before the
// corresponding mounts finished.
func (p *Pass) Run(budget int) Result {
	var res Result
	if p.done {
		res.Done = true
		return res
	}
	end := len(p.targets)
	if budget > 0 && p.pos+budget < end {
		end = p.pos + budget
	}

	for _, tg := range p.targets[p.pos:end] {
		p.seen[tg.ID] = true
		if e, ok := p.s.byID[tg.ID]; ok {
			// Retain: same handle, rect refreshed in place.
			e.ScreenRect = tg.ScreenRect
			e.Payload = tg.Payload
			e.Count = tg.Count
			p.next = append(p.next, e)
			res.Retained++
			continue
		}
		e := &Entry{ID: tg.ID, ScreenRect: tg.ScreenRect, Payload: tg.Payload, Count: tg.Count}
		if p.r.Mount != nil {
			e.State = p.r.Mount(tg)
		}
		p.s.byID[tg.ID] = e
		p.next = append(p.next, e)
		res.Mounted++
	}
	p.pos = end

	if p.pos < len(p.targets) {
		// Budget exhausted: expose union of processed targets and previous
		// entries, hand the rest to the next tick.
		union := make([]*Entry, len(p.next))
		copy(union, p.next)
		for _, e := range p.s.entries {
			if !p.seen[e.ID] {
				union = append(union, e)
			}
		}
		p.s.entries = union
		return res
	}

	for id, e := range p.s.byID {
		if p.seen[id] {
			continue
		}
		if p.r.Unmount != nil {
			p.r.Unmount(e)
		}
		delete(p.s.byID, id)
		res.Unmounted++
	}
	p.s.entries = p.next
	p.done = true
	res.Done = true
	return res
}
