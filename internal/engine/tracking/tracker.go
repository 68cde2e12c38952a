package tracking

import (
	"errors"
	"sync"

	"github.com/ckessler/inlay/internal/engine/buffer"
)

// ErrInvalidRange is returned when a registration has start > end.
var ErrInvalidRange = errors.New("invalid tracked range")

// RangeID identifies a tracked range. IDs are monotonically increasing and
// never reused within a Tracker.
type RangeID uint64

// TrackedRange is the current mapped extent of a registered span.
type TrackedRange struct {
	ID   RangeID
	From buffer.ByteOffset
	To   buffer.ByteOffset
}

// InsertAfter returns the offset at which text generated for this range
// should be inserted: the mapped end of the span under StickyRight, so it
// follows content typed at the original boundary.
func (r TrackedRange) InsertAfter() buffer.ByteOffset {
	return r.To
}

// IsCollapsed returns true if the span has zero width, which happens when
// its original text was deleted entirely. A collapsed range is still a
// valid insertion point.
func (r TrackedRange) IsCollapsed() bool {
	return r.From == r.To
}

// Tracker owns the registry of tracked ranges and remaps them through every
// document edit. All operations are thread-safe.
type Tracker struct {
	mu     sync.RWMutex
	nextID RangeID
	ranges map[RangeID]*TrackedRange
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		ranges: make(map[RangeID]*TrackedRange),
	}
}

// Register adds a tracked range over [from, to) and returns its id.
// It has no side effect on the document.
func (t *Tracker) Register(from, to buffer.ByteOffset) (RangeID, error) {
	if from < 0 || from > to {
		return 0, ErrInvalidRange
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.ranges[id] = &TrackedRange{ID: id, From: from, To: to}
	return id, nil
}

// ApplyEdits remaps every tracked range through an edit batch. It must be
// invoked once per document change, before any other processing of that
// change; buffer observers deliver edits in exactly the shape MapOffset
// expects.
func (t *Tracker) ApplyEdits(edits []buffer.Edit) {
	if len(edits) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range t.ranges {
		from := MapOffset(r.From, edits, StickyLeft)
		to := MapOffset(r.To, edits, StickyRight)
		if from < 0 {
			from = 0
		}
		if to < from {
			to = from
		}
		r.From, r.To = from, to
	}
}

// Query returns the current mapped range for an id. The second return is
// false if the id was released or never existed; this is a lookup, never an
// error.
func (t *Tracker) Query(id RangeID) (TrackedRange, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.ranges[id]
	if !ok {
		return TrackedRange{}, false
	}
	return *r, true
}

// Release removes a tracked range. Releasing an unknown or already released
// id is a no-op.
func (t *Tracker) Release(id RangeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ranges, id)
}

// Count returns the number of live tracked ranges.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.ranges)
}
