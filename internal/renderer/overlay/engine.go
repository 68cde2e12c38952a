package overlay

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ckessler/inlay/internal/engine/buffer"
	"github.com/ckessler/inlay/internal/engine/tracking"
)

// LineLayout is the slice of the document model the engine needs: where the
// line containing an offset ends. *buffer.Buffer satisfies it.
type LineLayout interface {
	LineEndForOffset(offset buffer.ByteOffset) buffer.ByteOffset
}

// DisposeFunc removes an overlay entry. Calling it more than once is safe.
type DisposeFunc func()

// TextOption adjusts a ProcessText call.
type TextOption func(*textOptions)

type textOptions struct {
	transform  func(string) string
	anchor     buffer.ByteOffset
	anchorOnly bool
}

// WithTransform applies fn to the incoming text before display.
func WithTransform(fn func(string) string) TextOption {
	return func(o *textOptions) { o.transform = fn }
}

// ForAnchor routes the update only to entries currently anchored at the
// given offset, instead of broadcasting to every live entry.
func ForAnchor(anchor buffer.ByteOffset) TextOption {
	return func(o *textOptions) {
		o.anchor = anchor
		o.anchorOnly = true
	}
}

// Engine owns the set of live overlay entries and remaps their anchors
// through document edits. It is pure view state: it never mutates the
// document. All operations are thread-safe.
type Engine struct {
	mu      sync.RWMutex
	layout  LineLayout
	config  Config
	entries map[EntryID]*Entry
	nextID  EntryID
	now     func() time.Time
}

// NewEngine creates an overlay engine over the given line layout.
func NewEngine(layout LineLayout, config Config) *Engine {
	return &Engine{
		layout:  layout,
		config:  config,
		entries: make(map[EntryID]*Entry),
		now:     time.Now,
	}
}

// Show registers a waiting entry at the given anchor offset and returns its
// id plus an idempotent dispose func. Whether the entry renders after line
// content is decided once here, from the line layout at registration time,
// and then re-derived whenever an edit moves the anchor.
func (e *Engine) Show(anchor buffer.ByteOffset) (EntryID, DisposeFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	now := e.now()
	e.entries[id] = &Entry{
		id:        id,
		anchor:    anchor,
		atLineEnd: anchor == e.layout.LineEndForOffset(anchor),
		state:     StateWaiting,
		shownAt:   now,
		changedAt: now,
	}
	return id, func() { e.Dispose(id) }
}

// ProcessText routes a text update to overlay entries. Empty or
// whitespace-only text is a no-op. Without ForAnchor the update goes to
// every live entry; independent simultaneous generations should route by
// anchor. The first delivery to an entry flips it from waiting to
// streaming; later deliveries update it in place.
//
// Updates are incremental: when the new text strictly extends what an entry
// already shows, only the appended suffix is marked fresh so the unchanged
// prefix keeps its cells (no flicker on every token). Anything else is a
// full replace.
func (e *Engine) ProcessText(text string, opts ...TextOption) {
	if strings.TrimSpace(text) == "" {
		return
	}

	var o textOptions
	for _, opt := range opts {
		opt(&o)
	}

	display := text
	if o.transform != nil {
		display = o.transform(text)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for _, entry := range e.entries {
		if o.anchorOnly && entry.anchor != o.anchor {
			continue
		}
		e.deliverLocked(entry, display, now)
	}
}

// deliverLocked applies a text update to one entry (must hold lock).
func (e *Engine) deliverLocked(entry *Entry, display string, now time.Time) {
	switch entry.state {
	case StateWaiting:
		entry.state = StateStreaming
		entry.display = display
		entry.freshFrom = 0
		entry.changedAt = now

	case StateStreaming:
		switch {
		case display == entry.display:
			// Nothing new arrived.
		case len(display) > len(entry.display) && strings.HasPrefix(display, entry.display):
			entry.freshFrom = len(entry.display)
			entry.display = display
			entry.changedAt = now
		default:
			// The backend rewrote earlier content: full replace.
			entry.freshFrom = 0
			entry.display = display
			entry.changedAt = now
		}
	}
}

// Dispose removes an entry. Unknown or already disposed ids are no-ops.
func (e *Engine) Dispose(id EntryID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.entries, id)
}

// Anchor returns the current anchor offset of an entry.
func (e *Engine) Anchor(id EntryID) (buffer.ByteOffset, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.entries[id]
	if !ok {
		return 0, false
	}
	return entry.anchor, true
}

// Count returns the number of live entries.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// ApplyEdits remaps every entry's anchor through a document edit batch,
// using the same mapping primitive as the range tracker. Anchors map with
// StickyLeft so an overlay never absorbs text typed exactly at its anchor,
// and the end-of-line flag is recomputed against the new line boundaries.
func (e *Engine) ApplyEdits(edits []buffer.Edit) {
	if len(edits) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range e.entries {
		entry.anchor = tracking.MapOffset(entry.anchor, edits, tracking.StickyLeft)
		if entry.anchor < 0 {
			entry.anchor = 0
		}
		entry.atLineEnd = entry.anchor == e.layout.LineEndForOffset(entry.anchor)
	}
}

// Render produces the spans for all live entries at the given instant,
// sorted by ascending anchor with ties broken by registration order, so
// simultaneous generations always stack deterministically.
func (e *Engine) Render(now time.Time) []Span {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ordered := make([]*Entry, 0, len(e.entries))
	for _, entry := range e.entries {
		ordered = append(ordered, entry)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].anchor != ordered[j].anchor {
			return ordered[i].anchor < ordered[j].anchor
		}
		return ordered[i].id < ordered[j].id
	})

	var spans []Span
	for _, entry := range ordered {
		spans = append(spans, e.spansForLocked(entry, now)...)
	}
	return spans
}

// spansForLocked renders one entry (must hold lock).
func (e *Engine) spansForLocked(entry *Entry, now time.Time) []Span {
	switch entry.state {
	case StateWaiting:
		return []Span{{
			Entry:     entry.id,
			Anchor:    entry.anchor,
			AtLineEnd: entry.atLineEnd,
			Text:      e.spinnerFrame(entry, now),
			Style:     e.config.WaitingStyle,
		}}

	case StateStreaming:
		opacity := e.opacity(entry, now)
		if opacity >= 1 || entry.FreshText() == "" {
			return []Span{{
				Entry:     entry.id,
				Anchor:    entry.anchor,
				AtLineEnd: entry.atLineEnd,
				Text:      entry.display,
				Style:     e.config.StreamStyle,
			}}
		}

		fadeStyle := e.config.StreamStyle
		fadeStyle.Foreground = e.config.FadeFrom.Blend(e.config.StreamStyle.Foreground, opacity)

		var spans []Span
		if stable := entry.StableText(); stable != "" {
			spans = append(spans, Span{
				Entry:     entry.id,
				Anchor:    entry.anchor,
				AtLineEnd: entry.atLineEnd,
				Text:      stable,
				Style:     e.config.StreamStyle,
			})
		}
		spans = append(spans, Span{
			Entry:     entry.id,
			Anchor:    entry.anchor,
			AtLineEnd: entry.atLineEnd,
			Text:      entry.FreshText(),
			Style:     fadeStyle,
			Fresh:     true,
		})
		return spans
	}
	return nil
}

// spinnerFrame picks the spinner frame for a waiting entry.
func (e *Engine) spinnerFrame(entry *Entry, now time.Time) string {
	frames := e.config.SpinnerFrames
	if len(frames) == 0 {
		return ""
	}
	if e.config.SpinnerInterval <= 0 {
		return frames[0]
	}
	elapsed := now.Sub(entry.shownAt)
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(elapsed/e.config.SpinnerInterval) % len(frames)
	return frames[idx]
}

// opacity returns the enter-animation progress for an entry's fresh text.
func (e *Engine) opacity(entry *Entry, now time.Time) float64 {
	if e.config.FadeDuration <= 0 {
		return 1
	}
	elapsed := now.Sub(entry.changedAt)
	if elapsed >= e.config.FadeDuration {
		return 1
	}
	if elapsed < 0 {
		return 0
	}
	return float64(elapsed) / float64(e.config.FadeDuration)
}
