package buffer

import (
	"bytes"
	"errors"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// EditObserver is notified of every applied edit batch, in pre-edit
// coordinates, before the mutating call returns. Batches arrive in the
// order the mutations were applied to the text, one at a time. Position
// trackers and overlay engines hook in here so their state is remapped
// before any other processing of the change.
type EditObserver func(edits []Edit)

// Buffer is a thread-safe text buffer addressed by byte offsets.
// Every mutation goes through Replace (or the Insert/Delete conveniences),
// is applied atomically, and is recorded as exactly one undo step.
type Buffer struct {
	// notifyMu serializes each mutation with its observer delivery.
	// Without it, two concurrent Replace calls could notify observers
	// in the opposite order from how their splices landed, and anything
	// remapping through pre-edit coordinates would drift.
	notifyMu sync.Mutex

	mu        sync.RWMutex
	text      []byte
	history   []Edit // inverse edits, one per atomic mutation
	observers []EditObserver
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string) *Buffer {
	return &Buffer{text: []byte(s)}
}

// Observe registers an observer for applied edits.
// Observers run synchronously, in registration order, without the buffer
// lock held, so they may read the buffer. Delivery order across
// mutations matches application order.
func (b *Buffer) Observe(fn EditObserver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.text)
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// TextRange returns the text in [start, end).
// Out-of-range offsets are clamped.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start, end = b.clampRangeLocked(start, end)
	return string(b.text[start:end])
}

// LineCount returns the number of lines in the buffer.
// An empty buffer has one (empty) line.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(bytes.Count(b.text, []byte{'\n'})) + 1
}

// LineText returns the text of the given 0-indexed line,
// without its trailing newline.
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start := b.lineStartLocked(line)
	end := b.lineEndLocked(start)
	return string(b.text[start:end])
}

// LineStartOffset returns the byte offset of the start of the given line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineStartLocked(line)
}

// LineEndOffset returns the byte offset of the end of the given line,
// which is the offset of its newline (or the buffer end for the last line).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEndLocked(b.lineStartLocked(line))
}

// LineEndForOffset returns the end-of-line offset for the line containing
// the given offset. An offset equal to the returned value sits at the end
// of its line.
func (b *Buffer) LineEndForOffset(offset ByteOffset) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset > ByteOffset(len(b.text)) {
		offset = ByteOffset(len(b.text))
	}
	return b.lineEndLocked(offset)
}

// OffsetToPoint converts a byte offset to a line/column position.
// Out-of-range offsets are clamped.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset > ByteOffset(len(b.text)) {
		offset = ByteOffset(len(b.text))
	}
	line := uint32(bytes.Count(b.text[:offset], []byte{'\n'}))
	lineStart := ByteOffset(0)
	if idx := bytes.LastIndexByte(b.text[:offset], '\n'); idx >= 0 {
		lineStart = ByteOffset(idx) + 1
	}
	return Point{Line: line, Column: uint32(offset - lineStart)}
}

// PointToOffset converts a line/column position to a byte offset.
// Positions beyond the end of a line clamp to the line end.
func (b *Buffer) PointToOffset(p Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start := b.lineStartLocked(p.Line)
	end := b.lineEndLocked(start)
	offset := start + ByteOffset(p.Column)
	if offset > end {
		offset = end
	}
	return offset
}

// Insert inserts text at the given offset.
func (b *Buffer) Insert(offset ByteOffset, text string) (EditResult, error) {
	return b.Replace(offset, offset, text)
}

// Delete removes the text in [start, end).
func (b *Buffer) Delete(start, end ByteOffset) (EditResult, error) {
	return b.Replace(start, end, "")
}

// Replace atomically replaces the text in [start, end) with the given text.
// The whole replacement is one mutation and one undo step, however it was
// assembled by the caller.
func (b *Buffer) Replace(start, end ByteOffset, text string) (EditResult, error) {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	if start > end {
		b.mu.Unlock()
		return EditResult{}, ErrRangeInvalid
	}
	if start < 0 || end > ByteOffset(len(b.text)) {
		b.mu.Unlock()
		return EditResult{}, ErrOffsetOutOfRange
	}

	edit := Edit{Range: Range{Start: start, End: end}, NewText: text}
	if edit.IsNoOp() {
		// Nothing changed: no history entry, no notification.
		b.mu.Unlock()
		r := Range{Start: start, End: end}
		return EditResult{OldRange: r, NewRange: r}, nil
	}

	old := string(b.text[start:end])
	updated := make([]byte, 0, len(b.text)-int(end-start)+len(text))
	updated = append(updated, b.text[:start]...)
	updated = append(updated, text...)
	updated = append(updated, b.text[end:]...)
	b.text = updated

	result := EditResult{
		OldRange: Range{Start: start, End: end},
		NewRange: Range{Start: start, End: start + ByteOffset(len(text))},
		OldText:  old,
		Delta:    int64(len(text)) - (end - start),
	}
	b.history = append(b.history, result.Invert())
	observers := b.observers
	b.mu.Unlock()

	for _, fn := range observers {
		fn([]Edit{edit})
	}
	return result, nil
}

// Undo reverts the most recent mutation. It returns false when there is
// nothing to undo.
func (b *Buffer) Undo() bool {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	// Re-applying through Replace would push a new history entry, so
	// splice directly and notify observers ourselves.
	b.mu.Lock()
	if len(b.history) == 0 {
		b.mu.Unlock()
		return false
	}
	inverse := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	start, end := inverse.Range.Start, inverse.Range.End
	updated := make([]byte, 0, len(b.text)-int(end-start)+len(inverse.NewText))
	updated = append(updated, b.text[:start]...)
	updated = append(updated, inverse.NewText...)
	updated = append(updated, b.text[end:]...)
	b.text = updated
	observers := b.observers
	b.mu.Unlock()

	for _, fn := range observers {
		fn([]Edit{inverse})
	}
	return true
}

// IsEmpty returns true if the buffer contains no text.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// lineStartLocked returns the offset of the start of the given line
// (must hold lock).
func (b *Buffer) lineStartLocked(line uint32) ByteOffset {
	offset := ByteOffset(0)
	for ; line > 0; line-- {
		idx := bytes.IndexByte(b.text[offset:], '\n')
		if idx < 0 {
			return ByteOffset(len(b.text))
		}
		offset += ByteOffset(idx) + 1
	}
	return offset
}

// lineEndLocked returns the end-of-line offset for the line containing
// the given offset (must hold lock).
func (b *Buffer) lineEndLocked(offset ByteOffset) ByteOffset {
	idx := bytes.IndexByte(b.text[offset:], '\n')
	if idx < 0 {
		return ByteOffset(len(b.text))
	}
	return offset + ByteOffset(idx)
}

// clampRangeLocked clamps a range into the buffer bounds (must hold lock).
func (b *Buffer) clampRangeLocked(start, end ByteOffset) (ByteOffset, ByteOffset) {
	n := ByteOffset(len(b.text))
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}
