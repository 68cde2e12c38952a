package tracking

import (
	"github.com/ckessler/inlay/internal/engine/buffer"
)

// Bias controls how an offset moves when an edit inserts text exactly at
// that offset.
type Bias uint8

const (
	// StickyLeft keeps the offset before text inserted at its position.
	StickyLeft Bias = iota

	// StickyRight moves the offset past text inserted at its position.
	StickyRight
)

// String returns the string representation of the bias.
func (b Bias) String() string {
	switch b {
	case StickyLeft:
		return "sticky-left"
	case StickyRight:
		return "sticky-right"
	default:
		return "unknown"
	}
}

// MapOffset maps an offset through a batch of edits.
//
// Edits must be expressed in pre-edit coordinates, sorted ascending by
// start, and non-overlapping; this is the shape buffer observers receive.
// An offset inside a replaced span collapses to the edit site: to its
// start under StickyLeft, to the end of the replacement text under
// StickyRight.
func MapOffset(offset buffer.ByteOffset, edits []buffer.Edit, bias Bias) buffer.ByteOffset {
	var delta buffer.ByteOffset
	for _, e := range edits {
		start, end := e.Range.Start, e.Range.End
		inserted := buffer.ByteOffset(len(e.NewText))

		switch {
		case end < offset, end == offset && end > start:
			// Edit entirely before the offset. An offset sitting at
			// the end of a deleted span rides along with the delta,
			// which lands it at the end of the replacement text.
			delta += inserted - (end - start)

		case start < offset && offset < end:
			// Inside the replaced span: collapse to the edit site.
			if bias == StickyRight {
				return start + delta + inserted
			}
			return start + delta

		case offset == start && start == end:
			// Insertion exactly at the offset.
			if bias == StickyRight {
				delta += inserted
			}

		case offset == start && end > start:
			// Replacement starting at the offset. The deletion does
			// not move it; the insertion lands at its position and
			// bias decides which side the offset ends up on.
			if bias == StickyRight {
				delta += inserted
			}

		default:
			// Edit entirely after the offset.
		}
	}
	return offset + delta
}
