// Package tracking maintains a registry of byte-offset ranges that stay
// coherent as the document is edited underneath them.
//
// Each in-flight generation request registers the span it intends to
// replace. On every document change the registry remaps all tracked ranges
// through the edit batch before anything else processes the change, so a
// range keeps denoting "the same logical text" no matter how much typing,
// deleting, or pasting happens around it.
//
// Boundary behavior is controlled by an explicit Bias:
//
//   - A range start maps with StickyLeft, so text typed exactly at the
//     start is not absorbed into the span.
//   - A range end maps with StickyRight, so text typed exactly at the end
//     extends the span and the eventual insert-after point follows it.
//
// A span whose text is deleted entirely collapses to a zero-width point at
// the deletion site; it remains registered and usable as an insertion
// point.
package tracking
