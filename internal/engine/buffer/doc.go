// Package buffer provides the document surface the inline-assist core works
// against: a thread-safe text buffer with byte-offset addressing, atomic
// range replacement, and an edit-observer hook.
//
// The buffer package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Coordinate conversion between byte offsets and line/column positions
//   - Atomic replace of an arbitrary range, recorded as one undo step
//   - Edit notification to observers before any other processing of a change
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("Hello, World!")
//	buf.Observe(func(edits []buffer.Edit) {
//	    // remap tracked positions here
//	})
//	buf.Replace(7, 12, "Editor")  // "Hello, Editor!"
package buffer
