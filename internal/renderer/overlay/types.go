// Package overlay renders transient, position-anchored preview entries over
// the document: a waiting spinner while generation warms up, then the
// streamed text as it arrives, updated incrementally so unchanged prefixes
// never reflow.
package overlay

import (
	"time"

	"github.com/ckessler/inlay/internal/engine/buffer"
	"github.com/ckessler/inlay/internal/renderer/core"
)

// EntryID identifies an overlay entry. IDs are monotonically increasing and
// never reused within an Engine.
type EntryID uint64

// State is the lifecycle state of an overlay entry.
// It is an explicit tag switched on exhaustively; rendering never inspects
// concrete widget types to decide how to update them.
type State uint8

const (
	// StateWaiting shows a spinner until the first text arrives.
	StateWaiting State = iota

	// StateStreaming shows accumulated generated text.
	StateStreaming
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Entry is a single transient preview anchored to a document offset.
type Entry struct {
	id        EntryID
	anchor    buffer.ByteOffset
	atLineEnd bool
	state     State

	// display is the currently shown text, valid in StateStreaming.
	display string

	// freshFrom is the byte index where the newest appended suffix
	// starts. Everything before it is stable and skips the enter
	// animation.
	freshFrom int

	// shownAt drives the spinner phase; changedAt drives the fade-in of
	// the fresh suffix.
	shownAt   time.Time
	changedAt time.Time
}

// ID returns the entry id.
func (e *Entry) ID() EntryID { return e.id }

// Anchor returns the entry's current anchor offset.
func (e *Entry) Anchor() buffer.ByteOffset { return e.anchor }

// AtLineEnd returns true if the entry anchors to the end of its line and
// should render after existing line content.
func (e *Entry) AtLineEnd() bool { return e.atLineEnd }

// State returns the entry's lifecycle state.
func (e *Entry) State() State { return e.state }

// Text returns the displayed text (empty while waiting).
func (e *Entry) Text() string { return e.display }

// StableText returns the prefix that was already on screen before the most
// recent update.
func (e *Entry) StableText() string { return e.display[:e.freshFrom] }

// FreshText returns the newly appended suffix from the most recent update.
func (e *Entry) FreshText() string { return e.display[e.freshFrom:] }

// Span is one renderable run of overlay content. Spans are emitted in
// deterministic stacking order: ascending anchor, ties broken by
// registration order.
type Span struct {
	Entry     EntryID
	Anchor    buffer.ByteOffset
	AtLineEnd bool
	Text      string
	Style     core.Style

	// Fresh marks a span still inside its enter animation window.
	Fresh bool
}

// Config holds overlay rendering configuration.
type Config struct {
	// WaitingStyle is the style for the spinner.
	WaitingStyle core.Style

	// StreamStyle is the style for streamed preview text.
	StreamStyle core.Style

	// FadeFrom is the color a fresh suffix starts from before blending
	// toward the stream foreground.
	FadeFrom core.Color

	// FadeDuration is the enter-animation window for fresh text.
	// Zero disables the animation.
	FadeDuration time.Duration

	// SpinnerFrames are cycled while an entry is waiting.
	SpinnerFrames []string

	// SpinnerInterval is the time per spinner frame.
	SpinnerInterval time.Duration
}

// DefaultConfig returns the default overlay configuration.
func DefaultConfig() Config {
	return Config{
		WaitingStyle:    core.NewStyle(core.ColorFromRGB(128, 128, 128)).Dim(),
		StreamStyle:     core.NewStyle(core.ColorFromRGB(160, 160, 160)).Italic(),
		FadeFrom:        core.ColorFromRGB(64, 64, 64),
		FadeDuration:    200 * time.Millisecond,
		SpinnerFrames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		SpinnerInterval: 80 * time.Millisecond,
	}
}
