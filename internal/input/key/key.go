// Package key provides key event types and routing for the input system.
//
// Events are decoupled from the terminal library so component state
// machines can be driven directly in tests. The Router holds a single
// swappable interceptor slot that is consulted before the base handler,
// which is how a pending review session wins the race for Escape against
// any document-level binding.
package key

import (
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
)

// Key identifies a keyboard key.
type Key int

// Keys the assist core reacts to. Printable input arrives as KeyRune.
const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyTab
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// String returns the string representation of the key.
func (k Key) String() string {
	switch k {
	case KeyRune:
		return "rune"
	case KeyEnter:
		return "Enter"
	case KeyTab:
		return "Tab"
	case KeyEscape:
		return "Escape"
	case KeyBackspace:
		return "Backspace"
	case KeyDelete:
		return "Delete"
	case KeyUp:
		return "Up"
	case KeyDown:
		return "Down"
	case KeyLeft:
		return "Left"
	case KeyRight:
		return "Right"
	default:
		return "none"
	}
}

// Parse resolves a key name as used in keymap configuration. Names are
// case-insensitive; "Esc" and "Escape" both resolve. Printable runes are
// not addressable by name.
func Parse(name string) (Key, bool) {
	switch strings.ToLower(name) {
	case "enter":
		return KeyEnter, true
	case "tab":
		return KeyTab, true
	case "esc", "escape":
		return KeyEscape, true
	case "backspace":
		return KeyBackspace, true
	case "delete":
		return KeyDelete, true
	case "up":
		return KeyUp, true
	case "down":
		return KeyDown, true
	case "left":
		return KeyLeft, true
	case "right":
		return KeyRight, true
	default:
		return KeyNone, false
	}
}

// Event represents a single key press event.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewEvent creates a key event with the current timestamp.
func NewEvent(k Key, r rune) Event {
	return Event{Key: k, Rune: r, Timestamp: time.Now()}
}

// FromTcell translates a tcell key event into a core event.
func FromTcell(ev *tcell.EventKey) Event {
	e := Event{Timestamp: ev.When()}
	switch ev.Key() {
	case tcell.KeyRune:
		e.Key = KeyRune
		e.Rune = ev.Rune()
	case tcell.KeyEnter:
		e.Key = KeyEnter
	case tcell.KeyTab:
		e.Key = KeyTab
	case tcell.KeyEscape:
		e.Key = KeyEscape
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		e.Key = KeyBackspace
	case tcell.KeyDelete:
		e.Key = KeyDelete
	case tcell.KeyUp:
		e.Key = KeyUp
	case tcell.KeyDown:
		e.Key = KeyDown
	case tcell.KeyLeft:
		e.Key = KeyLeft
	case tcell.KeyRight:
		e.Key = KeyRight
	default:
		e.Key = KeyNone
	}
	return e
}
