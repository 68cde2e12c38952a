// Package backend provides the terminal surface the renderer paints on.
package backend

import (
	"github.com/gdamore/tcell/v2"

	"github.com/ckessler/inlay/internal/renderer/core"
)

// Backend is the display surface. The terminal implementation wraps a
// tcell screen; the null implementation backs tests.
type Backend interface {
	// Init initializes the backend for use.
	// Must be called before any other methods.
	Init() error

	// Shutdown releases backend resources and restores terminal state.
	Shutdown()

	// Size returns the current terminal dimensions.
	Size() (width, height int)

	// SetCell sets a single cell at the given position.
	// Positions outside the terminal are silently ignored.
	SetCell(x, y int, cell core.Cell)

	// Clear clears the entire screen with the default style.
	Clear()

	// Show synchronizes the internal buffer with the actual display.
	Show()

	// ShowCursor positions and displays the cursor.
	ShowCursor(x, y int)

	// HideCursor hides the cursor.
	HideCursor()

	// PollEvent waits for and returns the next terminal event.
	// This is a blocking call.
	PollEvent() tcell.Event

	// PostEvent posts a synthetic event to the event queue.
	PostEvent(ev tcell.Event)

	// HasTrueColor returns true if the backend supports 24-bit color.
	HasTrueColor() bool
}

// DrawText paints a string starting at (x, y), advancing by cell width.
// It returns the x position after the last painted cell.
func DrawText(b Backend, x, y int, text string, style core.Style) int {
	for _, cell := range core.CellsFromString(text, style) {
		b.SetCell(x, y, cell)
		x += cell.Width
	}
	return x
}

// Null is an in-memory backend for tests.
type Null struct {
	width, height int
	cells         [][]core.Cell
	cursorX       int
	cursorY       int
	cursorVisible bool
	events        chan tcell.Event
}

// NewNull creates a null backend with the given dimensions.
func NewNull(width, height int) *Null {
	return &Null{
		width:  width,
		height: height,
		events: make(chan tcell.Event, 100),
	}
}

func (b *Null) Init() error {
	b.cells = make([][]core.Cell, b.height)
	for i := range b.cells {
		b.cells[i] = make([]core.Cell, b.width)
	}
	return nil
}

func (b *Null) Shutdown() {}

func (b *Null) Size() (int, int) {
	return b.width, b.height
}

func (b *Null) SetCell(x, y int, cell core.Cell) {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y][x] = cell
	}
}

// CellAt returns the cell at (x, y) for test assertions.
func (b *Null) CellAt(x, y int) core.Cell {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y][x]
	}
	return core.Cell{}
}

// LineText returns the runes painted on row y, trailing blanks trimmed.
func (b *Null) LineText(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	runes := make([]rune, 0, b.width)
	for _, cell := range b.cells[y] {
		if cell.Rune == 0 {
			runes = append(runes, ' ')
			continue
		}
		runes = append(runes, cell.Rune)
	}
	end := len(runes)
	for end > 0 && runes[end-1] == ' ' {
		end--
	}
	return string(runes[:end])
}

func (b *Null) Clear() {
	for y := range b.cells {
		for x := range b.cells[y] {
			b.cells[y][x] = core.Cell{}
		}
	}
}

func (b *Null) Show() {}

func (b *Null) ShowCursor(x, y int) {
	b.cursorX = x
	b.cursorY = y
	b.cursorVisible = true
}

func (b *Null) HideCursor() {
	b.cursorVisible = false
}

// CursorPosition returns the current cursor position for tests.
func (b *Null) CursorPosition() (x, y int, visible bool) {
	return b.cursorX, b.cursorY, b.cursorVisible
}

func (b *Null) PollEvent() tcell.Event {
	return <-b.events
}

func (b *Null) PostEvent(ev tcell.Event) {
	select {
	case b.events <- ev:
	default:
	}
}

func (b *Null) HasTrueColor() bool { return true }
