// Package review presents a provisional edit for a single keep/undo
// decision.
//
// A session renders the superseded span, the proposed replacement, and a
// two-button toolbar, then resolves exactly once from whichever input fires
// first: a toolbar activation or a keyboard shortcut. The keyboard path is
// installed as the router's interceptor so it is consulted before any
// document-level binding; a global Escape handler cannot steal the
// keypress from a pending session. The controller only signals the
// decision; committing or rolling back the document is the caller's job.
package review

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/ckessler/inlay/internal/engine/buffer"
	"github.com/ckessler/inlay/internal/input/key"
	"github.com/ckessler/inlay/internal/renderer/core"
)

// ErrInvalidRange is returned when Start is given a malformed span.
var ErrInvalidRange = errors.New("invalid review range")

// Decision is the outcome of a review session.
type Decision uint8

const (
	DecisionPending Decision = iota
	DecisionKeep
	DecisionUndo
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionKeep:
		return "keep"
	case DecisionUndo:
		return "undo"
	default:
		return "unknown"
	}
}

// Coords is the slice of the document model used for toolbar placement:
// the line/column position of an offset. *buffer.Buffer satisfies it.
type Coords interface {
	OffsetToPoint(offset buffer.ByteOffset) buffer.Point
}

// Session is one pending keep/undo decision over a proposed replacement.
type Session struct {
	c       *Controller
	from    buffer.ByteOffset
	to      buffer.ByteOffset
	newText string

	decision Decision
	done     chan struct{}
}

// Range returns the span under review.
func (s *Session) Range() buffer.Range {
	return buffer.Range{Start: s.from, End: s.to}
}

// NewText returns the proposed replacement text.
func (s *Session) NewText() string {
	return s.newText
}

// Decision returns the session's current decision.
func (s *Session) Decision() Decision {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.decision
}

// Done is closed when the session resolves.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session resolves or the context is canceled.
// Cancellation resolves the session as Undo: an abort racing a pending
// review discards the proposal rather than leaving it dangling.
func (s *Session) Wait(ctx context.Context) Decision {
	select {
	case <-s.done:
	case <-ctx.Done():
		s.c.resolve(s, DecisionUndo)
	}
	return s.Decision()
}

// Config holds review rendering configuration.
type Config struct {
	// OldStyle is the superseded treatment for the replaced span.
	OldStyle core.Style

	// NewStyle is the style for the proposed replacement block.
	NewStyle core.Style

	// ToolbarStyle is the style for the toolbar surface.
	ToolbarStyle core.Style

	// KeepLabel and UndoLabel caption the two toolbar buttons.
	KeepLabel string
	UndoLabel string

	// KeepKeys and UndoKeys resolve a pending session from the keyboard.
	KeepKeys []key.Key
	UndoKeys []key.Key
}

// DefaultConfig returns the default review configuration.
func DefaultConfig() Config {
	return Config{
		OldStyle: core.NewStyle(core.ColorFromRGB(200, 80, 80)).
			WithBackground(core.ColorFromRGB(60, 30, 30)).
			Strikethrough(),
		NewStyle: core.NewStyle(core.ColorFromRGB(80, 200, 80)).
			WithBackground(core.ColorFromRGB(30, 60, 30)),
		ToolbarStyle: core.DefaultStyle().Reverse(),
		KeepLabel:    "Keep (Tab)",
		UndoLabel:    "Undo (Esc)",
		KeepKeys:     []key.Key{key.KeyTab, key.KeyEnter},
		UndoKeys:     []key.Key{key.KeyEscape},
	}
}

// Controller owns the single active review session. There is no ambient
// global: callers hold the controller and the controller holds the
// session.
type Controller struct {
	mu     sync.Mutex
	router *key.Router
	coords Coords
	config Config

	active *Session
	token  uint64
}

// NewController creates a review controller dispatching through the given
// key router.
func NewController(router *key.Router, coords Coords, config Config) *Controller {
	return &Controller{
		router: router,
		coords: coords,
		config: config,
	}
}

// Start opens a review session for replacing [from, to) with newText.
// It must only be called once generation has fully completed, never
// mid-stream.
//
// If a session is already pending it is force-resolved as Undo before the
// new one opens; two proposals can race here and only the newer survives.
func (c *Controller) Start(from, to buffer.ByteOffset, newText string) (*Session, error) {
	if from < 0 || from > to {
		return nil, ErrInvalidRange
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.resolveLocked(c.active, DecisionUndo)
	}

	s := &Session{
		c:       c,
		from:    from,
		to:      to,
		newText: newText,
		done:    make(chan struct{}),
	}
	c.active = s
	c.token = c.router.Intercept(c.handleKey)
	return s, nil
}

// handleKey is the interceptor installed while a session is pending.
// The configured keep and undo keys resolve; everything else passes
// through.
func (c *Controller) handleKey(ev key.Event) bool {
	if slices.Contains(c.config.KeepKeys, ev.Key) {
		return c.Keep()
	}
	if slices.Contains(c.config.UndoKeys, ev.Key) {
		return c.Undo()
	}
	return false
}

// Keep resolves the pending session as Keep. It returns false when no
// session is pending (a second near-simultaneous input lands here).
func (c *Controller) Keep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return false
	}
	c.resolveLocked(c.active, DecisionKeep)
	return true
}

// Undo resolves the pending session as Undo.
func (c *Controller) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return false
	}
	c.resolveLocked(c.active, DecisionUndo)
	return true
}

// resolve resolves a specific session, ignoring it if it is no longer the
// active one or already decided.
func (c *Controller) resolve(s *Session, d Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.decision != DecisionPending {
		return
	}
	c.resolveLocked(s, d)
}

// resolveLocked records the decision and tears down the session's
// interceptor and render state in the same critical section, so no second
// input can resolve it again (must hold lock).
func (c *Controller) resolveLocked(s *Session, d Decision) {
	if s.decision != DecisionPending {
		return
	}
	s.decision = d
	if c.active == s {
		c.router.Release(c.token)
		c.active = nil
	}
	close(s.done)
}

// Active returns the pending session, if any.
func (c *Controller) Active() (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.active != nil
}

// Button is one toolbar action.
type Button struct {
	Label    string
	Decision Decision
}

// Toolbar is the control surface, positioned relative to the start of the
// span under review.
type Toolbar struct {
	At      buffer.Point
	Style   core.Style
	Buttons []Button
}

// View is the renderable state of the pending session.
type View struct {
	OldRange buffer.Range
	OldStyle core.Style
	NewText  string
	NewStyle core.Style
	Toolbar  Toolbar
}

// View returns the renderable state for the pending session. The second
// return is false when nothing is under review.
func (c *Controller) View() (View, bool) {
	c.mu.Lock()
	s := c.active
	cfg := c.config
	c.mu.Unlock()

	if s == nil {
		return View{}, false
	}

	return View{
		OldRange: s.Range(),
		OldStyle: cfg.OldStyle,
		NewText:  s.newText,
		NewStyle: cfg.NewStyle,
		Toolbar: Toolbar{
			At:    c.coords.OffsetToPoint(s.from),
			Style: cfg.ToolbarStyle,
			Buttons: []Button{
				{Label: cfg.KeepLabel, Decision: DecisionKeep},
				{Label: cfg.UndoLabel, Decision: DecisionUndo},
			},
		},
	}, true
}
