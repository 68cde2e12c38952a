// Package assist runs the full inline generation lifecycle: track the
// target span through concurrent edits, overlay a spinner then the
// streamed text, and commit the result, directly for insertions or
// after a keep/undo review for replacements.
package assist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/ckessler/inlay/internal/ai"
	"github.com/ckessler/inlay/internal/engine/buffer"
	"github.com/ckessler/inlay/internal/engine/tracking"
	"github.com/ckessler/inlay/internal/renderer/overlay"
	"github.com/ckessler/inlay/internal/review"
)

// ErrNoProvider is returned when Run is called without a generation
// backend configured.
var ErrNoProvider = errors.New("no generation provider configured")

// Logger is the slice of the application logger the controller uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

// Mode selects what happens with the generated text.
type Mode uint8

const (
	// ModeInsert inserts the text after the tracked span, no review.
	ModeInsert Mode = iota
	// ModeReplace replaces the tracked span, gated on a keep/undo review.
	ModeReplace
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "insert"
	case ModeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Request describes one generation run against the document.
type Request struct {
	// Prompt is the instruction sent to the backend.
	Prompt string

	// From and To bound the target span in the document, [From, To).
	// For ModeInsert a collapsed span marks the insertion point.
	From buffer.ByteOffset
	To   buffer.ByteOffset

	// Mode selects insert-after or replace-with-review.
	Mode Mode

	// Model and MaxTokens pass through to the provider.
	Model     string
	MaxTokens int
}

// Result reports what a run produced and what happened to it.
type Result struct {
	// Text is the full generated text, possibly partial on error.
	Text string

	// Decision is the review outcome; only meaningful for ModeReplace.
	Decision review.Decision

	// Committed reports whether the document was modified.
	Committed bool
}

// Controller coordinates one document's generation runs. Multiple runs
// may be in flight at once; each owns its own tracked range and overlay
// entry, and replace-mode reviews serialize through the review
// controller.
type Controller struct {
	doc      *buffer.Buffer
	tracker  *tracking.Tracker
	overlay  *overlay.Engine
	review   *review.Controller
	provider ai.Provider
	log      Logger

	seq atomic.Uint64
}

// NewController wires a controller over the given document. It installs
// the edit observer that remaps tracked ranges and overlay anchors
// through every document mutation, including the controller's own
// commits.
func NewController(doc *buffer.Buffer, tracker *tracking.Tracker, ov *overlay.Engine, rev *review.Controller, provider ai.Provider, log Logger) *Controller {
	if log == nil {
		log = nopLogger{}
	}
	c := &Controller{
		doc:      doc,
		tracker:  tracker,
		overlay:  ov,
		review:   rev,
		provider: provider,
		log:      log,
	}
	doc.Observe(func(edits []buffer.Edit) {
		tracker.ApplyEdits(edits)
		ov.ApplyEdits(edits)
	})
	return c
}

// SetProvider swaps the generation backend for subsequent runs.
func (c *Controller) SetProvider(p ai.Provider) {
	c.provider = p
}

// Run executes one generation request and blocks until the text is
// committed, discarded, or the context is canceled. The tracked range
// and overlay entry are always torn down before it returns.
func (c *Controller) Run(ctx context.Context, req Request) (Result, error) {
	if c.provider == nil {
		return Result{}, ErrNoProvider
	}
	if req.From < 0 || req.From > req.To || req.To > c.doc.Len() {
		return Result{}, buffer.ErrRangeInvalid
	}

	id := c.seq.Add(1)
	c.log.Debug("run %d: starting %s over [%d, %d)", id, req.Mode, req.From, req.To)

	rangeID, err := c.tracker.Register(req.From, req.To)
	if err != nil {
		return Result{}, err
	}
	defer c.tracker.Release(rangeID)

	entryID, dispose := c.overlay.Show(req.To)
	defer dispose()

	text, err := c.stream(ctx, req, entryID)
	if err != nil {
		c.log.Warn("run %d: generation failed: %v", id, err)
		return Result{Text: text}, err
	}

	if strings.TrimSpace(text) == "" {
		c.log.Info("run %d: generation produced no text", id)
		return Result{Text: text}, nil
	}

	// The span may have moved while streaming; commit against its
	// current position, not the requested one.
	tracked, ok := c.tracker.Query(rangeID)
	if !ok {
		return Result{Text: text}, tracking.ErrInvalidRange
	}

	switch req.Mode {
	case ModeInsert:
		at := tracked.InsertAfter()
		dispose()
		if _, err := c.doc.Replace(at, at, text); err != nil {
			return Result{Text: text}, fmt.Errorf("commit insert: %w", err)
		}
		c.log.Debug("run %d: inserted %d bytes at %d", id, len(text), at)
		return Result{Text: text, Committed: true}, nil

	case ModeReplace:
		return c.reviewAndCommit(ctx, id, rangeID, text, dispose)

	default:
		return Result{Text: text}, fmt.Errorf("unknown mode %d", req.Mode)
	}
}

// stream drains the provider, feeding the accumulated text into the
// overlay after each chunk. Chunks arriving after cancellation are
// dropped.
func (c *Controller) stream(ctx context.Context, req Request, entryID overlay.EntryID) (string, error) {
	s, err := c.provider.Stream(ctx, ai.Request{
		Prompt:    req.Prompt,
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("start generation: %w", err)
	}
	defer s.Close()

	var sb strings.Builder
	for {
		chunk, err := s.Recv()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), fmt.Errorf("stream: %w", err)
		}
		if ctx.Err() != nil {
			return sb.String(), ctx.Err()
		}
		sb.WriteString(chunk)

		// Route by the entry's current anchor: edits may have moved
		// it since the previous chunk.
		if anchor, ok := c.overlay.Anchor(entryID); ok {
			c.overlay.ProcessText(sb.String(), overlay.ForAnchor(anchor))
		}
	}
}

// reviewAndCommit opens a review session over the tracked span and
// applies the decision. Cancellation while the review is pending
// resolves it as undo.
func (c *Controller) reviewAndCommit(ctx context.Context, id uint64, rangeID tracking.RangeID, text string, dispose overlay.DisposeFunc) (Result, error) {
	tracked, ok := c.tracker.Query(rangeID)
	if !ok {
		return Result{Text: text}, tracking.ErrInvalidRange
	}

	sess, err := c.review.Start(tracked.From, tracked.To, text)
	if err != nil {
		return Result{Text: text}, fmt.Errorf("open review: %w", err)
	}

	decision := sess.Wait(ctx)
	res := Result{Text: text, Decision: decision}
	if decision != review.DecisionKeep {
		c.log.Debug("run %d: replacement discarded", id)
		return res, nil
	}

	// Re-query: edits may have landed while the review was pending.
	tracked, ok = c.tracker.Query(rangeID)
	if !ok {
		return res, tracking.ErrInvalidRange
	}
	dispose()
	if _, err := c.doc.Replace(tracked.From, tracked.To, text); err != nil {
		return res, fmt.Errorf("commit replace: %w", err)
	}
	res.Committed = true
	c.log.Debug("run %d: replaced [%d, %d) with %d bytes", id, tracked.From, tracked.To, len(text))
	return res, nil
}
