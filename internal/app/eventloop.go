package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/ckessler/inlay/internal/assist"
	"github.com/ckessler/inlay/internal/engine/buffer"
	"github.com/ckessler/inlay/internal/input/key"
	"github.com/ckessler/inlay/internal/renderer/backend"
	"github.com/ckessler/inlay/internal/renderer/core"
	"github.com/ckessler/inlay/internal/review"
)

// renderInterval paces spinner and fade animation frames.
const renderInterval = 40 * time.Millisecond

// buttonExtent is the clickable region of one toolbar button from the
// last draw. Only the event loop goroutine touches these.
type buttonExtent struct {
	x0, x1, y int
	decision  review.Decision
}

// Run starts the display surface and blocks until the context is
// canceled or the user quits.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return nil
	}
	defer app.running.Store(false)

	if err := app.backend.Init(); err != nil {
		return err
	}
	defer app.backend.Shutdown()

	app.router.SetBase(app.handleBaseKey)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := app.backend.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	app.draw(time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-app.done:
			return nil
		case ev := <-events:
			app.handleEvent(ctx, ev)
			app.draw(time.Now())
		case now := <-ticker.C:
			app.draw(now)
		}
	}
}

// Stop requests a clean shutdown of the event loop.
func (app *Application) Stop() {
	app.stopOnce.Do(func() { close(app.done) })
}

// handleEvent processes one terminal event.
func (app *Application) handleEvent(ctx context.Context, ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		switch e.Key() {
		case tcell.KeyCtrlC:
			app.Stop()
		case tcell.KeyCtrlG:
			go app.triggerInsert(ctx)
		case tcell.KeyCtrlR:
			go app.triggerReplace(ctx)
		case tcell.KeyCtrlZ:
			app.doc.Undo()
		default:
			app.router.Dispatch(key.FromTcell(e))
		}

	case *tcell.EventMouse:
		if e.Buttons()&tcell.Button1 != 0 {
			x, y := e.Position()
			app.handleClick(x, y)
		}

	case *tcell.EventResize:
		// The next draw picks up the new size.
	}
}

// handleClick resolves a pending review when a toolbar button is hit.
func (app *Application) handleClick(x, y int) {
	for _, btn := range app.buttons {
		if y == btn.y && x >= btn.x0 && x < btn.x1 {
			switch btn.decision {
			case review.DecisionKeep:
				app.review.Keep()
			case review.DecisionUndo:
				app.review.Undo()
			}
			return
		}
	}
}

// handleBaseKey is the document-level key handler, consulted only after
// any review interceptor has passed on the event.
func (app *Application) handleBaseKey(ev key.Event) bool {
	cursor := app.Cursor()
	switch ev.Key {
	case key.KeyRune:
		_, err := app.doc.Insert(cursor, string(ev.Rune))
		return err == nil
	case key.KeyEnter:
		_, err := app.doc.Insert(cursor, "\n")
		return err == nil
	case key.KeyTab:
		_, err := app.doc.Insert(cursor, "\t")
		return err == nil
	case key.KeyBackspace:
		if prev, ok := app.prevRuneStart(cursor); ok {
			_, err := app.doc.Delete(prev, cursor)
			return err == nil
		}
		return true
	case key.KeyDelete:
		if next, ok := app.nextRuneEnd(cursor); ok {
			_, err := app.doc.Delete(cursor, next)
			return err == nil
		}
		return true
	case key.KeyLeft:
		if prev, ok := app.prevRuneStart(cursor); ok {
			app.setCursor(prev)
		}
		return true
	case key.KeyRight:
		if next, ok := app.nextRuneEnd(cursor); ok {
			app.setCursor(next)
		}
		return true
	case key.KeyUp, key.KeyDown:
		app.moveCursorLine(ev.Key == key.KeyDown)
		return true
	default:
		return false
	}
}

// prevRuneStart returns the offset of the rune before the cursor.
func (app *Application) prevRuneStart(cursor buffer.ByteOffset) (buffer.ByteOffset, bool) {
	if cursor <= 0 {
		return 0, false
	}
	start := cursor - utf8.UTFMax
	if start < 0 {
		start = 0
	}
	window := app.doc.TextRange(start, cursor)
	_, size := utf8.DecodeLastRuneInString(window)
	if size == 0 {
		return 0, false
	}
	return cursor - buffer.ByteOffset(size), true
}

// nextRuneEnd returns the offset after the rune at the cursor.
func (app *Application) nextRuneEnd(cursor buffer.ByteOffset) (buffer.ByteOffset, bool) {
	if cursor >= app.doc.Len() {
		return 0, false
	}
	end := cursor + utf8.UTFMax
	if max := app.doc.Len(); end > max {
		end = max
	}
	window := app.doc.TextRange(cursor, end)
	_, size := utf8.DecodeRuneInString(window)
	if size == 0 {
		return 0, false
	}
	return cursor + buffer.ByteOffset(size), true
}

// moveCursorLine moves the cursor one line up or down, keeping the
// column where the line allows.
func (app *Application) moveCursorLine(down bool) {
	pt := app.doc.OffsetToPoint(app.Cursor())
	if down {
		if pt.Line+1 >= app.doc.LineCount() {
			return
		}
		pt.Line++
	} else {
		if pt.Line == 0 {
			return
		}
		pt.Line--
	}
	app.setCursor(app.doc.PointToOffset(pt))
}

// triggerInsert runs a generation inserting at the cursor.
func (app *Application) triggerInsert(ctx context.Context) {
	cursor := app.Cursor()
	res, err := app.assist.Run(ctx, assist.Request{
		Prompt:    app.prompt(),
		From:      cursor,
		To:        cursor,
		Mode:      assist.ModeInsert,
		Model:     app.config.Model,
		MaxTokens: app.config.MaxTokens,
	})
	if err != nil {
		app.logger.Error("insert generation failed: %v", err)
		return
	}
	app.logger.Info("insert generation done, committed=%v, %d bytes", res.Committed, len(res.Text))
}

// triggerReplace runs a generation rewriting the cursor's line, gated on
// a keep/undo review.
func (app *Application) triggerReplace(ctx context.Context) {
	line := app.doc.OffsetToPoint(app.Cursor()).Line
	from := app.doc.LineStartOffset(line)
	to := app.doc.LineEndOffset(line)
	res, err := app.assist.Run(ctx, assist.Request{
		Prompt:    app.prompt() + "\n\n" + app.doc.TextRange(from, to),
		From:      from,
		To:        to,
		Mode:      assist.ModeReplace,
		Model:     app.config.Model,
		MaxTokens: app.config.MaxTokens,
	})
	if err != nil {
		app.logger.Error("replace generation failed: %v", err)
		return
	}
	app.logger.Info("replace generation done, decision=%s, committed=%v", res.Decision, res.Committed)
}

func (app *Application) prompt() string {
	if app.opts.Prompt != "" {
		return app.opts.Prompt
	}
	return "Continue this text."
}

// draw repaints the whole surface: document lines, overlay spans, any
// pending review, the status row, and the cursor.
func (app *Application) draw(now time.Time) {
	b := app.backend
	width, height := b.Size()
	if width <= 0 || height <= 1 {
		return
	}
	b.Clear()
	app.buttons = app.buttons[:0]

	lineCount := int(app.doc.LineCount())
	for row := 0; row < height-1 && row < lineCount; row++ {
		backend.DrawText(b, 0, row, app.doc.LineText(uint32(row)), core.DefaultStyle())
	}

	app.drawOverlay(now, height-1)
	app.drawReview(height - 1)
	app.drawStatus(width, height)

	pt := app.doc.OffsetToPoint(app.Cursor())
	lineStart := app.doc.LineStartOffset(pt.Line)
	prefix := app.doc.TextRange(lineStart, app.Cursor())
	b.ShowCursor(core.StringWidth(prefix), int(pt.Line))

	b.Show()
}

// drawOverlay composites overlay spans into their rows. Rows carrying
// spans are rebuilt left to right so mid-line anchors push the line tail
// instead of overpainting it.
func (app *Application) drawOverlay(now time.Time, maxRow int) {
	spans := app.overlay.Render(now)
	if len(spans) == 0 {
		return
	}

	type rowSpan struct {
		col   int
		text  string
		style core.Style
	}
	rows := make(map[int][]rowSpan)
	var order []int
	for _, span := range spans {
		pt := app.doc.OffsetToPoint(span.Anchor)
		row := int(pt.Line)
		if row >= maxRow {
			continue
		}
		col := int(span.Anchor - app.doc.LineStartOffset(pt.Line))
		if _, seen := rows[row]; !seen {
			order = append(order, row)
		}
		rows[row] = append(rows[row], rowSpan{
			col:   col,
			text:  strings.ReplaceAll(span.Text, "\n", "⏎"),
			style: span.Style,
		})
	}

	for _, row := range order {
		text := app.doc.LineText(uint32(row))
		x, last := 0, 0
		for _, rs := range rows[row] {
			col := rs.col
			if col > len(text) {
				col = len(text)
			}
			if col > last {
				x = backend.DrawText(app.backend, x, row, text[last:col], core.DefaultStyle())
				last = col
			}
			x = backend.DrawText(app.backend, x, row, rs.text, rs.style)
		}
		backend.DrawText(app.backend, x, row, text[last:], core.DefaultStyle())
	}
}

// drawReview restyles the span under review and paints the proposal next
// to it.
func (app *Application) drawReview(maxRow int) {
	view, ok := app.review.View()
	if !ok {
		return
	}

	start := app.doc.OffsetToPoint(view.OldRange.Start)
	end := app.doc.OffsetToPoint(view.OldRange.End)
	for line := start.Line; line <= end.Line && int(line) < maxRow; line++ {
		text := app.doc.LineText(line)
		fromCol, toCol := 0, len(text)
		if line == start.Line {
			fromCol = int(start.Column)
		}
		if line == end.Line {
			toCol = int(end.Column)
		}
		if fromCol > len(text) || toCol > len(text) || fromCol > toCol {
			continue
		}
		prefix := text[:fromCol]
		x := core.StringWidth(prefix)
		backend.DrawText(app.backend, x, int(line), text[fromCol:toCol], view.OldStyle)
	}

	// Proposal preview, first line inline after the old span.
	proposal := view.NewText
	if i := strings.IndexByte(proposal, '\n'); i >= 0 {
		proposal = proposal[:i] + "…"
	}
	endLineText := app.doc.LineText(end.Line)
	x := core.StringWidth(endLineText) + 1
	backend.DrawText(app.backend, x, int(end.Line), "⇒ "+proposal, view.NewStyle)

	app.drawToolbar(view, maxRow)
}

// drawToolbar paints the keep/undo buttons on the row under the start of
// the span under review, recording their clickable extents.
func (app *Application) drawToolbar(view review.View, maxRow int) {
	at := view.Toolbar.At
	row := int(at.Line) + 1
	if row >= maxRow {
		row = maxRow - 1
	}
	if row < 0 {
		return
	}

	lineText := app.doc.LineText(at.Line)
	col := int(at.Column)
	if col > len(lineText) {
		col = len(lineText)
	}
	x := core.StringWidth(lineText[:col])

	for _, btn := range view.Toolbar.Buttons {
		x0 := x
		x = backend.DrawText(app.backend, x, row, " "+btn.Label+" ", view.Toolbar.Style)
		app.buttons = append(app.buttons, buttonExtent{x0: x0, x1: x, y: row, decision: btn.Decision})
		x += 2
	}
}

// drawStatus paints the hint line on the bottom row.
func (app *Application) drawStatus(width, height int) {
	text := "inlay  ^G generate  ^R rewrite  ^Z undo  ^C quit"
	if _, pending := app.review.Active(); pending {
		text = "review pending"
	}
	backend.DrawText(app.backend, 0, height-1, text, core.DefaultStyle().Dim())
}
