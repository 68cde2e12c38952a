package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ckessler/inlay/internal/ai"
	"github.com/ckessler/inlay/internal/config"
	"github.com/ckessler/inlay/internal/input/key"
	"github.com/ckessler/inlay/internal/renderer/backend"
	"github.com/ckessler/inlay/internal/review"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	app, err := New(Options{
		ConfigPath: filepath.Join(t.TempDir(), "config.json"),
		Backend:    backend.NewNull(80, 24),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return app
}

func TestNewApplicationDefaults(t *testing.T) {
	app := newTestApp(t)

	if got := app.Config().Provider; got != "scripted" {
		t.Errorf("Provider = %q, want scripted", got)
	}
	if !app.Document().IsEmpty() {
		t.Error("document not empty on startup")
	}
	if app.Cursor() != 0 {
		t.Errorf("Cursor = %d, want 0", app.Cursor())
	}
}

func TestTypingInsertsAtCursor(t *testing.T) {
	app := newTestApp(t)

	for _, r := range "hi" {
		if !app.handleBaseKey(key.NewEvent(key.KeyRune, r)) {
			t.Fatalf("rune %q not handled", r)
		}
	}
	app.handleBaseKey(key.NewEvent(key.KeyEnter, 0))

	if got := app.Document().Text(); got != "hi\n" {
		t.Errorf("document = %q", got)
	}
	if app.Cursor() != 3 {
		t.Errorf("Cursor = %d, want 3", app.Cursor())
	}
}

func TestBackspaceRemovesWholeRune(t *testing.T) {
	app := newTestApp(t)

	app.handleBaseKey(key.NewEvent(key.KeyRune, 'a'))
	app.handleBaseKey(key.NewEvent(key.KeyRune, 'é')) // two bytes
	app.handleBaseKey(key.NewEvent(key.KeyBackspace, 0))

	if got := app.Document().Text(); got != "a" {
		t.Errorf("document = %q, want %q", got, "a")
	}
	if app.Cursor() != 1 {
		t.Errorf("Cursor = %d, want 1", app.Cursor())
	}
}

func TestArrowKeysMoveCursor(t *testing.T) {
	app := newTestApp(t)

	for _, r := range "ab" {
		app.handleBaseKey(key.NewEvent(key.KeyRune, r))
	}
	app.handleBaseKey(key.NewEvent(key.KeyLeft, 0))
	if app.Cursor() != 1 {
		t.Fatalf("Cursor after left = %d, want 1", app.Cursor())
	}

	app.handleBaseKey(key.NewEvent(key.KeyRune, 'x'))
	if got := app.Document().Text(); got != "axb" {
		t.Errorf("document = %q", got)
	}
}

func TestCursorFollowsRemoteEdits(t *testing.T) {
	app := newTestApp(t)

	for _, r := range "abc" {
		app.handleBaseKey(key.NewEvent(key.KeyRune, r))
	}
	// An edit landing before the cursor shifts it right.
	if _, err := app.Document().Replace(0, 0, ">> "); err != nil {
		t.Fatal(err)
	}
	if app.Cursor() != 6 {
		t.Errorf("Cursor = %d, want 6", app.Cursor())
	}
}

func TestFirstRunWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	app, err := New(Options{ConfigPath: path, Backend: backend.NewNull(80, 24)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Provider != app.Config().Provider {
		t.Errorf("written provider = %q, want %q", cfg.Provider, app.Config().Provider)
	}

	// An existing file is left alone.
	if err := os.WriteFile(path, []byte(`{"model":"m1"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{ConfigPath: path, Backend: backend.NewNull(80, 24)}); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	cfg, err = config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "m1" {
		t.Errorf("model = %q, existing config was clobbered", cfg.Model)
	}
}

func TestKeymapFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	file := `{"keymap": {"keep": ["Enter"], "undo": ["Backspace"]}}`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}
	app, err := New(Options{ConfigPath: path, Backend: backend.NewNull(80, 24)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s, err := app.Review().Start(0, 0, "proposal")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	view, ok := app.Review().View()
	if !ok {
		t.Fatal("no review view")
	}
	if got := view.Toolbar.Buttons[0].Label; got != "Keep (Enter)" {
		t.Errorf("keep label = %q", got)
	}

	// The bound key resolves the review instead of editing the document.
	app.handleEvent(context.Background(), tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	if s.Decision() != review.DecisionUndo {
		t.Errorf("Decision = %v, want undo", s.Decision())
	}
}

func TestToolbarDrawsUnderDiffAndClickResolves(t *testing.T) {
	null := backend.NewNull(80, 24)
	app, err := New(Options{
		ConfigPath: filepath.Join(t.TempDir(), "config.json"),
		Backend:    null,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := null.Init(); err != nil {
		t.Fatal(err)
	}

	if _, err := app.Document().Replace(0, 0, "first\nsecond line\n"); err != nil {
		t.Fatal(err)
	}
	s, err := app.Review().Start(6, 12, "better")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	app.draw(time.Now())

	// The diff starts on line 1, so the buttons land on row 2.
	if got := null.LineText(2); !strings.Contains(got, "Keep (Tab)") {
		t.Fatalf("toolbar row = %q", got)
	}

	btn := app.buttons[0]
	app.handleClick(btn.x0, btn.y)
	if s.Decision() != review.DecisionKeep {
		t.Errorf("Decision = %v, want keep", s.Decision())
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(config.Config{Provider: "scripted"})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.Name() != "scripted" {
		t.Errorf("Name = %q", p.Name())
	}

	if _, err := NewProvider(config.Config{Provider: "bogus"}); !errors.Is(err, ai.ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"#ff8800", true},
		{"#FF8800", true},
		{"ff8800", false},
		{"#ff88", false},
		{"", false},
	}
	for _, tt := range tests {
		c, ok := parseHexColor(tt.in)
		if ok != tt.ok {
			t.Errorf("parseHexColor(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if tt.ok && (c.R != 0xff || c.G != 0x88 || c.B != 0) {
			t.Errorf("parseHexColor(%q) = %v", tt.in, c)
		}
	}
}

func TestRunProcessesEventsAndStops(t *testing.T) {
	null := backend.NewNull(80, 24)
	app, err := New(Options{
		ConfigPath: filepath.Join(t.TempDir(), "config.json"),
		Backend:    null,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- app.Run(context.Background())
	}()

	null.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	null.PostEvent(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	if got := app.Document().Text(); got != "q" {
		t.Errorf("document = %q, want %q", got, "q")
	}
}

func TestUndoKeyRevertsLastCommit(t *testing.T) {
	app := newTestApp(t)

	app.handleBaseKey(key.NewEvent(key.KeyRune, 'a'))
	app.handleBaseKey(key.NewEvent(key.KeyRune, 'b'))

	app.handleEvent(context.Background(), tcell.NewEventKey(tcell.KeyCtrlZ, 0, tcell.ModNone))
	if got := app.Document().Text(); got != "a" {
		t.Errorf("document = %q, want %q", got, "a")
	}
}
