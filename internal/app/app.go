package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ckessler/inlay/internal/ai"
	"github.com/ckessler/inlay/internal/assist"
	"github.com/ckessler/inlay/internal/config"
	"github.com/ckessler/inlay/internal/engine/buffer"
	"github.com/ckessler/inlay/internal/engine/tracking"
	"github.com/ckessler/inlay/internal/input/key"
	"github.com/ckessler/inlay/internal/renderer/backend"
	"github.com/ckessler/inlay/internal/renderer/core"
	"github.com/ckessler/inlay/internal/renderer/overlay"
	"github.com/ckessler/inlay/internal/review"
)

// Application wires the document, trackers, overlay, review and
// generation components and runs the terminal event loop.
type Application struct {
	config config.Config
	logger *Logger

	doc     *buffer.Buffer
	tracker *tracking.Tracker
	overlay *overlay.Engine
	router  *key.Router
	review  *review.Controller
	assist  *assist.Controller

	backend  backend.Backend
	provider ai.Provider

	// cursor is the insertion point, remapped through every edit. It is
	// atomic because assist commits fire the remap observer from their
	// own goroutines.
	cursor atomic.Int64

	// buttons holds the clickable toolbar extents from the last draw.
	// Only the event loop goroutine touches it.
	buttons []buttonExtent

	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty uses the
	// standard location.
	ConfigPath string

	// File is a file to load into the buffer on startup.
	File string

	// Provider overrides the configured generation backend.
	Provider string

	// Prompt is the instruction sent on each generation trigger.
	Prompt string

	// LogLevel overrides the configured logging verbosity.
	LogLevel string

	// Backend overrides the display surface; nil means a real terminal.
	Backend backend.Backend
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts: opts,
		done: make(chan struct{}),
	}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	path := app.opts.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if app.opts.Provider != "" {
		cfg.Provider = app.opts.Provider
	}
	if app.opts.LogLevel != "" {
		cfg.LogLevel = app.opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.config = cfg

	// 2. Logger
	app.logger = NewLogger(LoggerConfig{
		Level:  ParseLogLevel(cfg.LogLevel),
		Output: os.Stderr,
		Prefix: "inlay",
	})

	// First run: materialize the defaults so there is a file to edit.
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if err := config.Save(path, config.Default()); err != nil {
			app.logger.Warn("could not write default config to %s: %v", path, err)
		}
	}

	// 3. Document
	app.doc = buffer.NewBuffer()
	if app.opts.File != "" {
		data, err := os.ReadFile(app.opts.File)
		if err != nil {
			return fmt.Errorf("open %s: %w", app.opts.File, err)
		}
		app.doc = buffer.NewBufferFromString(string(data))
	}
	app.cursor.Store(int64(app.doc.Len()))

	// 4. Tracking, overlay, input, review
	app.tracker = tracking.NewTracker()
	app.overlay = overlay.NewEngine(app.doc, overlayConfig(cfg))
	app.router = key.NewRouter()
	app.review = review.NewController(app.router, app.doc, app.reviewConfig(cfg))

	// 5. Generation provider
	app.provider, err = NewProvider(cfg)
	if err != nil {
		return err
	}

	// 6. Assist controller (installs the edit observer)
	app.assist = assist.NewController(app.doc, app.tracker, app.overlay, app.review, app.provider, app.logger.WithComponent("assist"))

	// The cursor follows edits like a zero-width sticky-right range.
	app.doc.Observe(func(edits []buffer.Edit) {
		mapped := tracking.MapOffset(buffer.ByteOffset(app.cursor.Load()), edits, tracking.StickyRight)
		app.cursor.Store(int64(mapped))
	})

	// 7. Display surface
	app.backend = app.opts.Backend
	if app.backend == nil {
		term, err := backend.NewTerminal()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		app.backend = term
	}

	return nil
}

// NewProvider builds the generation backend named by the configuration,
// reading its API key from the environment.
func NewProvider(cfg config.Config) (ai.Provider, error) {
	switch cfg.Provider {
	case "scripted":
		return &ai.Scripted{Chunks: demoChunks()}, nil
	case "anthropic":
		return ai.NewAnthropic(os.Getenv(cfg.APIKeyEnv()))
	case "openai":
		return ai.NewOpenAI(os.Getenv(cfg.APIKeyEnv()))
	case "gemini":
		return ai.NewGemini(context.Background(), os.Getenv(cfg.APIKeyEnv()))
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownBackend, cfg.Provider)
	}
}

// demoChunks is the canned response for the offline scripted provider.
func demoChunks() []string {
	return []string{
		"The quick ", "brown fox ", "jumps over ", "the lazy dog.",
	}
}

// reviewConfig maps the configured keymap onto the review controller
// config, recaptioning the toolbar buttons after the bound keys. Unknown
// key names are skipped with a warning; an action left with no valid
// binding keeps its defaults.
func (app *Application) reviewConfig(cfg config.Config) review.Config {
	rc := review.DefaultConfig()
	if keys, first := app.parseKeymap("keep", cfg.Keymap.Keep); len(keys) > 0 {
		rc.KeepKeys = keys
		rc.KeepLabel = fmt.Sprintf("Keep (%s)", first)
	}
	if keys, first := app.parseKeymap("undo", cfg.Keymap.Undo); len(keys) > 0 {
		rc.UndoKeys = keys
		rc.UndoLabel = fmt.Sprintf("Undo (%s)", first)
	}
	return rc
}

// parseKeymap resolves configured key names, returning the keys and the
// first name that resolved.
func (app *Application) parseKeymap(action string, names []string) ([]key.Key, string) {
	var keys []key.Key
	first := ""
	for _, name := range names {
		k, ok := key.Parse(name)
		if !ok {
			app.logger.Warn("keymap: unknown %s key %q", action, name)
			continue
		}
		if first == "" {
			first = name
		}
		keys = append(keys, k)
	}
	return keys, first
}

// overlayConfig maps display settings onto the overlay engine config.
func overlayConfig(cfg config.Config) overlay.Config {
	oc := overlay.DefaultConfig()
	if cfg.Display.FadeMillis > 0 {
		oc.FadeDuration = millis(cfg.Display.FadeMillis)
	}
	if cfg.Display.SpinnerMillis > 0 {
		oc.SpinnerInterval = millis(cfg.Display.SpinnerMillis)
	}
	if c, ok := parseHexColor(cfg.Display.StreamColor); ok {
		oc.StreamStyle = core.NewStyle(c).Italic()
	}
	return oc
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// parseHexColor parses "#rrggbb".
func parseHexColor(s string) (core.Color, bool) {
	if len(s) != 7 || s[0] != '#' {
		return core.Color{}, false
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return core.Color{}, false
	}
	return core.ColorFromRGB(r, g, b), true
}

// Document returns the application's buffer.
func (app *Application) Document() *buffer.Buffer {
	return app.doc
}

// Assist returns the generation controller.
func (app *Application) Assist() *assist.Controller {
	return app.assist
}

// Overlay returns the overlay engine.
func (app *Application) Overlay() *overlay.Engine {
	return app.overlay
}

// Review returns the review controller.
func (app *Application) Review() *review.Controller {
	return app.review
}

// Logger returns the application's logger instance.
func (app *Application) Logger() *Logger {
	return app.logger
}

// Config returns the loaded configuration.
func (app *Application) Config() config.Config {
	return app.config
}

// Cursor returns the current insertion point.
func (app *Application) Cursor() buffer.ByteOffset {
	return buffer.ByteOffset(app.cursor.Load())
}

func (app *Application) setCursor(offset buffer.ByteOffset) {
	if offset < 0 {
		offset = 0
	}
	if max := app.doc.Len(); offset > max {
		offset = max
	}
	app.cursor.Store(int64(offset))
}
