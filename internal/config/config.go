package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Errors returned by the config package.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the user-tunable settings for the assist core.
type Config struct {
	// Provider selects the generation backend: "anthropic", "openai",
	// "gemini" or "scripted".
	Provider string

	// Model names the backend model. Empty means the provider default.
	Model string

	// MaxTokens bounds response length. Zero means the provider default.
	MaxTokens int

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// Keymap binds the review decisions.
	Keymap KeymapConfig

	// Display tunes the overlay presentation.
	Display DisplayConfig
}

// KeymapConfig names the keys that resolve a pending review. Keys are
// tcell key names ("Tab", "Enter", "Esc").
type KeymapConfig struct {
	Keep []string
	Undo []string
}

// DisplayConfig tunes overlay rendering.
type DisplayConfig struct {
	// FadeMillis is the fade-in window for freshly streamed text.
	FadeMillis int

	// SpinnerMillis is the spinner frame interval while waiting.
	SpinnerMillis int

	// StreamColor is the overlay text color as "#rrggbb". Empty uses
	// the terminal default.
	StreamColor string
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Provider: "scripted",
		LogLevel: "info",
		Keymap: KeymapConfig{
			Keep: []string{"Tab", "Enter"},
			Undo: []string{"Esc"},
		},
		Display: DisplayConfig{
			FadeMillis:    200,
			SpinnerMillis: 80,
		},
	}
}

// DefaultPath returns the standard location of the config file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "inlay", "config.json"), nil
}

// Load reads the config file at path, merges it over the defaults and
// applies environment overrides. A missing file is not an error; the
// defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return cfg, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidConfig, path)
	}

	doc := string(data)
	if v := gjson.Get(doc, "provider"); v.Exists() {
		cfg.Provider = v.String()
	}
	if v := gjson.Get(doc, "model"); v.Exists() {
		cfg.Model = v.String()
	}
	if v := gjson.Get(doc, "max_tokens"); v.Exists() {
		cfg.MaxTokens = int(v.Int())
	}
	if v := gjson.Get(doc, "log_level"); v.Exists() {
		cfg.LogLevel = v.String()
	}
	if v := gjson.Get(doc, "keymap.keep"); v.IsArray() {
		cfg.Keymap.Keep = stringList(v)
	}
	if v := gjson.Get(doc, "keymap.undo"); v.IsArray() {
		cfg.Keymap.Undo = stringList(v)
	}
	if v := gjson.Get(doc, "display.fade_ms"); v.Exists() {
		cfg.Display.FadeMillis = int(v.Int())
	}
	if v := gjson.Get(doc, "display.spinner_ms"); v.Exists() {
		cfg.Display.SpinnerMillis = int(v.Int())
	}
	if v := gjson.Get(doc, "display.stream_color"); v.Exists() {
		cfg.Display.StreamColor = v.String()
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save patches the file at path with cfg's values, creating it (and its
// directory) if needed. Unknown keys already present in the file survive.
func Save(path string, cfg Config) error {
	doc := "{}"
	if data, err := os.ReadFile(path); err == nil && gjson.ValidBytes(data) {
		doc = string(data)
	}

	var err error
	set := func(key string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, key, value)
	}
	set("provider", cfg.Provider)
	set("model", cfg.Model)
	set("max_tokens", cfg.MaxTokens)
	set("log_level", cfg.LogLevel)
	set("keymap.keep", cfg.Keymap.Keep)
	set("keymap.undo", cfg.Keymap.Undo)
	set("display.fade_ms", cfg.Display.FadeMillis)
	set("display.spinner_ms", cfg.Display.SpinnerMillis)
	set("display.stream_color", cfg.Display.StreamColor)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports configuration values that no component can act on.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai", "gemini", "scripted":
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: negative max_tokens", ErrInvalidConfig)
	}
	return nil
}

// APIKeyEnv returns the environment variable holding the API key for the
// configured provider, or "" when none is needed.
func (c Config) APIKeyEnv() string {
	switch c.Provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("INLAY_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("INLAY_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("INLAY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

func stringList(v gjson.Result) []string {
	var out []string
	v.ForEach(func(_, item gjson.Result) bool {
		out = append(out, item.String())
		return true
	})
	return out
}
