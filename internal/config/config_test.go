package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != "scripted" {
		t.Errorf("Provider = %q, want scripted", cfg.Provider)
	}
	if cfg.Display.FadeMillis != 200 {
		t.Errorf("FadeMillis = %d, want 200", cfg.Display.FadeMillis)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"provider":"anthropic","model":"claude-sonnet-4-5","display":{"fade_ms":350}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Display.FadeMillis != 350 {
		t.Errorf("FadeMillis = %d, want 350", cfg.Display.FadeMillis)
	}
	// Unset fields keep defaults.
	if cfg.Display.SpinnerMillis != 80 {
		t.Errorf("SpinnerMillis = %d, want 80", cfg.Display.SpinnerMillis)
	}
	if len(cfg.Keymap.Keep) != 2 {
		t.Errorf("Keymap.Keep = %v", cfg.Keymap.Keep)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"provider":"telegraph"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"provider":"openai"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INLAY_PROVIDER", "gemini")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.Provider)
	}
}

func TestSavePreservesUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	existing := `{"provider":"openai","experimental":{"flag":true}}`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Provider = "anthropic"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	if got := gjson.Get(doc, "provider").String(); got != "anthropic" {
		t.Errorf("provider = %q", got)
	}
	if !gjson.Get(doc, "experimental.flag").Bool() {
		t.Error("unknown key experimental.flag was lost")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inlay", "config.json")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save failed: %v", err)
	}
	if cfg.Provider != "scripted" {
		t.Errorf("round trip Provider = %q", cfg.Provider)
	}
}

func TestAPIKeyEnv(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"gemini", "GEMINI_API_KEY"},
		{"scripted", ""},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c := Config{Provider: tt.provider}
			if got := c.APIKeyEnv(); got != tt.want {
				t.Errorf("APIKeyEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}
