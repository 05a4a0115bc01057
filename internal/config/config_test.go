package config

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	surface := cfg.Surface.Rect()
	for _, e := range cfg.Elements {
		r := e.Rect.Rectangle()
		if !r.In(surface) {
			t.Errorf("element %q at %v lies outside the surface %v", e.ID, r, surface)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Surface.Width != 1920 || cfg.Surface.Height != 1080 {
		t.Errorf("surface = %+v, want 1920x1080", cfg.Surface)
	}
	if len(cfg.Elements) != len(DefaultElements()) {
		t.Errorf("got %d elements, want %d", len(cfg.Elements), len(DefaultElements()))
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padoverlay.yaml")
	data := `
log_level: debug
layout_file: /tmp/layout.toml
surface:
  width: 800
  height: 480
elements:
  - id: pad
    kind: dpad
    rect: {x: 10, y: 200, width: 256, height: 256}
    multitouch: true
    buttons: {up: up, left: left, right: right, down: down}
  - id: a
    kind: button
    button: cross
    glyph: cross
    rect: {x: 600, y: 300, width: 100, height: 100}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LayoutFile != "/tmp/layout.toml" {
		t.Errorf("got log_level=%q layout_file=%q", cfg.LogLevel, cfg.LayoutFile)
	}
	if len(cfg.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(cfg.Elements))
	}
	pad := cfg.Elements[0]
	if pad.Kind != KindDpad || !pad.Multitouch || pad.Buttons.Left != "left" {
		t.Errorf("dpad decoded as %+v", pad)
	}
	if got, want := pad.Rect.Rectangle(), image.Rect(10, 200, 266, 456); got != want {
		t.Errorf("dpad rect = %v, want %v", got, want)
	}
	if cfg.Elements[1].Button != "cross" {
		t.Errorf("button = %q, want cross", cfg.Elements[1].Button)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("PADOVERLAY_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	ok := Element{ID: "x", Kind: KindButton, Button: "cross", Rect: Rect{Width: 10, Height: 10}}

	tests := []struct {
		name     string
		elements []Element
	}{
		{"missing id", []Element{{Kind: KindButton, Button: "cross", Rect: Rect{Width: 1, Height: 1}}}},
		{"duplicate id", []Element{ok, ok}},
		{"empty rect", []Element{{ID: "x", Kind: KindButton, Button: "cross"}}},
		{"unknown kind", []Element{{ID: "x", Kind: "stick", Rect: Rect{Width: 1, Height: 1}}}},
		{"button without button", []Element{{ID: "x", Kind: KindButton, Rect: Rect{Width: 1, Height: 1}}}},
		{"dpad missing direction", []Element{{
			ID: "x", Kind: KindDpad, Rect: Rect{Width: 1, Height: 1},
			Buttons: DpadButtons{Up: "up", Left: "left", Right: "right"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Surface: Surface{Width: 100, Height: 100}, Elements: tt.elements}
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}
