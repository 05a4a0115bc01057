package config

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Element kinds.
const (
	KindButton = "button"
	KindDpad   = "dpad"
)

type Config struct {
	LogLevel   string    `mapstructure:"log_level"`
	LayoutFile string    `mapstructure:"layout_file"`
	Surface    Surface   `mapstructure:"surface"`
	Elements   []Element `mapstructure:"elements"`
}

// Surface is the size of the touch display the overlay covers.
type Surface struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

func (s Surface) Rect() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

type Rect struct {
	X      int `mapstructure:"x"`
	Y      int `mapstructure:"y"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// DpadButtons names the pad button driven by each d-pad direction.
type DpadButtons struct {
	Up    string `mapstructure:"up"`
	Left  string `mapstructure:"left"`
	Right string `mapstructure:"right"`
	Down  string `mapstructure:"down"`
}

type Element struct {
	ID         string      `mapstructure:"id"`
	Kind       string      `mapstructure:"kind"`
	Name       string      `mapstructure:"name"`
	Rect       Rect        `mapstructure:"rect"`
	Button     string      `mapstructure:"button"`
	Buttons    DpadButtons `mapstructure:"buttons"`
	Multitouch bool        `mapstructure:"multitouch"`
	Glyph      string      `mapstructure:"glyph"`
	Label      string      `mapstructure:"label"`
}

var ErrInvalid = errors.New("invalid config")

// Default returns a PS3-style layout for a 1920x1080 display.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Surface:  Surface{Width: 1920, Height: 1080},
		Elements: DefaultElements(),
	}
}

// DefaultElements returns the stock controller layout.
func DefaultElements() []Element {
	face := func(id, button, glyph string, x, y int) Element {
		return Element{
			ID: id, Kind: KindButton, Name: button, Button: button, Glyph: glyph,
			Rect: Rect{X: x, Y: y, Width: 140, Height: 140},
		}
	}
	key := func(id, button, label string, x, y, w, h int) Element {
		return Element{
			ID: id, Kind: KindButton, Name: label, Button: button, Label: label,
			Rect: Rect{X: x, Y: y, Width: w, Height: h},
		}
	}
	return []Element{
		{
			ID: "dpad", Kind: KindDpad, Name: "D-Pad",
			Rect:       Rect{X: 80, Y: 560, Width: 400, Height: 400},
			Buttons:    DpadButtons{Up: "up", Left: "left", Right: "right", Down: "down"},
			Multitouch: true,
		},
		face("triangle", "triangle", "triangle", 1610, 540),
		face("square", "square", "square", 1460, 690),
		face("circle", "circle", "circle", 1760, 690),
		face("cross", "cross", "cross", 1610, 840),
		key("l1", "l1", "L1", 80, 380, 200, 100),
		key("l2", "l2", "L2", 80, 260, 200, 100),
		key("r1", "r1", "R1", 1640, 380, 200, 100),
		key("r2", "r2", "R2", 1640, 260, 200, 100),
		key("l3", "l3", "L3", 560, 900, 120, 120),
		key("r3", "r3", "R3", 1240, 900, 120, 120),
		key("select", "select", "Select", 760, 940, 180, 80),
		key("start", "start", "Start", 980, 940, 180, 80),
	}
}

// Load reads the config file, or padoverlay.yaml from the usual locations
// when cfgFile is empty. A missing file yields the defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("padoverlay")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PADOVERLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("layout_file", def.LayoutFile)
	v.SetDefault("surface.width", def.Surface.Width)
	v.SetDefault("surface.height", def.Surface.Height)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Elements) == 0 {
		cfg.Elements = DefaultElements()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the structural rules Build relies on.
func (c *Config) Validate() error {
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("%w: surface must be positive, got %dx%d", ErrInvalid, c.Surface.Width, c.Surface.Height)
	}
	seen := make(map[string]bool, len(c.Elements))
	for i, e := range c.Elements {
		if e.ID == "" {
			return fmt.Errorf("%w: element %d has no id", ErrInvalid, i)
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate element id %q", ErrInvalid, e.ID)
		}
		seen[e.ID] = true
		if e.Rect.Width <= 0 || e.Rect.Height <= 0 {
			return fmt.Errorf("%w: element %q has an empty rect", ErrInvalid, e.ID)
		}
		switch e.Kind {
		case KindButton:
			if e.Button == "" {
				return fmt.Errorf("%w: button %q has no button", ErrInvalid, e.ID)
			}
		case KindDpad:
			b := e.Buttons
			if b.Up == "" || b.Left == "" || b.Right == "" || b.Down == "" {
				return fmt.Errorf("%w: dpad %q needs all four buttons", ErrInvalid, e.ID)
			}
		default:
			return fmt.Errorf("%w: element %q has unknown kind %q", ErrInvalid, e.ID, e.Kind)
		}
	}
	return nil
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "padoverlay")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "padoverlay")
}
