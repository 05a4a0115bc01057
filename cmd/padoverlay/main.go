package main

import (
	"fmt"
	"os"

	"github.com/phinze/padoverlay/internal/config"
	"github.com/phinze/padoverlay/internal/layout"
	"github.com/phinze/padoverlay/internal/overlay"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "padoverlay",
	Short: "Virtual game controller touch overlay",
	Long: `padoverlay maps touches on a display to the digital input state of an
emulated game pad, and keeps per-element placement, scale and opacity.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("padoverlay v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/padoverlay/padoverlay.yaml)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is the state every overlay command starts from.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *layout.FileStore
	overlay *overlay.Overlay
}

func openSession() (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	path := cfg.LayoutFile
	if path == "" {
		path = layout.DefaultPath()
	}
	store, err := layout.OpenFileStore(path, logger)
	if err != nil {
		return nil, err
	}

	ov, err := overlay.Build(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, store: store, overlay: ov}, nil
}

// Close flushes pending layout writes.
func (s *session) Close() error {
	defer s.logger.Sync()
	return s.store.Close()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	return cfg.Build()
}
