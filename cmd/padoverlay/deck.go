package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phinze/padoverlay/internal/coordinator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"rafaelmartins.com/p/streamdeck"
)

var deckSerial string

var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Drive the overlay from a Stream Deck+ touch strip",
	Long: `deck feeds Stream Deck+ touch strip taps and swipes into the overlay and
renders the overlay back onto the strip. Key 1 toggles edit mode, key 2 resets
the selected element, keys 5 to 8 nudge it, dial 1 scales and dial 2 fades it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(runDeck)
	},
}

func init() {
	deckCmd.Flags().StringVar(&deckSerial, "serial", "", "serial number of the device to use (default is the first found)")
	rootCmd.AddCommand(deckCmd)
}

func runDeck(s *session) error {
	logger := s.logger.Named("deck")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Main device loop - wait for device, run, repeat on disconnect
	for {
		device := waitForDevice(ctx, logger)
		if device == nil {
			// Context cancelled
			return nil
		}

		runWithDevice(ctx, s, device, logger)

		select {
		case <-ctx.Done():
			logger.Info("Exiting")
			return nil
		default:
			logger.Info("Waiting for device reconnect")
		}
	}
}

// waitForDevice polls for a Stream Deck device until one is available.
func waitForDevice(ctx context.Context, logger *zap.Logger) *streamdeck.Device {
	if device := openDevice(logger); device != nil {
		return device
	}

	logger.Info("Waiting for device")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}

		if device := openDevice(logger); device != nil {
			logger.Info("Device connected")
			return device
		}
	}
}

func openDevice(logger *zap.Logger) *streamdeck.Device {
	device, err := streamdeck.GetDevice(deckSerial)
	if err != nil {
		logger.Debug("No device", zap.Error(err))
		return nil
	}
	if err := device.Open(); err != nil {
		logger.Warn("Device found but Open failed", zap.Error(err))
		return nil
	}
	return device
}

// runWithDevice runs the coordinator with the given device until disconnect
// or context cancel.
func runWithDevice(ctx context.Context, s *session, device *streamdeck.Device, logger *zap.Logger) {
	logger.Info("Connected", zap.String("model", device.GetModelName()))

	if !device.GetTouchStripSupported() {
		logger.Warn("Device has no touch strip; only editing keys and dials are active")
	}

	// Set brightness and clear keys
	device.SetBrightness(80)
	device.ForEachKey(func(key streamdeck.KeyID) error {
		return device.ClearKey(key)
	})

	coord := coordinator.New(device, s.overlay, s.cfg.Surface.Rect(), s.logger)

	// Run coordinator with a child context so we can stop it independently
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- coord.Start(runCtx)
	}()

	logger.Info("Ready")

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errChan:
		if err != nil {
			logger.Warn("Device disconnected", zap.Error(err))
		}
	}

	runCancel()

	done := make(chan struct{})
	go func() {
		coord.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		logger.Warn("Cleanup timed out")
	}

	// device.Close may block indefinitely on some hosts
	closeDone := make(chan struct{})
	go func() {
		device.Close()
		close(closeDone)
	}()

	select {
	case <-closeDone:
	case <-time.After(3 * time.Second):
		logger.Warn("Device close timed out")
	}
}
