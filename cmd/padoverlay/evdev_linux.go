//go:build linux

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/phinze/padoverlay/internal/pad"
	"github.com/phinze/padoverlay/internal/touch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var grabDevice bool

var evdevCmd = &cobra.Command{
	Use:   "evdev <device>",
	Short: "Drive the overlay from a Linux multi-touch event device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			return runEvdev(s, args[0])
		})
	},
}

func init() {
	evdevCmd.Flags().BoolVar(&grabDevice, "grab", false, "grab the device so other readers stop receiving its events")
	rootCmd.AddCommand(evdevCmd)
}

func runEvdev(s *session, path string) error {
	dev, err := touch.OpenDevice(path, grabDevice)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// unblocks the pending read
		dev.Close()
	}()

	logger := s.logger.Named("evdev")
	logger.Info("Reading touches", zap.String("device", path), zap.Stringer("surface", s.cfg.Surface.Rect()))

	dec := dev.Decoder(s.cfg.Surface.Rect())
	var last pad.State
	for {
		ev, err := dec.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				logger.Info("Stopped reading touches")
				return nil
			}
			return err
		}

		s.overlay.HandleTouch(ev)
		if st := s.overlay.Snapshot(); st != last {
			last = st
			logger.Info("Pad state",
				zap.Strings("digital1", pad.ButtonNames(pad.Digital1, st.Digital[pad.Digital1])),
				zap.Strings("digital2", pad.ButtonNames(pad.Digital2, st.Digital[pad.Digital2])),
			)
		}
	}
}
