//go:build !linux

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var evdevCmd = &cobra.Command{
	Use:   "evdev <device>",
	Short: "Drive the overlay from a Linux multi-touch event device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.New("evdev input is only supported on Linux")
	},
}

func init() {
	rootCmd.AddCommand(evdevCmd)
}
