package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/phinze/padoverlay/internal/overlay"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [element-id...]",
	Short: "Show scale and opacity of overlay elements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			ids := args
			if len(ids) == 0 {
				for _, e := range s.overlay.Elements() {
					ids = append(ids, e.ID())
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSCALE\tOPACITY")
			for _, id := range ids {
				info, err := s.overlay.Describe(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d%%\t%d%%\n", info.ID, info.Name, info.Scale, info.Opacity)
			}
			return w.Flush()
		})
	},
}

var scaleCmd = &cobra.Command{
	Use:   "scale <element-id> <percent>",
	Short: "Resize an element around its centre",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid percent %q: %w", args[1], err)
		}
		return editElement(func(ov *overlay.Overlay) error {
			return ov.SetScale(args[0], percent)
		})
	},
}

var opacityCmd = &cobra.Command{
	Use:   "opacity <element-id> <percent>",
	Short: "Set the idle opacity of an element",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid percent %q: %w", args[1], err)
		}
		return editElement(func(ov *overlay.Overlay) error {
			return ov.SetOpacity(args[0], percent)
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <element-id> <dx> <dy>",
	Short: "Move an element by an offset",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid dx %q: %w", args[1], err)
		}
		dy, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid dy %q: %w", args[2], err)
		}
		return editElement(func(ov *overlay.Overlay) error {
			return ov.MoveBy(args[0], dx, dy)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <element-id>",
	Short: "Restore an element's default placement, scale and opacity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editElement(func(ov *overlay.Overlay) error {
			return ov.ResetToDefault(args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(scaleCmd)
	rootCmd.AddCommand(opacityCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(resetCmd)
}

func withSession(fn func(s *session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}

// editElement applies one editor mutation and prints the resulting info.
func editElement(fn func(ov *overlay.Overlay) error) error {
	return withSession(func(s *session) error {
		cancel := s.overlay.Subscribe(func(info overlay.Info) {
			b := boundsOf(s.overlay, info.ID)
			fmt.Printf("%s: scale %d%%, opacity %d%%, bounds %v\n", info.ID, info.Scale, info.Opacity, b)
		})
		defer cancel()
		return fn(s.overlay)
	})
}

func boundsOf(ov *overlay.Overlay, id string) string {
	for _, e := range ov.Elements() {
		if e.ID() == id {
			return e.Bounds().String()
		}
	}
	return "?"
}
