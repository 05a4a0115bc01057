package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/phinze/padoverlay/internal/debugview"
	"github.com/spf13/cobra"
)

var (
	renderOut string
	zonesOut  string
	touches   []string
	labels    bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Draw the overlay as it appears on the display",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			img := image.NewRGBA(s.cfg.Surface.Rect())
			s.overlay.Draw(img)
			return writeFile(renderOut, func(f *os.File) error {
				return png.Encode(f, img)
			})
		})
	},
}

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Draw element hit zones and optional touch points",
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := parsePoints(touches)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			for _, p := range points {
				for _, e := range s.overlay.Elements() {
					if e.HitTest(p) {
						fmt.Printf("%v hits %s\n", p, e.ID())
						break
					}
				}
			}
			return writeFile(zonesOut, func(f *os.File) error {
				return debugview.Render(f, s.cfg.Surface.Rect(), s.overlay.Elements(), debugview.Options{
					Touches: points,
					Labels:  labels,
				})
			})
		})
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "overlay.png", "output PNG file")
	zonesCmd.Flags().StringVarP(&zonesOut, "out", "o", "zones.png", "output PNG file")
	zonesCmd.Flags().StringArrayVarP(&touches, "touch", "t", nil, "touch point as x,y (repeatable)")
	zonesCmd.Flags().BoolVar(&labels, "labels", true, "label elements with id and scale")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(zonesCmd)
}

func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// parsePoints parses "x,y" pairs.
func parsePoints(values []string) ([]image.Point, error) {
	points := make([]image.Point, 0, len(values))
	for _, v := range values {
		xs, ys, ok := strings.Cut(v, ",")
		if !ok {
			return nil, fmt.Errorf("invalid touch point %q, want x,y", v)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xs))
		if err != nil {
			return nil, fmt.Errorf("invalid touch point %q: %w", v, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(ys))
		if err != nil {
			return nil, fmt.Errorf("invalid touch point %q: %w", v, err)
		}
		points = append(points, image.Pt(x, y))
	}
	return points, nil
}
