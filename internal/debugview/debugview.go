// Package debugview renders the hit zones of an overlay for inspection.
package debugview

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/phinze/padoverlay/internal/overlay"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/gofont/goregular"
)

// Options control what Render draws besides element bounds.
type Options struct {
	// Touches are marked with a dot, green when some element's HitTest
	// accepts them and red otherwise.
	Touches []image.Point
	// Labels draws each element's id and scale.
	Labels bool
}

// Render draws every element's bounds onto a surface-sized canvas and
// writes it to w as PNG. D-pads additionally show their zone thresholds
// and arrow bounds.
func Render(w io.Writer, surface image.Rectangle, elements []overlay.Element, opts Options) error {
	dc := gg.NewContext(surface.Dx(), surface.Dy())
	defer func() { _ = dc.Close() }()
	dc.ClearWithColor(gg.FromColor(colornames.Black))
	dc.Translate(float64(-surface.Min.X), float64(-surface.Min.Y))

	var source *text.FontSource
	if opts.Labels {
		var err error
		source, err = text.NewFontSource(goregular.TTF)
		if err != nil {
			return fmt.Errorf("failed to load label font: %w", err)
		}
		defer func() { _ = source.Close() }()
		dc.SetFont(source.Face(18))
	}

	for _, e := range elements {
		if d, ok := e.(*overlay.Dpad); ok {
			drawDpad(dc, d)
		}

		b := e.Bounds()
		dc.SetColor(colornames.Gold)
		dc.SetLineWidth(2)
		dc.DrawRectangle(float64(b.Min.X), float64(b.Min.Y), float64(b.Dx()), float64(b.Dy()))
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("failed to stroke %s: %w", e.ID(), err)
		}

		if opts.Labels {
			info := e.Describe()
			dc.SetColor(colornames.White)
			dc.DrawString(fmt.Sprintf("%s %d%%", info.ID, info.Scale), float64(b.Min.X)+4, float64(b.Min.Y)-6)
		}
	}

	for _, p := range opts.Touches {
		dc.SetColor(colornames.Red)
		for _, e := range elements {
			if e.HitTest(p) {
				dc.SetColor(colornames.Lime)
				break
			}
		}
		dc.DrawCircle(float64(p.X), float64(p.Y), 6)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("failed to mark touch %v: %w", p, err)
		}
	}

	return dc.EncodePNG(w)
}

func drawDpad(dc *gg.Context, d *overlay.Dpad) {
	top, left, right, bottom := d.ArrowBounds()
	dc.SetColor(colornames.Steelblue)
	for _, r := range []image.Rectangle{top, left, right, bottom} {
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		_ = dc.Fill()
	}

	b := d.Bounds()
	t := d.Threshold()
	x0, y0 := float64(b.Min.X), float64(b.Min.Y)
	x1, y1 := float64(b.Max.X), float64(b.Max.Y)

	dc.SetColor(colornames.Orangered)
	dc.SetLineWidth(1)
	dc.SetDash(6, 4)
	dc.DrawLine(x0+t, y0, x0+t, y1)
	dc.DrawLine(x1-t, y0, x1-t, y1)
	dc.DrawLine(x0, y0+t, x1, y0+t)
	dc.DrawLine(x0, y1-t, x1, y1-t)
	_ = dc.Stroke()
	dc.ClearDash()
}
