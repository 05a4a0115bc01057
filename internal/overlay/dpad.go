package overlay

import (
	"image"
	"image/draw"

	"github.com/phinze/padoverlay/internal/layout"
	"github.com/phinze/padoverlay/internal/pad"
	"github.com/phinze/padoverlay/internal/touch"
	"go.uber.org/zap"
)

// D-pad ActivationMask bits.
const (
	DpadTop    uint32 = 1 << 0
	DpadLeft   uint32 = 1 << 1
	DpadRight  uint32 = 1 << 2
	DpadBottom uint32 = 1 << 3
)

// zoneRatio divides the pad width into the edge threshold of each zone.
const zoneRatio = 3.5

// DpadConfig describes a directional pad.
type DpadConfig struct {
	ID         string
	Name       string
	Area       image.Rectangle
	Group      int
	Top        uint32
	Left       uint32
	Right      uint32
	Bottom     uint32
	Multitouch bool
}

// Dpad is a four-way directional pad. Adjacent zones can be active together
// so a thumb in a corner produces a diagonal.
type Dpad struct {
	base

	group  int
	output [4]uint32 // top, left, right, bottom

	// arrow sizes; see arrowSize
	arrowWidth, arrowHeight               int
	defaultArrowWidth, defaultArrowHeight int
}

var _ Element = (*Dpad)(nil)

// NewDpad creates a d-pad and applies any overrides found in store.
func NewDpad(cfg DpadConfig, store layout.Store, logger *zap.Logger) *Dpad {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := cfg.Name
	if name == "" {
		name = "Dpad"
	}
	d := &Dpad{
		base:   newBase(cfg.ID, name, cfg.Area, cfg.Multitouch, store, logger.Named("dpad")),
		group:  cfg.Group,
		output: [4]uint32{cfg.Top, cfg.Left, cfg.Right, cfg.Bottom},
	}
	d.resizer = d
	d.arrowWidth, d.arrowHeight = arrowSize(min(d.area.Dx(), d.area.Dy()))
	d.defaultArrowWidth, d.defaultArrowHeight = d.arrowWidth, d.arrowHeight
	d.load()
	return d
}

// arrowSize returns the long and short side of one arrow for a pad extent.
//
// This is an approximation tuned for the stock arrow artwork and does not
// generalise to other element shapes.
func arrowSize(extent int) (width, height int) {
	e := float64(extent)
	return extent / 2, int(e/2 - e/20)
}

func (d *Dpad) scaled(extent int) {
	d.arrowWidth, d.arrowHeight = arrowSize(extent)
}

func (d *Dpad) restored() {
	d.arrowWidth, d.arrowHeight = d.defaultArrowWidth, d.defaultArrowHeight
}

// ArrowSize returns the current arrow width and thickness.
func (d *Dpad) ArrowSize() (width, height int) {
	return d.arrowWidth, d.arrowHeight
}

// Threshold returns the distance from an edge within which a touch
// activates that edge's direction.
func (d *Dpad) Threshold() float64 {
	return float64(d.area.Dx()) / zoneRatio
}

// Zones returns the ActivationMask for a touch at (x, y).
func (d *Dpad) Zones(x, y float64) uint32 {
	a := d.area
	threshold := d.Threshold()

	left := x-float64(a.Min.X) < threshold
	right := !left && float64(a.Max.X)-x < threshold
	top := y-float64(a.Min.Y) < threshold
	bottom := !top && float64(a.Max.Y)-y < threshold

	var m uint32
	if top {
		m |= DpadTop
	}
	if left {
		m |= DpadLeft
	}
	if right {
		m |= DpadRight
	}
	if bottom {
		m |= DpadBottom
	}
	return m
}

// OnTouch runs the pointer-lock protocol and writes the pad's output bits.
func (d *Dpad) OnTouch(ev *touch.Event, pointerIndex int, st *pad.State) bool {
	hit := d.locks.track(ev, pointerIndex, d.Zones)
	st.Apply(d.group, d.outputMask(), d.outputBits(d.locks.combined()))
	return hit || d.touchInside(ev, pointerIndex)
}

func (d *Dpad) outputMask() uint32 {
	return d.output[0] | d.output[1] | d.output[2] | d.output[3]
}

func (d *Dpad) outputBits(active uint32) uint32 {
	var bits uint32
	for i, zone := range []uint32{DpadTop, DpadLeft, DpadRight, DpadBottom} {
		if active&zone != 0 {
			bits |= d.output[i]
		}
	}
	return bits
}

// ArrowBounds returns the draw bounds of the top, left, right and bottom
// arrows, derived from the current area.
func (d *Dpad) ArrowBounds() (top, left, right, bottom image.Rectangle) {
	a := d.area
	c := center(a)
	w, h := d.arrowWidth, d.arrowHeight
	top = image.Rect(c.X-w/2, a.Min.Y, c.X+w/2, a.Min.Y+h)
	bottom = image.Rect(c.X-w/2, a.Max.Y-h, c.X+w/2, a.Max.Y)
	left = image.Rect(a.Min.X, c.Y-w/2, a.Min.X+h, c.Y+w/2)
	right = image.Rect(a.Max.X-h, c.Y-w/2, a.Max.X, c.Y+w/2)
	return top, left, right, bottom
}

// Draw renders the four arrows; active arrows draw opaque.
func (d *Dpad) Draw(dst draw.Image) {
	top, left, right, bottom := d.ArrowBounds()
	active := d.locks.combined()

	arrows := []struct {
		name string
		r    image.Rectangle
		zone uint32
	}{
		{"arrow-left", left, DpadLeft},
		{"arrow-right", right, DpadRight},
		{"arrow-down", bottom, DpadBottom},
		{"arrow-up", top, DpadTop},
	}
	for _, a := range arrows {
		img := icon(a.name, a.r.Dx(), a.r.Dy(), colorArrow)
		drawFaded(dst, a.r, img, d.alpha(active&a.zone != 0))
	}
}
