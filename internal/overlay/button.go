package overlay

import (
	"image"
	"image/draw"

	"github.com/phinze/padoverlay/internal/layout"
	"github.com/phinze/padoverlay/internal/pad"
	"github.com/phinze/padoverlay/internal/touch"
	"go.uber.org/zap"
)

// ButtonPressed is the ActivationMask bit of a pressed button.
const ButtonPressed uint32 = 1

// ButtonConfig describes a single button.
type ButtonConfig struct {
	ID     string
	Name   string
	Area   image.Rectangle
	Button pad.Button
	// Glyph is an icon name (cross, circle, square, triangle). When empty the
	// button draws as a key labelled with Label.
	Glyph      string
	Label      string
	Multitouch bool
}

// Button is a single pad button. A finger that lands on it keeps it held
// until that finger lifts, even if it slides off.
type Button struct {
	base

	output pad.Button
	glyph  string
	label  string
}

var _ Element = (*Button)(nil)

// NewButton creates a button and applies any overrides found in store.
func NewButton(cfg ButtonConfig, store layout.Store, logger *zap.Logger) *Button {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := cfg.Name
	if name == "" {
		name = cfg.ID
	}
	b := &Button{
		base:   newBase(cfg.ID, name, cfg.Area, cfg.Multitouch, store, logger.Named("button")),
		output: cfg.Button,
		glyph:  cfg.Glyph,
		label:  cfg.Label,
	}
	b.load()
	return b
}

func pressed(x, y float64) uint32 {
	return ButtonPressed
}

// OnTouch runs the pointer-lock protocol and writes the button bit.
func (b *Button) OnTouch(ev *touch.Event, pointerIndex int, st *pad.State) bool {
	hit := b.locks.track(ev, pointerIndex, pressed)
	var bits uint32
	if b.locks.combined() != 0 {
		bits = b.output.Bit
	}
	st.Apply(b.output.Group, b.output.Bit, bits)
	return hit || b.touchInside(ev, pointerIndex)
}

// Draw renders the glyph, or a labelled key when no glyph is set.
func (b *Button) Draw(dst draw.Image) {
	r := b.area
	alpha := b.alpha(b.locks.combined() != 0)

	if b.glyph != "" {
		img := icon(b.glyph, r.Dx(), r.Dy(), glyphColors[b.glyph])
		drawFaded(dst, r, img, alpha)
		return
	}

	key := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(key, key.Bounds(), icon("key", r.Dx(), r.Dy(), colorKeyLabel), image.Point{}, draw.Src)
	if b.label != "" {
		if face, err := labelFace(r.Dy()); err == nil {
			drawTextCentered(key, b.label, key.Bounds(), face, colorKeyLabel)
		} else {
			b.logger.Debug("No label font", zap.Error(err))
		}
	}
	drawFaded(dst, r, key, alpha)
}
