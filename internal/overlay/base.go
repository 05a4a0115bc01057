package overlay

import (
	"image"
	"math"

	"github.com/phinze/padoverlay/internal/layout"
	"github.com/phinze/padoverlay/internal/touch"
	"go.uber.org/zap"
)

// resizer is implemented by variants whose sub-elements depend on the
// element extent.
type resizer interface {
	// scaled is called after SetScale resized the element to extent.
	scaled(extent int)
	// restored is called after ResetToDefault restored the default area.
	restored()
}

// base carries the geometry, persistence and editing behavior shared by
// every element variant.
type base struct {
	id     string
	name   string
	store  layout.Store
	logger *zap.Logger

	area         image.Rectangle
	defaultArea  image.Rectangle
	defaultScale int
	scale        int
	idleAlpha    uint8

	dragging   bool
	dragOffset image.Point

	locks   lockTable
	resizer resizer
}

func newBase(id, name string, area image.Rectangle, multitouch bool, store layout.Store, logger *zap.Logger) base {
	if store == nil {
		store = &layout.MemStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	area = area.Canon()
	b := base{
		id:          id,
		name:        name,
		store:       store,
		logger:      logger.With(zap.String("element", id)),
		area:        area,
		defaultArea: area,
		idleAlpha:   opacityAlpha(DefaultOpacity),
		locks:       newLockTable(multitouch),
	}
	b.defaultScale = measureScale(area)
	b.scale = b.defaultScale
	return b
}

// measureScale returns the scale percentage whose extent best matches area.
func measureScale(area image.Rectangle) int {
	w := float64(area.Dx()) / BaseExtent * 100
	h := float64(area.Dy()) / BaseExtent * 100
	return int(math.Round(math.Min(w, h)))
}

// scaleExtent returns the side length for a scale percentage.
func scaleExtent(percent int) int {
	return int(math.Round(BaseExtent * float64(percent) / 100))
}

func clampScale(percent int) int {
	return min(max(percent, ScaleMin), ScaleMax)
}

// opacityAlpha converts an opacity percentage into an idle alpha.
func opacityAlpha(percent int) uint8 {
	return uint8(min(max(255*percent/100, 0), 255))
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

func (b *base) key(field string) string {
	return layout.Key(b.id, field)
}

// load applies persisted overrides. Values out of their domain are ignored.
func (b *base) load() {
	if s, ok := b.store.Int(b.key(layout.FieldScale)); ok {
		if s >= ScaleMin && s <= ScaleMax {
			b.resize(s)
		} else {
			b.logger.Warn("Ignoring persisted scale", zap.Int("scale", s))
		}
	}

	x, okX := b.store.Int(b.key(layout.FieldX))
	y, okY := b.store.Int(b.key(layout.FieldY))
	if okX || okY {
		if !okX {
			x = b.area.Min.X
		}
		if !okY {
			y = b.area.Min.Y
		}
		b.area = b.area.Add(image.Pt(x, y).Sub(b.area.Min))
	}

	if a, ok := b.store.Int(b.key(layout.FieldOpacity)); ok {
		if a >= 0 && a <= 255 {
			b.idleAlpha = uint8(a)
		} else {
			b.logger.Warn("Ignoring persisted opacity", zap.Int("opacity", a))
		}
	}
}

func (b *base) ID() string {
	return b.id
}

func (b *base) Bounds() image.Rectangle {
	return b.area
}

func (b *base) HitTest(p image.Point) bool {
	return p.In(b.area)
}

func (b *base) BeginDrag(p image.Point) {
	b.dragging = true
	b.dragOffset = p.Sub(b.area.Min)
}

func (b *base) UpdateDrag(p image.Point) {
	if !b.dragging {
		return
	}
	b.moveTo(p.Sub(b.dragOffset))
}

func (b *base) EndDrag() {
	b.dragging = false
}

func (b *base) MoveBy(dx, dy int) {
	b.moveTo(b.area.Min.Add(image.Pt(dx, dy)))
}

func (b *base) moveTo(topLeft image.Point) {
	b.area = b.area.Add(topLeft.Sub(b.area.Min))
	b.store.Apply(
		layout.Put(b.key(layout.FieldX), b.area.Min.X),
		layout.Put(b.key(layout.FieldY), b.area.Min.Y),
	)
}

// SetScale resizes the element around its center and persists the result.
func (b *base) SetScale(percent int) {
	percent = clampScale(percent)
	b.resize(percent)
	b.store.Apply(
		layout.Put(b.key(layout.FieldX), b.area.Min.X),
		layout.Put(b.key(layout.FieldY), b.area.Min.Y),
		layout.Put(b.key(layout.FieldScale), percent),
	)
}

func (b *base) resize(percent int) {
	extent := scaleExtent(percent)
	c := center(b.area)
	half := extent / 2
	b.area = image.Rect(c.X-half, c.Y-half, c.X+half, c.Y+half)
	b.scale = percent
	if b.resizer != nil {
		b.resizer.scaled(extent)
	}
}

// SetOpacity sets the idle opacity and persists it.
func (b *base) SetOpacity(percent int) {
	b.idleAlpha = opacityAlpha(percent)
	b.store.Apply(layout.Put(b.key(layout.FieldOpacity), int(b.idleAlpha)))
}

// ResetToDefault drops persisted overrides and restores construction state.
func (b *base) ResetToDefault() {
	changes := make([]layout.Change, 0, len(layout.Fields))
	for _, f := range layout.Fields {
		changes = append(changes, layout.Delete(b.key(f)))
	}
	b.store.Apply(changes...)

	b.area = b.defaultArea
	b.scale = b.defaultScale
	b.idleAlpha = opacityAlpha(DefaultOpacity)
	b.dragging = false
	if b.resizer != nil {
		b.resizer.restored()
	}
}

func (b *base) Owns(pointerID int) bool {
	return b.locks.owns(pointerID)
}

func (b *base) Active() uint32 {
	return b.locks.combined()
}

func (b *base) Describe() Info {
	return Info{
		ID:      b.id,
		Name:    b.name,
		Scale:   b.scale,
		Opacity: int(math.Round(float64(b.idleAlpha) * 100 / 255)),
	}
}

// alpha returns the draw alpha for a region.
func (b *base) alpha(active bool) uint8 {
	if active {
		return 255
	}
	return b.idleAlpha
}

// touchInside reports whether the pointer at index lies inside the element.
func (b *base) touchInside(ev *touch.Event, index int) bool {
	if index < 0 || index >= ev.PointerCount() {
		return false
	}
	return b.HitTest(ev.Pointers[index].Point())
}
