package overlay

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/phinze/padoverlay/internal/pad"
	"github.com/phinze/padoverlay/internal/touch"
	"go.uber.org/zap"
)

// Overlay dispatches touch events to its elements in registration order and
// publishes the resulting pad state. All entry points are serialised so
// callbacks arriving on device goroutines see a single event thread.
type Overlay struct {
	mu       sync.Mutex
	logger   *zap.Logger
	elements []Element
	byID     map[string]Element

	state     pad.State
	publisher pad.Publisher

	editing     bool
	selected    Element
	dragPointer int

	subMu   sync.Mutex
	subs    map[int]func(Info)
	nextSub int
}

var _ pad.Reader = (*Overlay)(nil)

// New creates an empty overlay.
func New(logger *zap.Logger) *Overlay {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Overlay{
		logger:      logger.Named("overlay"),
		byID:        make(map[string]Element),
		dragPointer: unbound,
		subs:        make(map[int]func(Info)),
	}
	o.publisher.Publish(o.state)
	return o
}

// Register appends an element. Elements registered earlier win hit ties.
func (o *Overlay) Register(e Element) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.byID[e.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateElement, e.ID())
	}
	o.elements = append(o.elements, e)
	o.byID[e.ID()] = e
	o.logger.Debug("Registered element", zap.String("element", e.ID()), zap.Stringer("bounds", e.Bounds()))
	return nil
}

// Elements returns the registered elements in order.
func (o *Overlay) Elements() []Element {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Element(nil), o.elements...)
}

// HandleTouch runs one dispatch pass and publishes the resulting snapshot.
// It reports whether any element consumed the event.
func (o *Overlay) HandleTouch(ev touch.Event) bool {
	o.mu.Lock()
	var (
		handled bool
		notify  *Info
	)
	if o.editing {
		handled, notify = o.handleEdit(&ev)
	} else {
		handled = o.dispatch(&ev)
	}
	if o.publisher.Publish(o.state) {
		o.logger.Debug("Published pad state",
			zap.Strings("digital1", pad.ButtonNames(pad.Digital1, o.state.Digital[pad.Digital1])),
			zap.Strings("digital2", pad.ButtonNames(pad.Digital2, o.state.Digital[pad.Digital2])),
		)
	}
	o.mu.Unlock()

	if notify != nil {
		o.notify(*notify)
	}
	return handled
}

func (o *Overlay) dispatch(ev *touch.Event) bool {
	if !ev.Action.IsDown() {
		handled := false
		for _, e := range o.elements {
			if e.OnTouch(ev, ev.ActionIndex, &o.state) {
				handled = true
			}
		}
		return handled
	}

	if ev.ActionIndex < 0 || ev.ActionIndex >= ev.PointerCount() {
		return false
	}
	p := ev.ActionPointer()

	// a pointer already locked somewhere stays with its owner
	for _, e := range o.elements {
		if e.Owns(p.ID) {
			return e.OnTouch(ev, ev.ActionIndex, &o.state)
		}
	}

	pt := p.Point()
	for _, e := range o.elements {
		if !e.HitTest(pt) {
			continue
		}
		if e.OnTouch(ev, ev.ActionIndex, &o.state) {
			return true
		}
	}
	return false
}

// handleEdit drags the element under the first pointer instead of
// producing input.
func (o *Overlay) handleEdit(ev *touch.Event) (bool, *Info) {
	switch {
	case ev.Action.IsDown():
		if o.dragPointer != unbound || ev.ActionIndex < 0 || ev.ActionIndex >= ev.PointerCount() {
			return false, nil
		}
		p := ev.ActionPointer()
		for _, e := range o.elements {
			if e.HitTest(p.Point()) {
				o.selected = e
				o.dragPointer = p.ID
				e.BeginDrag(p.Point())
				info := e.Describe()
				return true, &info
			}
		}

	case ev.Action == touch.ActionMove:
		if o.dragPointer == unbound || o.selected == nil {
			return false, nil
		}
		if i := ev.FindPointerIndex(o.dragPointer); i >= 0 {
			o.selected.UpdateDrag(ev.Pointers[i].Point())
			return true, nil
		}

	case ev.Action.IsUp():
		if o.dragPointer == unbound || ev.ActionIndex < 0 || ev.ActionIndex >= ev.PointerCount() ||
			ev.PointerID(ev.ActionIndex) != o.dragPointer {
			return false, nil
		}
		return true, o.endDrag()

	case ev.Action == touch.ActionCancel:
		if o.dragPointer != unbound {
			return true, o.endDrag()
		}
	}
	return false, nil
}

func (o *Overlay) endDrag() *Info {
	o.dragPointer = unbound
	if o.selected == nil {
		return nil
	}
	o.selected.EndDrag()
	info := o.selected.Describe()
	return &info
}

// SetEditing switches edit mode. Entering it cancels every held input;
// leaving it drops an in-progress drag where it is.
func (o *Overlay) SetEditing(on bool) {
	o.mu.Lock()
	if on == o.editing {
		o.mu.Unlock()
		return
	}
	var dropped *Info
	if on {
		o.dispatch(&touch.Event{Action: touch.ActionCancel})
		o.publisher.Publish(o.state)
	} else if o.dragPointer != unbound {
		dropped = o.endDrag()
	}
	o.editing = on
	o.mu.Unlock()

	o.logger.Info("Edit mode changed", zap.Bool("editing", on))
	if dropped != nil {
		o.notify(*dropped)
	}
}

// Editing reports whether touches currently drag elements.
func (o *Overlay) Editing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.editing
}

// Draw renders every element onto dst in registration order.
func (o *Overlay) Draw(dst draw.Image) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.elements {
		e.Draw(dst)
	}
}

// Bounds returns the union of every element's bounds.
func (o *Overlay) Bounds() image.Rectangle {
	o.mu.Lock()
	defer o.mu.Unlock()
	var r image.Rectangle
	for _, e := range o.elements {
		r = r.Union(e.Bounds())
	}
	return r
}

// ReadDigitalMask returns the published word for group.
func (o *Overlay) ReadDigitalMask(group int) uint32 {
	return o.publisher.ReadDigitalMask(group)
}

// Snapshot returns the last published state.
func (o *Overlay) Snapshot() pad.State {
	return o.publisher.Snapshot()
}

// Subscribe registers fn to be called after every layout mutation with the
// affected element's Info. The returned func removes the subscription.
func (o *Overlay) Subscribe(fn func(Info)) (cancel func()) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	return func() {
		o.subMu.Lock()
		defer o.subMu.Unlock()
		delete(o.subs, id)
	}
}

func (o *Overlay) notify(info Info) {
	o.subMu.Lock()
	fns := make([]func(Info), 0, len(o.subs))
	for id := 0; id < o.nextSub; id++ {
		if fn, ok := o.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	o.subMu.Unlock()

	for _, fn := range fns {
		fn(info)
	}
}

// mutate runs fn on the element with id and notifies subscribers.
func (o *Overlay) mutate(id string, fn func(Element)) error {
	o.mu.Lock()
	e, ok := o.byID[id]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownElement, id)
	}
	fn(e)
	info := e.Describe()
	o.mu.Unlock()

	o.notify(info)
	return nil
}

// SetScale resizes an element around its centre.
func (o *Overlay) SetScale(id string, percent int) error {
	return o.mutate(id, func(e Element) { e.SetScale(percent) })
}

// SetOpacity sets an element's idle opacity.
func (o *Overlay) SetOpacity(id string, percent int) error {
	return o.mutate(id, func(e Element) { e.SetOpacity(percent) })
}

// MoveBy translates an element.
func (o *Overlay) MoveBy(id string, dx, dy int) error {
	return o.mutate(id, func(e Element) { e.MoveBy(dx, dy) })
}

// ResetToDefault drops an element's persisted layout.
func (o *Overlay) ResetToDefault(id string) error {
	return o.mutate(id, func(e Element) { e.ResetToDefault() })
}

// Describe returns an element's editor info.
func (o *Overlay) Describe(id string) (Info, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.byID[id]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownElement, id)
	}
	return e.Describe(), nil
}

// Select makes id the target of the selection shortcuts.
func (o *Overlay) Select(id string) error {
	o.mu.Lock()
	e, ok := o.byID[id]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownElement, id)
	}
	o.selected = e
	info := e.Describe()
	o.mu.Unlock()

	o.notify(info)
	return nil
}

// Selected returns the selected element's info, if any.
func (o *Overlay) Selected() (Info, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected == nil {
		return Info{}, false
	}
	return o.selected.Describe(), true
}

// MoveSelected nudges the selected element.
func (o *Overlay) MoveSelected(dx, dy int) error {
	info, ok := o.Selected()
	if !ok {
		return ErrNoSelection
	}
	return o.MoveBy(info.ID, dx, dy)
}
