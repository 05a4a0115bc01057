package touch

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
)

// Linux input event types and codes used by multi-touch protocol B.
const (
	evSyn = 0x00
	evAbs = 0x03

	synReport = 0x00

	absMtSlot        = 0x2f
	absMtPositionX   = 0x35
	absMtPositionY   = 0x36
	absMtTrackingID  = 0x39
	inputEventLength = 24

	// maxSlots bounds the slot numbers accepted from a device.
	maxSlots = 64
)

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec, Usec  int64
	Type, Code uint16
	Value      int32
}

// AbsRange is the reported range of an absolute axis.
type AbsRange struct {
	Min, Max int32
}

// scale maps v from the axis range onto [lo, lo+size).
func (r AbsRange) scale(v int32, lo, size int) float64 {
	span := float64(r.Max - r.Min)
	if span <= 0 {
		return float64(lo)
	}
	return float64(lo) + float64(size)*float64(v-r.Min)/span
}

type mtSlot struct {
	trackingID int32
	sentID     int32 // tracking id last reported as down
	x, y       int32
	active     bool
	changed    bool
}

// Decoder reads a Linux evdev multi-touch (protocol B) stream and produces
// Events in surface coordinates.
type Decoder struct {
	r      *bufio.Reader
	x, y   AbsRange
	bounds image.Rectangle

	slots   []mtSlot
	current int
	tracker Tracker
	pending []Event
}

// NewDecoder creates a Decoder reading raw input_event records from r. The
// x and y ranges are the device's ABS_MT_POSITION ranges; positions are
// mapped onto bounds.
func NewDecoder(r io.Reader, x, y AbsRange, bounds image.Rectangle) *Decoder {
	return &Decoder{
		r:      bufio.NewReaderSize(r, 64*inputEventLength),
		x:      x,
		y:      y,
		bounds: bounds,
		slots:  []mtSlot{{trackingID: -1}},
	}
}

// Next returns the next touch event. It returns io.EOF when the stream ends.
func (d *Decoder) Next() (Event, error) {
	for len(d.pending) == 0 {
		if err := d.read(); err != nil {
			return Event{}, err
		}
	}
	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, nil
}

// read consumes input events up to and including the next SYN_REPORT.
func (d *Decoder) read() error {
	for {
		var ie inputEvent
		if err := binary.Read(d.r, binary.LittleEndian, &ie); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("partial input event: %w", err)
			}
			return err
		}
		d.handle(ie)
		if ie.Type == evSyn && ie.Code == synReport {
			return nil
		}
	}
}

func (d *Decoder) handle(ie inputEvent) {
	switch ie.Type {
	case evSyn:
		if ie.Code == synReport {
			d.sync()
		}
	case evAbs:
		switch ie.Code {
		case absMtSlot:
			if ie.Value < 0 || ie.Value >= maxSlots {
				d.current = -1
				return
			}
			d.current = int(ie.Value)
			for len(d.slots) <= d.current {
				d.slots = append(d.slots, mtSlot{trackingID: -1})
			}
		case absMtTrackingID:
			if s := d.slot(); s != nil {
				s.trackingID = ie.Value
				s.changed = true
			}
		case absMtPositionX:
			if s := d.slot(); s != nil {
				s.x = ie.Value
				s.changed = true
			}
		case absMtPositionY:
			if s := d.slot(); s != nil {
				s.y = ie.Value
				s.changed = true
			}
		}
	}
}

// slot returns the slot selected by the last ABS_MT_SLOT, or nil when that
// value was out of range.
func (d *Decoder) slot() *mtSlot {
	if d.current < 0 {
		return nil
	}
	return &d.slots[d.current]
}

// sync turns the accumulated slot changes into events: moves of contacts that
// stay down, then releases, then new contacts. A slot whose tracking id
// changed within one frame is reported as a release followed by a new contact.
func (d *Decoder) sync() {
	var ups, downs []int
	for i := range d.slots {
		s := &d.slots[i]
		if !s.changed {
			continue
		}
		s.changed = false

		switch {
		case s.active && s.trackingID < 0:
			ups = append(ups, i)
		case s.active && s.trackingID != s.sentID:
			ups = append(ups, i)
			downs = append(downs, i)
		case !s.active && s.trackingID >= 0:
			downs = append(downs, i)
		case s.active:
			x, y := d.position(s)
			d.tracker.Move(i, x, y)
		}
	}

	if ev, ok := d.tracker.Frame(); ok {
		d.pending = append(d.pending, ev)
	}
	for _, i := range ups {
		d.slots[i].active = false
		if ev, ok := d.tracker.Up(i); ok {
			d.pending = append(d.pending, ev)
		}
	}
	for _, i := range downs {
		s := &d.slots[i]
		s.active = true
		s.sentID = s.trackingID
		x, y := d.position(s)
		if ev, ok := d.tracker.Down(i, x, y); ok {
			d.pending = append(d.pending, ev)
		}
	}
}

func (d *Decoder) position(s *mtSlot) (float64, float64) {
	return d.x.scale(s.x, d.bounds.Min.X, d.bounds.Dx()),
		d.y.scale(s.y, d.bounds.Min.Y, d.bounds.Dy())
}
