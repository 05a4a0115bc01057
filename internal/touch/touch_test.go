package touch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"io"
	"testing"
)

func actions(events []Event) []Action {
	out := make([]Action, len(events))
	for i, ev := range events {
		out[i] = ev.Action
	}
	return out
}

func equalActions(a, b []Action) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTrackerSequence(t *testing.T) {
	var tr Tracker

	ev, ok := tr.Down(7, 10, 10)
	if !ok || ev.Action != ActionDown || ev.ActionIndex != 0 {
		t.Fatalf("first down = %v, %v", ev, ok)
	}

	ev, ok = tr.Down(9, 50, 50)
	if !ok || ev.Action != ActionPointerDown || ev.ActionIndex != 1 || ev.PointerCount() != 2 {
		t.Fatalf("second down = %v, %v", ev, ok)
	}

	if _, ok := tr.Frame(); ok {
		t.Fatal("frame without movement produced an event")
	}

	tr.Move(9, 60, 55)
	ev, ok = tr.Frame()
	if !ok || ev.Action != ActionMove {
		t.Fatalf("frame = %v, %v", ev, ok)
	}
	if i := ev.FindPointerIndex(9); i != 1 || ev.Pointers[i].X != 60 {
		t.Errorf("moved pointer index %d in %v", i, ev)
	}

	ev, ok = tr.Up(7)
	if !ok || ev.Action != ActionPointerUp || ev.ActionIndex != 0 || ev.PointerID(0) != 7 {
		t.Fatalf("pointer up = %v, %v", ev, ok)
	}

	ev, ok = tr.Up(9)
	if !ok || ev.Action != ActionUp || ev.PointerCount() != 1 {
		t.Fatalf("last up = %v, %v", ev, ok)
	}
	if tr.Active() != 0 {
		t.Errorf("Active = %d after all ups", tr.Active())
	}
}

func TestTrackerCancel(t *testing.T) {
	var tr Tracker
	if _, ok := tr.Cancel(); ok {
		t.Fatal("cancel with no contacts produced an event")
	}
	tr.Down(1, 0, 0)
	tr.Down(2, 0, 0)
	ev, ok := tr.Cancel()
	if !ok || ev.Action != ActionCancel || ev.PointerCount() != 2 {
		t.Fatalf("cancel = %v, %v", ev, ok)
	}
	if tr.Active() != 0 {
		t.Error("contacts survived cancel")
	}
}

func TestEventFindPointerIndex(t *testing.T) {
	ev := Event{Pointers: []Pointer{{ID: 4}, {ID: 2}}}
	tests := []struct {
		id   int
		want int
	}{
		{4, 0},
		{2, 1},
		{3, -1},
	}
	for _, tt := range tests {
		if got := ev.FindPointerIndex(tt.id); got != tt.want {
			t.Errorf("FindPointerIndex(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

type rawStream struct {
	buf bytes.Buffer
}

func (r *rawStream) emit(typ, code uint16, value int32) {
	binary.Write(&r.buf, binary.LittleEndian, inputEvent{Type: typ, Code: code, Value: value})
}

func (r *rawStream) syn() {
	r.emit(evSyn, synReport, 0)
}

func TestDecoderMultiTouch(t *testing.T) {
	var raw rawStream

	// finger A lands in slot 0
	raw.emit(evAbs, absMtSlot, 0)
	raw.emit(evAbs, absMtTrackingID, 100)
	raw.emit(evAbs, absMtPositionX, 0)
	raw.emit(evAbs, absMtPositionY, 0)
	raw.syn()

	// finger B lands in slot 1
	raw.emit(evAbs, absMtSlot, 1)
	raw.emit(evAbs, absMtTrackingID, 101)
	raw.emit(evAbs, absMtPositionX, 1000)
	raw.emit(evAbs, absMtPositionY, 500)
	raw.syn()

	// finger A moves
	raw.emit(evAbs, absMtSlot, 0)
	raw.emit(evAbs, absMtPositionX, 500)
	raw.syn()

	// finger A lifts
	raw.emit(evAbs, absMtTrackingID, -1)
	raw.syn()

	// finger B lifts
	raw.emit(evAbs, absMtSlot, 1)
	raw.emit(evAbs, absMtTrackingID, -1)
	raw.syn()

	d := NewDecoder(&raw.buf, AbsRange{0, 1000}, AbsRange{0, 1000}, image.Rect(0, 0, 2000, 1000))

	var got []Event
	for {
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ev)
	}

	want := []Action{ActionDown, ActionPointerDown, ActionMove, ActionPointerUp, ActionUp}
	if !equalActions(actions(got), want) {
		t.Fatalf("actions = %v, want %v", actions(got), want)
	}

	b := got[1].ActionPointer()
	if b.X != 2000 || b.Y != 500 {
		t.Errorf("finger B at (%v, %v), want (2000, 500)", b.X, b.Y)
	}
	a := got[2].Pointers[got[2].FindPointerIndex(0)]
	if a.X != 1000 {
		t.Errorf("finger A moved to x=%v, want 1000", a.X)
	}
}

func decodeAll(t *testing.T, d *Decoder) []Event {
	t.Helper()
	var got []Event
	for {
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			return got
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ev)
	}
}

func TestDecoderTrackingIDReplacedInFrame(t *testing.T) {
	var raw rawStream

	raw.emit(evAbs, absMtSlot, 0)
	raw.emit(evAbs, absMtTrackingID, 10)
	raw.emit(evAbs, absMtPositionX, 100)
	raw.emit(evAbs, absMtPositionY, 100)
	raw.syn()

	// the first finger lifts and a second lands in the same slot
	raw.emit(evAbs, absMtTrackingID, -1)
	raw.emit(evAbs, absMtTrackingID, 11)
	raw.emit(evAbs, absMtPositionX, 900)
	raw.syn()

	raw.emit(evAbs, absMtTrackingID, -1)
	raw.syn()

	d := NewDecoder(&raw.buf, AbsRange{0, 1000}, AbsRange{0, 1000}, image.Rect(0, 0, 1000, 1000))
	got := decodeAll(t, d)

	want := []Action{ActionDown, ActionUp, ActionDown, ActionUp}
	if !equalActions(actions(got), want) {
		t.Fatalf("actions = %v, want %v", actions(got), want)
	}
	if p := got[1].ActionPointer(); p.X != 100 {
		t.Errorf("first finger released at x=%v, want 100", p.X)
	}
	if p := got[2].ActionPointer(); p.X != 900 || p.Y != 100 {
		t.Errorf("second finger down at (%v, %v), want (900, 100)", p.X, p.Y)
	}
}

func TestDecoderIgnoresOutOfRangeSlots(t *testing.T) {
	var raw rawStream

	for _, slot := range []int32{-1, maxSlots, 1 << 30} {
		raw.emit(evAbs, absMtSlot, slot)
		raw.emit(evAbs, absMtTrackingID, 5)
		raw.emit(evAbs, absMtPositionX, 10)
		raw.emit(evAbs, absMtPositionY, 10)
		raw.syn()
	}

	raw.emit(evAbs, absMtSlot, 2)
	raw.emit(evAbs, absMtTrackingID, 6)
	raw.emit(evAbs, absMtPositionX, 20)
	raw.emit(evAbs, absMtPositionY, 20)
	raw.syn()

	d := NewDecoder(&raw.buf, AbsRange{0, 100}, AbsRange{0, 100}, image.Rect(0, 0, 100, 100))
	got := decodeAll(t, d)

	if len(got) != 1 || got[0].Action != ActionDown {
		t.Fatalf("actions = %v, want [Down]", actions(got))
	}
	if p := got[0].ActionPointer(); p.ID != 2 || p.X != 20 {
		t.Errorf("pointer = %+v, want id 2 at x=20", p)
	}
	if len(d.slots) > maxSlots {
		t.Errorf("decoder grew to %d slots", len(d.slots))
	}
}

func TestDecoderPartialEvent(t *testing.T) {
	d := NewDecoder(bytes.NewReader(make([]byte, 10)), AbsRange{0, 1}, AbsRange{0, 1}, image.Rect(0, 0, 1, 1))
	_, err := d.Next()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want ErrUnexpectedEOF", err)
	}
}

func TestStripTapAndSwipe(t *testing.T) {
	s := &Strip{
		Strip:      image.Rect(0, 0, 800, 100),
		Surface:    image.Rect(0, 0, 1600, 1000),
		SwipeSteps: 4,
	}

	tap := s.Tap(image.Pt(400, 50))
	if !equalActions(actions(tap), []Action{ActionDown, ActionUp}) {
		t.Fatalf("tap actions = %v", actions(tap))
	}
	if p := tap[0].ActionPointer(); p.X != 800 || p.Y != 500 {
		t.Errorf("tap mapped to (%v, %v), want (800, 500)", p.X, p.Y)
	}

	swipe := s.Swipe(image.Pt(0, 0), image.Pt(800, 100))
	want := []Action{ActionDown, ActionMove, ActionMove, ActionMove, ActionMove, ActionUp}
	if !equalActions(actions(swipe), want) {
		t.Fatalf("swipe actions = %v, want %v", actions(swipe), want)
	}
	if swipe[0].PointerID(0) == tap[0].PointerID(0) {
		t.Error("swipe reused the tap pointer id")
	}
	last := swipe[len(swipe)-1].ActionPointer()
	if last.X != 1600 || last.Y != 1000 {
		t.Errorf("swipe ended at (%v, %v), want (1600, 1000)", last.X, last.Y)
	}
}

func TestStripPressRelease(t *testing.T) {
	s := &Strip{Strip: image.Rect(0, 0, 100, 100), Surface: image.Rect(0, 0, 100, 100)}

	id, down, ok := s.Press(image.Pt(10, 10))
	if !ok || down.Action != ActionDown {
		t.Fatalf("press = %v, %v", down, ok)
	}
	tap := s.Tap(image.Pt(90, 90))
	if tap[0].Action != ActionPointerDown || tap[1].Action != ActionPointerUp {
		t.Fatalf("tap during press = %v", actions(tap))
	}
	up, ok := s.Release(id)
	if !ok || up.Action != ActionUp {
		t.Fatalf("release = %v, %v", up, ok)
	}
}
