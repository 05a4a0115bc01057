package overlay

import (
	"errors"
	"image"
	"testing"

	"github.com/phinze/padoverlay/internal/config"
	"github.com/phinze/padoverlay/internal/layout"
	"github.com/phinze/padoverlay/internal/pad"
	"github.com/phinze/padoverlay/internal/touch"
)

func testButton(id string, area image.Rectangle, bit uint32) *Button {
	return NewButton(ButtonConfig{
		ID:     id,
		Area:   area,
		Button: pad.Button{Group: pad.Digital2, Bit: bit},
	}, nil, nil)
}

func mustRegister(t *testing.T, o *Overlay, elements ...Element) {
	t.Helper()
	for _, e := range elements {
		if err := o.Register(e); err != nil {
			t.Fatalf("Register(%s) error = %v", e.ID(), err)
		}
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	o := New(nil)
	mustRegister(t, o, testButton("a", image.Rect(0, 0, 10, 10), pad.Cross))
	err := o.Register(testButton("a", image.Rect(20, 0, 30, 10), pad.Circle))
	if !errors.Is(err, ErrDuplicateElement) {
		t.Errorf("Register() = %v, want ErrDuplicateElement", err)
	}
	if n := len(o.Elements()); n != 1 {
		t.Errorf("got %d elements, want 1", n)
	}
}

func TestTwoPointerDpad(t *testing.T) {
	o := New(nil)
	mustRegister(t, o, testDpad(image.Rect(0, 0, 350, 350), true, nil))

	a := touch.Pointer{ID: 1, X: 10, Y: 175}
	b := touch.Pointer{ID: 2, X: 340, Y: 175}

	o.HandleTouch(touch.Event{Action: touch.ActionDown, Pointers: []touch.Pointer{a}})
	if got := o.ReadDigitalMask(pad.Digital1); got != pad.Left {
		t.Fatalf("after first down = %#x, want Left", got)
	}

	o.HandleTouch(touch.Event{Action: touch.ActionPointerDown, ActionIndex: 1, Pointers: []touch.Pointer{a, b}})
	if got := o.ReadDigitalMask(pad.Digital1); got != pad.Left|pad.Right {
		t.Fatalf("after second down = %#x, want Left|Right", got)
	}

	o.HandleTouch(touch.Event{Action: touch.ActionPointerUp, ActionIndex: 0, Pointers: []touch.Pointer{a, b}})
	if got := o.ReadDigitalMask(pad.Digital1); got != pad.Right {
		t.Fatalf("after first up = %#x, want Right", got)
	}

	o.HandleTouch(touch.Event{Action: touch.ActionUp, Pointers: []touch.Pointer{b}})
	if got := o.ReadDigitalMask(pad.Digital1); got != 0 {
		t.Fatalf("after last up = %#x, want 0", got)
	}
}

func TestDispatchOrderAndOwnership(t *testing.T) {
	first := testButton("first", image.Rect(0, 0, 100, 100), pad.Cross)
	second := testButton("second", image.Rect(50, 0, 150, 100), pad.Circle)
	o := New(nil)
	mustRegister(t, o, first, second)

	if !o.HandleTouch(down(1, 60, 50)) {
		t.Fatal("down on overlap not handled")
	}
	if !first.Owns(1) || second.Owns(1) {
		t.Fatalf("overlap: first owns=%v second owns=%v", first.Owns(1), second.Owns(1))
	}
	if got := o.ReadDigitalMask(pad.Digital2); got != pad.Cross {
		t.Errorf("state = %#x, want Cross", got)
	}

	// a repeated down for an owned pointer stays with its owner
	o.HandleTouch(touch.Event{Action: touch.ActionPointerDown, Pointers: []touch.Pointer{{ID: 1, X: 120, Y: 50}}})
	if second.Owns(1) {
		t.Error("owned pointer offered to another element")
	}
	if got := o.ReadDigitalMask(pad.Digital2); got != pad.Cross {
		t.Errorf("state = %#x, want Cross", got)
	}

	o.HandleTouch(up(1, 120, 50))
	if first.Owns(1) || o.ReadDigitalMask(pad.Digital2) != 0 {
		t.Errorf("after up: owns=%v state=%#x", first.Owns(1), o.ReadDigitalMask(pad.Digital2))
	}
}

func TestDownOutsideEveryElement(t *testing.T) {
	o := New(nil)
	mustRegister(t, o, testButton("a", image.Rect(0, 0, 100, 100), pad.Cross))
	if o.HandleTouch(down(1, 500, 500)) {
		t.Error("down outside every element reported handled")
	}
	if s := o.Snapshot(); s != (pad.State{}) {
		t.Errorf("snapshot = %+v, want zero", s)
	}
}

func TestCancelClearsOverlay(t *testing.T) {
	o := New(nil)
	d := testDpad(image.Rect(0, 0, 350, 350), true, nil)
	b := testButton("cross", image.Rect(400, 0, 500, 100), pad.Cross)
	mustRegister(t, o, d, b)

	p1 := touch.Pointer{ID: 1, X: 10, Y: 10}
	p2 := touch.Pointer{ID: 2, X: 450, Y: 50}
	o.HandleTouch(touch.Event{Action: touch.ActionDown, Pointers: []touch.Pointer{p1}})
	o.HandleTouch(touch.Event{Action: touch.ActionPointerDown, ActionIndex: 1, Pointers: []touch.Pointer{p1, p2}})
	if o.ReadDigitalMask(pad.Digital1) == 0 || o.ReadDigitalMask(pad.Digital2) != pad.Cross {
		t.Fatalf("inputs not held: %+v", o.Snapshot())
	}

	o.HandleTouch(touch.Event{Action: touch.ActionCancel})
	if s := o.Snapshot(); s != (pad.State{}) {
		t.Errorf("snapshot after cancel = %+v", s)
	}
	if d.Owns(1) || b.Owns(2) {
		t.Error("locks survived cancel")
	}
}

func TestEditorAPI(t *testing.T) {
	store := &layout.MemStore{}
	o := New(nil)
	mustRegister(t, o, testDpad(image.Rect(400, 400, 800, 800), false, store))

	var got []Info
	cancel := o.Subscribe(func(info Info) { got = append(got, info) })

	if err := o.SetScale("dpad", 50); err != nil {
		t.Fatalf("SetScale() error = %v", err)
	}
	if err := o.SetOpacity("dpad", 20); err != nil {
		t.Fatalf("SetOpacity() error = %v", err)
	}
	if err := o.MoveBy("dpad", 5, 5); err != nil {
		t.Fatalf("MoveBy() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d notifications, want 3", len(got))
	}
	if got[0].Scale != 50 || got[1].Opacity != 20 || got[2].ID != "dpad" {
		t.Errorf("notifications = %+v", got)
	}

	info, err := o.Describe("dpad")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if info.Scale != 50 || info.Opacity != 20 || info.Name != "Dpad" {
		t.Errorf("Describe() = %+v", info)
	}

	cancel()
	if err := o.ResetToDefault("dpad"); err != nil {
		t.Fatalf("ResetToDefault() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("cancelled subscriber still notified")
	}
	if n := len(store.Snapshot()); n != 0 {
		t.Errorf("store holds %d keys after reset", n)
	}
}

func TestEditorUnknownElement(t *testing.T) {
	o := New(nil)
	checks := map[string]error{
		"SetScale":       o.SetScale("nope", 10),
		"SetOpacity":     o.SetOpacity("nope", 10),
		"MoveBy":         o.MoveBy("nope", 1, 1),
		"ResetToDefault": o.ResetToDefault("nope"),
		"Select":         o.Select("nope"),
	}
	if _, err := o.Describe("nope"); err != nil {
		checks["Describe"] = err
	} else {
		t.Error("Describe(nope) succeeded")
	}
	for name, err := range checks {
		if !errors.Is(err, ErrUnknownElement) {
			t.Errorf("%s() = %v, want ErrUnknownElement", name, err)
		}
	}
	if err := o.MoveSelected(1, 1); !errors.Is(err, ErrNoSelection) {
		t.Errorf("MoveSelected() = %v, want ErrNoSelection", err)
	}
}

func TestSelection(t *testing.T) {
	o := New(nil)
	b := testButton("cross", image.Rect(0, 0, 100, 100), pad.Cross)
	mustRegister(t, o, b)

	if _, ok := o.Selected(); ok {
		t.Fatal("fresh overlay has a selection")
	}
	if err := o.Select("cross"); err != nil {
		t.Fatal(err)
	}
	if err := o.MoveSelected(-4, 7); err != nil {
		t.Fatal(err)
	}
	if got, want := b.Bounds(), image.Rect(-4, 7, 96, 107); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	info, ok := o.Selected()
	if !ok || info.ID != "cross" {
		t.Errorf("Selected() = %+v, %v", info, ok)
	}
}

func TestEditModeDrags(t *testing.T) {
	store := &layout.MemStore{}
	o := New(nil)
	b := NewButton(ButtonConfig{
		ID:     "cross",
		Area:   image.Rect(0, 0, 100, 100),
		Button: pad.Button{Group: pad.Digital2, Bit: pad.Cross},
	}, store, nil)
	mustRegister(t, o, b)

	// a held button is released when editing starts
	o.HandleTouch(down(1, 50, 50))
	o.SetEditing(true)
	if !o.Editing() || o.ReadDigitalMask(pad.Digital2) != 0 || b.Owns(1) {
		t.Fatalf("entering edit mode kept input: %+v", o.Snapshot())
	}

	var notified []Info
	o.Subscribe(func(info Info) { notified = append(notified, info) })

	o.HandleTouch(down(2, 10, 10))
	o.HandleTouch(move(touch.Pointer{ID: 2, X: 110, Y: 60}))
	o.HandleTouch(up(2, 110, 60))

	if got, want := b.Bounds(), image.Rect(100, 50, 200, 150); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if x, _ := store.Int("cross_x"); x != 100 {
		t.Errorf("persisted x = %d, want 100", x)
	}
	if o.ReadDigitalMask(pad.Digital2) != 0 {
		t.Error("edit mode produced input")
	}
	if len(notified) != 2 {
		t.Errorf("got %d notifications, want 2 (select and drop)", len(notified))
	}
	if info, ok := o.Selected(); !ok || info.ID != "cross" {
		t.Errorf("Selected() = %+v, %v", info, ok)
	}

	o.SetEditing(false)
	o.HandleTouch(down(3, 150, 100))
	if o.ReadDigitalMask(pad.Digital2) != pad.Cross {
		t.Error("input not restored after leaving edit mode")
	}
}

func TestLeavingEditModeDropsDrag(t *testing.T) {
	store := &layout.MemStore{}
	o := New(nil)
	b := NewButton(ButtonConfig{
		ID:     "cross",
		Area:   image.Rect(0, 0, 100, 100),
		Button: pad.Button{Group: pad.Digital2, Bit: pad.Cross},
	}, store, nil)
	mustRegister(t, o, b)

	var notified []Info
	o.Subscribe(func(info Info) { notified = append(notified, info) })

	o.SetEditing(true)
	o.HandleTouch(down(2, 10, 10))
	o.HandleTouch(move(touch.Pointer{ID: 2, X: 60, Y: 10}))
	o.SetEditing(false)

	if len(notified) != 2 {
		t.Fatalf("got %d notifications, want 2 (select and drop)", len(notified))
	}
	if notified[1].ID != "cross" {
		t.Errorf("drop notified %q, want cross", notified[1].ID)
	}
	if x, _ := store.Int("cross_x"); x != 50 {
		t.Errorf("persisted x = %d, want 50", x)
	}

	// the old drag pointer no longer moves anything
	o.SetEditing(true)
	o.HandleTouch(move(touch.Pointer{ID: 2, X: 90, Y: 10}))
	if got, want := b.Bounds(), image.Rect(50, 0, 150, 100); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if len(notified) != 2 {
		t.Errorf("got %d notifications after re-entering, want 2", len(notified))
	}
}

func TestBuildDefault(t *testing.T) {
	cfg := config.Default()
	o, err := Build(cfg, &layout.MemStore{}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got, want := len(o.Elements()), len(cfg.Elements); got != want {
		t.Fatalf("got %d elements, want %d", got, want)
	}

	info, err := o.Describe("dpad")
	if err != nil {
		t.Fatal(err)
	}
	if info.Scale != 39 || info.Opacity != DefaultOpacity {
		t.Errorf("dpad info = %+v", info)
	}

	// cross sits at (1610, 840) with a 140px side
	o.HandleTouch(down(1, 1680, 910))
	if got := o.ReadDigitalMask(pad.Digital2); got != pad.Cross {
		t.Errorf("cross press = %#x, want %#x", got, pad.Cross)
	}
}

func TestBuildRejectsMixedGroups(t *testing.T) {
	cfg := &config.Config{
		Surface: config.Surface{Width: 100, Height: 100},
		Elements: []config.Element{{
			ID: "d", Kind: config.KindDpad,
			Rect:    config.Rect{Width: 50, Height: 50},
			Buttons: config.DpadButtons{Up: "up", Left: "left", Right: "right", Down: "cross"},
		}},
	}
	if _, err := Build(cfg, nil, nil); err == nil {
		t.Error("Build() accepted a dpad spanning two groups")
	}
}

func TestBuildUsesPersistedLayout(t *testing.T) {
	store := layout.NewMemStore(map[string]int{"cross_x": 10, "cross_y": 20})
	o, err := Build(config.Default(), store, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range o.Elements() {
		if e.ID() == "cross" {
			if got := e.Bounds().Min; got != image.Pt(10, 20) {
				t.Errorf("cross at %v, want (10, 20)", got)
			}
			return
		}
	}
	t.Error("cross not built")
}
