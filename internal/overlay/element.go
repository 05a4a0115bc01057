// Package overlay implements the virtual controller overlay: elements that
// map touches to pad bits, and the Overlay that dispatches touch events to
// them and exposes the editing API.
package overlay

import (
	"errors"
	"image"
	"image/draw"

	"github.com/phinze/padoverlay/internal/pad"
	"github.com/phinze/padoverlay/internal/touch"
)

const (
	// BaseExtent is the reference size in pixels of an element at 100% scale.
	BaseExtent = 1024

	// ScaleMin and ScaleMax bound the accepted scale percentage.
	ScaleMin = 1
	ScaleMax = 200

	// DefaultOpacity is the idle opacity percentage of a fresh element.
	DefaultOpacity = 50

	// MaxSlots is the number of simultaneous pointers one element honors
	// when multitouch is enabled.
	MaxSlots = 2
)

var (
	ErrUnknownElement   = errors.New("unknown overlay element")
	ErrDuplicateElement = errors.New("duplicate overlay element")
	ErrNoSelection      = errors.New("no overlay element selected")
)

// Info describes an element for the editor.
type Info struct {
	ID      string
	Name    string
	Scale   int
	Opacity int
}

// Element is one touch region of the overlay.
type Element interface {
	ID() string
	Bounds() image.Rectangle

	// HitTest reports whether p lies inside the element.
	HitTest(p image.Point) bool

	BeginDrag(p image.Point)
	UpdateDrag(p image.Point)
	EndDrag()
	MoveBy(dx, dy int)

	SetScale(percent int)
	SetOpacity(percent int)
	ResetToDefault()

	// OnTouch runs the pointer-lock protocol for the pointer at
	// pointerIndex and writes the element's output bits into st. It
	// reports whether the event was consumed.
	OnTouch(ev *touch.Event, pointerIndex int, st *pad.State) bool

	// Owns reports whether the pointer id is locked to this element.
	Owns(pointerID int) bool

	// Active returns the merged ActivationMask of all slots.
	Active() uint32

	Draw(dst draw.Image)
	Describe() Info
}
