// Package touch models platform multi-touch event streams.
//
// An Event carries every pointer currently on the surface plus the action
// that produced it. Pointer ids are stable for the lifetime of one contact;
// pointer indexes are only valid within a single Event.
package touch

import (
	"fmt"
	"image"
)

// Action is the masked action of a touch event. Values follow the Android
// MotionEvent numbering so recorded streams stay comparable.
type Action int

const (
	ActionDown        Action = 0
	ActionUp          Action = 1
	ActionMove        Action = 2
	ActionCancel      Action = 3
	ActionPointerDown Action = 5
	ActionPointerUp   Action = 6
)

func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionUp:
		return "up"
	case ActionMove:
		return "move"
	case ActionCancel:
		return "cancel"
	case ActionPointerDown:
		return "pointer_down"
	case ActionPointerUp:
		return "pointer_up"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// IsDown reports whether a starts a contact.
func (a Action) IsDown() bool {
	return a == ActionDown || a == ActionPointerDown
}

// IsUp reports whether a ends a contact.
func (a Action) IsUp() bool {
	return a == ActionUp || a == ActionPointerUp
}

// Pointer is one contact within an event.
type Pointer struct {
	ID   int
	X, Y float64
}

// Point returns the pointer position truncated to whole pixels.
func (p Pointer) Point() image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// Event is one entry of the platform touch feed.
type Event struct {
	Action Action
	// ActionIndex is the index in Pointers of the contact that went down or
	// up. It is 0 for move and cancel events.
	ActionIndex int
	Pointers    []Pointer
}

// PointerCount returns the number of pointers in the event.
func (e *Event) PointerCount() int {
	return len(e.Pointers)
}

// PointerID returns the id of the pointer at index i.
func (e *Event) PointerID(i int) int {
	return e.Pointers[i].ID
}

// FindPointerIndex returns the index of the pointer with the given id, or -1.
func (e *Event) FindPointerIndex(id int) int {
	for i, p := range e.Pointers {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ActionPointer returns the pointer the action refers to.
func (e *Event) ActionPointer() Pointer {
	return e.Pointers[e.ActionIndex]
}

func (e Event) String() string {
	return fmt.Sprintf("%s[%d] %v", e.Action, e.ActionIndex, e.Pointers)
}
