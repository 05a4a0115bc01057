package overlay

import (
	"github.com/phinze/padoverlay/internal/touch"
)

const unbound = -1

// lockTable binds platform pointer ids to slots so a finger keeps driving
// the element it landed on for the whole gesture.
type lockTable struct {
	n       int
	pointer [MaxSlots]int
	mask    [MaxSlots]uint32
}

func newLockTable(multitouch bool) lockTable {
	t := lockTable{n: 1}
	if multitouch {
		t.n = MaxSlots
	}
	for i := range t.pointer {
		t.pointer[i] = unbound
	}
	return t
}

// track applies one event to the table. eval computes a slot's mask from a
// pointer position. It reports whether any slot was bound, recomputed or
// released.
func (t *lockTable) track(ev *touch.Event, pointerIndex int, eval func(x, y float64) uint32) bool {
	switch {
	case ev.Action.IsDown():
		if pointerIndex < 0 || pointerIndex >= ev.PointerCount() {
			return false
		}
		p := ev.Pointers[pointerIndex]
		for s := 0; s < t.n; s++ {
			if t.pointer[s] == unbound {
				t.pointer[s] = p.ID
			} else if t.pointer[s] != p.ID {
				continue
			}
			t.mask[s] = eval(p.X, p.Y)
			return true
		}

	case ev.Action == touch.ActionMove:
		hit := false
		for s := 0; s < t.n; s++ {
			if t.pointer[s] == unbound {
				continue
			}
			i := ev.FindPointerIndex(t.pointer[s])
			if i < 0 {
				// the platform dropped our pointer from this frame
				continue
			}
			p := ev.Pointers[i]
			t.mask[s] = eval(p.X, p.Y)
			hit = true
		}
		return hit

	case ev.Action.IsUp():
		if pointerIndex < 0 || pointerIndex >= ev.PointerCount() {
			return false
		}
		id := ev.PointerID(pointerIndex)
		for s := 0; s < t.n; s++ {
			if t.pointer[s] != unbound && t.pointer[s] == id {
				t.release(s)
				return true
			}
		}

	case ev.Action == touch.ActionCancel:
		hit := false
		for s := 0; s < t.n; s++ {
			if t.pointer[s] != unbound {
				t.release(s)
				hit = true
			}
		}
		return hit
	}
	return false
}

func (t *lockTable) release(s int) {
	t.pointer[s] = unbound
	t.mask[s] = 0
}

// combined returns the OR of every slot's mask.
func (t *lockTable) combined() uint32 {
	var m uint32
	for s := 0; s < t.n; s++ {
		m |= t.mask[s]
	}
	return m
}

// owns reports whether id is bound to any slot.
func (t *lockTable) owns(id int) bool {
	for s := 0; s < t.n; s++ {
		if t.pointer[s] == id && id != unbound {
			return true
		}
	}
	return false
}

// bound returns the number of bound slots.
func (t *lockTable) bound() int {
	n := 0
	for s := 0; s < t.n; s++ {
		if t.pointer[s] != unbound {
			n++
		}
	}
	return n
}
