package touch

// Tracker turns per-contact updates into well formed Events.
//
// The first contact produces ActionDown and later ones ActionPointerDown;
// releasing the last contact produces ActionUp. Position updates are
// batched until Frame is called so one Move event carries every pointer.
// The zero value is ready to use.
type Tracker struct {
	pointers []Pointer
	moved    bool
}

// Active returns the number of contacts on the surface.
func (t *Tracker) Active() int {
	return len(t.pointers)
}

// Down adds a contact and returns the resulting event. A contact that is
// already down is moved instead and ok is false.
func (t *Tracker) Down(id int, x, y float64) (ev Event, ok bool) {
	if i := t.index(id); i >= 0 {
		t.Move(id, x, y)
		return Event{}, false
	}

	t.pointers = append(t.pointers, Pointer{ID: id, X: x, Y: y})
	action := ActionPointerDown
	if len(t.pointers) == 1 {
		action = ActionDown
	}
	return t.event(action, len(t.pointers)-1), true
}

// Move updates a contact position. Unknown ids are ignored.
func (t *Tracker) Move(id int, x, y float64) {
	i := t.index(id)
	if i < 0 {
		return
	}
	p := &t.pointers[i]
	if p.X == x && p.Y == y {
		return
	}
	p.X, p.Y = x, y
	t.moved = true
}

// Frame returns a Move event if any contact moved since the last frame.
func (t *Tracker) Frame() (Event, bool) {
	if !t.moved || len(t.pointers) == 0 {
		t.moved = false
		return Event{}, false
	}
	t.moved = false
	return t.event(ActionMove, 0), true
}

// Up removes a contact. The returned event still lists the released pointer.
func (t *Tracker) Up(id int) (Event, bool) {
	i := t.index(id)
	if i < 0 {
		return Event{}, false
	}

	action := ActionPointerUp
	if len(t.pointers) == 1 {
		action = ActionUp
	}
	ev := t.event(action, i)
	t.pointers = append(t.pointers[:i], t.pointers[i+1:]...)
	return ev, true
}

// Cancel drops every contact.
func (t *Tracker) Cancel() (Event, bool) {
	if len(t.pointers) == 0 {
		return Event{}, false
	}
	ev := t.event(ActionCancel, 0)
	t.pointers = t.pointers[:0]
	t.moved = false
	return ev, true
}

func (t *Tracker) index(id int) int {
	for i, p := range t.pointers {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) event(action Action, index int) Event {
	pointers := make([]Pointer, len(t.pointers))
	copy(pointers, t.pointers)
	return Event{Action: action, ActionIndex: index, Pointers: pointers}
}
