package touch

import (
	"image"
)

const defaultSwipeSteps = 8

// Strip converts Stream Deck touch strip gestures into touch Events on a
// larger surface. The strip only reports taps, long presses and swipes, so
// each gesture is replayed as a synthetic contact.
type Strip struct {
	// Strip is the touch strip area in strip pixels.
	Strip image.Rectangle
	// Surface is the overlay area the strip is stretched over.
	Surface image.Rectangle
	// SwipeSteps is the number of intermediate moves in a swipe.
	SwipeSteps int

	tracker Tracker
	nextID  int
}

// Tap returns a down/up pair at p.
func (s *Strip) Tap(p image.Point) []Event {
	id, down, ok := s.press(p)
	if !ok {
		return nil
	}
	events := []Event{down}
	if up, ok := s.tracker.Up(id); ok {
		events = append(events, up)
	}
	return events
}

// Press starts a contact at p that stays down until Release is called with
// the returned id.
func (s *Strip) Press(p image.Point) (int, Event, bool) {
	return s.press(p)
}

// Release ends a contact started by Press.
func (s *Strip) Release(id int) (Event, bool) {
	return s.tracker.Up(id)
}

// Swipe returns a contact travelling from origin to dest.
func (s *Strip) Swipe(origin, dest image.Point) []Event {
	id, down, ok := s.press(origin)
	if !ok {
		return nil
	}
	events := []Event{down}

	steps := s.SwipeSteps
	if steps <= 0 {
		steps = defaultSwipeSteps
	}
	ox, oy := s.Map(origin)
	dx, dy := s.Map(dest)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		s.tracker.Move(id, ox+(dx-ox)*t, oy+(dy-oy)*t)
		if ev, ok := s.tracker.Frame(); ok {
			events = append(events, ev)
		}
	}

	if up, ok := s.tracker.Up(id); ok {
		events = append(events, up)
	}
	return events
}

// Map converts a strip point into surface coordinates.
func (s *Strip) Map(p image.Point) (float64, float64) {
	sw, sh := s.Strip.Dx(), s.Strip.Dy()
	if sw <= 0 || sh <= 0 || s.Surface.Empty() {
		return float64(p.X), float64(p.Y)
	}
	x := float64(s.Surface.Min.X) + float64(p.X-s.Strip.Min.X)*float64(s.Surface.Dx())/float64(sw)
	y := float64(s.Surface.Min.Y) + float64(p.Y-s.Strip.Min.Y)*float64(s.Surface.Dy())/float64(sh)
	return x, y
}

func (s *Strip) press(p image.Point) (int, Event, bool) {
	id := s.nextID
	s.nextID++
	x, y := s.Map(p)
	ev, ok := s.tracker.Down(id, x, y)
	return id, ev, ok
}
