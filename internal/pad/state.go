// Package pad holds the digital input snapshot consumed by the emulation
// backend once per frame.
package pad

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// Digital button groups, matching the two digital words of a CELL pad.
const (
	Digital1 = iota
	Digital2

	DigitalGroups
)

// Digital1 bits.
const (
	Select uint32 = 0x0001
	L3     uint32 = 0x0002
	R3     uint32 = 0x0004
	Start  uint32 = 0x0008
	Up     uint32 = 0x0010
	Right  uint32 = 0x0020
	Down   uint32 = 0x0040
	Left   uint32 = 0x0080
)

// Digital2 bits.
const (
	L2       uint32 = 0x0001
	R2       uint32 = 0x0002
	L1       uint32 = 0x0004
	R1       uint32 = 0x0008
	Triangle uint32 = 0x0010
	Circle   uint32 = 0x0020
	Cross    uint32 = 0x0040
	Square   uint32 = 0x0080
)

// Button names a single output bit.
type Button struct {
	Group int
	Bit   uint32
}

var buttons = map[string]Button{
	"select":   {Digital1, Select},
	"l3":       {Digital1, L3},
	"r3":       {Digital1, R3},
	"start":    {Digital1, Start},
	"up":       {Digital1, Up},
	"right":    {Digital1, Right},
	"down":     {Digital1, Down},
	"left":     {Digital1, Left},
	"l2":       {Digital2, L2},
	"r2":       {Digital2, R2},
	"l1":       {Digital2, L1},
	"r1":       {Digital2, R1},
	"triangle": {Digital2, Triangle},
	"circle":   {Digital2, Circle},
	"cross":    {Digital2, Cross},
	"square":   {Digital2, Square},
}

// ParseButton resolves a button name such as "cross" or "L1".
func ParseButton(name string) (Button, error) {
	b, ok := buttons[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Button{}, fmt.Errorf("unknown button %q", name)
	}
	return b, nil
}

// ButtonNames returns the names of every pressed bit in a group, sorted.
func ButtonNames(group int, mask uint32) []string {
	var names []string
	for name, b := range buttons {
		if b.Group == group && mask&b.Bit != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// State is the working input state written by overlay elements.
type State struct {
	Digital [DigitalGroups]uint32
}

// Apply replaces the bits selected by mask in group with bits. Bits outside
// mask are preserved; bits in mask but not in bits are cleared.
func (s *State) Apply(group int, mask, bits uint32) {
	if group < 0 || group >= DigitalGroups {
		return
	}
	s.Digital[group] = s.Digital[group]&^mask | bits&mask
}

// Reader is the backend-facing view of the snapshot.
type Reader interface {
	ReadDigitalMask(group int) uint32
}

// Publisher hands complete States from the event thread to frame readers.
// Readers never observe a state that is still being written.
type Publisher struct {
	current atomic.Pointer[State]
}

// Publish stores a copy of s as the current snapshot and reports whether it
// differs from the previous one.
func (p *Publisher) Publish(s State) bool {
	prev := p.current.Swap(&s)
	return prev == nil || *prev != s
}

// Snapshot returns the latest published state.
func (p *Publisher) Snapshot() State {
	if s := p.current.Load(); s != nil {
		return *s
	}
	return State{}
}

// ReadDigitalMask returns one digital word of the latest snapshot.
func (p *Publisher) ReadDigitalMask(group int) uint32 {
	if group < 0 || group >= DigitalGroups {
		return 0
	}
	return p.Snapshot().Digital[group]
}
