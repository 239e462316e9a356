// Package scratch turns pointer gestures into coating erasure and drives a
// single card from idle to revealed.
package scratch

import "scratchcards/internal/types"

// DefaultCheckEvery is how many accepted moves pass between two mid-drag
// reveal checks.
const DefaultCheckEvery = 5

// Eraser is the part of the occlusion mask the tracker writes to.
type Eraser interface {
	Erase(from, to types.Point, radius float64)
}

// Tracker converts a gesture's pointer samples into erase calls. Every move
// is joined to the previous sample by exactly one erase, so the scratched
// path has no gaps regardless of pointer speed.
type Tracker struct {
	eraser     Eraser
	radius     float64
	checkEvery int

	active bool
	last   types.Point
	moves  int
}

// NewTracker returns a tracker erasing with the given brush radius. A
// non-positive checkEvery falls back to DefaultCheckEvery.
func NewTracker(e Eraser, radius float64, checkEvery int) *Tracker {
	if checkEvery <= 0 {
		checkEvery = DefaultCheckEvery
	}
	return &Tracker{eraser: e, radius: radius, checkEvery: checkEvery}
}

// Active reports whether a gesture is in progress.
func (t *Tracker) Active() bool { return t.active }

// Start begins a gesture at p and erases a dot there.
func (t *Tracker) Start(p types.Point) {
	t.active = true
	t.last = p
	t.moves = 0
	t.eraser.Erase(p, p, t.radius)
}

// Move extends the stroke to p. It reports whether a throttled reveal check
// is due after this move. Moves outside a gesture are dropped.
func (t *Tracker) Move(p types.Point) bool {
	if !t.active {
		return false
	}
	t.eraser.Erase(t.last, p, t.radius)
	t.last = p
	t.moves++
	return t.moves%t.checkEvery == 0
}

// End finishes the gesture and reports whether one was in progress.
func (t *Tracker) End() bool {
	was := t.active
	t.active = false
	t.last = types.Point{}
	t.moves = 0
	return was
}
