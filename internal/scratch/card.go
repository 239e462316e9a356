package scratch

import (
	"scratchcards/internal/mask"
	"scratchcards/internal/types"
)

// DefaultBrushRadius is the brush radius in CSS pixels.
const DefaultBrushRadius = 20

// Options tune how a card reacts to input.
type Options struct {
	BrushRadius float64
	CheckEvery  int
	// Revealed builds the card already open, with its coating cleared.
	Revealed bool
}

// Hooks connect a card to whoever owns it. The card never mutates round
// state itself; it only asks Locked and reports through Started/Revealed.
type Hooks struct {
	Locked   func() bool
	Started  func()
	Revealed func(content string)
}

// Card is the controller for one card: Idle → Scratching → Revealed.
type Card struct {
	config  types.CardConfig
	mask    *mask.Mask
	tracker *Tracker
	hooks   Hooks

	state   types.CardState
	started bool
}

// NewCard wraps m for the card described by cfg.
func NewCard(cfg types.CardConfig, m *mask.Mask, opts Options, hooks Hooks) *Card {
	radius := opts.BrushRadius
	if radius <= 0 {
		radius = DefaultBrushRadius
	}
	c := &Card{
		config:  cfg,
		mask:    m,
		tracker: NewTracker(m, radius, opts.CheckEvery),
		hooks:   hooks,
		state:   types.CardIdle,
	}
	if opts.Revealed {
		m.ForceClear()
		c.state = types.CardRevealed
	}
	return c
}

// Config returns the card definition the controller was built from.
func (c *Card) Config() types.CardConfig { return c.config }

// State returns the controller state.
func (c *Card) State() types.CardState { return c.state }

// Mask returns the occlusion mask the card scratches.
func (c *Card) Mask() *mask.Mask { return c.mask }

// Revealed reports whether the card is open, by scratching or by force.
func (c *Card) Revealed() bool { return c.state == types.CardRevealed }

// Locked reports the lock handed down by the owner.
func (c *Card) Locked() bool {
	return c.hooks.Locked != nil && c.hooks.Locked()
}

// AttemptStart moves the card into Scratching. It is a silent no-op on a
// locked or revealed card. The owner hears about the first successful start
// only.
func (c *Card) AttemptStart() bool {
	if c.Locked() || c.Revealed() {
		return false
	}
	c.state = types.CardScratching
	if !c.started {
		c.started = true
		if c.hooks.Started != nil {
			c.hooks.Started()
		}
	}
	return true
}

// GestureStart handles a pointer-down at p.
func (c *Card) GestureStart(p types.Point) {
	if !c.AttemptStart() {
		return
	}
	c.tracker.Start(p)
}

// GestureMove handles pointer motion to p.
func (c *Card) GestureMove(p types.Point) {
	if c.Locked() || c.Revealed() {
		return
	}
	if c.tracker.Move(p) {
		c.checkReveal()
	}
}

// GestureEnd handles pointer-up. The reveal check here is unconditional so a
// throttled drag can never skip the reveal.
func (c *Card) GestureEnd() {
	if !c.tracker.End() {
		return
	}
	c.checkReveal()
}

// ForceReveal opens the card without emitting its content.
func (c *Card) ForceReveal() {
	if c.Revealed() {
		return
	}
	c.tracker.End()
	c.mask.ForceClear()
	c.state = types.CardRevealed
}

func (c *Card) checkReveal() {
	if c.Revealed() || c.Locked() {
		return
	}
	if !c.mask.PastThreshold() {
		return
	}
	c.tracker.End()
	c.state = types.CardRevealed
	if c.hooks.Revealed != nil {
		c.hooks.Revealed(c.config.Content)
	}
}
