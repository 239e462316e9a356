// Package round holds the round state machine: which cards exist in a round,
// which of them may be scratched, and how start, shuffle, replay and reset
// are sequenced.
package round

import (
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"scratchcards/internal/mask"
	"scratchcards/internal/scratch"
	"scratchcards/internal/types"
)

const (
	MinActive = 1
	MaxActive = 5

	DefaultRevealDelay = 500 * time.Millisecond
)

// DefaultSurface is used when no card size is configured.
var DefaultSurface = types.Surface{Width: 300, Height: 150, PixelRatio: 1}

// ClampActive bounds an active-card count to [MinActive, MaxActive].
func ClampActive(n int) int {
	return lo.Clamp(n, MinActive, MaxActive)
}

// Config holds everything a Machine needs besides the card list.
type Config struct {
	ActiveCount int
	Surface     types.Surface
	Theme       mask.Theme
	Card        scratch.Options
	RevealDelay time.Duration

	Rand      *rand.Rand
	Scheduler Scheduler
	// Guard runs scheduled callbacks. Callers that serialize access to the
	// machine with a lock pass a function that takes it.
	Guard func(func())
	// Observer receives every emitted event.
	Observer  func(Event)
	NewSlotID func() string
}

// RoundCard is a card config bound into one round.
type RoundCard struct {
	Slot     string
	Config   types.CardConfig
	Revealed bool
	IsWinner bool

	card *scratch.Card
}

// Mask returns the card's occlusion mask.
func (rc *RoundCard) Mask() *mask.Mask { return rc.card.Mask() }

// State returns the controller state of the card.
func (rc *RoundCard) State() types.CardState { return rc.card.State() }

// Machine owns the round. It is not safe for concurrent use; callers
// serialize access and route timer callbacks through Config.Guard.
type Machine struct {
	cfg Config

	configs []types.CardConfig
	shuffle bool

	// permuted reports whether the current cards were dealt in random order.
	permuted bool

	phase   types.Phase
	cards   []*RoundCard
	started string
	winner  string
	result  string

	pending    Timer
	generation uint64
}

// NewMachine returns a machine in the setup phase.
func NewMachine(cfg Config) *Machine {
	if cfg.ActiveCount == 0 {
		cfg.ActiveCount = MaxActive
	}
	cfg.ActiveCount = ClampActive(cfg.ActiveCount)
	if cfg.Surface.Width <= 0 || cfg.Surface.Height <= 0 {
		cfg.Surface = DefaultSurface
	}
	if cfg.Theme.Name == "" {
		cfg.Theme = mask.DefaultTheme
	}
	if cfg.RevealDelay <= 0 {
		cfg.RevealDelay = DefaultRevealDelay
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = WallClock
	}
	if cfg.Guard == nil {
		cfg.Guard = func(f func()) { f() }
	}
	if cfg.NewSlotID == nil {
		cfg.NewSlotID = uuid.NewString
	}
	return &Machine{cfg: cfg, phase: types.PhaseSetup}
}

// ActiveCount is the clamped number of cards a round deals.
func (m *Machine) ActiveCount() int { return m.cfg.ActiveCount }

// Phase returns the current round phase.
func (m *Machine) Phase() types.Phase { return m.phase }

// HasRound reports whether a round is in progress or finished.
func (m *Machine) HasRound() bool { return m.phase != types.PhaseSetup }

// StartedSlot is the slot being scratched, or empty.
func (m *Machine) StartedSlot() string { return m.started }

// WinnerSlot is the revealed slot once the round is finished, or empty.
func (m *Machine) WinnerSlot() string { return m.winner }

// Result is the content of the winning card once the round is finished.
func (m *Machine) Result() string { return m.result }

// Shuffled reports whether the current cards were dealt in random order,
// either by a shuffled Start or by Shuffle.
func (m *Machine) Shuffled() bool { return m.permuted }

// Cards returns the round's cards in slot order.
func (m *Machine) Cards() []*RoundCard { return m.cards }

// Card looks up a round card by slot.
func (m *Machine) Card(slot string) (*RoundCard, bool) {
	return lo.Find(m.cards, func(rc *RoundCard) bool { return rc.Slot == slot })
}

// Start builds a fresh round from configs, capped to the active count.
// Any pending forced reveal from an earlier round is cancelled.
func (m *Machine) Start(configs []types.CardConfig, shuffle bool) {
	m.configs = slices.Clone(lo.Slice(configs, 0, m.cfg.ActiveCount))
	m.shuffle = shuffle
	m.build(shuffle, EventRoundStarted)
}

// Shuffle deals the same configs again in a new random order. It is refused
// once a card has been started or the round is over.
func (m *Machine) Shuffle() bool {
	if m.phase != types.PhasePlaying || m.started != "" {
		return false
	}
	m.build(true, EventRoundShuffled)
	return true
}

// Replay restarts with the configs and shuffle flag of the last Start. It
// works mid-round as well as after the round finished.
func (m *Machine) Replay() bool {
	if !m.HasRound() {
		return false
	}
	m.Start(m.configs, m.shuffle)
	return true
}

// ResetToSetup throws the round away and returns to the setup phase.
func (m *Machine) ResetToSetup() {
	m.cancelPending()
	m.generation++
	m.configs = nil
	m.cards = nil
	m.phase = types.PhaseSetup
	m.permuted = false
	m.started, m.winner, m.result = "", "", ""
	m.emit(Event{Kind: EventRoundReset})
}

// Locked reports whether the card in slot refuses gesture input. A card is
// locked once the round is finished unless it won, or while another card is
// being scratched.
func (m *Machine) Locked(slot string) bool {
	switch m.phase {
	case types.PhaseFinished:
		return slot != m.winner
	case types.PhasePlaying:
		return m.started != "" && m.started != slot
	default:
		return true
	}
}

// OnCardScratchStarted records slot as the card being scratched, locking all
// others. Only the first call in a round has any effect.
func (m *Machine) OnCardScratchStarted(slot string) bool {
	if m.phase != types.PhasePlaying || m.started != "" {
		return false
	}
	if _, ok := m.Card(slot); !ok {
		return false
	}
	m.started = slot
	m.emit(Event{Kind: EventScratchStarted, Slot: slot})
	return true
}

// OnCardRevealed finishes the round with slot as the winner and schedules the
// forced reveal of every other card.
func (m *Machine) OnCardRevealed(slot, content string) bool {
	if m.phase != types.PhasePlaying {
		return false
	}
	rc, ok := m.Card(slot)
	if !ok {
		return false
	}
	m.phase = types.PhaseFinished
	m.winner = slot
	m.started = ""
	m.result = content
	rc.Revealed = true
	rc.IsWinner = true
	m.emit(Event{Kind: EventCardRevealed, Slot: slot, Payload: CardRevealedPayload{CardID: rc.Config.ID, Content: content}})

	gen := m.generation
	m.pending = m.cfg.Scheduler.AfterFunc(m.cfg.RevealDelay, func() {
		m.cfg.Guard(func() { m.revealLosers(gen) })
	})
	return true
}

// GestureStart routes a pointer-down to the card in slot.
func (m *Machine) GestureStart(slot string, p types.Point) bool {
	rc, ok := m.Card(slot)
	if ok {
		rc.card.GestureStart(p)
	}
	return ok
}

// GestureMove routes pointer motion to the card in slot, in order.
func (m *Machine) GestureMove(slot string, points ...types.Point) bool {
	rc, ok := m.Card(slot)
	if ok {
		for _, p := range points {
			rc.card.GestureMove(p)
		}
	}
	return ok
}

// GestureEnd routes a pointer-up to the card in slot.
func (m *Machine) GestureEnd(slot string) bool {
	rc, ok := m.Card(slot)
	if ok {
		rc.card.GestureEnd()
	}
	return ok
}

// Close cancels any pending scheduled work.
func (m *Machine) Close() {
	m.cancelPending()
	m.generation++
}

// View snapshots the round for presentation.
func (m *Machine) View() types.RoundView {
	return types.RoundView{
		Phase: m.phase,
		Cards: lo.Map(m.cards, func(rc *RoundCard, _ int) types.CardView {
			v := types.CardView{
				Slot:         rc.Slot,
				ID:           rc.Config.ID,
				Kind:         rc.Config.Kind,
				State:        rc.State(),
				Revealed:     rc.Revealed,
				IsWinner:     rc.IsWinner,
				Locked:       m.Locked(rc.Slot),
				ClearedRatio: rc.Mask().ClearedRatio(),
			}
			if rc.Revealed {
				v.Content = rc.Config.Content
			}
			return v
		}),
		StartedSlot: m.started,
		WinnerSlot:  m.winner,
		Result:      m.result,
		Shuffled:    m.permuted,
	}
}

func (m *Machine) build(shuffle bool, kind EventKind) {
	m.cancelPending()
	m.generation++

	order := slices.Clone(m.configs)
	if shuffle {
		shuffleConfigs(m.cfg.Rand, order)
	}

	m.phase = types.PhasePlaying
	m.permuted = shuffle
	m.started, m.winner, m.result = "", "", ""
	m.cards = lo.Map(order, func(cfg types.CardConfig, _ int) *RoundCard {
		return m.newRoundCard(cfg)
	})

	m.emit(Event{Kind: kind, Payload: RoundStartedPayload{
		Slots:    lo.Map(m.cards, func(rc *RoundCard, _ int) string { return rc.Slot }),
		Shuffled: shuffle,
	}})
}

func (m *Machine) newRoundCard(cfg types.CardConfig) *RoundCard {
	slot := m.cfg.NewSlotID()
	rc := &RoundCard{Slot: slot, Config: cfg, Revealed: cfg.Revealed}

	surface := m.cfg.Surface
	mk := mask.New(surface.Width, surface.Height, surface.PixelRatio)
	mk.Reset(m.cfg.Theme)

	opts := m.cfg.Card
	opts.Revealed = cfg.Revealed
	rc.card = scratch.NewCard(cfg, mk, opts, scratch.Hooks{
		Locked:   func() bool { return m.Locked(slot) },
		Started:  func() { m.OnCardScratchStarted(slot) },
		Revealed: func(content string) { m.OnCardRevealed(slot, content) },
	})
	return rc
}

func (m *Machine) revealLosers(gen uint64) {
	if gen != m.generation || m.phase != types.PhaseFinished {
		return
	}
	m.pending = nil
	opened := lo.FilterMap(m.cards, func(rc *RoundCard, _ int) (string, bool) {
		if rc.IsWinner || rc.Revealed {
			return "", false
		}
		rc.card.ForceReveal()
		rc.Revealed = true
		return rc.Slot, true
	})
	m.emit(Event{Kind: EventLosersRevealed, Payload: LosersRevealedPayload{Slots: opened}})
}

func (m *Machine) cancelPending() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func (m *Machine) emit(ev Event) {
	if m.cfg.Observer != nil {
		m.cfg.Observer(ev)
	}
}

// shuffleConfigs permutes configs in place with Fisher–Yates.
func shuffleConfigs(rng *rand.Rand, configs []types.CardConfig) {
	rng.Shuffle(len(configs), func(i, j int) { configs[i], configs[j] = configs[j], configs[i] })
}
