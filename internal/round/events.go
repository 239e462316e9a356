package round

// EventKind identifies a round transition.
type EventKind string

const (
	EventRoundStarted   EventKind = "round_started"
	EventRoundShuffled  EventKind = "round_shuffled"
	EventScratchStarted EventKind = "scratch_started"
	EventCardRevealed   EventKind = "card_revealed"
	EventLosersRevealed EventKind = "losers_revealed"
	EventRoundReset     EventKind = "round_reset"
)

// Event is emitted to the machine's observer on every transition. Slot is
// empty for round-wide events.
type Event struct {
	Kind    EventKind
	Slot    string
	Payload any
}

type RoundStartedPayload struct {
	Slots    []string
	Shuffled bool
}

type CardRevealedPayload struct {
	CardID  string
	Content string
}

type LosersRevealedPayload struct {
	Slots []string
}
