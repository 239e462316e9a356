package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
	minSessionIDLen   = 10
)

// Route constants
const (
	RouteHealth       = "/healthz"
	RouteSetup        = "/setup"
	RouteRound        = "/round"
	RouteRoundStart   = "/round/start"
	RouteRoundShuffle = "/round/shuffle"
	RouteRoundReplay  = "/round/replay"
	RouteRoundReset   = "/round/reset"
	RouteGestureStart = "/round/cards/:slot/gesture/start"
	RouteGestureMove  = "/round/cards/:slot/gesture/move"
	RouteGestureEnd   = "/round/cards/:slot/gesture/end"
	RouteCoating      = "/round/cards/:slot/coating.png"
)

// Error message constants
const (
	ErrorInvalidSetup   = "Setup needs at least one card with an id and a kind of text or image."
	ErrorInvalidPoint   = "Gesture payload must carry x/y coordinates."
	ErrorNoRound        = "No round in progress. Start one first."
	ErrorUnknownCard    = "Card not found in the current round."
	ErrorShuffleRefused = "Cards can only be shuffled before any card is scratched."
	ErrorRenderFailed   = "Could not render the card coating."
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)

type contextKey string
