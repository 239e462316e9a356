package types

import "time"

// ContentKind tags what a card's prize content holds.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// CardConfig is an author-time card definition. Content is literal text for
// text cards or an opaque image locator for image cards. A Revealed card is
// dealt already open and takes no part in the scratch.
type CardConfig struct {
	ID       string      `json:"id"`
	Kind     ContentKind `json:"kind"`
	Content  string      `json:"content"`
	Revealed bool        `json:"revealed,omitempty"`
}

// Point is a position in CSS pixels relative to a card's top-left corner.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Surface describes the display area of one card.
type Surface struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`
}

// Setup is the pre-round configuration handed over by the editor.
type Setup struct {
	Cards       []CardConfig `json:"cards"`
	NumCards    int          `json:"numCards"`
	Shuffle     bool         `json:"shuffle"`
	Theme       string       `json:"theme"`
	Surface     Surface      `json:"surface"`
	BrushRadius float64      `json:"brushRadius"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

type CardState string

const (
	CardIdle       CardState = "idle"
	CardScratching CardState = "scratching"
	CardRevealed   CardState = "revealed"
)

// CardView is the presentation snapshot of one round card. Content is only
// filled in once the card has been revealed.
type CardView struct {
	Slot         string      `json:"slot"`
	ID           string      `json:"id"`
	Kind         ContentKind `json:"kind"`
	Content      string      `json:"content,omitempty"`
	State        CardState   `json:"state"`
	Revealed     bool        `json:"revealed"`
	IsWinner     bool        `json:"isWinner"`
	Locked       bool        `json:"locked"`
	ClearedRatio float64     `json:"clearedRatio"`
}

type RoundView struct {
	Phase       Phase      `json:"phase"`
	Cards       []CardView `json:"cards"`
	StartedSlot string     `json:"startedSlot,omitempty"`
	WinnerSlot  string     `json:"winnerSlot,omitempty"`
	Result      string     `json:"result,omitempty"`
	Shuffled    bool       `json:"shuffled"`
}
