package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"scratchcards/internal/round"
	"scratchcards/internal/types"
)

// App holds server configuration and all live sessions.
type App struct {
	IsProduction   bool
	SessionTimeout time.Duration
	CookieMaxAge   time.Duration
	SweepInterval  time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	RevealDelay    time.Duration
	BrushRadius    float64
	MoveCheckEvery int
	SessionsDir    string
	StartTime      time.Time

	Sessions     map[string]*Session
	SessionMutex sync.RWMutex
	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	// Scheduler drives the forced reveal of losing cards. Nil means wall clock.
	Scheduler round.Scheduler
}

// Session is one player's setup and round. mu serializes every handler and
// timer callback touching the round.
type Session struct {
	mu             sync.Mutex
	ID             string
	Setup          types.Setup
	Machine        *round.Machine
	LastAccessTime time.Time
}

// SetupRequest is the body of PUT /setup.
type SetupRequest struct {
	Cards       []CardRequest `json:"cards" binding:"required,min=1,dive"`
	NumCards    int           `json:"numCards"`
	Shuffle     bool          `json:"shuffle"`
	Theme       string        `json:"theme"`
	Surface     types.Surface `json:"surface"`
	BrushRadius float64       `json:"brushRadius" binding:"gte=0"`
}

type CardRequest struct {
	ID       string            `json:"id" binding:"required"`
	Kind     types.ContentKind `json:"kind" binding:"required,oneof=text image"`
	Content  string            `json:"content"`
	Revealed bool              `json:"revealed"`
}

type PointRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

type MoveRequest struct {
	Points []types.Point `json:"points" binding:"required,min=1"`
}
