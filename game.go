package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"

	"scratchcards/internal/mask"
	"scratchcards/internal/round"
	"scratchcards/internal/scratch"
	"scratchcards/internal/types"
)

const (
	maxSurfaceSide = 1200
	maxPixelRatio  = 3
	maxBrushRadius = 200
)

var (
	errNoRound     = errors.New("no round in progress")
	errUnknownCard = errors.New("unknown card")
)

// defaultSetup is handed to sessions that have never saved one.
func (app *App) defaultSetup() types.Setup {
	return types.Setup{
		Cards: []types.CardConfig{
			{ID: "coffee", Kind: types.ContentText, Content: "Free coffee"},
			{ID: "discount", Kind: types.ContentText, Content: "10% off your next order"},
			{ID: "sticker", Kind: types.ContentText, Content: "A sticker pack"},
		},
		NumCards:    3,
		Shuffle:     true,
		Theme:       mask.DefaultTheme.Name,
		Surface:     round.DefaultSurface,
		BrushRadius: app.BrushRadius,
	}
}

// setupFromRequest converts a bound PUT /setup body into a Setup.
func setupFromRequest(req SetupRequest) types.Setup {
	return types.Setup{
		Cards: lo.Map(req.Cards, func(cr CardRequest, _ int) types.CardConfig {
			return types.CardConfig{
				ID:       strings.TrimSpace(cr.ID),
				Kind:     cr.Kind,
				Content:  cr.Content,
				Revealed: cr.Revealed,
			}
		}),
		NumCards:    req.NumCards,
		Shuffle:     req.Shuffle,
		Theme:       req.Theme,
		Surface:     req.Surface,
		BrushRadius: req.BrushRadius,
	}
}

// normalizeSetup clamps a setup into range. Cards with blank or repeated IDs
// are dropped, an unset card count means "all of them" and unknown themes
// fall back to the default. The pixel ratio is lowered until one card fits
// in mask.MaxCells.
func (app *App) normalizeSetup(setup types.Setup) types.Setup {
	setup.Cards = lo.UniqBy(
		lo.Filter(setup.Cards, func(cfg types.CardConfig, _ int) bool { return cfg.ID != "" }),
		func(cfg types.CardConfig) string { return cfg.ID },
	)

	if setup.NumCards <= 0 {
		setup.NumCards = len(setup.Cards)
	}
	setup.NumCards = round.ClampActive(setup.NumCards)

	setup.Theme = mask.ThemeByName(setup.Theme).Name

	if setup.Surface.Width <= 0 || setup.Surface.Height <= 0 {
		setup.Surface.Width = round.DefaultSurface.Width
		setup.Surface.Height = round.DefaultSurface.Height
	}
	setup.Surface.Width = lo.Clamp(setup.Surface.Width, 1, maxSurfaceSide)
	setup.Surface.Height = lo.Clamp(setup.Surface.Height, 1, maxSurfaceSide)
	if setup.Surface.PixelRatio <= 0 {
		setup.Surface.PixelRatio = 1
	}
	setup.Surface.PixelRatio = mask.FitPixelRatio(setup.Surface.Width, setup.Surface.Height,
		lo.Clamp(setup.Surface.PixelRatio, 1, maxPixelRatio))

	if setup.BrushRadius <= 0 {
		setup.BrushRadius = app.BrushRadius
	}
	setup.BrushRadius = lo.Clamp(setup.BrushRadius, 1, maxBrushRadius)
	return setup
}

// newMachine builds a round machine for the session's current setup. Forced
// reveals scheduled by the machine take the session lock.
func (app *App) newMachine(s *Session) *round.Machine {
	sessionID := s.ID
	return round.NewMachine(round.Config{
		ActiveCount: s.Setup.NumCards,
		Surface:     s.Setup.Surface,
		Theme:       mask.ThemeByName(s.Setup.Theme),
		Card: scratch.Options{
			BrushRadius: s.Setup.BrushRadius,
			CheckEvery:  app.MoveCheckEvery,
		},
		RevealDelay: app.RevealDelay,
		Scheduler:   app.Scheduler,
		Guard: func(f func()) {
			s.mu.Lock()
			defer s.mu.Unlock()
			f()
		},
		Observer: func(ev round.Event) {
			if ev.Slot != "" {
				logInfo("Session %s: %s (slot %s)", sessionID, ev.Kind, ev.Slot)
				return
			}
			logInfo("Session %s: %s", sessionID, ev.Kind)
		},
	})
}

// roundCard looks up slot in the session's current round.
func roundCard(m *round.Machine, slot string) (*round.RoundCard, error) {
	if !m.HasRound() {
		return nil, errNoRound
	}
	rc, ok := m.Card(slot)
	if !ok {
		return nil, errUnknownCard
	}
	return rc, nil
}

// sweepSessions evicts sessions idle for longer than SessionTimeout and
// cancels their pending reveals.
func (app *App) sweepSessions(now time.Time) int {
	app.SessionMutex.Lock()
	expired := lo.PickBy(app.Sessions, func(_ string, s *Session) bool {
		return now.Sub(s.LastAccessTime) > app.SessionTimeout
	})
	for id := range expired {
		delete(app.Sessions, id)
	}
	app.SessionMutex.Unlock()

	for _, s := range expired {
		s.mu.Lock()
		s.Machine.Close()
		s.mu.Unlock()
	}
	if len(expired) > 0 {
		logInfo("Evicted %d idle session%s", len(expired), plural(len(expired)))
	}
	return len(expired)
}

// runSweeper evicts idle sessions and stale setup files until ctx is done.
func (app *App) runSweeper(ctx context.Context) {
	interval := app.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			app.sweepSessions(now)
			if err := cleanupOldSessions(app.SessionsDir, app.CookieMaxAge); err != nil {
				logWarn("Session file cleanup failed: %v", err)
			}
		}
	}
}
