package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"scratchcards/internal/mask"
	"scratchcards/internal/round"
	"scratchcards/internal/types"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	return &App{
		SessionTimeout: time.Hour,
		CookieMaxAge:   time.Hour,
		SweepInterval:  time.Minute,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		RevealDelay:    round.DefaultRevealDelay,
		BrushRadius:    20,
		MoveCheckEvery: 1,
		SessionsDir:    t.TempDir(),
		StartTime:      time.Now(),
		Sessions:       make(map[string]*Session),
		LimiterMap:     make(map[string]*rate.Limiter),
		Scheduler:      &manualScheduler{},
	}
}

func TestNormalizeSetup(t *testing.T) {
	app := newTestApp(t)

	cases := []struct {
		name     string
		in       types.Setup
		numCards int
		cards    int
	}{
		{"clamps above five", types.Setup{NumCards: 7, Cards: cardsN(7)}, 5, 7},
		{"zero means all cards", types.Setup{Cards: cardsN(3)}, 3, 3},
		{"zero with many cards", types.Setup{Cards: cardsN(9)}, 5, 9},
		{"negative means all cards", types.Setup{NumCards: -2, Cards: cardsN(2)}, 2, 2},
		{"duplicate ids dropped", types.Setup{NumCards: 3, Cards: append(cardsN(2), cardsN(2)...)}, 3, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := app.normalizeSetup(c.in)
			if got.NumCards != c.numCards {
				t.Errorf("NumCards = %d, want %d", got.NumCards, c.numCards)
			}
			if len(got.Cards) != c.cards {
				t.Errorf("len(Cards) = %d, want %d", len(got.Cards), c.cards)
			}
		})
	}
}

func TestNormalizeSetupDefaults(t *testing.T) {
	app := newTestApp(t)
	got := app.normalizeSetup(types.Setup{
		Cards: []types.CardConfig{{ID: "", Kind: types.ContentText}, {ID: "x", Kind: types.ContentText}},
		Theme: "Neon",
	})

	if len(got.Cards) != 1 || got.Cards[0].ID != "x" {
		t.Errorf("Cards = %+v, want only the card with an id", got.Cards)
	}
	if got.Theme != mask.DefaultTheme.Name {
		t.Errorf("Theme = %q, want fallback %q", got.Theme, mask.DefaultTheme.Name)
	}
	if got.Surface != round.DefaultSurface {
		t.Errorf("Surface = %+v, want %+v", got.Surface, round.DefaultSurface)
	}
	if got.BrushRadius != app.BrushRadius {
		t.Errorf("BrushRadius = %v, want %v", got.BrushRadius, app.BrushRadius)
	}

	got = app.normalizeSetup(types.Setup{
		Cards:   cardsN(1),
		Surface: types.Surface{Width: 5000, Height: 80, PixelRatio: 9},
	})
	if got.Surface.Width != maxSurfaceSide || got.Surface.Height != 80 || got.Surface.PixelRatio != maxPixelRatio {
		t.Errorf("Surface = %+v, want clamped width and pixel ratio", got.Surface)
	}
}

func TestDefaultSetupIsPlayable(t *testing.T) {
	app := newTestApp(t)
	setup := app.normalizeSetup(app.defaultSetup())
	if len(setup.Cards) == 0 || setup.NumCards != len(setup.Cards) {
		t.Errorf("default setup = %+v, want every card active", setup)
	}
}

func TestRoundCardLookup(t *testing.T) {
	app := newTestApp(t)
	s := app.getSession(context.Background(), "session-lookup-0001")

	if _, err := roundCard(s.Machine, "any"); !errors.Is(err, errNoRound) {
		t.Errorf("lookup before start error = %v, want errNoRound", err)
	}

	s.Machine.Start(s.Setup.Cards, false)
	if _, err := roundCard(s.Machine, "missing"); !errors.Is(err, errUnknownCard) {
		t.Errorf("lookup of unknown slot error = %v, want errUnknownCard", err)
	}
	slot := s.Machine.Cards()[0].Slot
	if rc, err := roundCard(s.Machine, slot); err != nil || rc.Slot != slot {
		t.Errorf("lookup of %s = (%v, %v), want the card", slot, rc, err)
	}
}

func TestGetSessionLoadsSavedSetup(t *testing.T) {
	app := newTestApp(t)
	id := "3f2a8c1e-0000-4000-8000-000000000001"
	if err := saveSetupToFile(app.SessionsDir, id, testSetup()); err != nil {
		t.Fatalf("saveSetupToFile failed: %v", err)
	}

	s := app.getSession(context.Background(), id)
	if len(s.Setup.Cards) != 2 || s.Setup.Theme != "gold" {
		t.Errorf("Setup = %+v, want the saved setup", s.Setup)
	}
	if again := app.getSession(context.Background(), id); again != s {
		t.Error("Expected the cached session on second lookup")
	}
}

func TestSweepSessionsEvictsIdle(t *testing.T) {
	app := newTestApp(t)
	sched := app.Scheduler.(*manualScheduler)
	ctx := context.Background()

	idle := app.getSession(ctx, "session-idle-000001")
	active := app.getSession(ctx, "session-active-0001")

	idle.Machine.Start(idle.Setup.Cards, false)
	slot := idle.Machine.Cards()[0].Slot
	idle.Machine.OnCardRevealed(slot, "prize")
	idle.LastAccessTime = time.Now().Add(-2 * time.Hour)

	if n := app.sweepSessions(time.Now()); n != 1 {
		t.Fatalf("sweepSessions evicted %d, want 1", n)
	}
	if _, ok := app.Sessions[idle.ID]; ok {
		t.Error("Expected idle session to be evicted")
	}
	if _, ok := app.Sessions[active.ID]; !ok {
		t.Error("Expected active session to remain")
	}

	sched.fire()
	for _, rc := range idle.Machine.Cards() {
		if rc.Slot != slot && rc.Revealed {
			t.Errorf("slot %s revealed after its session was evicted", rc.Slot)
		}
	}
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	app := newTestApp(t)
	app.SweepInterval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.runSweeper(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runSweeper did not return after cancel")
	}
}

func cardsN(n int) []types.CardConfig {
	cards := make([]types.CardConfig, n)
	for i := range cards {
		cards[i] = types.CardConfig{ID: string(rune('a' + i)), Kind: types.ContentText, Content: "prize"}
	}
	return cards
}
