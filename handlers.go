package main

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"scratchcards/internal/mask"
	"scratchcards/internal/round"
	"scratchcards/internal/types"
)

const maxThumbnailSide = 1024

// healthHandler returns a simple health check JSON response.
func (app *App) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   formatUptime(app.uptime()),
		"sessions": app.sessionCount(),
	})
}

// getSetupHandler returns the session's setup along with the known themes.
func (app *App) getSetupHandler(c *gin.Context) {
	s := app.lockSession(c)
	setup := s.Setup
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"setup":    setup,
		"themes":   mask.ThemeNames(),
		"maxCards": round.MaxActive,
	})
}

// putSetupHandler replaces the session's setup and discards its round.
func (app *App) putSetupHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logWarn("%sInvalid setup payload: %v", requestTag(ctx), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorInvalidSetup})
		return
	}

	setup := app.normalizeSetup(setupFromRequest(req))
	if len(setup.Cards) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorInvalidSetup})
		return
	}

	s := app.lockSession(c)
	app.replaceSetup(s, setup)
	sessionID := s.ID
	s.mu.Unlock()

	if err := saveSetupToFile(app.SessionsDir, sessionID, setup); err != nil {
		logWarn("%sSetup for session %s kept in memory only: %v", requestTag(ctx), sessionID, err)
	}
	logInfo("%sSession %s setup replaced: %d cards, %d active, shuffle=%t",
		requestTag(ctx), sessionID, len(setup.Cards), setup.NumCards, setup.Shuffle)
	c.JSON(http.StatusOK, gin.H{"setup": setup})
}

// startRoundHandler begins a round from the session's setup.
func (app *App) startRoundHandler(c *gin.Context) {
	s := app.lockSession(c)
	defer s.mu.Unlock()

	s.Machine.Start(s.Setup.Cards, s.Setup.Shuffle)
	c.JSON(http.StatusOK, s.Machine.View())
}

// shuffleRoundHandler reshuffles the cards of a round nobody has scratched yet.
func (app *App) shuffleRoundHandler(c *gin.Context) {
	s := app.lockSession(c)
	defer s.mu.Unlock()

	if !s.Machine.HasRound() {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorNoRound})
		return
	}
	if !s.Machine.Shuffle() {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorShuffleRefused})
		return
	}
	c.JSON(http.StatusOK, s.Machine.View())
}

// replayRoundHandler starts a fresh round with the same cards and shuffle flag.
func (app *App) replayRoundHandler(c *gin.Context) {
	s := app.lockSession(c)
	defer s.mu.Unlock()

	if !s.Machine.Replay() {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorNoRound})
		return
	}
	c.JSON(http.StatusOK, s.Machine.View())
}

// resetRoundHandler discards the round and returns to setup.
func (app *App) resetRoundHandler(c *gin.Context) {
	s := app.lockSession(c)
	defer s.mu.Unlock()

	s.Machine.ResetToSetup()
	c.JSON(http.StatusOK, s.Machine.View())
}

// roundHandler returns the current round view.
func (app *App) roundHandler(c *gin.Context) {
	s := app.lockSession(c)
	defer s.mu.Unlock()

	c.JSON(http.StatusOK, s.Machine.View())
}

// gestureStartHandler handles pointer-down on a card.
func (app *App) gestureStartHandler(c *gin.Context) {
	var req PointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorInvalidPoint})
		return
	}
	p := types.Point{X: *req.X, Y: *req.Y}

	app.withCard(c, func(m *round.Machine, slot string) {
		m.GestureStart(slot, p)
	})
}

// gestureMoveHandler applies a batch of pointer positions to a card in order.
func (app *App) gestureMoveHandler(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorInvalidPoint})
		return
	}

	app.withCard(c, func(m *round.Machine, slot string) {
		m.GestureMove(slot, req.Points...)
	})
}

// gestureEndHandler handles pointer-up or pointer-leave on a card.
func (app *App) gestureEndHandler(c *gin.Context) {
	app.withCard(c, func(m *round.Machine, slot string) {
		m.GestureEnd(slot)
	})
}

// withCard runs fn against the card named by the :slot param under the
// session lock and responds with the resulting round view.
func (app *App) withCard(c *gin.Context, fn func(m *round.Machine, slot string)) {
	slot := c.Param("slot")
	s := app.lockSession(c)
	defer s.mu.Unlock()

	if _, err := roundCard(s.Machine, slot); err != nil {
		writeLookupError(c, err)
		return
	}
	fn(s.Machine, slot)
	c.JSON(http.StatusOK, s.Machine.View())
}

// coatingHandler renders a card's remaining coating as PNG, optionally
// scaled to ?w=&h=.
func (app *App) coatingHandler(c *gin.Context) {
	ctx := c.Request.Context()
	slot := c.Param("slot")
	w := lo.Clamp(queryInt(c, "w"), 0, maxThumbnailSide)
	h := lo.Clamp(queryInt(c, "h"), 0, maxThumbnailSide)

	s := app.lockSession(c)
	rc, err := roundCard(s.Machine, slot)
	if err != nil {
		s.mu.Unlock()
		writeLookupError(c, err)
		return
	}
	img := rc.Mask().Thumbnail(w, h)
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := mask.EncodePNG(&buf, img); err != nil {
		logWarn("%sFailed to encode coating for slot %s: %v", requestTag(ctx), slot, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrorRenderFailed})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func writeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNoRound):
		c.JSON(http.StatusConflict, gin.H{"error": ErrorNoRound})
	case errors.Is(err, errUnknownCard):
		c.JSON(http.StatusNotFound, gin.H{"error": ErrorUnknownCard})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// queryInt parses an integer query parameter, returning 0 when absent or invalid.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
