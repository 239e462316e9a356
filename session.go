package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scratchcards/internal/types"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || !validSessionID(sessionID) {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		logInfo("%sCreated new session: %s", requestTag(c.Request.Context()), sessionID)
	}
	return sessionID
}

// getSession retrieves or creates the Session for an ID. A new session
// starts from the setup saved on disk, or the default setup.
func (app *App) getSession(ctx context.Context, sessionID string) *Session {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	if s, ok := app.Sessions[sessionID]; ok {
		s.LastAccessTime = time.Now()
		return s
	}

	setup, err := loadSetupFromFile(app.SessionsDir, sessionID, app.CookieMaxAge)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logWarn("%sFailed to load setup for session %s: %v", requestTag(ctx), sessionID, err)
		}
		setup = app.defaultSetup()
	}

	s := &Session{
		ID:             sessionID,
		Setup:          app.normalizeSetup(setup),
		LastAccessTime: time.Now(),
	}
	s.Machine = app.newMachine(s)
	app.Sessions[sessionID] = s
	logInfo("%sCreated session state for: %s (%d cards)", requestTag(ctx), sessionID, len(s.Setup.Cards))
	return s
}

// lockSession resolves the request's session and locks it. Callers must
// call Unlock on the returned session.
func (app *App) lockSession(c *gin.Context) *Session {
	s := app.getSession(c.Request.Context(), app.getOrCreateSession(c))
	s.mu.Lock()
	return s
}

// replaceSetup swaps in a new setup and a fresh machine for it. The caller
// holds s.mu.
func (app *App) replaceSetup(s *Session, setup types.Setup) {
	s.Machine.Close()
	s.Setup = setup
	s.Machine = app.newMachine(s)
}

// sessionCount returns the number of live in-memory sessions.
func (app *App) sessionCount() int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.Sessions)
}
