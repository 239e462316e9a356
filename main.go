package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"scratchcards/internal/round"
	"scratchcards/internal/scratch"
)

func main() {
	_ = godotenv.Load()

	app := newAppFromEnv()
	logInfo("Starting scratchcards in %s mode", map[bool]string{true: "production", false: "development"}[app.IsProduction])
	if app.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := cleanupOldSessions(app.SessionsDir, app.CookieMaxAge); err != nil {
		logWarn("Initial session file cleanup failed: %v", err)
	}

	router := gin.Default()
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}
	app.registerRoutes(router)

	ctx, cancel := context.WithCancel(context.Background())
	go app.runSweeper(ctx)

	startServer(router, cancel)
}

// newAppFromEnv reads server configuration from the environment.
func newAppFromEnv() *App {
	return &App{
		IsProduction:   os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production",
		SessionTimeout: getEnvDuration("SESSION_TIMEOUT", 2*time.Hour),
		CookieMaxAge:   getEnvDuration("COOKIE_MAX_AGE", 30*24*time.Hour),
		SweepInterval:  getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		RevealDelay:    getEnvDuration("REVEAL_DELAY", round.DefaultRevealDelay),
		BrushRadius:    getEnvFloat("BRUSH_RADIUS", scratch.DefaultBrushRadius),
		MoveCheckEvery: getEnvInt("MOVE_CHECK_EVERY", scratch.DefaultCheckEvery),
		SessionsDir:    getEnvString("SESSIONS_DIR", "data/sessions"),
		StartTime:      time.Now(),
		Sessions:       make(map[string]*Session),
		LimiterMap:     make(map[string]*rate.Limiter),
	}
}

// registerRoutes wires middleware and handlers onto router. Commands that
// rebuild rounds are rate limited; gestures are not.
func (app *App) registerRoutes(router *gin.Engine) {
	router.Use(requestIDMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".png"})))
	router.Use(noStoreMiddleware())

	limited := app.rateLimitMiddleware()

	router.GET(RouteHealth, app.healthHandler)
	router.GET(RouteSetup, app.getSetupHandler)
	router.PUT(RouteSetup, limited, app.putSetupHandler)

	router.GET(RouteRound, app.roundHandler)
	router.POST(RouteRoundStart, limited, app.startRoundHandler)
	router.POST(RouteRoundShuffle, limited, app.shuffleRoundHandler)
	router.POST(RouteRoundReplay, limited, app.replayRoundHandler)
	router.POST(RouteRoundReset, limited, app.resetRoundHandler)

	router.POST(RouteGestureStart, app.gestureStartHandler)
	router.POST(RouteGestureMove, app.gestureMoveHandler)
	router.POST(RouteGestureEnd, app.gestureEndHandler)
	router.GET(RouteCoating, app.coatingHandler)
}

func (app *App) uptime() time.Duration {
	return time.Since(app.StartTime)
}

func startServer(router *gin.Engine, stopBackground context.CancelFunc) {
	port := getEnvString("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		stopBackground()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
