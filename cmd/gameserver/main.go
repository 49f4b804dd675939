package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wombocombo/game-server/internal/auth"
	"github.com/wombocombo/game-server/internal/config"
	"github.com/wombocombo/game-server/internal/game"
	"github.com/wombocombo/game-server/internal/gateway"
	"github.com/wombocombo/game-server/internal/health"
	"github.com/wombocombo/game-server/internal/logging"
	"github.com/wombocombo/game-server/internal/middleware"
	"github.com/wombocombo/game-server/internal/ratelimit"
	"github.com/wombocombo/game-server/internal/secrets"
)

func main() {
	// Load .env for local development. Try multiple paths to handle the
	// different ways the binary gets run.
	for _, path := range []string{".env", "../../.env", "../../../.env"} {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	if err := logging.Initialize(os.Getenv("LOG_LEVEL")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()

	cfg, err := config.ValidateEnv()
	if err != nil {
		logging.Error(ctx, "environment validation failed", zap.Error(err))
		os.Exit(1)
	}

	// The secret store is consulted once at boot. If it is unreachable or
	// holds no secret, the server runs with token verification disabled.
	var verifier *auth.Verifier
	store, err := secrets.NewStore(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logging.Warn(ctx, "secret store unreachable, running in dev mode", zap.Error(err))
		store = nil
	}
	if secret, err := store.Get(ctx, secrets.JWTSecretKey); err == nil {
		verifier = auth.NewVerifier(secret)
		logging.Info(ctx, "token verification enabled")
	} else {
		logging.Warn(ctx, "no verification secret, running in dev mode (authentication disabled)")
	}

	limiter, err := ratelimit.New(cfg.RateLimitWsIP, store.Client())
	if err != nil {
		logging.Error(ctx, "failed to create rate limiter", zap.Error(err))
		os.Exit(1)
	}

	registry := game.NewRegistry(cfg.MaxRooms, cfg.MaxPlayersPerRoom)
	hub := gateway.NewHub(registry, cfg.TickRate, verifier, limiter)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(middleware.CorrelationID())

	router.GET("/ws/:roomCode", hub.ServeWs)
	router.GET("/ws", func(c *gin.Context) {
		c.String(http.StatusBadRequest, "Missing room code in path")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	health.NewHandler(hub).RegisterRoutes(router)

	tickCtx, stopTicker := context.WithCancel(ctx)
	go hub.RunTicker(tickCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logging.Info(ctx, "game server listening",
			zap.Int("port", cfg.Port),
			zap.Int("tick_rate", cfg.TickRate),
			zap.Bool("dev_mode", hub.DevMode()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "server failed", zap.Error(err))
			_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "shutting down")

	stopTicker()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := hub.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "hub shutdown failed", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "server forced to shutdown", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logging.Error(ctx, "failed to close secret store", zap.Error(err))
	}

	logging.Info(ctx, "server exited")
}
