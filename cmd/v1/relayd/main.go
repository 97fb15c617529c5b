package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/duskward/relay/internal/v1/accesslists"
	"github.com/duskward/relay/internal/v1/addons"
	"github.com/duskward/relay/internal/v1/adminapi"
	"github.com/duskward/relay/internal/v1/auth"
	"github.com/duskward/relay/internal/v1/bus"
	"github.com/duskward/relay/internal/v1/commandbus"
	"github.com/duskward/relay/internal/v1/config"
	"github.com/duskward/relay/internal/v1/health"
	"github.com/duskward/relay/internal/v1/logging"
	"github.com/duskward/relay/internal/v1/middleware"
	"github.com/duskward/relay/internal/v1/ratelimit"
	"github.com/duskward/relay/internal/v1/relay"
	"github.com/duskward/relay/internal/v1/tracing"
	"github.com/duskward/relay/internal/v1/transport"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment variables")
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.Initialize(cfg.DevelopmentMode)
	logger := logging.GetLogger().Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OtelCollectorAddr != "" {
		tp, err := tracing.InitTracer(ctx, "relay", cfg.OtelCollectorAddr)
		if err != nil {
			logger.Warnw("tracer initialization failed, continuing without tracing", "error", err)
		} else {
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	accessSvc, err := accesslists.NewService(redisAddr, cfg.RedisPassword, cfg.WhitelistEnabled)
	if err != nil {
		logger.Fatalw("failed to connect accesslists to Redis", "error", err)
	}
	defer accessSvc.Close()

	var busSvc *bus.Service
	var healthPinger health.Pinger
	if cfg.RedisEnabled {
		busSvc, err = bus.NewService(redisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatalw("failed to connect mirroring bus to Redis", "error", err)
		}
		defer busSvc.Close()
		healthPinger = busSvc
	}

	var limiterRedisClient = busSvc.Client()
	limiter, err := ratelimit.New(cfg, limiterRedisClient)
	if err != nil {
		logger.Fatalw("failed to build rate limiter", "error", err)
	}

	addonSet, err := loadAddonSet(cfg.AddonSetPath)
	if err != nil {
		logger.Fatalw("failed to load addon set", "path", cfg.AddonSetPath, "error", err)
	}
	addonRegistry := addons.New(addonSet)

	commandRegistry := commandbus.New(cfg.CommandPrefix)
	authorizedKeys := auth.NewKeyStore(nil)
	sessionIssuer := auth.NewIssuer(cfg.JWTSecret, 24*time.Hour)

	hub := transport.NewHub(limiter, sessionIssuer, parseAllowedOrigins(cfg.AllowedOrigins))
	manager := relay.NewManager(hub, logging.Adapter{}, accessSvc, addonRegistry, commandRegistry, authorizedKeys)
	hub.SetManager(manager)

	wsPort, err := strconv.Atoi(cfg.Port)
	if err != nil {
		logger.Fatalw("invalid PORT", "value", cfg.Port, "error", err)
	}
	if err := hub.StartListening(wsPort); err != nil {
		logger.Fatalw("failed to start websocket listener", "error", err)
	}
	logger.Infow("relay websocket listener started", "port", wsPort)

	adminEngine := gin.New()
	adminEngine.Use(gin.Recovery(), middleware.CorrelationID())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = parseAllowedOrigins(cfg.AllowedOrigins)
	adminEngine.Use(cors.New(corsConfig))

	adminHandler := adminapi.NewHandler(manager, accessSvc, hub, authorizedKeys, cfg.AdminAPIKey)
	adminHandler.RegisterRoutes(adminEngine)

	healthHandler := health.NewHandler(healthPinger)
	adminEngine.GET("/health/live", healthHandler.Liveness)
	adminEngine.GET("/health/ready", healthHandler.Readiness)
	adminEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	adminServer := &http.Server{
		Addr:    ":" + cfg.AdminPort,
		Handler: adminEngine,
	}
	go func() {
		logger.Infow("admin/health/metrics server starting", "port", cfg.AdminPort)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorw("admin server stopped unexpectedly", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections")

	manager.OnShutdown(context.Background())

	if err := hub.Stop(); err != nil {
		logger.Errorw("error stopping websocket listener", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("error stopping admin server", "error", err)
	}

	logger.Info("relay exiting")
}

// loadAddonSet reads the server's networked-addon set from a JSON
// file of {identifier, version} objects. An empty path is a valid
// configuration: the server accepts no addons at all.
func loadAddonSet(path string) ([]relay.AddonVersion, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set []relay.AddonVersion
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// parseAllowedOrigins splits the comma-separated ALLOWED_ORIGINS
// configuration value; an empty value yields an empty (permissive)
// list.
func parseAllowedOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
