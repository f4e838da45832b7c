// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/dailytoolbox/navsrv/internal/cache"
	"github.com/dailytoolbox/navsrv/internal/config"
	"github.com/dailytoolbox/navsrv/internal/geoip"
	"github.com/dailytoolbox/navsrv/internal/handler/api"
	"github.com/dailytoolbox/navsrv/internal/identity"
	"github.com/dailytoolbox/navsrv/internal/logging"
	"github.com/dailytoolbox/navsrv/internal/middleware"
	"github.com/dailytoolbox/navsrv/internal/scheduler"
	"github.com/dailytoolbox/navsrv/internal/service"
	"github.com/dailytoolbox/navsrv/internal/session"
	"github.com/dailytoolbox/navsrv/internal/store"
	"github.com/dailytoolbox/navsrv/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "navsrv - Navigation menu service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVSRV_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVSRV_DB_PATH         SQLite database path (default: ./data/navsrv.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVSRV_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVSRV_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVSRV_BRAND_NAME      Navbar brand name (default: DailyToolbox)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVSRV_TOKEN_SECRET    HMAC secret for identity token verification (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVSRV_REDIS_URL       Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVSRV_GEOIP_DB_PATH   GeoLite2-Country.mmdb path for geo targeting (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("navsrv %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	slog.Info("starting navsrv", "version", versionInfo.String(), "env", cfg.Env)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Seed default data
	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	queries := store.New(db)

	// Session manager backed by the sessions table
	sessionManager := session.New(db, time.Duration(cfg.SessionLifetimeHours)*time.Hour, cfg.IsDevelopment())
	slog.Info("session manager initialized", "lifetime_hours", cfg.SessionLifetimeHours)

	// Navbar payload cache, Redis when configured with memory fallback
	navbarCache := cache.NewNavbarCache(cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	}), time.Duration(cfg.CacheTTL)*time.Second)

	navbarService := service.NewNavbarService(queries, navbarCache, cfg.BrandName, logger)

	// Identity token bridge, enabled only when a verifier secret is set
	var bridge *identity.Bridge
	if cfg.TokenAuthEnabled() {
		verifier := identity.NewJWTVerifier(cfg.TokenSecret, cfg.TokenIssuer)
		bridge = identity.NewBridge(queries, verifier, logger)
		slog.Info("identity token verification enabled", "issuer_checked", cfg.TokenIssuer != "")
	} else {
		slog.Info("identity token verification disabled")
	}

	// GeoIP country lookups for geo-targeted menu items
	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("GeoIP database unavailable, geo targeting disabled", "error", err)
		} else {
			slog.Info("GeoIP lookups enabled", "path", cfg.GeoIPDBPath)
		}
	}
	defer geo.Close()

	// Scheduler publishes menu items whose scheduled time has passed
	sched := scheduler.New(db, navbarService, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	h := api.NewHandler(db, navbarService, sessionManager, logger)
	rateLimiter := middleware.NewGlobalRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.Analytics(geo))
	r.Use(rateLimiter.Middleware())
	r.Use(middleware.Authenticate(sessionManager, db, bridge, cfg.ProtectedPaths))

	r.Get("/api/status", h.Status)
	r.Get("/api/health", h.Health)
	r.Get("/api/health/live", h.Liveness)
	r.Get("/api/health/ready", h.Readiness)

	r.Get("/api/menu-items/", h.Navbar)

	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/logout", h.Logout)
	r.Get("/api/auth/me", h.Me)

	r.Get("/api/protected/", h.ProtectedGreeting)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Get("/menu-items", h.ListMenuItems)
		r.Post("/menu-items", h.CreateMenuItem)
		r.Get("/menu-items/{id}", h.GetMenuItem)
		r.Put("/menu-items/{id}", h.UpdateMenuItem)
		r.Delete("/menu-items/{id}", h.DeleteMenuItem)
		r.Get("/events", h.ListEvents)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
