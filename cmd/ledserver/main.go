package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/mini-rodalies-3d/metroled/internal/app"
	"github.com/mini-rodalies-3d/metroled/internal/config"
	"github.com/mini-rodalies-3d/metroled/internal/db"
	"github.com/mini-rodalies-3d/metroled/internal/handlers"
	"github.com/mini-rodalies-3d/metroled/internal/logging"
	"github.com/mini-rodalies-3d/metroled/internal/service"
	"github.com/mini-rodalies-3d/metroled/internal/static"
	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

func main() {
	// .env.local overrides .env for local development
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	logging.InitLogger()
	defer logging.SyncLogger()
	log := logging.Named("ledserver")

	cfg := config.Load()
	log.Infow("config loaded",
		"feed", cfg.FeedKind,
		"freshness", cfg.FreshnessWindow,
		"fetch_timeout", cfg.FetchTimeout,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store *db.DB
	var indexSource db.IndexSource
	if cfg.DatabasePath != "" {
		var err error
		store, err = db.Connect(ctx, cfg.DatabasePath, logging.Named("db"))
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()
		indexSource = store
	}

	if cfg.StaticBaseURL != "" {
		refresher := &static.Refresher{
			BaseURL: cfg.StaticBaseURL,
			MaxAge:  time.Duration(cfg.StaticRefreshDays) * 24 * time.Hour,
			Log:     logging.Named("static"),
		}
		paths := wl.Paths{Lines: cfg.LinesFile, Stops: cfg.StopsFile, Connections: cfg.ConnectionsFile}
		if _, err := refresher.RefreshIfStale(ctx, paths); err != nil {
			// keep going with the tables already on disk
			log.Warnw("static table refresh failed", "error", err)
		}
	}

	n, _, err := app.LoadNetwork(ctx, cfg, indexSource, logging.Named("network"))
	if err != nil {
		log.Fatalf("Failed to load network: %v", err)
	}

	source, err := app.NewFeedSource(cfg, n, logging.Named("feed"))
	if err != nil {
		log.Fatalf("Failed to create feed source: %v", err)
	}

	opts := service.Options{
		Freshness:    cfg.FreshnessWindow,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logging.Named("service"),
	}
	if store != nil {
		opts.Recorder = store
		go cleanupLoop(ctx, store, cfg.RetentionDuration)
	}
	svc := service.New(n, source, opts)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	handlers.NewLEDHandler(svc).Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infow("LED server starting", "addr", srv.Addr, "schemes", svc.Schemes())
		log.Info("  GET /api/leds/{scheme}")
		log.Info("  GET /api/schemes")
		log.Info("  GET /health")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("graceful shutdown failed", "error", err)
	}
}

func cleanupLoop(ctx context.Context, store *db.DB, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		if _, err := store.Cleanup(ctx, retention); err != nil {
			logging.Named("db").Warnw("cleanup failed", "error", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
