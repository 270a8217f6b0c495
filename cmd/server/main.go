package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphummel/machine_states/internal/charts"
	"github.com/tphummel/machine_states/internal/config"
	"github.com/tphummel/machine_states/internal/dashboard"
	"github.com/tphummel/machine_states/internal/dataset"
	"github.com/tphummel/machine_states/internal/db"
	"github.com/tphummel/machine_states/internal/handlers"
	"github.com/tphummel/machine_states/internal/metrics"
	"github.com/tphummel/machine_states/internal/middleware"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

type serverConfig struct {
	dataPath     string
	port         string
	debug        bool
	configPath   string
	metricsToken string
}

// loadConfig reads service configuration from environment variables and
// applies defaults.
func loadConfig() (serverConfig, error) {
	cfg := serverConfig{
		dataPath:     os.Getenv("DATA_PATH"),
		port:         os.Getenv("PORT"),
		configPath:   os.Getenv("CONFIG_PATH"),
		metricsToken: os.Getenv("METRICS_TOKEN"),
	}
	if cfg.dataPath == "" {
		cfg.dataPath = "./machine_states.csv"
	}
	if cfg.port == "" {
		cfg.port = "8050"
	}
	if v := os.Getenv("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return serverConfig{}, fmt.Errorf("DEBUG must be a boolean, got %q", v)
		}
		cfg.debug = debug
	}
	return cfg, nil
}

func newLogger(debug bool) *slog.Logger {
	if debug {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// isSQLite reports whether path names a SQLite record store rather than a CSV file.
func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// loadDataset reads the intervals at path. The returned *db.DB is nil for
// CSV input; otherwise the caller owns it.
func loadDataset(path, layout string) (*dataset.Dataset, *db.DB, error) {
	if !isSQLite(path) {
		data, err := dataset.LoadCSV(path, layout)
		return data, nil, err
	}
	database, err := db.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	records, err := database.Records()
	if err != nil {
		database.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("failed to read records: %w", err)
	}
	return dataset.New(records), database, nil
}

func newMux(h *handlers.Handler, metricsToken string, reg prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, metrics.Middleware(pattern, fn))
	}

	route("GET /{$}", h.Dashboard)
	route("GET /healthz", h.Health)

	// API docs
	route("GET /openapi.yaml", h.OpenAPISpec)
	route("GET /docs", h.Docs)

	// Dashboard data
	route("GET /api/v1/options", h.Options)
	route("POST /api/v1/charts", h.Charts)
	route("GET /api/v1/charts/{chart}", h.Chart)
	route("GET /api/v1/charts/{chart}/image", h.ChartImage)

	// Prometheus metrics, Bearer token auth when METRICS_TOKEN is set
	mux.Handle("GET /metrics", middleware.Auth(metricsToken, metrics.Handler(reg)))
	return mux
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg.debug)
	slog.SetDefault(logger)

	settings, err := config.Load(cfg.configPath)
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	data, database, err := loadDataset(cfg.dataPath, settings.TimestampLayout)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	logger.Info("dataset loaded",
		"path", cfg.dataPath,
		"records", humanize.Comma(int64(data.Len())),
		"machines", len(data.Machines()),
		"states", len(data.States()),
	)
	if n := data.InvertedCount(); n > 0 {
		logger.Warn("intervals end before they start; durations clamped to zero", "count", n)
	}
	if unknown := data.UnknownStates(); len(unknown) > 0 {
		logger.Warn("states without an assigned color", "states", unknown, "fallback", settings.FallbackColor)
	}

	reg := metrics.NewRegistry(data)

	opts := charts.Options{
		Palette: charts.NewPalette(settings.Colors, settings.FallbackColor, settings.StrictColors),
		Window:  settings.DefaultWindow,
	}
	engine := dashboard.New(data, opts,
		dashboard.WithLogger(logger),
		dashboard.WithObserver(metrics.Recompute{}),
	)

	h := &handlers.Handler{Engine: engine, Version: version, Commit: commit, Debug: cfg.debug}
	if database != nil {
		h.Source = database
	}

	skip := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	handler := middleware.RequestLogger(logger, skip, newMux(h, cfg.metricsToken, reg))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "debug", cfg.debug)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	if database != nil {
		if err := database.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}
	logger.Info("server stopped")
}
