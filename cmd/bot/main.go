package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flight_bot/internal/aviation"
	"flight_bot/internal/bot"
	"flight_bot/internal/config"
	"flight_bot/internal/intent"
	"flight_bot/internal/intent/ollama"
	"flight_bot/internal/metrics"
	"flight_bot/internal/scheduler"
	"flight_bot/internal/storage"
	"flight_bot/internal/subscription"
)

const metricsNamespace = "flightbot"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, metricsNamespace)

	provider := aviation.New(http.DefaultClient, cfg.AviationStackBaseURL, cfg.AviationStackAPIKey)
	provider.SetTimeout(cfg.ProviderTimeout)

	var classifier intent.Classifier
	if cfg.ClassifierEnabled() {
		classifier = ollama.New(http.DefaultClient, cfg.OllamaURL, cfg.OllamaModel)
		log.Info("fallback classifier enabled", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
	}
	resolver := intent.NewResolver(classifier, log.With("component", "intent"), intent.WithTimeout(cfg.ClassifierTimeout))

	registry := subscription.NewRegistry()
	m.TrackSubscriptions(metricsNamespace, registry.Len)

	b, err := bot.New(cfg.TelegramBotToken, cfg, bot.Deps{
		Store:    store,
		Registry: registry,
		Provider: provider,
		Resolver: resolver,
		Metrics:  m,
	}, log.With("component", "bot"))
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(registry, provider, b, log.With("component", "scheduler"))
	sched.SetTickInterval(cfg.PollInterval)
	sched.SetConcurrency(cfg.PollConcurrency)
	sched.SetCallTimeout(cfg.ProviderTimeout)
	sched.SetMetrics(m)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = newMetricsServer(cfg.MetricsAddr, reg)
		go func() {
			log.Info("starting metrics server", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "error", err)
			}
		}()
	}

	log.Info("starting bot", "home_airport", cfg.HomeAirport, "poll_interval", cfg.PollInterval)

	go sched.Run(ctx)

	b.Run(ctx)

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown", "error", err)
		}
	}

	log.Info("bot stopped")
}

func newMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
