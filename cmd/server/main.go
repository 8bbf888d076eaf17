package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"mediaqa/internal/config"
	"mediaqa/internal/history"
	"mediaqa/internal/httpx"
	"mediaqa/internal/ingest"
	"mediaqa/internal/scoring"
	"mediaqa/internal/store"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	hist, err := openHistory(cfg, logger)
	if err != nil {
		logger.Error("history backend", slog.String("backend", cfg.HistoryBackend), slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer hist.Close()

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewRowStore()
	loader := ingest.NewLoader(cl, st, logger, cfg)
	svc := scoring.NewService(st, hist, logger, cfg.MaxConcurrency)

	r := httpx.NewRouter(logger, loader, svc, st, hist)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server",
		slog.String("port", cfg.Port),
		slog.String("history", cfg.HistoryBackend))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func openHistory(cfg config.Config, logger *slog.Logger) (history.Store, error) {
	switch cfg.HistoryBackend {
	case "badger":
		return history.OpenBadger(cfg.BadgerPath, logger)
	case "postgres":
		return history.OpenPostgres(cfg.DSN())
	default:
		return history.NewMemoryStore(), nil
	}
}
