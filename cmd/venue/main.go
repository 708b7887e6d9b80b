package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mwaaas/OrderBook/params"
	"github.com/mwaaas/OrderBook/pkg/api"
	"github.com/mwaaas/OrderBook/pkg/book"
	"github.com/mwaaas/OrderBook/pkg/engine"
	"github.com/mwaaas/OrderBook/pkg/util"
)

func main() {
	// Load config from .env file and environment variables.
	cfg := params.LoadFromEnv("")

	var logger *zap.Logger
	var err error
	if cfg.Logging.File != "" {
		logger, err = util.NewLoggerWithFile(cfg.Logging.Level, cfg.Logging.File)
	} else {
		logger, err = util.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	registry := prometheus.NewRegistry()

	// The API server is wired after the engine, but the engine needs the
	// trade broadcast hook; bind it through a late-bound closure.
	var server *api.Server
	eng := engine.New(engine.Options{
		Instrument: cfg.Venue.Instrument,
		Logger:     sugar.With("component", "engine"),
		Registry:   registry,
		OnTrades:   func(trades []book.Trade) { server.BroadcastTrades(trades) },
	})
	server = api.NewServer(eng, sugar.With("component", "api"), registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: server.Handler(),
	}

	go func() {
		sugar.Infow("http server starting", "addr", cfg.HTTP.Addr, "instrument", cfg.Venue.Instrument)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("http server failed", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	sugar.Infow("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("shutdown error", "err", err)
	}
}
