package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/tokenlab/internal/config"
	"github.com/DeafMist/tokenlab/internal/elasticsearch"
	"github.com/DeafMist/tokenlab/internal/logger"
	"github.com/DeafMist/tokenlab/internal/normalize"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	doc := normalize.DefaultDocument()
	if cfg.Preprocessing != "" {
		doc, err = normalize.LoadConfig(cfg.Preprocessing)
		if err != nil {
			log.Error("load preprocessing config", slog.Any("err", err))
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.Connect(ctx, cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log, elasticsearch.DefaultBackoff)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	registry := tokenize.DefaultRegistry()
	if err := tokenize.RegisterModels(registry, tokenize.Models(cfg.Models)); err != nil {
		log.Warn("some tokenizer models are unavailable", slog.Any("err", err))
	}

	srv, err := newServer(log, cfg, esClient, doc, registry)
	if err != nil {
		log.Error("build normalizer", slog.Any("err", err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Timeout + 30*time.Second,
	}

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.Any("tokenizers", registry.Names()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
