// Package main provides the BrandLens analysis server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandlens/brandlens/internal/agent"
	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/notify"
	"github.com/brandlens/brandlens/internal/queue"
	"github.com/brandlens/brandlens/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file overlaying env values")
	flag.Parse()

	var cfg config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			slog.Error("failed to load config file", "path", *configPath, "error", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Load()
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()
	slog.SetDefault(logger)

	slog.Info("starting brandlensd",
		"addr", cfg.ListenAddr,
		"provider", cfg.LLMProvider,
		"threshold", cfg.ConfidenceThreshold,
		"retention", cfg.Retention)

	jobs := queue.NewJobQueue(cfg.Retention)
	reviews := queue.NewReviewQueue(cfg.Retention)
	collector := metrics.NewCollector()

	hub := notify.NewHub()
	hub.Start()

	crawler, extractor, err := buildPipelineDeps(cfg)
	if err != nil {
		slog.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	orchestrator := agent.NewOrchestrator(jobs, reviews, crawler, extractor, collector, cfg.ConfidenceThreshold)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := queue.NewSweeper(jobs, reviews, cfg.SweepInterval)
	go sweeper.Run(ctx)

	srv := server.New(jobs, reviews, orchestrator, hub, collector, logger)
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// buildPipelineDeps selects the crawler and extractor implementations from
// config. The mock provider needs no network and is the default.
func buildPipelineDeps(cfg config.Config) (agent.Crawler, agent.Extractor, error) {
	var crawler agent.Crawler = agent.MockCrawler{}
	if cfg.FirecrawlURL != "" {
		crawler = agent.NewFirecrawlClient(cfg.FirecrawlURL)
	}

	if cfg.LLMProvider == config.ProviderMock {
		return crawler, agent.MockExtractor{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	model, err := agent.NewModel(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return crawler, agent.NewLLMExtractor(model), nil
}
