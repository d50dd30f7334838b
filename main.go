package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"optionflow/config"
	"optionflow/internal/dashboard"
	"optionflow/internal/delta"
	"optionflow/internal/fetch"
	"optionflow/internal/metrics"
	"optionflow/logger"
	"optionflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Optionflow.Name,
		"version": cfg.Optionflow.Version,
	}).Info("starting optionflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.CloudWatch.Enabled {
		metrics.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	archiver, err := writer.NewChainArchiver(cfg.Archive)
	if err != nil {
		log.WithError(err).Error("Failed to initialize chain archiver")
		os.Exit(1)
	}

	client := delta.NewClient(cfg.Delta.BaseURL, cfg.Delta.Timeout(), cfg.Delta.RequestsPerSecond)
	store := fetch.NewStore()

	var fetcherArchiver fetch.Archiver
	if archiver != nil {
		fetcherArchiver = archiver
	}
	fetcher := fetch.NewFetcher(client, store, cfg.Fetch, fetcherArchiver)
	candles := fetch.NewCandleLoader(client, cfg.Fetch)

	server, err := dashboard.NewServer(cfg.Dashboard, log, store, fetcher, candles)
	if err != nil {
		log.WithError(err).Error("Failed to initialize dashboard server")
		os.Exit(1)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutting down")
		cancel()
	}()

	if cfg.Fetch.FetchOnStart {
		if _, err := fetcher.FetchAll(ctx); err != nil {
			log.WithError(err).Warn("initial fetch failed")
		}
	}

	if server != nil {
		if err := server.Run(ctx, cfg.Optionflow.Name); err != nil {
			log.WithError(err).Error("dashboard server exited")
			os.Exit(1)
		}
		return
	}

	// Headless mode: nothing to serve, just wait for shutdown.
	<-ctx.Done()
}
