// Command notifier runs the evacuation alert pipeline: it polls the public
// disaster-message feed, generates personalized action cards, and pushes
// them to registered devices.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pes-safety/evac-notifier/internal/actioncard"
	"github.com/pes-safety/evac-notifier/internal/adapter/fcm"
	"github.com/pes-safety/evac-notifier/internal/adapter/httpapi"
	auditkafka "github.com/pes-safety/evac-notifier/internal/adapter/kafka"
	"github.com/pes-safety/evac-notifier/internal/adapter/ollama"
	"github.com/pes-safety/evac-notifier/internal/adapter/safetydata"
	"github.com/pes-safety/evac-notifier/internal/config"
	"github.com/pes-safety/evac-notifier/internal/dedup"
	"github.com/pes-safety/evac-notifier/internal/eligibility"
	"github.com/pes-safety/evac-notifier/internal/observability"
	"github.com/pes-safety/evac-notifier/internal/poller"
	"github.com/pes-safety/evac-notifier/internal/ranker"
	"github.com/pes-safety/evac-notifier/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notifier: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	var cache dedup.Cache
	if cfg.RedisAddr != "" {
		cache = dedup.NewRedisCache(cfg.RedisAddr, cfg.DedupTTL, logger)
		logger.Info("dedup cache", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		cache = dedup.NewMemoryCache(cfg.DedupTTL, nil)
		logger.Info("dedup cache", "backend", "memory")
	}

	source := safetydata.NewClient(cfg.DisasterAPIURL, cfg.DisasterAPIKey, cfg.FetchTimeout)
	shelterRanker := ranker.New(store, cfg.RadiusCeilingKM, cfg.SearchRadiusKM, cfg.MaxShelters, cfg.WalkingSpeedKMH)
	filter := eligibility.New(store, cfg.ActiveWindow, nil, logger)

	backend := ollama.NewClient(cfg.OllamaEndpoint, cfg.OllamaModel, cfg.OllamaTimeout)
	generator := actioncard.NewGenerator(backend, cfg.GenerateAttempts, cfg.OllamaTemperature, nil, logger, metrics)

	dispatcher, err := fcm.NewDispatcher(ctx, cfg.FirebaseCredentials, logger)
	if err != nil {
		return fmt.Errorf("init fcm dispatcher: %w", err)
	}

	var auditor poller.Auditor
	if cfg.AuditEnabled {
		writer := auditkafka.NewAuditWriter(cfg.KafkaBrokers, cfg.AuditTopic, nil, logger)
		defer writer.Close()
		auditor = writer
		logger.Info("notification audit enabled", "topic", cfg.AuditTopic)
	}

	p := poller.New(
		source,
		cache,
		store,
		filter,
		shelterRanker,
		generator,
		dispatcher,
		auditor,
		poller.Options{
			Interval:       cfg.PollInterval,
			SearchRadiusKM: cfg.SearchRadiusKM,
			MaxShelters:    cfg.MaxShelters,
		},
		nil,
		logger,
		metrics,
	)

	server := httpapi.NewServer(cfg.HTTPAddr, p, shelterRanker, generator, logger)

	pollerDone := make(chan error, 1)
	go func() { pollerDone <- p.Run(ctx) }()

	serverDone := make(chan error, 1)
	go func() { serverDone <- server.Start() }()

	var serverErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serverErr = <-serverDone:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	// The poller owns the dedup cache; wait for it specifically so the
	// in-flight cycle drains and the cache closes before the process exits.
	if err := <-pollerDone; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("poller: %w", err)
	}
	if serverErr != nil {
		return serverErr
	}
	logger.Info("notifier stopped")
	return nil
}
