// Command drawdown-watch runs the analyzer as a long-lived service: it
// re-analyzes the configured series file on an interval, persists each run,
// alerts on significant drawdowns via Telegram, and optionally serves the
// results over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hydrolab/drawdown/internal/config"
	"github.com/hydrolab/drawdown/internal/logger"
	"github.com/hydrolab/drawdown/internal/monitor"
	"github.com/hydrolab/drawdown/internal/server"
	"github.com/hydrolab/drawdown/internal/storage"
	"github.com/hydrolab/drawdown/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.Watch.Enabled {
		log.Fatalf("watch.enabled must be true for drawdown-watch")
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Infof("Configuration loaded from %s", *configPath)

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()

	var notifier monitor.Notifier
	if cfg.Telegram.Enabled {
		client, err := telegram.NewClient(
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries,
			cfg.Telegram.RetryDelayBase,
		)
		if err != nil {
			logger.Fatalf("Failed to initialize Telegram client: %v", err)
		}
		notifier = client
		logger.Infof("Telegram alerts enabled")
	} else {
		logger.Debugf("Telegram alerts disabled")
	}

	mon := monitor.New(monitor.Config{
		Source:         cfg.Input.Path,
		Epsilon:        cfg.Analysis.Epsilon,
		AlertThreshold: cfg.Watch.AlertThreshold,
		Cooldown:       cfg.Watch.Cooldown,
	}, store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Infof("Shutdown signal received, cleaning up...")
		cancel()
	}()

	var wg sync.WaitGroup

	if cfg.Server.Enabled {
		srv := &http.Server{
			Addr:    cfg.Server.ListenAddr,
			Handler: server.New(store).Router(),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Infof("Results API listening on %s", cfg.Server.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("HTTP server failed: %v", err)
				cancel()
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("HTTP server shutdown failed: %v", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		mon.Run(ctx, cfg.Watch.Interval)
	}()

	wg.Wait()
	logger.Infof("Shutdown complete")
}
