package main

import (
	"os"

	"budgetdesk/internal/cli"
	"budgetdesk/internal/log"
	"budgetdesk/internal/services"
	"budgetdesk/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting budgetdesk-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	// Without a spreadsheet the worker writes to an in-memory ledger so the
	// sync state machine still runs in development.
	res, _, err := cli.OpenBackend(ctx, logger, cfg, true)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	if !cfg.LedgerEnabled() {
		logger.Warn("Google Sheets disabled, syncing to in-memory ledger")
	}

	pc := services.DefaultSyncProcessorConfig()
	pc.PollInterval = cfg.SyncInterval
	pc.BatchSize = cfg.SyncBatchSize
	proc := services.NewSyncProcessor(res.Store, res.Ledger, pc)

	var consumer worker.Consumer
	if res.Broker != nil {
		consumer = res.Broker
	} else {
		logger.Warn("AMQP broker not configured, relying on backfill", "interval", cfg.SyncInterval.String())
	}

	if err := worker.NewSyncWorker(proc, consumer).Run(ctx); err != nil {
		logger.Error("Sync worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Sync worker stopped")
}
