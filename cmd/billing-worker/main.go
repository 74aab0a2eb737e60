package main

import (
	"context"
	"os"
	"time"

	"budgetdesk/internal/backend"
	"budgetdesk/internal/cli"
	"budgetdesk/internal/log"
	"budgetdesk/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentBilling)
	logger.Info("Starting billing-worker", "interval", cfg.BillingInterval.String())

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res, bc, err := cli.OpenBackend(ctx, logger, cfg, false)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	svc, err := backend.NewServices(res, bc)
	if err != nil {
		logger.Error("Failed to initialize services", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer svc.Close()

	proc := services.NewBillingProcessor(res.Store, svc.Expenses, cfg.BillingInterval)
	if err := proc.Start(ctx); err != nil {
		logger.Error("Failed to start billing processor", log.FieldError, err.Error())
		os.Exit(1)
	}

	<-ctx.Done()

	cli.Shutdown(logger, 15*time.Second, func(ctx context.Context) error {
		return proc.Stop(ctx)
	})
}
