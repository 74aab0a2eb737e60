package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetdesk/internal/backend"
	"budgetdesk/internal/cli"
	apphttp "budgetdesk/internal/http"
	"budgetdesk/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

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
	svc.StartCacheCleanup(time.Minute)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Services:           svc,
		Store:              res.Store,
		Budgets:            res.Budgets,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		Currency:           cfg.Currency,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting budgetdesk server", "port", cfg.Port, "backend", string(bc.Type))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			cancel()
		}
	}

	cli.Shutdown(logger, 30*time.Second, func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	})
}
