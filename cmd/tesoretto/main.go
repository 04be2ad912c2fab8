package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tesoretto/internal/cli"
	apphttp "tesoretto/internal/http"
	applog "tesoretto/internal/log"
	"tesoretto/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	result := cli.OpenBackend(context.Background(), logger, cfg, true)
	defer result.Close()

	store := result.Backend
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Progress:   services.NewProgressService(store, store, store),
		Processor:  services.NewRecurringProcessor(store, result.Publisher),
		Categories: store,
		Health:     result.Health,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReportCacheTTL:     cfg.ReportCacheTTL,
		Currency:           cfg.DefaultCurrency,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})
	srv.Start()

	ctx, cancel := cli.NotifyShutdown(logger)
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", applog.FieldError, err)
		}
	}()

	logger.Info("Server starting", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
