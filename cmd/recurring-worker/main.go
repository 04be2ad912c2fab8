package main

import (
	"context"
	"os"
	"time"

	"tesoretto/internal/cli"
	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentRecurring)

	result := cli.OpenBackend(context.Background(), logger, cfg, true)
	defer result.Close()

	processor := services.NewRecurringProcessor(result.Backend, result.Publisher)

	ctx, cancel := cli.NotifyShutdown(logger)
	defer cancel()

	var relay *services.EventRelay
	if result.Publisher != nil {
		relay = services.NewEventRelay(result.Backend, result.Publisher, services.EventRelayConfig{
			PollInterval: cfg.EventRelayInterval,
			BatchSize:    cfg.EventBatchSize,
		})
		if err := relay.Start(ctx); err != nil {
			logger.Error("Failed to start event relay", applog.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled - materialized transactions will not be announced")
	}

	interval := cfg.RecurringInterval
	logger.Info("Recurring processor configured", "interval", interval)

	run := func(now time.Time) {
		res, err := processor.ProcessDue(ctx, core.DateOf(now))
		if err != nil {
			logger.Error("Recurring processing failed", applog.FieldError, err)
			return
		}
		if res.Err != nil {
			logger.Warn("Some templates failed", "failed", res.Failed, applog.FieldError, res.Err)
		}
		logger.Info("Recurring processing pass complete",
			"processed", res.Processed,
			"skipped", res.Skipped,
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Running initial recurring processing...")
	run(time.Now())

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down recurring-worker...")
			if relay != nil {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := relay.Stop(stopCtx); err != nil {
					logger.Warn("Event relay did not stop cleanly", applog.FieldError, err)
				}
				stopCancel()
			}
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}
