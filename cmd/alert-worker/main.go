package main

import (
	"context"
	"errors"
	"os"

	"tesoretto/internal/amqp"
	"tesoretto/internal/cli"
	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentAlerts)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	// Budgets and spending are read only; this worker never publishes.
	result := cli.OpenBackend(context.Background(), logger, cfg, false)
	defer result.Close()

	// The consumer dials on its own and retries with backoff until the broker is up.
	client := amqp.NewDeferredClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	defer client.Close()

	store := result.Backend
	alerter := services.NewBudgetAlerter(services.NewProgressService(store, store, store), cfg.BudgetAlertThreshold, nil)

	ctx, cancel := cli.NotifyShutdown(logger)
	defer cancel()

	logger.Info("Consuming materialized transactions",
		"queue", cfg.AMQPQueue,
		"threshold", cfg.BudgetAlertThreshold)

	err := client.ConsumeMaterialized(ctx, func(ctx context.Context, msg *amqp.TransactionMaterialized) error {
		d, err := msg.Date()
		if err != nil {
			return err
		}
		n, err := alerter.Handle(ctx, services.MaterializedEvent{
			TransactionID: msg.TransactionID,
			CategoryID:    msg.CategoryID,
			Type:          core.TransactionType(msg.Type),
			Date:          d,
		})
		if err != nil {
			return err
		}
		logger.Debug("Processed materialized transaction",
			"message_id", msg.MessageID,
			applog.FieldTransactionID, msg.TransactionID,
			"alerts", n)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Alert-worker shutdown complete")
}
