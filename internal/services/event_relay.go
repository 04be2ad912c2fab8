package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	applog "tesoretto/internal/log"
	"tesoretto/internal/ports"
)

// EventRelayConfig holds configuration for the event relay
type EventRelayConfig struct {
	// PollInterval is how often to look for unpublished events (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of events to publish per poll (default: 50)
	BatchSize int
}

// DefaultEventRelayConfig returns sensible defaults
func DefaultEventRelayConfig() EventRelayConfig {
	return EventRelayConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    50,
	}
}

// EventRelay re-publishes materialized transactions whose event was lost,
// e.g. because the broker was down when the recurring pass ran. Together with
// the processor's immediate publish this gives at-least-once delivery.
type EventRelay struct {
	outbox    ports.Outbox
	publisher ports.EventPublisher
	config    EventRelayConfig
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewEventRelay(outbox ports.Outbox, publisher ports.EventPublisher, config EventRelayConfig) *EventRelay {
	def := DefaultEventRelayConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	return &EventRelay{
		outbox:    outbox,
		publisher: publisher,
		config:    config,
		logger:    applog.ForComponent(applog.ComponentRelay),
	}
}

// Start begins the relay loop. Returns an error if already running.
func (r *EventRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("event relay is already running")
	}
	if r.outbox == nil || r.publisher == nil {
		return fmt.Errorf("event relay not properly initialized")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.runLoop(ctx)

	r.logger.InfoContext(ctx, "Event relay started",
		"poll_interval", r.config.PollInterval,
		"batch_size", r.config.BatchSize)
	return nil
}

// Stop signals the loop to finish and waits for it.
func (r *EventRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		r.logger.InfoContext(ctx, "Event relay stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Event relay stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the relay loop is active
func (r *EventRelay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *EventRelay) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	r.Flush(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// Flush publishes one batch of pending events and returns how many went out.
// It stops at the first publish error so events keep their order.
func (r *EventRelay) Flush(ctx context.Context) int {
	pending, err := r.outbox.PendingEvents(ctx, r.config.BatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load pending events", applog.FieldError, err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	r.logger.DebugContext(ctx, "Relaying pending events", "count", len(pending))

	sent := 0
	for _, tx := range pending {
		if err := r.publisher.PublishMaterialized(ctx, tx); err != nil {
			r.logger.WarnContext(ctx, "Event relay publish failed, will retry",
				applog.FieldTransactionID, tx.ID,
				applog.FieldOperation, applog.OpPublish,
				applog.FieldError, err)
			break
		}
		if err := r.outbox.MarkPublished(ctx, tx.ID); err != nil {
			r.logger.ErrorContext(ctx, "Failed to mark event published",
				applog.FieldTransactionID, tx.ID,
				applog.FieldError, err)
			break
		}
		sent++
	}

	if sent > 0 {
		r.logger.InfoContext(ctx, "Relayed pending events", "sent", sent, "pending", len(pending))
	}
	return sent
}
