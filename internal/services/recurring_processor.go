package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/ports"
)

// ProcessResult summarizes one processing pass.
type ProcessResult struct {
	Checked   int
	Processed int
	Skipped   int // already advanced by a concurrent or repeated pass
	Failed    int
	Err       error // joined per-template failures, nil when Failed == 0
}

// RecurringProcessor turns due recurring templates into transactions.
type RecurringProcessor struct {
	store     ports.TemplateStore
	publisher ports.EventPublisher
	advancers AdvancerRegistry
	logger    *slog.Logger
}

// NewRecurringProcessor creates a new recurring transaction processor.
// publisher may be nil, in which case no events are emitted.
func NewRecurringProcessor(store ports.TemplateStore, publisher ports.EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		store:     store,
		publisher: publisher,
		advancers: NewAdvancerRegistry(),
		logger:    applog.ForComponent(applog.ComponentRecurring),
	}
}

// WithAdvancers replaces the frequency registry used to compute next due dates.
func (p *RecurringProcessor) WithAdvancers(r AdvancerRegistry) *RecurringProcessor {
	p.advancers = r
	return p
}

// ProcessDue materializes one occurrence for every template due on asOf and
// advances each by a single period. A template that fails does not stop the
// others; the returned error is only set when the pass could not start.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, asOf core.Date) (ProcessResult, error) {
	if p.store == nil {
		return ProcessResult{}, fmt.Errorf("processor not properly initialized")
	}

	candidates, err := p.store.DueTemplates(ctx, asOf)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("failed to get due recurring templates: %w", err)
	}
	due := SelectDueTemplates(candidates, asOf)

	p.logger.InfoContext(ctx, "Processing recurring templates",
		"due", len(due),
		"as_of", asOf.String())

	res := ProcessResult{Checked: len(due)}
	var errs []error

	for _, t := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			res.Failed += len(due) - res.Processed - res.Skipped - res.Failed
			break
		}

		tx, err := p.processOne(ctx, t, asOf)
		switch {
		case errors.Is(err, ports.ErrStaleTemplate):
			res.Skipped++
			p.logger.InfoContext(ctx, "Recurring template already advanced, skipping",
				applog.FieldTemplateID, t.ID,
				"next_due_date", t.NextDueDate.String())
			continue
		case err != nil:
			res.Failed++
			errs = append(errs, fmt.Errorf("template %d: %w", t.ID, err))
			p.logger.ErrorContext(ctx, "Failed to materialize recurring template",
				applog.FieldTemplateID, t.ID,
				"description", t.Description,
				applog.FieldError, err)
			continue
		}

		res.Processed++
		p.logger.InfoContext(ctx, "Created transaction from recurring template",
			applog.FieldTemplateID, t.ID,
			applog.FieldTransactionID, tx.ID,
			applog.FieldAmountCents, tx.Amount.Cents,
			"frequency", t.Frequency)

		p.publish(ctx, tx)
	}

	res.Err = errors.Join(errs...)

	p.logger.InfoContext(ctx, "Recurring processing complete",
		"processed", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"total_checked", res.Checked)

	return res, nil
}

func (p *RecurringProcessor) processOne(ctx context.Context, t core.RecurringTemplate, asOf core.Date) (core.Transaction, error) {
	tx := Materialize(t, asOf)
	if err := tx.Validate(); err != nil {
		return tx, fmt.Errorf("invalid transaction: %w", err)
	}

	if _, known := p.advancers.Lookup(t.Frequency); !known {
		p.logger.WarnContext(ctx, "Unknown frequency, advancing monthly",
			applog.FieldTemplateID, t.ID,
			"frequency", t.Frequency)
	}
	next := p.advancers.Advance(t.NextDueDate, t.Frequency)

	id, err := p.store.MaterializeOccurrence(ctx, tx, t.NextDueDate, next)
	if err != nil {
		return tx, err
	}
	tx.ID = id
	return tx, nil
}

// publish is best effort: the transaction is already committed. When the
// store keeps an outbox, events that fail here are picked up by EventRelay.
func (p *RecurringProcessor) publish(ctx context.Context, tx core.Transaction) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishMaterialized(ctx, tx); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish materialized transaction",
			applog.FieldTransactionID, tx.ID,
			applog.FieldError, err)
		return
	}
	if outbox, ok := p.store.(ports.Outbox); ok {
		if err := outbox.MarkPublished(ctx, tx.ID); err != nil {
			p.logger.WarnContext(ctx, "Failed to mark event published",
				applog.FieldTransactionID, tx.ID,
				applog.FieldError, err)
		}
	}
}
