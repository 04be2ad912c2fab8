package ports

import (
	"context"
	"errors"

	"tesoretto/internal/core"
)

// ErrStaleTemplate is returned by MaterializeOccurrence when the template's
// next due date no longer matches the expected one, i.e. another pass
// already materialized this occurrence.
var ErrStaleTemplate = errors.New("recurring template already advanced")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	TemplateStore interface {
		// DueTemplates returns active templates with next_due_date <= asOf.
		DueTemplates(ctx context.Context, asOf core.Date) ([]core.RecurringTemplate, error)

		// MaterializeOccurrence stores tx and moves the template from
		// expectedDue to nextDue as a single unit of work.
		MaterializeOccurrence(ctx context.Context, tx core.Transaction, expectedDue, nextDue core.Date) (int64, error)
	}

	// BudgetReader lists budgets for progress reporting.
	BudgetReader interface {
		// ActiveBudgets returns the owner's active budgets for a month: monthly
		// budgets of year/month and yearly budgets of year.
		ActiveBudgets(ctx context.Context, ownerID int64, year, month int) ([]core.Budget, error)

		// BudgetsCovering returns active budgets on categoryID whose period contains d.
		BudgetsCovering(ctx context.Context, categoryID int64, d core.Date) ([]core.Budget, error)
	}

	// SpendReader aggregates expense transactions.
	SpendReader interface {
		// PeriodSpend sums expense amounts for categoryID in [start, end).
		// Category 0 means uncategorized.
		PeriodSpend(ctx context.Context, categoryID int64, start, end core.Date) (core.Money, error)
	}

	GoalReader interface {
		ActiveGoals(ctx context.Context, ownerID int64) ([]core.Goal, error)
	}

	CategoryReader interface {
		CategoryNames(ctx context.Context) (map[int64]string, error)
	}

	// EventPublisher announces materialized transactions to other processes.
	EventPublisher interface {
		PublishMaterialized(ctx context.Context, tx core.Transaction) error
	}
)

// Outbox tracks materialized transactions whose event has not been published yet.
type Outbox interface {
	PendingEvents(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkPublished(ctx context.Context, transactionID int64) error
}
