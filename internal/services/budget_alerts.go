package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"tesoretto/internal/cache"
	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
)

// MaterializedEvent is the part of a materialization event the alerter needs.
type MaterializedEvent struct {
	TransactionID int64
	CategoryID    int64
	Type          core.TransactionType
	Date          core.Date
}

// BudgetAlert is raised when spending in a budget reaches the threshold.
type BudgetAlert struct {
	Progress      BudgetProgress
	TransactionID int64
	Threshold     float64
}

// BudgetAlerter checks the budgets touched by a new expense. Events are
// delivered at least once, so recently seen transactions are ignored.
type BudgetAlerter struct {
	progress  *ProgressService
	threshold float64
	seen      cache.Cache[struct{}]
	notify    func(context.Context, BudgetAlert)
	logger    *slog.Logger
}

// NewBudgetAlerter creates an alerter. notify may be nil, in which case
// alerts are logged at warn level.
func NewBudgetAlerter(progress *ProgressService, threshold float64, notify func(context.Context, BudgetAlert)) *BudgetAlerter {
	a := &BudgetAlerter{
		progress:  progress,
		threshold: threshold,
		seen:      cache.NewLRUCache[struct{}](10000, 24*time.Hour),
		notify:    notify,
		logger:    applog.ForComponent(applog.ComponentAlerts),
	}
	if notify == nil {
		a.notify = a.logAlert
	}
	return a
}

// Handle raises an alert for every budget covering the event's category and
// date whose usage is at or above the threshold. It returns the number of
// alerts raised. Errors are returned so the caller can redeliver.
func (a *BudgetAlerter) Handle(ctx context.Context, ev MaterializedEvent) (int, error) {
	if ev.Type != core.Expense {
		return 0, nil
	}
	key := strconv.FormatInt(ev.TransactionID, 10)
	if _, dup := a.seen.Get(key); dup {
		a.logger.DebugContext(ctx, "Duplicate event ignored", applog.FieldTransactionID, ev.TransactionID)
		return 0, nil
	}

	risky, err := a.progress.BudgetsAtRisk(ctx, ev.CategoryID, ev.Date, a.threshold)
	if err != nil {
		return 0, fmt.Errorf("transaction %d: %w", ev.TransactionID, err)
	}
	for _, bp := range risky {
		a.notify(ctx, BudgetAlert{Progress: bp, TransactionID: ev.TransactionID, Threshold: a.threshold})
	}
	a.seen.Set(key, struct{}{})
	return len(risky), nil
}

func (a *BudgetAlerter) logAlert(ctx context.Context, alert BudgetAlert) {
	b := alert.Progress.Budget
	a.logger.WarnContext(ctx, "Budget threshold reached",
		"budget_id", b.ID,
		applog.FieldOwnerID, b.OwnerID,
		applog.FieldCategoryID, b.CategoryID,
		"period_type", b.PeriodType,
		"percent_used", alert.Progress.PercentUsed,
		"threshold", alert.Threshold,
		"spent_cents", alert.Progress.Spent.Cents,
		applog.FieldAmountCents, b.Amount.Cents,
		applog.FieldTransactionID, alert.TransactionID)
}
