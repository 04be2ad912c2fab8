package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/ports"
)

// BudgetPercentageUsed returns periodSpend as a percentage of the budget
// amount. Values above 100 mean overspending and are returned as is. A zero
// budget amount yields 0.
func BudgetPercentageUsed(b core.Budget, periodSpend core.Money) float64 {
	return percentage(periodSpend.Cents, b.Amount.Cents)
}

// GoalPercentageComplete returns the current amount as a percentage of the
// target. Overfunded goals exceed 100. A zero target yields 0.
func GoalPercentageComplete(g core.Goal) float64 {
	return percentage(g.CurrentAmount.Cents, g.TargetAmount.Cents)
}

func percentage(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// BudgetProgress is a budget together with its spending in the period.
type BudgetProgress struct {
	Budget      core.Budget
	Spent       core.Money
	Remaining   core.Money // negative when over budget
	PercentUsed float64
	OverBudget  bool
}

// GoalProgress is a goal together with its completion percentage.
type GoalProgress struct {
	Goal            core.Goal
	Remaining       core.Money // zero once the target is reached
	PercentComplete float64
}

// NewBudgetProgress computes the derived values for b.
func NewBudgetProgress(b core.Budget, spent core.Money) BudgetProgress {
	return BudgetProgress{
		Budget:      b,
		Spent:       spent,
		Remaining:   core.Money{Cents: b.Amount.Cents - spent.Cents},
		PercentUsed: BudgetPercentageUsed(b, spent),
		OverBudget:  spent.Cents > b.Amount.Cents,
	}
}

// NewGoalProgress computes the derived values for g.
func NewGoalProgress(g core.Goal) GoalProgress {
	remaining := g.TargetAmount.Cents - g.CurrentAmount.Cents
	if remaining < 0 {
		remaining = 0
	}
	return GoalProgress{
		Goal:            g,
		Remaining:       core.Money{Cents: remaining},
		PercentComplete: GoalPercentageComplete(g),
	}
}

// spendQueryLimit bounds concurrent aggregation queries per report.
const spendQueryLimit = 4

// ProgressService assembles budget and goal progress for dashboards.
type ProgressService struct {
	budgets ports.BudgetReader
	spend   ports.SpendReader
	goals   ports.GoalReader
	logger  *slog.Logger
}

func NewProgressService(budgets ports.BudgetReader, spend ports.SpendReader, goals ports.GoalReader) *ProgressService {
	return &ProgressService{
		budgets: budgets,
		spend:   spend,
		goals:   goals,
		logger:  applog.ForComponent(applog.ComponentProgress),
	}
}

// BudgetReport returns progress for the owner's budgets active in year/month.
// The result keeps the order returned by the budget reader.
func (s *ProgressService) BudgetReport(ctx context.Context, ownerID int64, year, month int) ([]BudgetProgress, error) {
	budgets, err := s.budgets.ActiveBudgets(ctx, ownerID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]BudgetProgress, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(spendQueryLimit)
	for i, b := range budgets {
		i, b := i, b
		g.Go(func() error {
			spent, err := s.PeriodSpend(gctx, b)
			if err != nil {
				return fmt.Errorf("budget %d: %w", b.ID, err)
			}
			out[i] = NewBudgetProgress(b, spent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Built budget report",
		applog.FieldOwnerID, ownerID,
		"year", year,
		"month", month,
		"budgets", len(out))

	return out, nil
}

// PeriodSpend sums the expenses in b's category over b's period window.
func (s *ProgressService) PeriodSpend(ctx context.Context, b core.Budget) (core.Money, error) {
	start, end := b.Period()
	spent, err := s.spend.PeriodSpend(ctx, b.CategoryID, start, end)
	if err != nil {
		return core.Money{}, fmt.Errorf("period spend: %w", err)
	}
	return spent, nil
}

// GoalReport returns progress for the owner's active goals.
func (s *ProgressService) GoalReport(ctx context.Context, ownerID int64) ([]GoalProgress, error) {
	goals, err := s.goals.ActiveGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, NewGoalProgress(g))
	}
	return out, nil
}

// BudgetsAtRisk returns the budgets covering categoryID on d whose usage is
// at or above threshold percent.
func (s *ProgressService) BudgetsAtRisk(ctx context.Context, categoryID int64, d core.Date, threshold float64) ([]BudgetProgress, error) {
	budgets, err := s.budgets.BudgetsCovering(ctx, categoryID, d)
	if err != nil {
		return nil, fmt.Errorf("list covering budgets: %w", err)
	}
	var risky []BudgetProgress
	for _, b := range budgets {
		spent, err := s.PeriodSpend(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("budget %d: %w", b.ID, err)
		}
		bp := NewBudgetProgress(b, spent)
		if b.Amount.Cents > 0 && bp.PercentUsed >= threshold {
			risky = append(risky, bp)
		}
	}
	return risky, nil
}
