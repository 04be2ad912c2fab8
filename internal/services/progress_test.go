package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"tesoretto/internal/core"
	"tesoretto/internal/ports/memory"
)

const tolerance = 1e-9

func TestBudgetPercentageUsed(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		spend  int64
		want   float64
	}{
		{"overspent", 50000, 62500, 125.0},
		{"half", 20000, 10000, 50.0},
		{"nothing spent", 20000, 0, 0},
		{"zero budget", 0, 62500, 0},
		{"zero budget zero spend", 0, 0, 0},
		{"third", 300, 100, 100.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := core.Budget{Amount: core.Money{Cents: tt.amount}}
			got := BudgetPercentageUsed(b, core.Money{Cents: tt.spend})
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("BudgetPercentageUsed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGoalPercentageComplete(t *testing.T) {
	tests := []struct {
		name    string
		target  int64
		current int64
		want    float64
	}{
		{"zero target", 0, 1500, 0},
		{"quarter", 400000, 100000, 25},
		{"done", 1000, 1000, 100},
		{"overfunded", 1000, 1500, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := core.Goal{TargetAmount: core.Money{Cents: tt.target}, CurrentAmount: core.Money{Cents: tt.current}}
			got := GoalPercentageComplete(g)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("GoalPercentageComplete = %v, want %v", got, tt.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("GoalPercentageComplete returned %v", got)
			}
		})
	}
}

func TestPercentageMatchesRatio(t *testing.T) {
	for _, target := range []int64{1, 7, 100, 99999, 50000} {
		for _, a := range []int64{0, 1, 13, 50000, 1234567} {
			want := 100 * float64(a) / float64(target)
			g := core.Goal{TargetAmount: core.Money{Cents: target}, CurrentAmount: core.Money{Cents: a}}
			if got := GoalPercentageComplete(g); math.Abs(got-want) > 1e-6*math.Max(1, want) {
				t.Fatalf("goal %d/%d = %v, want %v", a, target, got, want)
			}
			b := core.Budget{Amount: core.Money{Cents: target}}
			if got := BudgetPercentageUsed(b, core.Money{Cents: a}); math.Abs(got-want) > 1e-6*math.Max(1, want) {
				t.Fatalf("budget %d/%d = %v, want %v", a, target, got, want)
			}
		}
	}
}

func TestNewGoalProgressRemaining(t *testing.T) {
	over := NewGoalProgress(core.Goal{TargetAmount: core.Money{Cents: 1000}, CurrentAmount: core.Money{Cents: 1500}})
	if over.Remaining.Cents != 0 || over.PercentComplete != 150 {
		t.Fatalf("unexpected progress: %+v", over)
	}
	under := NewGoalProgress(core.Goal{TargetAmount: core.Money{Cents: 1000}, CurrentAmount: core.Money{Cents: 250}})
	if under.Remaining.Cents != 750 {
		t.Fatalf("Remaining = %d, want 750", under.Remaining.Cents)
	}
}

func seedBudgets(store *memory.Store) (groceries, travel core.Budget) {
	groceries = store.AddBudget(core.Budget{
		OwnerID: 1, CategoryID: 10, Amount: core.Money{Cents: 50000},
		PeriodType: core.PeriodMonthly, PeriodYear: 2024, PeriodMonth: 3, IsActive: true,
	})
	travel = store.AddBudget(core.Budget{
		OwnerID: 1, CategoryID: 20, Amount: core.Money{Cents: 200000},
		PeriodType: core.PeriodYearly, PeriodYear: 2024, IsActive: true,
	})
	// Noise: other month, other owner, inactive.
	store.AddBudget(core.Budget{OwnerID: 1, CategoryID: 10, Amount: core.Money{Cents: 1}, PeriodType: core.PeriodMonthly, PeriodYear: 2024, PeriodMonth: 4, IsActive: true})
	store.AddBudget(core.Budget{OwnerID: 2, CategoryID: 30, Amount: core.Money{Cents: 1}, PeriodType: core.PeriodMonthly, PeriodYear: 2024, PeriodMonth: 3, IsActive: true})
	store.AddBudget(core.Budget{OwnerID: 1, CategoryID: 10, Amount: core.Money{Cents: 1}, PeriodType: core.PeriodMonthly, PeriodYear: 2024, PeriodMonth: 3, IsActive: false})

	expense := func(cat int64, cents int64, d core.Date) {
		store.AddTransaction(core.Transaction{CategoryID: cat, Type: core.Expense, Amount: core.Money{Cents: cents}, Description: "x", TransactionDate: d})
	}
	expense(10, 40000, core.NewDate(2024, 3, 1))
	expense(10, 22500, core.NewDate(2024, 3, 31))
	expense(10, 9999, core.NewDate(2024, 4, 1))  // next month
	expense(10, 8888, core.NewDate(2024, 2, 29)) // previous month
	expense(20, 50000, core.NewDate(2024, 7, 14))
	store.AddTransaction(core.Transaction{CategoryID: 10, Type: core.Income, Amount: core.Money{Cents: 70000}, Description: "refund", TransactionDate: core.NewDate(2024, 3, 10)})
	return groceries, travel
}

func TestProgressService_BudgetReport(t *testing.T) {
	store := memory.New()
	groceries, travel := seedBudgets(store)
	svc := NewProgressService(store, store, store)

	report, err := svc.BudgetReport(context.Background(), 1, 2024, 3)
	if err != nil {
		t.Fatalf("BudgetReport: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(report))
	}

	byID := map[int64]BudgetProgress{}
	for _, bp := range report {
		byID[bp.Budget.ID] = bp
	}

	g := byID[groceries.ID]
	if g.Spent.Cents != 62500 || g.PercentUsed != 125 || !g.OverBudget || g.Remaining.Cents != -12500 {
		t.Errorf("groceries progress = %+v", g)
	}
	tr := byID[travel.ID]
	if tr.Spent.Cents != 50000 || tr.PercentUsed != 25 || tr.OverBudget {
		t.Errorf("travel progress = %+v", tr)
	}
}

type failingSpend struct{}

func (failingSpend) PeriodSpend(context.Context, int64, core.Date, core.Date) (core.Money, error) {
	return core.Money{}, errors.New("query failed")
}

func TestProgressService_BudgetReportSpendError(t *testing.T) {
	store := memory.New()
	seedBudgets(store)
	svc := NewProgressService(store, failingSpend{}, store)
	if _, err := svc.BudgetReport(context.Background(), 1, 2024, 3); err == nil {
		t.Fatalf("expected error")
	}
}

func TestProgressService_GoalReport(t *testing.T) {
	store := memory.New()
	store.AddGoal(core.Goal{OwnerID: 1, Name: "Emergency fund", TargetAmount: core.Money{Cents: 400000}, CurrentAmount: core.Money{Cents: 100000}, IsActive: true})
	store.AddGoal(core.Goal{OwnerID: 1, Name: "Someday", TargetAmount: core.Money{}, CurrentAmount: core.Money{Cents: 500}, IsActive: true})
	store.AddGoal(core.Goal{OwnerID: 1, Name: "Archived", TargetAmount: core.Money{Cents: 1}, IsActive: false})

	report, err := NewProgressService(store, store, store).GoalReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("GoalReport: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(report))
	}
	if report[0].PercentComplete != 25 {
		t.Errorf("emergency fund = %v%%, want 25%%", report[0].PercentComplete)
	}
	if report[1].PercentComplete != 0 {
		t.Errorf("zero-target goal = %v%%, want 0%%", report[1].PercentComplete)
	}
}

func TestProgressService_BudgetsAtRisk(t *testing.T) {
	store := memory.New()
	groceries, _ := seedBudgets(store)
	svc := NewProgressService(store, store, store)

	risky, err := svc.BudgetsAtRisk(context.Background(), 10, core.NewDate(2024, 3, 15), 100)
	if err != nil {
		t.Fatalf("BudgetsAtRisk: %v", err)
	}
	if len(risky) != 1 || risky[0].Budget.ID != groceries.ID {
		t.Fatalf("expected groceries at risk, got %+v", risky)
	}

	calm, err := svc.BudgetsAtRisk(context.Background(), 20, core.NewDate(2024, 7, 14), 80)
	if err != nil {
		t.Fatalf("BudgetsAtRisk: %v", err)
	}
	if len(calm) != 0 {
		t.Fatalf("travel is at 25%%, expected no alert, got %+v", calm)
	}
}
