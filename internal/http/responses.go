package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/services"
)

// uncategorizedLabel is shown for budgets without a (known) category.
const uncategorizedLabel = "Uncategorized"

func categoryLabel(names map[int64]string, id int64) string {
	if name := strings.TrimSpace(names[id]); name != "" {
		return name
	}
	return uncategorizedLabel
}

type errorResponse struct {
	Error string `json:"error"`
}

type budgetProgressResponse struct {
	BudgetID       int64   `json:"budget_id"`
	CategoryID     int64   `json:"category_id"`
	Category       string  `json:"category"`
	PeriodType     string  `json:"period_type"`
	PeriodYear     int     `json:"period_year"`
	PeriodMonth    int     `json:"period_month,omitempty"`
	AmountCents    int64   `json:"amount_cents"`
	SpentCents     int64   `json:"spent_cents"`
	RemainingCents int64   `json:"remaining_cents"`
	PercentUsed    float64 `json:"percent_used"`
	OverBudget     bool    `json:"over_budget"`
	Amount         string  `json:"amount"`
	Spent          string  `json:"spent"`
	Remaining      string  `json:"remaining"`
}

type goalProgressResponse struct {
	GoalID          int64   `json:"goal_id"`
	Name            string  `json:"name"`
	TargetCents     int64   `json:"target_cents"`
	CurrentCents    int64   `json:"current_cents"`
	RemainingCents  int64   `json:"remaining_cents"`
	PercentComplete float64 `json:"percent_complete"`
	TargetDate      string  `json:"target_date,omitempty"`
	Completed       bool    `json:"completed"`
	Target          string  `json:"target"`
	Current         string  `json:"current"`
	Remaining       string  `json:"remaining"`
}

type recurringRunResponse struct {
	AsOf      string   `json:"as_of"`
	Checked   int      `json:"checked"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func (s *Server) budgetResponse(bp services.BudgetProgress, names map[int64]string) budgetProgressResponse {
	b := bp.Budget
	return budgetProgressResponse{
		BudgetID:       b.ID,
		CategoryID:     b.CategoryID,
		Category:       categoryLabel(names, b.CategoryID),
		PeriodType:     string(b.PeriodType),
		PeriodYear:     b.PeriodYear,
		PeriodMonth:    b.PeriodMonth,
		AmountCents:    b.Amount.Cents,
		SpentCents:     bp.Spent.Cents,
		RemainingCents: bp.Remaining.Cents,
		PercentUsed:    bp.PercentUsed,
		OverBudget:     bp.OverBudget,
		Amount:         s.format(b.Amount),
		Spent:          s.format(bp.Spent),
		Remaining:      s.format(bp.Remaining),
	}
}

func (s *Server) goalResponse(gp services.GoalProgress) goalProgressResponse {
	g := gp.Goal
	resp := goalProgressResponse{
		GoalID:          g.ID,
		Name:            g.Name,
		TargetCents:     g.TargetAmount.Cents,
		CurrentCents:    g.CurrentAmount.Cents,
		RemainingCents:  gp.Remaining.Cents,
		PercentComplete: gp.PercentComplete,
		Completed:       g.IsCompleted,
		Target:          s.format(g.TargetAmount),
		Current:         s.format(g.CurrentAmount),
		Remaining:       s.format(gp.Remaining),
	}
	if !g.TargetDate.IsZero() {
		resp.TargetDate = g.TargetDate.String()
	}
	return resp
}

func (s *Server) format(m core.Money) string {
	return core.FormatMoney(m, s.currency, s.currencies)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// requireMethod writes 405 and returns false unless r uses method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}
