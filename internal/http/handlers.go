package http

import (
	"net/http"

	applog "tesoretto/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Health check failed", applog.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	ownerID, err := parseOwner(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month, err := parseYearMonth(q, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.deps.Progress == nil {
		writeError(w, http.StatusServiceUnavailable, "progress reporting not configured")
		return
	}
	report, err := s.budgetReport(ctx, ownerID, year, month)
	if err != nil {
		applog.LogError(ctx, "Failed to build budget report", err, applog.OpReport,
			applog.NewFields().WithComponent(applog.ComponentProgress))
		writeError(w, http.StatusInternalServerError, "failed to load budget progress")
		return
	}

	names := s.categoryNames(ctx)
	out := make([]budgetProgressResponse, 0, len(report))
	for _, bp := range report {
		out = append(out, s.budgetResponse(bp, names))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":   ownerID,
		"year":    year,
		"month":   month,
		"budgets": out,
	})
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()

	ownerID, err := parseOwner(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.deps.Progress == nil {
		writeError(w, http.StatusServiceUnavailable, "progress reporting not configured")
		return
	}
	report, err := s.deps.Progress.GoalReport(ctx, ownerID)
	if err != nil {
		applog.LogError(ctx, "Failed to build goal report", err, applog.OpReport,
			applog.NewFields().WithComponent(applog.ComponentProgress))
		writeError(w, http.StatusInternalServerError, "failed to load goal progress")
		return
	}

	out := make([]goalProgressResponse, 0, len(report))
	for _, gp := range report {
		out = append(out, s.goalResponse(gp))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner": ownerID,
		"goals": out,
	})
}

func (s *Server) handleRecurringRun(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()

	asOf, err := parseAsOf(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.deps.Processor == nil {
		writeError(w, http.StatusServiceUnavailable, "recurring processing not configured")
		return
	}
	res, err := s.deps.Processor.ProcessDue(ctx, asOf)
	if err != nil {
		applog.LogError(ctx, "Recurring run failed", err, applog.OpMaterialize,
			applog.NewFields().WithComponent(applog.ComponentRecurring))
		writeError(w, http.StatusInternalServerError, "recurring run failed")
		return
	}
	if res.Processed > 0 {
		s.budgetCache.Purge()
	}

	resp := recurringRunResponse{
		AsOf:      asOf.String(),
		Checked:   res.Checked,
		Processed: res.Processed,
		Skipped:   res.Skipped,
		Failed:    res.Failed,
	}
	if res.Err != nil {
		resp.Errors = splitJoined(res.Err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// splitJoined flattens an errors.Join result into its messages.
func splitJoined(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
