package services

import (
	"tesoretto/internal/core"
)

// SelectDueTemplates returns the active templates whose next due date is on
// or before asOf. The input order is kept but callers must not rely on it.
func SelectDueTemplates(templates []core.RecurringTemplate, asOf core.Date) []core.RecurringTemplate {
	var due []core.RecurringTemplate
	for _, t := range templates {
		if !t.IsActive {
			continue
		}
		if t.NextDueDate.After(asOf) {
			continue
		}
		due = append(due, t)
	}
	return due
}

// Materialize builds the concrete transaction for one occurrence of t.
// Persisting it, and advancing t, is the caller's job.
func Materialize(t core.RecurringTemplate, occurrence core.Date) core.Transaction {
	return core.Transaction{
		AccountID:           t.AccountID,
		CategoryID:          t.CategoryID,
		Type:                t.Type,
		Amount:              t.Amount,
		Description:         t.Description + core.AutoOriginMarker,
		TransactionDate:     occurrence,
		IsRecurring:         true,
		RecurringTemplateID: t.ID,
	}
}
