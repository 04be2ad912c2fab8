package services

import (
	"testing"

	"tesoretto/internal/core"
)

func template(id int64, due core.Date, active bool) core.RecurringTemplate {
	return core.RecurringTemplate{
		ID:          id,
		AccountID:   7,
		CategoryID:  3,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 120000},
		Description: "Rent",
		Frequency:   core.Monthly,
		NextDueDate: due,
		IsActive:    active,
	}
}

func TestSelectDueTemplates(t *testing.T) {
	asOf := core.NewDate(2024, 1, 20)
	templates := []core.RecurringTemplate{
		template(1, core.NewDate(2024, 1, 15), true),  // overdue
		template(2, core.NewDate(2024, 1, 20), true),  // due today
		template(3, core.NewDate(2024, 1, 21), true),  // future
		template(4, core.NewDate(2023, 1, 1), false),  // inactive, long overdue
		template(5, core.NewDate(2024, 1, 20), false), // inactive, due today
	}

	due := SelectDueTemplates(templates, asOf)

	got := map[int64]bool{}
	for _, d := range due {
		got[d.ID] = true
	}
	if len(due) != 2 || !got[1] || !got[2] {
		t.Fatalf("SelectDueTemplates returned %v, want templates 1 and 2", got)
	}
}

func TestSelectDueTemplatesNeverReturnsInactive(t *testing.T) {
	var templates []core.RecurringTemplate
	for i := 0; i < 30; i++ {
		templates = append(templates, template(int64(i), core.NewDate(2024, 1, 1).AddDays(i), false))
	}
	if due := SelectDueTemplates(templates, core.NewDate(2030, 1, 1)); len(due) != 0 {
		t.Fatalf("expected no inactive templates, got %d", len(due))
	}
}

func TestMaterialize(t *testing.T) {
	tpl := template(9, core.NewDate(2024, 1, 15), true)
	tx := Materialize(tpl, core.NewDate(2024, 1, 20))

	if tx.AccountID != tpl.AccountID || tx.CategoryID != tpl.CategoryID {
		t.Errorf("account/category not copied: %+v", tx)
	}
	if tx.Type != core.Expense || tx.Amount != tpl.Amount {
		t.Errorf("type/amount not copied: %+v", tx)
	}
	if tx.Description != "Rent (auto)" {
		t.Errorf("Description = %q, want %q", tx.Description, "Rent (auto)")
	}
	if !tx.TransactionDate.Equal(core.NewDate(2024, 1, 20)) {
		t.Errorf("TransactionDate = %s, want 2024-01-20", tx.TransactionDate)
	}
	if !tx.IsRecurring || tx.RecurringTemplateID != 9 {
		t.Errorf("recurring provenance not set: %+v", tx)
	}
	if tx.ID != 0 {
		t.Errorf("Materialize must not assign an ID")
	}
}
