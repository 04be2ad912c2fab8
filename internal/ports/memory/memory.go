// Package memory is an in-process implementation of the storage ports, used
// by the memory backend and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tesoretto/internal/core"
	"tesoretto/internal/ports"
)

type Store struct {
	mu        sync.Mutex
	nextID    int64
	templates map[int64]core.RecurringTemplate
	txs       []core.Transaction
	budgets   []core.Budget
	goals     []core.Goal
	published map[int64]bool
	names     map[int64]string

	// FailTemplate makes MaterializeOccurrence fail for the given template IDs.
	FailTemplate map[int64]error
}

func New() *Store {
	return &Store{
		templates:    map[int64]core.RecurringTemplate{},
		published:    map[int64]bool{},
		names:        map[int64]string{},
		FailTemplate: map[int64]error{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddTemplate stores t, assigning an ID when it has none.
func (s *Store) AddTemplate(t core.RecurringTemplate) core.RecurringTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	}
	s.templates[t.ID] = t
	return t
}

func (s *Store) AddBudget(b core.Budget) core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.id()
	}
	s.budgets = append(s.budgets, b)
	return b
}

func (s *Store) AddGoal(g core.Goal) core.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == 0 {
		g.ID = s.id()
	}
	s.goals = append(s.goals, g)
	return g
}

func (s *Store) AddCategory(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = name
}

func (s *Store) CategoryNames(context.Context) (map[int64]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]string, len(s.names))
	for id, name := range s.names {
		out[id] = name
	}
	return out, nil
}

// AddTransaction records a manual transaction.
func (s *Store) AddTransaction(tx core.Transaction) core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.id()
	s.txs = append(s.txs, tx)
	return tx
}

// Template returns the current state of a template.
func (s *Store) Template(id int64) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return core.RecurringTemplate{}, fmt.Errorf("template %d: %w", id, ports.ErrNotFound)
	}
	return t, nil
}

// Transactions returns a copy of all stored transactions.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...)
}

func (s *Store) DueTemplates(_ context.Context, asOf core.Date) ([]core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringTemplate
	for _, t := range s.templates {
		if t.IsActive && !t.NextDueDate.After(asOf) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) MaterializeOccurrence(_ context.Context, tx core.Transaction, expectedDue, nextDue core.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailTemplate[tx.RecurringTemplateID]; err != nil {
		return 0, err
	}
	t, ok := s.templates[tx.RecurringTemplateID]
	if !ok {
		return 0, fmt.Errorf("template %d: %w", tx.RecurringTemplateID, ports.ErrNotFound)
	}
	if !t.NextDueDate.Equal(expectedDue) {
		return 0, ports.ErrStaleTemplate
	}
	tx.ID = s.id()
	s.txs = append(s.txs, tx)
	t.NextDueDate = nextDue
	s.templates[t.ID] = t
	return tx.ID, nil
}

func (s *Store) ActiveBudgets(_ context.Context, ownerID int64, year, month int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if !b.IsActive || b.OwnerID != ownerID || b.PeriodYear != year {
			continue
		}
		if b.PeriodType == core.PeriodMonthly && b.PeriodMonth != month {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) BudgetsCovering(_ context.Context, categoryID int64, d core.Date) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.IsActive && b.CategoryID == categoryID && b.Covers(d) {
			out = append(out, b)
		}
	}
	return out, nil
}

// PeriodSpend sums expenses in [start, end). Category 0 selects
// uncategorized transactions, matching the SQLite store.
func (s *Store) PeriodSpend(_ context.Context, categoryID int64, start, end core.Date) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, tx := range s.txs {
		if tx.Type != core.Expense || tx.CategoryID != categoryID {
			continue
		}
		if tx.TransactionDate.Before(start) || !tx.TransactionDate.Before(end) {
			continue
		}
		total += tx.Amount.Cents
	}
	return core.Money{Cents: total}, nil
}

func (s *Store) ActiveGoals(_ context.Context, ownerID int64) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.IsActive && g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) PendingEvents(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.txs {
		if !tx.IsRecurring || s.published[tx.ID] {
			continue
		}
		out = append(out, tx)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, transactionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[transactionID] = true
	return nil
}
