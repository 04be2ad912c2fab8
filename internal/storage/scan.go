package storage

import (
	"context"
	"database/sql"
	"fmt"

	"tesoretto/internal/core"
)

type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// nullID stores optional foreign keys, where 0 means unset, as NULL.
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func insertTransaction(ctx context.Context, db execer, tx core.Transaction) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO transactions
			(account_id, category_id, type, amount_cents, description, transaction_date, is_recurring, recurring_template_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.AccountID, nullID(tx.CategoryID), string(tx.Type), tx.Amount.Cents,
		tx.Description, tx.TransactionDate.String(), tx.IsRecurring, nullID(tx.RecurringTemplateID))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func scanTemplate(s scanner) (core.RecurringTemplate, error) {
	var (
		t        core.RecurringTemplate
		category sql.NullInt64
		typ      string
		freq     string
		due      string
	)
	if err := s.Scan(&t.ID, &t.AccountID, &category, &typ, &t.Amount.Cents,
		&t.Description, &freq, &due, &t.IsActive); err != nil {
		if err == sql.ErrNoRows {
			return t, err
		}
		return t, fmt.Errorf("scan template: %w", err)
	}
	t.CategoryID = category.Int64
	t.Type = core.TransactionType(typ)
	t.Frequency = core.Frequency(freq)
	d, err := core.ParseDate(due)
	if err != nil {
		return t, fmt.Errorf("template %d next due date: %w", t.ID, err)
	}
	t.NextDueDate = d
	return t, nil
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx       core.Transaction
		category sql.NullInt64
		template sql.NullInt64
		typ      string
		date     string
	)
	if err := s.Scan(&tx.ID, &tx.AccountID, &category, &typ, &tx.Amount.Cents,
		&tx.Description, &date, &tx.IsRecurring, &template); err != nil {
		if err == sql.ErrNoRows {
			return tx, err
		}
		return tx, fmt.Errorf("scan transaction: %w", err)
	}
	tx.CategoryID = category.Int64
	tx.RecurringTemplateID = template.Int64
	tx.Type = core.TransactionType(typ)
	d, err := core.ParseDate(date)
	if err != nil {
		return tx, fmt.Errorf("transaction %d date: %w", tx.ID, err)
	}
	tx.TransactionDate = d
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	defer rows.Close()
	var out []core.Budget
	for rows.Next() {
		var (
			b        core.Budget
			category sql.NullInt64
			period   string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &category, &b.Amount.Cents, &period,
			&b.PeriodYear, &b.PeriodMonth, &b.IsActive); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CategoryID = category.Int64
		b.PeriodType = core.PeriodType(period)
		out = append(out, b)
	}
	return out, rows.Err()
}
