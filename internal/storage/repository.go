package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/ports"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, logger: applog.ForComponent(applog.ComponentStorage)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, ownerID int64, name, currency string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (owner_id, name, currency) VALUES (?, ?, ?)`,
		ownerID, name, currency)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, ownerID int64, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, name) VALUES (?, ?)`,
		ownerID, name)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return res.LastInsertId()
}

// CategoryNames maps category IDs to names.
func (r *SQLiteRepository) CategoryNames(ctx context.Context) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *SQLiteRepository) CreateTemplate(ctx context.Context, t core.RecurringTemplate) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("invalid template: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_templates
			(account_id, category_id, type, amount_cents, description, frequency, next_due_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.AccountID, nullID(t.CategoryID), string(t.Type), t.Amount.Cents,
		t.Description, string(t.Frequency), t.NextDueDate.String(), t.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create template: %w", err)
	}
	return res.LastInsertId()
}

const templateColumns = `id, account_id, category_id, type, amount_cents, description, frequency, next_due_date, is_active`

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTemplate{}, fmt.Errorf("template %d: %w", id, ports.ErrNotFound)
	}
	return t, err
}

// DueTemplates implements ports.TemplateStore. Dates are stored as
// YYYY-MM-DD so text comparison orders them chronologically.
func (r *SQLiteRepository) DueTemplates(ctx context.Context, asOf core.Date) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM recurring_templates
		WHERE is_active = 1 AND next_due_date <= ?
		ORDER BY next_due_date, id`,
		asOf.String())
	if err != nil {
		return nil, fmt.Errorf("query due templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MaterializeOccurrence implements ports.TemplateStore. The insert and the
// guarded advance share one database transaction.
func (r *SQLiteRepository) MaterializeOccurrence(ctx context.Context, tx core.Transaction, expectedDue, nextDue core.Date) (int64, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	res, err := dbtx.ExecContext(ctx, `
		UPDATE recurring_templates
		SET next_due_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND next_due_date = ?`,
		nextDue.String(), tx.RecurringTemplateID, expectedDue.String())
	if err != nil {
		return 0, fmt.Errorf("advance template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("advance template: %w", err)
	}
	if n == 0 {
		return 0, ports.ErrStaleTemplate
	}

	id, err := insertTransaction(ctx, dbtx, tx)
	if err != nil {
		return 0, err
	}

	if err := dbtx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	fields := applog.NewFields().
		WithTransaction(id, tx.RecurringTemplateID, tx.CategoryID, tx.Amount.Cents).
		WithOperation(applog.OpMaterialize)
	r.logger.DebugContext(ctx, "Materialized recurring occurrence",
		append(fields.ToSlice(), "next_due_date", nextDue.String())...)

	return id, nil
}

// CreateTransaction records a manual transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("invalid transaction: %w", err)
	}
	return insertTransaction(ctx, r.db, tx)
}

const transactionColumns = `id, account_id, category_id, type, amount_cents, description, transaction_date, is_recurring, recurring_template_id`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
	}
	return tx, err
}

// TransactionsForTemplate lists the occurrences created from a template.
func (r *SQLiteRepository) TransactionsForTemplate(ctx context.Context, templateID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE recurring_template_id = ?
		ORDER BY id`,
		templateID)
	if err != nil {
		return nil, fmt.Errorf("query template transactions: %w", err)
	}
	return collectTransactions(rows)
}

// PeriodSpend implements ports.SpendReader over [start, end). Category 0
// sums uncategorized expenses.
func (r *SQLiteRepository) PeriodSpend(ctx context.Context, categoryID int64, start, end core.Date) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE type = 'expense' AND category_id IS ?
			AND transaction_date >= ? AND transaction_date < ?`,
		nullID(categoryID), start.String(), end.String()).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum period spend: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// PendingEvents implements ports.Outbox.
func (r *SQLiteRepository) PendingEvents(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE is_recurring = 1 AND published_at IS NULL
		ORDER BY id
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query pending events: %w", err)
	}
	return collectTransactions(rows)
}

// MarkPublished implements ports.Outbox.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, transactionID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET published_at = CURRENT_TIMESTAMP WHERE id = ? AND published_at IS NULL`,
		transactionID)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("invalid budget: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (owner_id, category_id, amount_cents, period_type, period_year, period_month, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.OwnerID, nullID(b.CategoryID), b.Amount.Cents, string(b.PeriodType),
		b.PeriodYear, b.PeriodMonth, b.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create budget: %w", err)
	}
	return res.LastInsertId()
}

const budgetColumns = `id, owner_id, category_id, amount_cents, period_type, period_year, period_month, is_active`

// ActiveBudgets implements ports.BudgetReader: monthly budgets of year/month
// and yearly budgets of year.
func (r *SQLiteRepository) ActiveBudgets(ctx context.Context, ownerID int64, year, month int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE is_active = 1 AND owner_id = ? AND period_year = ?
			AND (period_type = 'yearly' OR period_month = ?)
		ORDER BY id`,
		ownerID, year, month)
	if err != nil {
		return nil, fmt.Errorf("query active budgets: %w", err)
	}
	return collectBudgets(rows)
}

// BudgetsCovering implements ports.BudgetReader.
func (r *SQLiteRepository) BudgetsCovering(ctx context.Context, categoryID int64, d core.Date) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE is_active = 1 AND category_id IS ? AND period_year = ?
			AND (period_type = 'yearly' OR period_month = ?)
		ORDER BY id`,
		nullID(categoryID), d.Year(), d.Month())
	if err != nil {
		return nil, fmt.Errorf("query covering budgets: %w", err)
	}
	return collectBudgets(rows)
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, fmt.Errorf("invalid goal: %w", err)
	}
	var targetDate sql.NullString
	if !g.TargetDate.IsZero() {
		targetDate = sql.NullString{String: g.TargetDate.String(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (owner_id, name, target_amount_cents, current_amount_cents, target_date, is_completed, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.OwnerID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		targetDate, g.IsCompleted, g.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create goal: %w", err)
	}
	return res.LastInsertId()
}

// ActiveGoals implements ports.GoalReader.
func (r *SQLiteRepository) ActiveGoals(ctx context.Context, ownerID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, target_amount_cents, current_amount_cents, target_date, is_completed, is_active
		FROM goals
		WHERE is_active = 1 AND owner_id = ?
		ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("query active goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var g core.Goal
		var targetDate sql.NullString
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount.Cents,
			&g.CurrentAmount.Cents, &targetDate, &g.IsCompleted, &g.IsActive); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if targetDate.Valid {
			if g.TargetDate, err = core.ParseDate(targetDate.String); err != nil {
				return nil, fmt.Errorf("goal %d target date: %w", g.ID, err)
			}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
