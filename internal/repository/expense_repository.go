package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/expense-service/internal/models"
)

const expenseColumns = `id, user_id, description, amount, category, date, split_with, created_at, updated_at`

// ExpenseRepository provides database operations on expenses. Every statement
// is scoped by user_id so one user can never see or touch another's rows.
type ExpenseRepository struct {
	db *sql.DB
}

// NewExpenseRepository initializes a new expense repository
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// CreateExpense inserts an expense and returns the stored row
func (r *ExpenseRepository) CreateExpense(ctx context.Context, userID int64, in models.ExpenseInput) (*models.Expense, error) {
	query := `
		INSERT INTO expenses (user_id, description, amount, category, date, split_with, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING ` + expenseColumns
	e := &models.Expense{}
	err := scanExpense(r.db.QueryRowContext(ctx, query,
		userID, in.Description, in.Amount, in.Category, in.Date, splitParam(in.SplitWith)), e)
	if pgCode(err) == pgForeignKeyViolation {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return e, nil
}

// GetExpense retrieves an expense owned by userID
func (r *ExpenseRepository) GetExpense(ctx context.Context, id, userID int64) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND user_id = $2`
	e := &models.Expense{}
	err := scanExpense(r.db.QueryRowContext(ctx, query, id, userID), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns a page of the user's expenses, newest date first.
// Callers are expected to clamp limit and offset.
func (r *ExpenseRepository) ListExpenses(ctx context.Context, userID int64, limit, offset int) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3`
	return r.queryExpenses(ctx, query, userID, limit, offset)
}

// UpdateExpense overwrites the writable fields of an owned expense and returns the stored row
func (r *ExpenseRepository) UpdateExpense(ctx context.Context, id, userID int64, in models.ExpenseInput) (*models.Expense, error) {
	query := `
		UPDATE expenses
		SET description = $1, amount = $2, category = $3, date = $4, split_with = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6 AND user_id = $7
		RETURNING ` + expenseColumns
	e := &models.Expense{}
	err := scanExpense(r.db.QueryRowContext(ctx, query,
		in.Description, in.Amount, in.Category, in.Date, splitParam(in.SplitWith), id, userID), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return e, nil
}

// DeleteExpense removes an owned expense
func (r *ExpenseRepository) DeleteExpense(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpensesByCategory returns the user's expenses in one category
func (r *ExpenseRepository) ExpensesByCategory(ctx context.Context, userID int64, category string) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1 AND category = $2
		ORDER BY date DESC, id DESC`
	return r.queryExpenses(ctx, query, userID, category)
}

// ExpensesByDateRange returns the user's expenses dated within [start, end]
func (r *ExpenseRepository) ExpensesByDateRange(ctx context.Context, userID int64, start, end models.Date) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC, id DESC`
	return r.queryExpenses(ctx, query, userID, start, end)
}

// SearchExpenses matches text case-insensitively against description and category
func (r *ExpenseRepository) SearchExpenses(ctx context.Context, userID int64, text string) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1 AND (description ILIKE $2 OR category ILIKE $2)
		ORDER BY date DESC, id DESC`
	return r.queryExpenses(ctx, query, userID, "%"+escapeLike(text)+"%")
}

// AllExpenses returns every expense of the user, newest date first
func (r *ExpenseRepository) AllExpenses(ctx context.Context, userID int64) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, id DESC`
	return r.queryExpenses(ctx, query, userID)
}

// TotalByCategory sums the user's expenses per category
func (r *ExpenseRepository) TotalByCategory(ctx context.Context, userID int64) ([]models.CategoryTotal, error) {
	query := `
		SELECT category, SUM(amount) AS total
		FROM expenses
		WHERE user_id = $1
		GROUP BY category
		ORDER BY category`
	return r.queryTotals(ctx, query, userID)
}

// CategoryTotalsBetween sums the user's expenses per category within [start, end]
func (r *ExpenseRepository) CategoryTotalsBetween(ctx context.Context, userID int64, start, end models.Date) ([]models.CategoryTotal, error) {
	query := `
		SELECT category, SUM(amount) AS total
		FROM expenses
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		GROUP BY category
		ORDER BY category`
	return r.queryTotals(ctx, query, userID, start, end)
}

// TotalExpense sums all of the user's expenses, zero when there are none
func (r *ExpenseRepository) TotalExpense(ctx context.Context, userID int64) (models.Amount, error) {
	var total models.Amount
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return models.Amount{}, fmt.Errorf("failed to total expenses: %w", err)
	}
	return total, nil
}

func (r *ExpenseRepository) queryExpenses(ctx context.Context, query string, args ...interface{}) ([]models.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := scanExpense(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *ExpenseRepository) queryTotals(ctx context.Context, query string, args ...interface{}) ([]models.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	totals := []models.CategoryTotal{}
	for rows.Next() {
		var t models.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func scanExpense(row rowScanner, e *models.Expense) error {
	var split []byte
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &e.Category, &e.Date,
		&split, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return err
	}
	if split != nil {
		e.SplitWith = json.RawMessage(split)
	}
	return nil
}

// splitParam converts split_with into a JSONB parameter. lib/pq would send
// []byte as bytea, so the document travels as text.
func splitParam(raw json.RawMessage) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user text match literally
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
