package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dan9191/expense-service/internal/apperr"
	"github.com/Dan9191/expense-service/internal/export"
	"github.com/Dan9191/expense-service/internal/models"
	"github.com/Dan9191/expense-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Pagination bounds for ListExpenses
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

const expenseNotFound = "Expense not found"

// maxAmount is the first value that no longer fits NUMERIC(10,2)
var maxAmount = decimal.New(1, 8)

// ExpenseService orchestrates expense operations for a single authenticated user
type ExpenseService struct {
	expenses ExpenseStore
	log      *logrus.Logger
	now      func() time.Time
}

// NewExpenseService initializes a new expense service
func NewExpenseService(expenses ExpenseStore, log *logrus.Logger) *ExpenseService {
	return &ExpenseService{expenses: expenses, log: log, now: time.Now}
}

// ClampPage bounds limit to [1, MaxLimit] and offset to >= 0
func ClampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Create stores a new expense for userID and returns the stored row
func (s *ExpenseService) Create(ctx context.Context, userID int64, in models.ExpenseInput) (*models.Expense, error) {
	if err := validateExpense(in); err != nil {
		return nil, err
	}
	e, err := s.expenses.CreateExpense(ctx, userID, in)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "expense_id": e.ID, "category": e.Category}).Info("Expense created")
	return e, nil
}

// List returns a page of the user's expenses, newest date first
func (s *ExpenseService) List(ctx context.Context, userID int64, limit, offset int) ([]models.Expense, error) {
	limit, offset = ClampPage(limit, offset)
	list, err := s.expenses.ListExpenses(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// Get returns one of the user's expenses
func (s *ExpenseService) Get(ctx context.Context, id, userID int64) (*models.Expense, error) {
	e, err := s.expenses.GetExpense(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(expenseNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return e, nil
}

// Update overwrites one of the user's expenses and returns the stored row
func (s *ExpenseService) Update(ctx context.Context, id, userID int64, in models.ExpenseInput) (*models.Expense, error) {
	if err := validateExpense(in); err != nil {
		return nil, err
	}
	e, err := s.expenses.UpdateExpense(ctx, id, userID, in)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(expenseNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "expense_id": id}).Info("Expense updated")
	return e, nil
}

// Delete removes one of the user's expenses
func (s *ExpenseService) Delete(ctx context.Context, id, userID int64) error {
	err := s.expenses.DeleteExpense(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(expenseNotFound)
	}
	if err != nil {
		return apperr.Internal(err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "expense_id": id}).Info("Expense deleted")
	return nil
}

// ByCategory returns the user's expenses in one category
func (s *ExpenseService) ByCategory(ctx context.Context, userID int64, category string) ([]models.Expense, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.Validation("Category is required")
	}
	return wrapList(s.expenses.ExpensesByCategory(ctx, userID, category))
}

// ByDateRange returns the user's expenses dated within [start, end]
func (s *ExpenseService) ByDateRange(ctx context.Context, userID int64, start, end models.Date) ([]models.Expense, error) {
	if end.Before(start.Time) {
		return nil, apperr.Validation("endDate must not be before startDate",
			apperr.FieldError{Field: "endDate", Message: "endDate must not be before startDate"})
	}
	return wrapList(s.expenses.ExpensesByDateRange(ctx, userID, start, end))
}

// Search matches text case-insensitively against description and category
func (s *ExpenseService) Search(ctx context.Context, userID int64, text string) ([]models.Expense, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Search query is required")
	}
	return wrapList(s.expenses.SearchExpenses(ctx, userID, text))
}

// TotalByCategory sums the user's expenses per category
func (s *ExpenseService) TotalByCategory(ctx context.Context, userID int64) ([]models.CategoryTotal, error) {
	totals, err := s.expenses.TotalByCategory(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return totals, nil
}

// Total sums all of the user's expenses; zero when there are none
func (s *ExpenseService) Total(ctx context.Context, userID int64) (models.Amount, error) {
	total, err := s.expenses.TotalExpense(ctx, userID)
	if err != nil {
		return models.Amount{}, apperr.Internal(err)
	}
	return total, nil
}

// Export renders all of the user's expenses as an XML document
func (s *ExpenseService) Export(ctx context.Context, userID int64) ([]byte, error) {
	list, err := s.expenses.AllExpenses(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	doc, err := export.RenderXML(userID, list, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return doc, nil
}

func wrapList(list []models.Expense, err error) ([]models.Expense, error) {
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// validateExpense enforces the invariants every stored expense must satisfy.
// Request decoding reports the friendlier per-field messages first.
func validateExpense(in models.ExpenseInput) error {
	var fields []apperr.FieldError
	if strings.TrimSpace(in.Description) == "" {
		fields = append(fields, apperr.FieldError{Field: "description", Message: "Description is required"})
	}
	switch {
	case !in.Amount.IsPositive():
		fields = append(fields, apperr.FieldError{Field: "amount", Message: "Amount must be greater than 0"})
	case !in.Amount.HasCents():
		fields = append(fields, apperr.FieldError{Field: "amount", Message: "Amount must have at most 2 decimal places"})
	case in.Amount.GreaterThanOrEqual(maxAmount):
		fields = append(fields, apperr.FieldError{Field: "amount", Message: "Amount must be less than 100000000"})
	}
	if strings.TrimSpace(in.Category) == "" {
		fields = append(fields, apperr.FieldError{Field: "category", Message: "Category is required"})
	}
	if in.Date.IsZero() {
		fields = append(fields, apperr.FieldError{Field: "date", Message: "Valid date is required"})
	}
	if len(fields) > 0 {
		return apperr.Validation("Validation failed", fields...)
	}
	return nil
}
