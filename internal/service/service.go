package service

import (
	"context"

	"github.com/Dan9191/expense-service/internal/models"
)

// UserStore persists users
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, name, email string) error
}

// ExpenseStore persists expenses. Every method is scoped to the owning user.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, userID int64, in models.ExpenseInput) (*models.Expense, error)
	GetExpense(ctx context.Context, id, userID int64) (*models.Expense, error)
	ListExpenses(ctx context.Context, userID int64, limit, offset int) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, id, userID int64, in models.ExpenseInput) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id, userID int64) error
	ExpensesByCategory(ctx context.Context, userID int64, category string) ([]models.Expense, error)
	ExpensesByDateRange(ctx context.Context, userID int64, start, end models.Date) ([]models.Expense, error)
	SearchExpenses(ctx context.Context, userID int64, text string) ([]models.Expense, error)
	AllExpenses(ctx context.Context, userID int64) ([]models.Expense, error)
	TotalByCategory(ctx context.Context, userID int64) ([]models.CategoryTotal, error)
	TotalExpense(ctx context.Context, userID int64) (models.Amount, error)
}
