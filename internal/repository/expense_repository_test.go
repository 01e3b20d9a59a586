package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dan9191/expense-service/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var expenseCols = []string{"id", "user_id", "description", "amount", "category", "date", "split_with", "created_at", "updated_at"}

type ExpenseRepositoryTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	repo *ExpenseRepository
	now  time.Time
}

func (s *ExpenseRepositoryTestSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	require.NoError(s.T(), err)
	s.mock = mock
	s.repo = NewExpenseRepository(db)
	s.now = time.Now()
}

func (s *ExpenseRepositoryTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *ExpenseRepositoryTestSuite) row(id int64, desc, amount, category string, date time.Time, split interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(expenseCols).AddRow(id, int64(7), desc, amount, category, date, split, s.now, s.now)
}

func (s *ExpenseRepositoryTestSuite) TestCreateExpense() {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery(`INSERT INTO expenses`).
		WithArgs(int64(7), "Lunch", sqlmock.AnyArg(), "Food", "2024-01-01", `["bob"]`).
		WillReturnRows(s.row(11, "Lunch", "12.50", "Food", date, []byte(`["bob"]`)))

	e, err := s.repo.CreateExpense(context.Background(), 7, models.ExpenseInput{
		Description: "Lunch",
		Amount:      models.MustAmount("12.50"),
		Category:    "Food",
		Date:        models.MustDate("2024-01-01"),
		SplitWith:   json.RawMessage(`["bob"]`),
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(11), e.ID)
	assert.Equal(s.T(), "12.50", e.Amount.String())
	assert.Equal(s.T(), "2024-01-01", e.Date.String())
	assert.JSONEq(s.T(), `["bob"]`, string(e.SplitWith))
}

func (s *ExpenseRepositoryTestSuite) TestCreateExpenseWithoutSplit() {
	s.mock.ExpectQuery(`INSERT INTO expenses`).
		WithArgs(int64(7), "Bus", sqlmock.AnyArg(), "Transport", "2024-02-02", nil).
		WillReturnRows(s.row(12, "Bus", "2.00", "Transport", s.now, nil))

	e, err := s.repo.CreateExpense(context.Background(), 7, models.ExpenseInput{
		Description: "Bus",
		Amount:      models.MustAmount("2"),
		Category:    "Transport",
		Date:        models.MustDate("2024-02-02"),
	})

	require.NoError(s.T(), err)
	assert.Nil(s.T(), e.SplitWith)
}

func (s *ExpenseRepositoryTestSuite) TestCreateExpenseUnknownUser() {
	s.mock.ExpectQuery(`INSERT INTO expenses`).
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := s.repo.CreateExpense(context.Background(), 99, models.ExpenseInput{
		Description: "x", Amount: models.MustAmount("1"), Category: "Other", Date: models.MustDate("2024-01-01"),
	})

	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ExpenseRepositoryTestSuite) TestGetExpenseScopedByOwner() {
	s.mock.ExpectQuery(`FROM expenses WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(11), int64(8)).
		WillReturnRows(sqlmock.NewRows(expenseCols))

	e, err := s.repo.GetExpense(context.Background(), 11, 8)

	assert.Nil(s.T(), e)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ExpenseRepositoryTestSuite) TestListExpenses() {
	s.mock.ExpectQuery(`WHERE user_id = \$1\s+ORDER BY date DESC, id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(7), 50, 10).
		WillReturnRows(s.row(2, "Snack", "15.00", "Food", s.now, nil).
			AddRow(int64(1), int64(7), "Bus", "20.00", "Transport", s.now.AddDate(0, 0, -1), nil, s.now, s.now))

	list, err := s.repo.ListExpenses(context.Background(), 7, 50, 10)

	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), "Snack", list[0].Description)
}

func (s *ExpenseRepositoryTestSuite) TestListExpensesEmptyIsNotNil() {
	s.mock.ExpectQuery(`FROM expenses`).WillReturnRows(sqlmock.NewRows(expenseCols))

	list, err := s.repo.ListExpenses(context.Background(), 7, 50, 0)

	require.NoError(s.T(), err)
	assert.NotNil(s.T(), list)
	assert.Empty(s.T(), list)
}

func (s *ExpenseRepositoryTestSuite) TestUpdateExpenseNotOwned() {
	s.mock.ExpectQuery(`UPDATE expenses`).
		WithArgs("Lunch", sqlmock.AnyArg(), "Food", "2024-01-01", nil, int64(11), int64(8)).
		WillReturnRows(sqlmock.NewRows(expenseCols))

	_, err := s.repo.UpdateExpense(context.Background(), 11, 8, models.ExpenseInput{
		Description: "Lunch", Amount: models.MustAmount("3"), Category: "Food", Date: models.MustDate("2024-01-01"),
	})

	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ExpenseRepositoryTestSuite) TestDeleteExpense() {
	s.mock.ExpectExec(`DELETE FROM expenses WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(11), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`DELETE FROM expenses`).
		WithArgs(int64(11), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(s.T(), s.repo.DeleteExpense(context.Background(), 11, 7))
	assert.ErrorIs(s.T(), s.repo.DeleteExpense(context.Background(), 11, 7), ErrNotFound)
}

func (s *ExpenseRepositoryTestSuite) TestSearchEscapesWildcards() {
	s.mock.ExpectQuery(`description ILIKE \$2 OR category ILIKE \$2`).
		WithArgs(int64(7), `%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows(expenseCols))

	_, err := s.repo.SearchExpenses(context.Background(), 7, "50%_off")

	assert.NoError(s.T(), err)
}

func (s *ExpenseRepositoryTestSuite) TestExpensesByDateRange() {
	s.mock.ExpectQuery(`date BETWEEN \$2 AND \$3`).
		WithArgs(int64(7), "2024-01-01", "2024-01-31").
		WillReturnRows(s.row(1, "Lunch", "10.00", "Food", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), nil))

	list, err := s.repo.ExpensesByDateRange(context.Background(), 7, models.MustDate("2024-01-01"), models.MustDate("2024-01-31"))

	require.NoError(s.T(), err)
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), "2024-01-15", list[0].Date.String())
}

func (s *ExpenseRepositoryTestSuite) TestTotalByCategory() {
	s.mock.ExpectQuery(`SELECT category, SUM\(amount\) AS total\s+FROM expenses\s+WHERE user_id = \$1\s+GROUP BY category`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total"}).
			AddRow("Food", "22.50").
			AddRow("Transport", "3.10"))

	totals, err := s.repo.TotalByCategory(context.Background(), 7)

	require.NoError(s.T(), err)
	require.Len(s.T(), totals, 2)
	assert.Equal(s.T(), "Food", totals[0].Category)
	assert.Equal(s.T(), "22.50", totals[0].Total.String())
}

func (s *ExpenseRepositoryTestSuite) TestTotalExpenseZero() {
	s.mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM expenses WHERE user_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("0"))

	total, err := s.repo.TotalExpense(context.Background(), 7)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "0.00", total.String())
}

func (s *ExpenseRepositoryTestSuite) TestQueryErrorIsWrapped() {
	boom := errors.New("connection reset")
	s.mock.ExpectQuery(`FROM expenses`).WillReturnError(boom)

	_, err := s.repo.AllExpenses(context.Background(), 7)

	assert.ErrorIs(s.T(), err, boom)
	assert.Contains(s.T(), err.Error(), "failed to query expenses")
}

func TestExpenseRepositorySuite(t *testing.T) {
	suite.Run(t, new(ExpenseRepositoryTestSuite))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, `100\%`, escapeLike(`100%`))
	assert.Equal(t, `snake\_case`, escapeLike(`snake_case`))
	assert.Equal(t, "lunch", escapeLike("lunch"))
}
