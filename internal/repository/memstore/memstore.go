// Package memstore keeps users and expenses in process memory. It mirrors the
// PostgreSQL repositories, including owner scoping and the users->expenses
// cascade, and backs STORAGE_BACKEND=memory as well as tests.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/expense-service/internal/models"
	"github.com/Dan9191/expense-service/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	expenses map[int64]models.Expense
	nextUser int64
	nextExp  int64
}

func New() *Store {
	return &Store{
		users:    make(map[int64]models.User),
		expenses: make(map[int64]models.Expense),
	}
}

// CreateUser stores the user and fills in id and timestamps.
func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(user.Email, 0) {
		return repository.ErrDuplicateEmail
	}
	s.nextUser++
	now := time.Now()
	user.ID, user.CreatedAt, user.UpdatedAt = s.nextUser, now, now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if s.emailTaken(email, id) {
		return repository.ErrDuplicateEmail
	}
	u.Name, u.Email, u.UpdatedAt = name, email, time.Now()
	s.users[id] = u
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// deleteUser removes a user and, like the foreign key, every expense they own.
func (s *Store) deleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	for eid, e := range s.expenses {
		if e.UserID == id {
			delete(s.expenses, eid)
		}
	}
	return nil
}

func (s *Store) CreateExpense(_ context.Context, userID int64, in models.ExpenseInput) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	s.nextExp++
	now := time.Now()
	e := models.Expense{ID: s.nextExp, UserID: userID, CreatedAt: now}
	apply(&e, in, now)
	s.expenses[e.ID] = e
	return clone(e), nil
}

func (s *Store) GetExpense(_ context.Context, id, userID int64) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return clone(e), nil
}

func (s *Store) ListExpenses(_ context.Context, userID int64, limit, offset int) ([]models.Expense, error) {
	all := s.filter(userID, func(models.Expense) bool { return true })
	if offset >= len(all) {
		return []models.Expense{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Store) UpdateExpense(_ context.Context, id, userID int64, in models.ExpenseInput) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return nil, repository.ErrNotFound
	}
	apply(&e, in, time.Now())
	s.expenses[id] = e
	return clone(e), nil
}

func (s *Store) DeleteExpense(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ExpensesByCategory(_ context.Context, userID int64, category string) ([]models.Expense, error) {
	return s.filter(userID, func(e models.Expense) bool { return e.Category == category }), nil
}

func (s *Store) ExpensesByDateRange(_ context.Context, userID int64, start, end models.Date) ([]models.Expense, error) {
	return s.filter(userID, func(e models.Expense) bool { return inRange(e.Date, start, end) }), nil
}

func (s *Store) SearchExpenses(_ context.Context, userID int64, text string) ([]models.Expense, error) {
	needle := strings.ToLower(text)
	return s.filter(userID, func(e models.Expense) bool {
		return strings.Contains(strings.ToLower(e.Description), needle) ||
			strings.Contains(strings.ToLower(e.Category), needle)
	}), nil
}

func (s *Store) AllExpenses(_ context.Context, userID int64) ([]models.Expense, error) {
	return s.filter(userID, func(models.Expense) bool { return true }), nil
}

func (s *Store) TotalByCategory(_ context.Context, userID int64) ([]models.CategoryTotal, error) {
	return totals(s.filter(userID, func(models.Expense) bool { return true })), nil
}

func (s *Store) CategoryTotalsBetween(_ context.Context, userID int64, start, end models.Date) ([]models.CategoryTotal, error) {
	return totals(s.filter(userID, func(e models.Expense) bool { return inRange(e.Date, start, end) })), nil
}

func (s *Store) TotalExpense(_ context.Context, userID int64) (models.Amount, error) {
	var sum models.Amount
	for _, e := range s.filter(userID, func(models.Expense) bool { return true }) {
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}

// filter returns the user's matching expenses ordered by date desc, id desc.
func (s *Store) filter(userID int64, keep func(models.Expense) bool) []models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Expense{}
	for _, e := range s.expenses {
		if e.UserID == userID && keep(e) {
			out = append(out, *clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// emailTaken must be called with mu held.
func (s *Store) emailTaken(email string, except int64) bool {
	for id, u := range s.users {
		if u.Email == email && id != except {
			return true
		}
	}
	return false
}

func apply(e *models.Expense, in models.ExpenseInput, now time.Time) {
	e.Description = in.Description
	e.Amount = models.NewAmount(in.Amount.Round(2))
	e.Category = in.Category
	e.Date = in.Date
	e.SplitWith = nil
	if len(in.SplitWith) > 0 && string(in.SplitWith) != "null" {
		e.SplitWith = append(json.RawMessage(nil), in.SplitWith...)
	}
	e.UpdatedAt = now
}

func clone(e models.Expense) *models.Expense {
	if e.SplitWith != nil {
		e.SplitWith = append(json.RawMessage(nil), e.SplitWith...)
	}
	return &e
}

func inRange(d, start, end models.Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

func totals(expenses []models.Expense) []models.CategoryTotal {
	sums := map[string]models.Amount{}
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}
	out := make([]models.CategoryTotal, 0, len(sums))
	for c, t := range sums {
		out = append(out, models.CategoryTotal{Category: c, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
