package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/expense-service/internal/apperr"
	"github.com/Dan9191/expense-service/internal/middleware"
	"github.com/Dan9191/expense-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// AuthService is the account API the handlers depend on
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, name, email string) (*models.User, error)
}

// ExpenseService is the expense API the handlers depend on
type ExpenseService interface {
	Create(ctx context.Context, userID int64, in models.ExpenseInput) (*models.Expense, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]models.Expense, error)
	Get(ctx context.Context, id, userID int64) (*models.Expense, error)
	Update(ctx context.Context, id, userID int64, in models.ExpenseInput) (*models.Expense, error)
	Delete(ctx context.Context, id, userID int64) error
	ByCategory(ctx context.Context, userID int64, category string) ([]models.Expense, error)
	ByDateRange(ctx context.Context, userID int64, start, end models.Date) ([]models.Expense, error)
	Search(ctx context.Context, userID int64, text string) ([]models.Expense, error)
	TotalByCategory(ctx context.Context, userID int64) ([]models.CategoryTotal, error)
	Total(ctx context.Context, userID int64) (models.Amount, error)
	Export(ctx context.Context, userID int64) ([]byte, error)
}

type Handler struct {
	auth     AuthService
	expenses ExpenseService
	validate *validator.Validate
}

func NewHandler(auth AuthService, expenses ExpenseService) *Handler {
	return &Handler{auth: auth, expenses: expenses, validate: newValidator()}
}

type errorResponse struct {
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// Health reports that the process is serving requests
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Server is running"})
}

// NotFound answers unknown API paths
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Message: "Route not found"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status of its kind. Internal causes are
// logged and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFromContext(r.Context()).WithError(err).Error("Request failed with internal error")
		writeJSON(w, status, errorResponse{Message: "Internal server error"})
		return
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Message: appErr.Message, Errors: appErr.Fields})
}

// currentUser returns the id injected by the auth middleware
func currentUser(r *http.Request) (int64, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, apperr.Unauthorized("No token, authorization denied")
	}
	return id, nil
}
