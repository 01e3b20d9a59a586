package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dan9191/expense-service/internal/apperr"
	"github.com/Dan9191/expense-service/internal/models"
	"github.com/Dan9191/expense-service/internal/service"
	"github.com/gorilla/mux"
)

type expenseResponse struct {
	Message string          `json:"message,omitempty"`
	Expense *models.Expense `json:"expense"`
}

type expenseListResponse struct {
	Message  string           `json:"message"`
	Expenses []models.Expense `json:"expenses"`
	Count    int              `json:"count"`
}

// CreateExpense stores a new expense for the authenticated user
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, in, err := h.expenseInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.expenses.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse{Message: "Expense created successfully", Expense: e})
}

// ListExpenses returns a page of the user's expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := queryInt(r, "limit", service.DefaultLimit)
	offset := queryInt(r, "offset", 0)
	list, err := h.expenses.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, "Expenses fetched successfully", list)
}

// GetExpense returns one of the user's expenses
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.expenses.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse{Expense: e})
}

// UpdateExpense overwrites one of the user's expenses
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, in, err := h.expenseInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.expenses.Update(r.Context(), id, userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse{Message: "Expense updated successfully", Expense: e})
}

// DeleteExpense removes one of the user's expenses
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.expenses.Delete(r.Context(), id, userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

// ExpensesByCategory filters the user's expenses by exact category
func (h *Handler) ExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.expenses.ByCategory(r.Context(), userID, r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, "Expenses fetched successfully", list)
}

// ExpensesByDateRange filters the user's expenses to an inclusive date range
func (h *Handler) ExpensesByDateRange(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	rawStart, rawEnd := q.Get("startDate"), q.Get("endDate")
	if rawStart == "" || rawEnd == "" {
		writeError(w, r, apperr.Validation("startDate and endDate are required"))
		return
	}
	var fields []apperr.FieldError
	start, err := models.ParseDate(rawStart)
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "startDate", Message: "Valid startDate is required"})
	}
	end, err := models.ParseDate(rawEnd)
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "endDate", Message: "Valid endDate is required"})
	}
	if len(fields) > 0 {
		writeError(w, r, apperr.Validation(validationFailed, fields...))
		return
	}

	list, err := h.expenses.ByDateRange(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, "Expenses fetched successfully", list)
}

// SearchExpenses matches the query against description and category
func (h *Handler) SearchExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.expenses.Search(r.Context(), userID, r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, "Search results fetched successfully", list)
}

// TotalExpense returns the sum of all of the user's expenses
func (h *Handler) TotalExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	total, err := h.expenses.Total(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string        `json:"message"`
		Total   models.Amount `json:"total"`
	}{"Total expense fetched successfully", total})
}

// TotalByCategory returns per-category sums for the user
func (h *Handler) TotalByCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	totals, err := h.expenses.TotalByCategory(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string                 `json:"message"`
		Totals  []models.CategoryTotal `json:"totals"`
	}{"Category totals fetched successfully", totals})
}

// ExportExpenses downloads all of the user's expenses as XML
func (h *Handler) ExportExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := h.expenses.Export(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="expenses-%d.xml"`, userID))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) expenseInput(w http.ResponseWriter, r *http.Request) (int64, models.ExpenseInput, error) {
	userID, err := currentUser(r)
	if err != nil {
		return 0, models.ExpenseInput{}, err
	}
	var req expenseRequest
	if err := h.decode(w, r, &req); err != nil {
		return 0, models.ExpenseInput{}, err
	}
	in, err := req.toInput()
	if err != nil {
		return 0, models.ExpenseInput{}, err
	}
	return userID, in, nil
}

func writeList(w http.ResponseWriter, msg string, list []models.Expense) {
	if list == nil {
		list = []models.Expense{}
	}
	writeJSON(w, http.StatusOK, expenseListResponse{Message: msg, Expenses: list, Count: len(list)})
}
