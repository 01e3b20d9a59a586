package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Dan9191/expense-service/internal/apperr"
	"github.com/Dan9191/expense-service/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const maxBodyBytes = 1 << 20

const validationFailed = "Validation failed"

type signupRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name  string `json:"name" validate:"required,notblank,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type expenseRequest struct {
	Description string          `json:"description" validate:"required,notblank,max=255"`
	Amount      *models.Amount  `json:"amount" validate:"required"`
	Category    string          `json:"category" validate:"required,notblank,max=100"`
	Date        string          `json:"date" validate:"required"`
	SplitWith   json.RawMessage `json:"splitWith"`
}

// fieldMessages holds the message shown when a field fails its required check
var fieldMessages = map[string]string{
	"name":        "Name is required",
	"email":       "Valid email is required",
	"password":    "Password is required",
	"description": "Description is required",
	"amount":      "Amount must be greater than 0",
	"category":    "Category is required",
	"date":        "Valid date is required",
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a single JSON object into dst, rejecting unknown fields, and
// runs the struct validation tags
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return apperr.Validation(validationFailed,
			apperr.FieldError{Field: "body", Message: "Request body must contain a single JSON object"})
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperr.Internal(err)
		}
		fields := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return apperr.Validation(validationFailed, fields...)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label(fe.Field()), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label(fe.Field()), fe.Param())
	}
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", label(fe.Field()))
}

func label(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func decodeError(err error) error {
	var (
		typeErr *json.UnmarshalTypeError
		maxErr  *http.MaxBytesError
		field   apperr.FieldError
	)
	switch {
	case errors.Is(err, io.EOF):
		field = apperr.FieldError{Field: "body", Message: "Request body is required"}
	case errors.Is(err, models.ErrInvalidAmount):
		field = apperr.FieldError{Field: "amount", Message: "Amount must be a number"}
	case errors.As(err, &typeErr):
		field = apperr.FieldError{Field: typeErr.Field, Message: fmt.Sprintf("%s has the wrong type", label(typeErr.Field))}
	case errors.As(err, &maxErr):
		field = apperr.FieldError{Field: "body", Message: "Request body is too large"}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		field = apperr.FieldError{Field: name, Message: "Unknown field"}
	default:
		field = apperr.FieldError{Field: "body", Message: "Malformed JSON"}
	}
	return apperr.Validation(validationFailed, field)
}

// toInput applies the checks struct tags cannot express and converts the
// request into service input
func (req *expenseRequest) toInput() (models.ExpenseInput, error) {
	var fields []apperr.FieldError

	switch {
	case !req.Amount.IsPositive():
		fields = append(fields, apperr.FieldError{Field: "amount", Message: fieldMessages["amount"]})
	case !req.Amount.HasCents():
		fields = append(fields, apperr.FieldError{Field: "amount", Message: "Amount must have at most 2 decimal places"})
	}
	date, err := models.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "date", Message: fieldMessages["date"]})
	}
	split := bytes.TrimSpace(req.SplitWith)
	if len(split) > 0 && !bytes.Equal(split, []byte("null")) && split[0] != '[' {
		fields = append(fields, apperr.FieldError{Field: "splitWith", Message: "splitWith must be an array"})
	}
	if len(fields) > 0 {
		return models.ExpenseInput{}, apperr.Validation(validationFailed, fields...)
	}

	in := models.ExpenseInput{
		Description: strings.TrimSpace(req.Description),
		Amount:      *req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Date:        date,
	}
	if len(split) > 0 && !bytes.Equal(split, []byte("null")) {
		in.SplitWith = split
	}
	return in, nil
}

// queryInt returns the integer query parameter or def when it is absent or unparseable
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func pathID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid expense id",
			apperr.FieldError{Field: "id", Message: "Expense id must be a positive integer"})
	}
	return id, nil
}
