package models

import (
	"encoding/json"
	"time"
)

// Categories offered by the UI. The API accepts any non-empty category.
var Categories = []string{"Food", "Transport", "Entertainment", "Shopping", "Utilities", "Health", "Other"}

// Expense represents a single expense record owned by a user
type Expense struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Description string          `json:"description"`
	Amount      Amount          `json:"amount"`
	Category    string          `json:"category"`
	Date        Date            `json:"date"`
	SplitWith   json.RawMessage `json:"split_with"` // stored verbatim, never interpreted
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExpenseInput holds the writable fields of an expense after validation
type ExpenseInput struct {
	Description string
	Amount      Amount
	Category    string
	Date        Date
	SplitWith   json.RawMessage
}
