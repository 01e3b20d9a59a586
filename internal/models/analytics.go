package models

// CategoryTotal is the sum of a user's expenses in one category
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Amount `json:"total"`
}

// PeriodSummary aggregates a user's spending over a date window
type PeriodSummary struct {
	From       Date            `json:"from"`
	To         Date            `json:"to"`
	Total      Amount          `json:"total"`
	ByCategory []CategoryTotal `json:"by_category"`
}
