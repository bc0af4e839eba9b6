package http

import (
	"fintrack/internal/core"
)

type categoryResponse struct {
	ID   int64        `json:"id"`
	Name string       `json:"name"`
	User *core.UserID `json:"user"`
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, User: c.Owner}
}

// transactionResponse flattens the category to its name.
type transactionResponse struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Amount      float64              `json:"amount"`
	Type        core.TransactionType `json:"transaction_type"`
	Description string               `json:"description"`
	Date        string               `json:"date"`
	Category    string               `json:"category"`
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Title:       t.Title,
		Amount:      t.Amount,
		Type:        t.Type,
		Description: t.Description,
		Date:        t.Date.String(),
		Category:    t.Category.Name,
	}
}

func mapSlice[T, R any](items []T, f func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, f(item))
	}
	return out
}
