package api

import (
	"encoding/json"
	"time"

	"tally/internal/core"
)

// Wire representations. Amounts travel as plain JSON decimals and are
// converted to cents at this boundary; ids are treated as opaque even
// though the current server emits numbers.

type transactionDTO struct {
	ID          json.Number `json:"id,omitempty"`
	Title       string      `json:"title"`
	Amount      float64     `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	Date        core.Date   `json:"date"`
	Type        string      `json:"type"`
	CreatedAt   time.Time   `json:"createdAt,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt,omitempty"`
}

func toDTO(tx core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          json.Number(tx.ID),
		Title:       tx.Title,
		Amount:      tx.Amount.Float(),
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date,
		Type:        string(tx.Type),
	}
}

func (d transactionDTO) toDomain() core.Transaction {
	return core.Transaction{
		ID:          d.ID.String(),
		Title:       d.Title,
		Amount:      core.FromFloat(d.Amount),
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date,
		Type:        core.TransactionType(d.Type),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type categorySummaryDTO struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type summaryDTO struct {
	TotalExpenses   float64                       `json:"totalExpenses"`
	TotalCount      int                           `json:"totalCount"`
	CategorySummary map[string]categorySummaryDTO `json:"categorySummary"`
	MonthlyTotal    float64                       `json:"monthlyTotal"`
}

func (d summaryDTO) toDomain() core.Summary {
	s := core.Summary{
		TotalExpenses:   core.FromFloat(d.TotalExpenses),
		TotalCount:      d.TotalCount,
		MonthlyTotal:    core.FromFloat(d.MonthlyTotal),
		CategorySummary: make(map[string]core.CategoryAggregate, len(d.CategorySummary)),
	}
	for name, agg := range d.CategorySummary {
		s.CategorySummary[name] = core.CategoryAggregate{
			Total: core.FromFloat(agg.Total),
			Count: agg.Count,
		}
	}
	return s
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the payload of a successful POST /auth/login.
type LoginResult struct {
	Token    string      `json:"token"`
	ID       json.Number `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
}

// Profile is the registration payload for POST /auth/register.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}
