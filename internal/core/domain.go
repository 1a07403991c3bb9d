package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// Canonical category set; the remote store rejects anything else.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Healthcare",
	"Education",
	"Utilities",
	"Travel",
	"Others",
}

// Field limits, counted in characters rather than bytes.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

type (
	TransactionType string

	// Date is a calendar date with no time-of-day semantics.
	// It marshals as "2006-01-02".
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string
		Title       string
		Amount      Money
		Category    string
		Description string
		Date        Date
		Type        TransactionType
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

// FieldErrors maps a field name to a validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

const dateLayout = "2006-01-02"

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthKey returns the "YYYY-MM" bucket the date falls in.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TransactionType) IsValid() bool {
	return t == Expense || t == Income
}

// IsValidCategory reports whether name is one of the canonical categories.
func IsValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks the fields the client is responsible for before any
// network round trip. It returns a FieldErrors keyed by field name so
// callers can attach messages to the offending input, or nil when the
// transaction is acceptable.
func (t Transaction) Validate() FieldErrors {
	errs := FieldErrors{}

	title := strings.TrimSpace(t.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if utf8.RuneCountInString(t.Title) > MaxTitleLen {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", MaxTitleLen)
	}

	if t.Amount.Cents <= 0 {
		errs["amount"] = "amount must be greater than 0"
	} else if t.Amount.Cents > MaxAmountCents {
		errs["amount"] = fmt.Sprintf("amount must be at most %s", Money{Cents: MaxAmountCents})
	}

	if t.Category == "" {
		errs["category"] = "category is required"
	} else if !IsValidCategory(t.Category) {
		errs["category"] = fmt.Sprintf("unknown category %q", t.Category)
	}

	if t.Date.IsZero() {
		errs["date"] = "date is required"
	}

	if utf8.RuneCountInString(t.Description) > MaxDescriptionLen {
		errs["description"] = fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen)
	}

	if t.Type == "" {
		errs["type"] = "type is required"
	} else if !t.Type.IsValid() {
		errs["type"] = fmt.Sprintf("type must be %q or %q", Expense, Income)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
