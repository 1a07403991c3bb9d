// Package query derives filtered, sorted, paginated, and aggregated
// views from a transaction snapshot. Every function is pure: inputs
// are never mutated and results are freshly allocated.
package query

import (
	"sort"
	"strings"
	"time"

	"tally/internal/core"
)

// CategoryAll bypasses category filtering.
const CategoryAll = "all"

type SortKey string

const (
	ByDate     SortKey = "date"
	ByAmount   SortKey = "amount"
	ByTitle    SortKey = "title"
	ByCategory SortKey = "category"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// MonthBucket aggregates transactions falling in one calendar month.
type MonthBucket struct {
	Total core.Money
	Count int
}

func clone(view []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(view))
	copy(out, view)
	return out
}

// Search returns transactions whose title, description, or category
// contains q, case-insensitively. An empty query returns a copy of the
// whole view.
func Search(view []core.Transaction, q string) []core.Transaction {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return clone(view)
	}
	out := make([]core.Transaction, 0, len(view))
	for _, tx := range view {
		if strings.Contains(strings.ToLower(tx.Title), q) ||
			strings.Contains(strings.ToLower(tx.Description), q) ||
			strings.Contains(strings.ToLower(tx.Category), q) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterByCategory keeps transactions whose category matches exactly.
// The "all" sentinel returns a copy of the whole view.
func FilterByCategory(view []core.Transaction, category string) []core.Transaction {
	if category == "" || category == CategoryAll {
		return clone(view)
	}
	out := make([]core.Transaction, 0, len(view))
	for _, tx := range view {
		if tx.Category == category {
			out = append(out, tx)
		}
	}
	return out
}

// FilterByDateRange keeps transactions with from <= date <= to.
func FilterByDateRange(view []core.Transaction, from, to core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(view))
	for _, tx := range view {
		if tx.Date.Before(from.Time) || tx.Date.After(to.Time) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// SortBy returns a sorted copy of view. Dates compare as calendar
// dates, amounts numerically, title and category case-insensitively.
// Equal keys fall back to ID ascending so the result is deterministic
// regardless of the input order.
func SortBy(view []core.Transaction, key SortKey, order SortOrder) []core.Transaction {
	out := clone(view)
	less := lessFunc(key)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch cmp := less(a, b); {
		case cmp < 0:
			return order != Desc
		case cmp > 0:
			return order == Desc
		default:
			return a.ID < b.ID
		}
	})
	return out
}

func lessFunc(key SortKey) func(a, b core.Transaction) int {
	switch key {
	case ByDate:
		return func(a, b core.Transaction) int {
			return a.Date.Compare(b.Date.Time)
		}
	case ByAmount:
		return func(a, b core.Transaction) int {
			switch {
			case a.Amount.Cents < b.Amount.Cents:
				return -1
			case a.Amount.Cents > b.Amount.Cents:
				return 1
			}
			return 0
		}
	case ByTitle:
		return func(a, b core.Transaction) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case ByCategory:
		return func(a, b core.Transaction) int {
			return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
		}
	}
	return nil
}

// Paginate returns the 1-indexed page of the given size. Pages past
// the end, and non-positive arguments, yield an empty slice.
func Paginate(view []core.Transaction, pageSize, pageNumber int) []core.Transaction {
	if pageSize <= 0 || pageNumber <= 0 {
		return []core.Transaction{}
	}
	start := (pageNumber - 1) * pageSize
	if start >= len(view) {
		return []core.Transaction{}
	}
	end := start + pageSize
	if end > len(view) {
		end = len(view)
	}
	return clone(view[start:end])
}

// GroupByCategory buckets transactions by category, preserving the
// relative order within each group.
func GroupByCategory(view []core.Transaction) map[string][]core.Transaction {
	out := make(map[string][]core.Transaction)
	for _, tx := range view {
		out[tx.Category] = append(out[tx.Category], tx)
	}
	return out
}

// MonthlyTotals aggregates the view into "YYYY-MM" buckets.
func MonthlyTotals(view []core.Transaction) map[string]MonthBucket {
	out := make(map[string]MonthBucket)
	for _, tx := range view {
		key := tx.Date.MonthKey()
		bucket := out[key]
		bucket.Total = bucket.Total.Add(tx.Amount)
		bucket.Count++
		out[key] = bucket
	}
	return out
}

// Recent returns the n newest transactions by date, newest first.
func Recent(view []core.Transaction, n int) []core.Transaction {
	sorted := SortBy(view, ByDate, Desc)
	if n < 0 {
		n = 0
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// ComputeSummary recomputes the Summary aggregate locally, as a
// fallback and cross-check for the server-provided one. MonthlyTotal
// covers the current calendar month.
func ComputeSummary(view []core.Transaction) core.Summary {
	return computeSummary(view, time.Now().UTC())
}

func computeSummary(view []core.Transaction, now time.Time) core.Summary {
	s := core.Summary{
		CategorySummary: make(map[string]core.CategoryAggregate),
	}
	thisMonth := now.Format("2006-01")
	for _, tx := range view {
		s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		s.TotalCount++
		agg := s.CategorySummary[tx.Category]
		agg.Total = agg.Total.Add(tx.Amount)
		agg.Count++
		s.CategorySummary[tx.Category] = agg
		if tx.Date.MonthKey() == thisMonth {
			s.MonthlyTotal = s.MonthlyTotal.Add(tx.Amount)
		}
	}
	return s
}
