package core

// CategoryAggregate is the per-category slice of a Summary.
type CategoryAggregate struct {
	Total Money
	Count int
}

// Summary is the aggregate view over a set of transactions. It is
// either fetched from the remote store or recomputed locally; the two
// must agree apart from network staleness.
type Summary struct {
	TotalExpenses   Money
	TotalCount      int
	CategorySummary map[string]CategoryAggregate
	MonthlyTotal    Money
}
