package journal

import (
	"slices"

	"trading-journal/internal/models"
)

// Filter narrows trades by attribute. Zero fields match everything.
type Filter struct {
	Model string      `json:"model,omitempty"`
	Side  models.Side `json:"side,omitempty"`
}

// IsZero reports whether the filter matches every trade.
func (f Filter) IsZero() bool {
	return f.Model == "" && f.Side == ""
}

// Match reports whether t passes both attribute filters.
func (f Filter) Match(t models.Trade) bool {
	if f.Model != "" && t.Model != f.Model {
		return false
	}
	if f.Side != "" && t.Side != f.Side {
		return false
	}
	return true
}

// Scope is the full selection of a view.
type Scope struct {
	Year int
	Tab  Tab
	Filter
}

// InPeriod keeps the trades dated in year and, for a month tab, in that
// month. Non-list tabs yield an empty set. Input order is preserved.
func InPeriod(trades []models.Trade, year int, tab Tab) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	if !tab.IsList() {
		return out
	}
	month, byMonth := tab.Month()
	for _, t := range trades {
		if t.Date.Year() != year {
			continue
		}
		if byMonth && t.Date.Month() != month {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FilterTrades keeps the trades matching f, preserving order.
func FilterTrades(trades []models.Trade, f Filter) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortForList returns a copy ordered newest first. Trades on the same date
// keep their relative order.
func SortForList(trades []models.Trade) []models.Trade {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b models.Trade) int {
		return b.Date.Compare(a.Date)
	})
	return sorted
}

// Apply runs the whole pipeline: period scope, attribute filters, list order.
func Apply(trades []models.Trade, s Scope) []models.Trade {
	return SortForList(FilterTrades(InPeriod(trades, s.Year, s.Tab), s.Filter))
}
