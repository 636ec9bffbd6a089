package journal

import "trading-journal/internal/models"

// EmptyState tells a list view which empty message to show.
type EmptyState string

const (
	EmptyNone EmptyState = ""
	// EmptyNoTrades: nothing recorded for the period.
	EmptyNoTrades EmptyState = "no_trades"
	// EmptyNoMatches: the period has trades but the filters exclude all of them.
	EmptyNoMatches EmptyState = "no_matches"
)

// View is everything a dashboard + trade list screen renders.
type View struct {
	Title  string         `json:"title"`
	Year   int            `json:"year"`
	Tab    Tab            `json:"tab"`
	Filter Filter         `json:"filter"`
	Stats  *Stats         `json:"stats"`
	Equity *EquityCurve   `json:"equity"`
	Trades []models.Trade `json:"trades"`
	Empty  EmptyState     `json:"empty,omitempty"`
}

// BuildView scopes trades to the period, computes stats and the equity curve
// over the period, and lists the period's trades that pass the filters.
func BuildView(trades []models.Trade, s Scope) View {
	v := View{
		Title:  s.Tab.Title(s.Year),
		Year:   s.Year,
		Tab:    s.Tab,
		Filter: s.Filter,
		Trades: []models.Trade{},
	}
	if !s.Tab.IsList() {
		return v
	}

	period := InPeriod(trades, s.Year, s.Tab)
	if len(period) == 0 {
		v.Empty = EmptyNoTrades
		return v
	}

	v.Stats = ComputeStats(period)
	curve := BuildEquityCurve(period)
	v.Equity = &curve
	v.Trades = SortForList(FilterTrades(period, s.Filter))
	if len(v.Trades) == 0 {
		v.Empty = EmptyNoMatches
	}
	return v
}
