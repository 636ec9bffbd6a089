package journal

import (
	"strconv"

	"github.com/shopspring/decimal"
	"trading-journal/internal/models"
)

// Stats is the aggregate performance of a set of trades.
type Stats struct {
	Total   int     `json:"total"`
	Winners int     `json:"winners"`
	Losers  int     `json:"losers"`
	TotalR  float64 `json:"total_r"`
	WinRate float64 `json:"win_rate"` // percent, 0-100
	AvgR    float64 `json:"avg_r"`
	Best    float64 `json:"best"`
	Worst   float64 `json:"worst"`
}

// ComputeStats aggregates trades. It returns nil for an empty set: no trades
// is not the same thing as an average of 0R.
func ComputeStats(trades []models.Trade) *Stats {
	if len(trades) == 0 {
		return nil
	}

	s := &Stats{
		Total: len(trades),
		Best:  trades[0].Result,
		Worst: trades[0].Result,
	}

	// Results are summed as decimals so the total does not depend on order.
	sum := decimal.Zero
	for _, t := range trades {
		switch {
		case t.Result > 0:
			s.Winners++
		case t.Result < 0:
			s.Losers++
		}
		sum = sum.Add(decimal.NewFromFloat(t.Result))
		if t.Result > s.Best {
			s.Best = t.Result
		}
		if t.Result < s.Worst {
			s.Worst = t.Result
		}
	}

	s.TotalR = sum.InexactFloat64()
	s.WinRate = float64(s.Winners) / float64(s.Total) * 100
	s.AvgR = s.TotalR / float64(s.Total)
	return s
}

// Breakeven is the number of trades with a result of exactly zero.
func (s Stats) Breakeven() int {
	return s.Total - s.Winners - s.Losers
}

// WinRateString renders the win rate with one decimal, without the % sign.
func (s Stats) WinRateString() string {
	return decimal.NewFromFloat(s.WinRate).StringFixed(1)
}

// StatsDisplay holds the exact strings of the dashboard cards.
type StatsDisplay struct {
	TotalTrades string `json:"total_trades"`
	WinRate     string `json:"win_rate"`
	Winners     string `json:"winners"`
	Losers      string `json:"losers"`
	TotalR      string `json:"total_r"`
	AvgR        string `json:"avg_r"`
	Best        string `json:"best"`
	Worst       string `json:"worst"`
}

// Display formats the stats for presentation.
func (s Stats) Display() StatsDisplay {
	return StatsDisplay{
		TotalTrades: strconv.Itoa(s.Total),
		WinRate:     s.WinRateString() + "%",
		Winners:     strconv.Itoa(s.Winners),
		Losers:      strconv.Itoa(s.Losers),
		TotalR:      FormatR(s.TotalR),
		AvgR:        FormatR(s.AvgR),
		Best:        FormatR(s.Best),
		Worst:       FormatR(s.Worst),
	}
}
