package journal

import (
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
	"trading-journal/internal/models"
)

// StartLabel labels the seed point of every equity curve.
const StartLabel = "Start"

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// EquityCurve is the cumulative R of a trade set in chronological order.
type EquityCurve struct {
	Points []EquityPoint `json:"points"`
	// Positive reports whether the final cumulative value is >= 0.
	Positive bool `json:"positive"`
}

// BuildEquityCurve sorts trades by date (stable for equal dates) and returns
// the running sum of results, seeded with ("Start", 0). Every recorded value
// is rounded to two decimals. The input slice is left untouched.
func BuildEquityCurve(trades []models.Trade) EquityCurve {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b models.Trade) int {
		return a.Date.Compare(b.Date)
	})

	points := make([]EquityPoint, 0, len(sorted)+1)
	points = append(points, EquityPoint{Label: StartLabel, Value: 0})

	equity := decimal.Zero
	for i, t := range sorted {
		equity = equity.Add(decimal.NewFromFloat(t.Result))
		points = append(points, EquityPoint{
			Label: "#" + strconv.Itoa(i+1),
			Value: round2(equity),
		})
	}

	return EquityCurve{
		Points:   points,
		Positive: !equity.IsNegative(),
	}
}

// Labels returns the x-axis labels.
func (c EquityCurve) Labels() []string {
	out := make([]string, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Label
	}
	return out
}

// Values returns the y-axis values.
func (c EquityCurve) Values() []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Value
	}
	return out
}

// Final returns the last recorded cumulative value.
func (c EquityCurve) Final() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	return c.Points[len(c.Points)-1].Value
}
