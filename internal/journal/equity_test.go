package journal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"trading-journal/internal/models"
)

func TestBuildEquityCurve(t *testing.T) {
	// Input deliberately out of order.
	trades := []models.Trade{
		trade("c", "2025-01-03", 2, "Unicorn", models.SideShort),
		trade("a", "2025-01-01", 1, "Unicorn", models.SideLong),
		trade("b", "2025-01-02", -0.5, "FVG", models.SideShort),
	}

	curve := BuildEquityCurve(trades)
	assert.Equal(t, []EquityPoint{
		{Label: "Start", Value: 0},
		{Label: "#1", Value: 1},
		{Label: "#2", Value: 0.5},
		{Label: "#3", Value: 2.5},
	}, curve.Points)
	assert.True(t, curve.Positive)
	assert.Equal(t, []string{"Start", "#1", "#2", "#3"}, curve.Labels())
	assert.Equal(t, []float64{0, 1, 0.5, 2.5}, curve.Values())
	assert.Equal(t, 2.5, curve.Final())

	assert.Equal(t, "c", trades[0].ID, "input must not be reordered")
}

func TestBuildEquityCurve_Empty(t *testing.T) {
	curve := BuildEquityCurve(nil)
	assert.Equal(t, []EquityPoint{{Label: "Start", Value: 0}}, curve.Points)
	assert.True(t, curve.Positive)
}

func TestBuildEquityCurve_Negative(t *testing.T) {
	curve := BuildEquityCurve([]models.Trade{
		trade("a", "2025-01-01", 1, "Unicorn", models.SideLong),
		trade("b", "2025-01-02", -1.25, "Unicorn", models.SideLong),
	})
	assert.False(t, curve.Positive)
	assert.Equal(t, -0.25, curve.Final())
}

func TestBuildEquityCurve_FlatIsPositive(t *testing.T) {
	curve := BuildEquityCurve([]models.Trade{
		trade("a", "2025-01-01", 1, "Unicorn", models.SideLong),
		trade("b", "2025-01-02", -1, "Unicorn", models.SideLong),
	})
	assert.True(t, curve.Positive)
	assert.Equal(t, 0.0, curve.Final())
}

func TestBuildEquityCurve_RoundsEachPoint(t *testing.T) {
	trades := make([]models.Trade, 0, 30)
	for i := 0; i < 30; i++ {
		trades = append(trades, trade("x", "2025-04-01", 0.1, "Unicorn", models.SideLong))
	}

	curve := BuildEquityCurve(trades)
	assert.Len(t, curve.Points, 31)
	assert.Equal(t, 0.3, curve.Points[3].Value)
	assert.Equal(t, 3.0, curve.Final())

	curve = BuildEquityCurve([]models.Trade{trade("x", "2025-04-01", 1.234, "Unicorn", models.SideLong)})
	assert.Equal(t, 1.23, curve.Final())
}

func TestBuildEquityCurve_StableForEqualDates(t *testing.T) {
	trades := []models.Trade{
		trade("a", "2025-01-02", 1, "Unicorn", models.SideLong),
		trade("b", "2025-01-01", -1, "Unicorn", models.SideLong),
		trade("c", "2025-01-02", 3, "Unicorn", models.SideLong),
	}

	// b first, then a before c as given.
	assert.Equal(t, []float64{0, -1, 0, 3}, BuildEquityCurve(trades).Values())
}

func TestBuildEquityCurve_OrderIndependent(t *testing.T) {
	trades := sampleYear()
	want := BuildEquityCurve(trades)
	assert.Len(t, want.Points, len(trades)+1)
	assert.Equal(t, EquityPoint{Label: StartLabel, Value: 0}, want.Points[0])

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.Trade, len(trades))
		copy(shuffled, trades)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, BuildEquityCurve(shuffled))
	}
}
