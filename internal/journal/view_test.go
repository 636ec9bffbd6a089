package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trading-journal/internal/models"
)

func TestBuildView(t *testing.T) {
	v := BuildView(sampleYear(), Scope{Year: 2025, Tab: MonthTab(time.January)})

	assert.Equal(t, "January 2025 Performance", v.Title)
	assert.Equal(t, EmptyNone, v.Empty)
	require.NotNil(t, v.Stats)
	assert.Equal(t, 3, v.Stats.Total)
	require.NotNil(t, v.Equity)
	assert.Equal(t, []float64{0, 1, 0.5, 2.5}, v.Equity.Values())
	assert.Equal(t, []string{"c", "b", "a"}, ids(v.Trades))
}

func TestBuildView_StatsIgnoreAttributeFilters(t *testing.T) {
	v := BuildView(sampleYear(), Scope{
		Year:   2025,
		Tab:    TabAll,
		Filter: Filter{Side: models.SideShort},
	})

	require.NotNil(t, v.Stats)
	assert.Equal(t, 5, v.Stats.Total)
	assert.Equal(t, []string{"c", "b"}, ids(v.Trades))
}

func TestBuildView_EmptyStates(t *testing.T) {
	noTrades := BuildView(sampleYear(), Scope{Year: 2025, Tab: MonthTab(time.August)})
	assert.Equal(t, EmptyNoTrades, noTrades.Empty)
	assert.Nil(t, noTrades.Stats)
	assert.Nil(t, noTrades.Equity)
	assert.NotNil(t, noTrades.Trades)
	assert.Empty(t, noTrades.Trades)

	noMatches := BuildView(sampleYear(), Scope{Year: 2025, Tab: TabAll, Filter: Filter{Model: "Asia Range"}})
	assert.Equal(t, EmptyNoMatches, noMatches.Empty)
	assert.NotNil(t, noMatches.Stats)

	playbook := BuildView(sampleYear(), Scope{Year: 2025, Tab: TabPlaybook})
	assert.Equal(t, EmptyNone, playbook.Empty)
	assert.Empty(t, playbook.Title)
	assert.Empty(t, playbook.Trades)
}

func TestView_JSON(t *testing.T) {
	v := BuildView(nil, Scope{Year: 2025, Tab: MonthTab(time.May)})
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "May 2025 Performance",
		"year": 2025,
		"tab": "May",
		"filter": {},
		"stats": null,
		"equity": null,
		"trades": [],
		"empty": "no_trades"
	}`, string(out))
}
