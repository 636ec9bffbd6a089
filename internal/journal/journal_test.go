package journal

import "trading-journal/internal/models"

// trade is a small constructor shared by the package tests.
func trade(id string, date string, result float64, model string, side models.Side) models.Trade {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return models.Trade{
		ID:      id,
		OwnerID: "owner",
		Date:    d,
		Symbol:  "NQ",
		Model:   model,
		Side:    side,
		Result:  result,
	}
}

func ids(trades []models.Trade) []string {
	out := make([]string, len(trades))
	for i, t := range trades {
		out[i] = t.ID
	}
	return out
}

func sampleYear() []models.Trade {
	return []models.Trade{
		trade("a", "2025-01-01", 1, "Unicorn", models.SideLong),
		trade("b", "2025-01-02", -0.5, "FVG", models.SideShort),
		trade("c", "2025-01-03", 2, "Unicorn", models.SideShort),
		trade("d", "2025-02-10", 0, "Breaker Block", models.SideLong),
		trade("e", "2025-03-15", -1, "Unicorn", models.SideLong),
		trade("f", "2024-12-31", 3, "Unicorn", models.SideLong),
		trade("g", "2026-01-01", -2, "FVG", models.SideShort),
	}
}
