package models

import (
	"time"

	"gorm.io/datatypes"
)

// Suggested values offered by the trade editor. Both fields accept any
// non-empty string.
var (
	SuggestedSymbols = []string{"NQ", "ES", "GC", "CL", "EUR/USD", "GBP/USD", "Other"}
	SuggestedModels  = []string{"Unicorn", "Breaker Block", "FVG", "Judas Swing", "Asia Range", "Other"}
)

// Trade represents a journaled trade owned by a single user.
type Trade struct {
	ID          string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID     string                      `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Date        Date                        `gorm:"type:varchar(10);index;not null" json:"date"`
	Symbol      string                      `gorm:"not null" json:"symbol"`
	Model       string                      `gorm:"not null" json:"model"`
	Side        Side                        `gorm:"type:varchar(5);not null" json:"side"`
	Result      float64                     `gorm:"not null" json:"result"` // risk multiple (R)
	Notes       string                      `gorm:"type:text" json:"notes"`
	Screenshots datatypes.JSONSlice[string] `json:"screenshots"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (Trade) TableName() string {
	return "trades"
}

// IsWin reports whether the trade closed with a strictly positive result.
func (t Trade) IsWin() bool { return t.Result > 0 }

// IsLoss reports whether the trade closed with a strictly negative result.
func (t Trade) IsLoss() bool { return t.Result < 0 }

// Draft returns the editable fields of the trade.
func (t Trade) Draft() TradeDraft {
	shots := make([]string, len(t.Screenshots))
	copy(shots, t.Screenshots)
	return TradeDraft{
		OwnerID:     t.OwnerID,
		Date:        t.Date,
		Symbol:      t.Symbol,
		Model:       t.Model,
		Side:        t.Side,
		Result:      t.Result,
		Notes:       t.Notes,
		Screenshots: shots,
	}
}

// TradeDraft carries every user-editable field of a trade. Updates always
// write a complete draft; there is no field-level patch.
type TradeDraft struct {
	OwnerID     string
	Date        Date
	Symbol      string
	Model       string
	Side        Side
	Result      float64
	Notes       string
	Screenshots []string
}

// ApplyTo overwrites the editable fields of t. ID and OwnerID are left alone.
func (d TradeDraft) ApplyTo(t *Trade) {
	t.Date = d.Date
	t.Symbol = d.Symbol
	t.Model = d.Model
	t.Side = d.Side
	t.Result = d.Result
	t.Notes = d.Notes
	shots := make(datatypes.JSONSlice[string], len(d.Screenshots))
	copy(shots, d.Screenshots)
	t.Screenshots = shots
}
