package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	EventID     int64           `json:"event_id"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	BasePrice   decimal.Decimal `json:"base_price"`
	TotalSupply int             `json:"total_supply"`
	SoldCount   int             `json:"sold_count"`
	Active      bool            `json:"active"`
	Creator     string          `json:"creator,omitempty"`
	Contract    string          `json:"contract,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
}

// Available is derived, never stored.
func (e *Event) Available() int {
	return e.TotalSupply - e.SoldCount
}

type CreateEventRequest struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	BasePrice   decimal.Decimal `json:"base_price"`
	TotalSupply int             `json:"total_supply"`
	Creator     string          `json:"creator"`
}
