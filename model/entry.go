package model

import "github.com/shopspring/decimal"

type VerifyTicketRequest struct {
	// Payload is the serialized token exactly as decoded from the scanned
	// code. It is parsed and checked server side, never trusted.
	Payload string `json:"payload"`
	EventID int64  `json:"event_id"`
}

type EntryDecision struct {
	Approved  bool    `json:"approved"`
	Reason    string  `json:"reason,omitempty"`
	Ticket    *Ticket `json:"ticket,omitempty"`
	BurnTxRef string  `json:"burn_tx_ref,omitempty"`
}

type Analytics struct {
	TotalEvents      int             `json:"total_events"`
	ActiveEvents     int             `json:"active_events"`
	TicketsSold      int             `json:"tickets_sold"`
	TicketsUsed      int             `json:"tickets_used"`
	TicketsResold    int             `json:"tickets_resold"`
	GrossSales       decimal.Decimal `json:"gross_sales"`
	PlatformFees     decimal.Decimal `json:"platform_fees"`
	AverageSalePrice decimal.Decimal `json:"average_sale_price"`
}
