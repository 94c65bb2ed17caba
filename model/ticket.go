package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Ticket struct {
	Contract    string          `json:"contract"`
	TokenID     uint64          `json:"token_id"`
	Owner       string          `json:"owner,omitempty"`
	ResaleCount int             `json:"resale_count"`
	LastPrice   decimal.Decimal `json:"last_price"`
	Exists      bool            `json:"exists"`
	Used        bool            `json:"used"`
}

// Ref returns the ticket reference carried inside entry tokens.
func (t *Ticket) Ref() string {
	return TicketRef(t.Contract, t.TokenID)
}

func TicketRef(contract string, tokenID uint64) string {
	return fmt.Sprintf("%s-%d", contract, tokenID)
}

// ParseTicketRef splits a "<contract>-<tokenID>" reference on the last dash,
// so contracts containing dashes still round-trip.
func ParseTicketRef(ref string) (contract string, tokenID uint64, err error) {
	i := strings.LastIndex(ref, "-")
	if i <= 0 || i == len(ref)-1 {
		return "", 0, fmt.Errorf("parseTicketRef: malformed ticket reference: %q", ref)
	}

	tokenID, err = strconv.ParseUint(ref[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parseTicketRef: malformed token id in %q: %w", ref, err)
	}

	return ref[:i], tokenID, nil
}

type MintReceipt struct {
	EventID  int64           `json:"event_id"`
	Contract string          `json:"contract"`
	TokenID  uint64          `json:"token_id"`
	Owner    string          `json:"owner"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	TxRef    string          `json:"tx_ref"`
}

type ResaleReceipt struct {
	Contract string          `json:"contract"`
	TokenID  uint64          `json:"token_id"`
	NewOwner string          `json:"new_owner"`
	Price    decimal.Decimal `json:"price"`
	TxRef    string          `json:"tx_ref"`
}

type BuyTicketRequest struct {
	EventID int64           `json:"event_id"`
	Buyer   string          `json:"buyer"`
	Payment decimal.Decimal `json:"payment"`
}

type ResaleTicketRequest struct {
	NewOwner string          `json:"new_owner"`
	Price    decimal.Decimal `json:"price"`
}
