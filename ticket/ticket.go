package ticket

import (
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/logger"
	"bookbyblock-backend/model"
	"bookbyblock-backend/monitoring"
	"bookbyblock-backend/token"
	"context"
	"fmt"
	"strings"
	"time"
)

var ErrValidation = fmt.Errorf("invalid ticket request")

// Ticket covers the purchase, resale and entry-token surface of a single
// ticket. Ownership and burn state live in the ledger; tokens stay stateless.
type Ticket struct {
	ledger ledger.TicketLedger
	tokens *token.Service
	window time.Duration
}

func NewTicket(l ledger.TicketLedger, tokens *token.Service, window time.Duration) *Ticket {
	return &Ticket{ledger: l, tokens: tokens, window: window}
}

func (t *Ticket) Buy(ctx context.Context, req *model.BuyTicketRequest) (*model.MintReceipt, error) {
	if req.EventID <= 0 {
		return nil, fmt.Errorf("buy: event id is required: %w", ErrValidation)
	}
	if strings.TrimSpace(req.Buyer) == "" {
		return nil, fmt.Errorf("buy: buyer is required: %w", ErrValidation)
	}

	receipt, err := t.ledger.MintTicket(ctx, req.EventID, req.Buyer, req.Payment)
	if err != nil {
		return nil, fmt.Errorf("buy: %w", err)
	}

	logger.Infof(ctx, "buy: minted ticket %s #%d for %s", receipt.Contract, receipt.TokenID, receipt.Owner)
	return receipt, nil
}

func (t *Ticket) Get(ctx context.Context, contract string, tokenID uint64) (*model.Ticket, error) {
	tk, err := t.ledger.GetTicket(ctx, contract, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return tk, nil
}

func (t *Ticket) Resell(ctx context.Context, contract string, tokenID uint64, req *model.ResaleTicketRequest) (*model.ResaleReceipt, error) {
	if strings.TrimSpace(req.NewOwner) == "" {
		return nil, fmt.Errorf("resell: new owner is required: %w", ErrValidation)
	}
	if req.Price.IsNegative() || req.Price.IsZero() {
		return nil, fmt.Errorf("resell: price must be positive: %w", ErrValidation)
	}

	receipt, err := t.ledger.ResaleTicket(ctx, contract, tokenID, req.NewOwner, req.Price)
	if err != nil {
		return nil, fmt.Errorf("resell: %w", err)
	}

	logger.Infof(ctx, "resell: ticket %s #%d transferred to %s", contract, tokenID, req.NewOwner)
	return receipt, nil
}

// IssueToken mints a fresh entry token for a live ticket. The ticket is read
// first so a burned or unknown ticket never gets a signable payload; the
// window race between this read and the scan is closed at verification time.
func (t *Ticket) IssueToken(ctx context.Context, contract string, tokenID uint64) (*model.IssuedToken, error) {
	tk, err := t.ledger.GetTicket(ctx, contract, tokenID)
	if err != nil {
		return nil, fmt.Errorf("issueToken: %w", err)
	}
	if !tk.Exists || tk.Used {
		return nil, fmt.Errorf("issueToken: ticket %s #%d is no longer live: %w", contract, tokenID, ledger.ErrAlreadyUsed)
	}

	payload, err := t.tokens.Issue(tk.Ref())
	if err != nil {
		return nil, fmt.Errorf("issueToken: %w", err)
	}

	monitoring.RecordTokenIssued()
	return &model.IssuedToken{
		Payload:   *payload,
		ExpiresAt: payload.ExpiresAt,
		RefreshIn: t.window.Milliseconds(),
	}, nil
}
