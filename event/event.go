package event

import (
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/logger"
	"bookbyblock-backend/model"
	"context"
	"fmt"
	"strings"
)

// Event validates event management requests before they reach the ledger.
type Event struct {
	ledger ledger.TicketLedger
}

func NewEvent(l ledger.TicketLedger) *Event {
	return &Event{ledger: l}
}

func (e *Event) CreateEvent(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	req.Symbol = strings.ToUpper(req.Symbol)
	created, err := e.ledger.CreateEvent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("createEvent: %w", err)
	}

	logger.Infof(ctx, "createEvent: created event %d (%s) with supply %d", created.EventID, created.Symbol, created.TotalSupply)
	return created, nil
}

func (e *Event) GetEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	ev, err := e.ledger.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("getEvent: %w", err)
	}
	return ev, nil
}

func (e *Event) GetEvents(ctx context.Context) ([]model.Event, error) {
	events, err := e.ledger.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("getEvents: %w", err)
	}
	return events, nil
}

func (e *Event) Analytics(ctx context.Context) (*model.Analytics, error) {
	stats, err := e.ledger.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	return stats, nil
}

var ErrValidation = fmt.Errorf("invalid event request")

func validateCreate(req *model.CreateEventRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return fmt.Errorf("validateCreate: name is required: %w", ErrValidation)
	case strings.TrimSpace(req.Symbol) == "":
		return fmt.Errorf("validateCreate: symbol is required: %w", ErrValidation)
	case len(req.Symbol) > 8:
		return fmt.Errorf("validateCreate: symbol exceeds 8 characters: %w", ErrValidation)
	case req.TotalSupply <= 0:
		return fmt.Errorf("validateCreate: total supply must be positive: %w", ErrValidation)
	case req.BasePrice.IsNegative() || req.BasePrice.IsZero():
		return fmt.Errorf("validateCreate: base price must be positive: %w", ErrValidation)
	case strings.TrimSpace(req.Creator) == "":
		return fmt.Errorf("validateCreate: creator is required: %w", ErrValidation)
	}
	return nil
}
