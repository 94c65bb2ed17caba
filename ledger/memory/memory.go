// Package memory is the in-process TicketLedger variant. It enforces the
// same ownership and resale rules as the chain-backed variant and is the
// default backend for tests and local development.
package memory

import (
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/model"
	"bookbyblock-backend/policy"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Ledger struct {
	mu      sync.Mutex
	policy  policy.Policy
	admin   string
	events  map[int64]*model.Event
	tickets map[string]*model.Ticket
	nextID  int64

	grossSales   decimal.Decimal
	platformFees decimal.Decimal
	resales      int
}

func New(p policy.Policy, admin string) *Ledger {
	return &Ledger{
		policy:  p,
		admin:   admin,
		events:  make(map[int64]*model.Event),
		tickets: make(map[string]*model.Ticket),
		nextID:  1,
	}
}

func (l *Ledger) CreateEvent(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := &model.Event{
		EventID:     l.nextID,
		Name:        req.Name,
		Symbol:      req.Symbol,
		BasePrice:   req.BasePrice,
		TotalSupply: req.TotalSupply,
		Active:      true,
		Creator:     req.Creator,
		Contract:    contractAddress(l.nextID, req.Symbol),
		CreatedAt:   time.Now().UTC(),
	}
	l.nextID++
	l.events[e.EventID] = e

	out := *e
	return &out, nil
}

func (l *Ledger) GetEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.events[eventID]
	if !ok {
		return nil, fmt.Errorf("getEvent: id %d: %w", eventID, ledger.ErrEventNotFound)
	}

	out := *e
	return &out, nil
}

func (l *Ledger) ListEvents(ctx context.Context) ([]model.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := make([]model.Event, 0, len(l.events))
	for id := int64(1); id < l.nextID; id++ {
		if e, ok := l.events[id]; ok {
			events = append(events, *e)
		}
	}

	return events, nil
}

func (l *Ledger) GetTicket(ctx context.Context, contract string, tokenID uint64) (*model.Ticket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[model.TicketRef(contract, tokenID)]
	if !ok {
		return nil, fmt.Errorf("getTicket: %s #%d: %w", contract, tokenID, ledger.ErrTicketNotFound)
	}

	out := *t
	return &out, nil
}

func (l *Ledger) MintTicket(ctx context.Context, eventID int64, buyer string, payment decimal.Decimal) (*model.MintReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.events[eventID]
	if !ok {
		return nil, fmt.Errorf("mintTicket: event %d: %w", eventID, ledger.ErrEventNotFound)
	}

	if !e.Active {
		return nil, fmt.Errorf("mintTicket: event %d: %w", eventID, ledger.ErrEventInactive)
	}

	if e.SoldCount >= e.TotalSupply {
		return nil, fmt.Errorf("mintTicket: event %d: %w", eventID, ledger.ErrSoldOut)
	}

	if payment.LessThan(e.BasePrice) {
		return nil, fmt.Errorf("mintTicket: paid %s for base price %s: %w", payment, e.BasePrice, ledger.ErrInsufficientPayment)
	}

	e.SoldCount++
	t := &model.Ticket{
		Contract:  e.Contract,
		TokenID:   uint64(e.SoldCount),
		Owner:     buyer,
		LastPrice: e.BasePrice,
		Exists:    true,
	}
	l.tickets[t.Ref()] = t

	fee := l.policy.PlatformFee(e.BasePrice)
	l.grossSales = l.grossSales.Add(e.BasePrice)
	l.platformFees = l.platformFees.Add(fee)

	return &model.MintReceipt{
		EventID:  eventID,
		Contract: t.Contract,
		TokenID:  t.TokenID,
		Owner:    buyer,
		Price:    e.BasePrice,
		Fee:      fee,
		TxRef:    uuid.NewString(),
	}, nil
}

func (l *Ledger) ResaleTicket(ctx context.Context, contract string, tokenID uint64, newOwner string, price decimal.Decimal) (*model.ResaleReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[model.TicketRef(contract, tokenID)]
	if !ok {
		return nil, fmt.Errorf("resaleTicket: %s #%d: %w", contract, tokenID, ledger.ErrTicketNotFound)
	}

	if !t.Exists {
		return nil, fmt.Errorf("resaleTicket: %s #%d: %w", contract, tokenID, ledger.ErrAlreadyUsed)
	}

	if err := l.policy.ValidateResale(t.ResaleCount, t.LastPrice, price); err != nil {
		return nil, fmt.Errorf("resaleTicket: %w", err)
	}

	t.Owner = newOwner
	t.LastPrice = price
	t.ResaleCount++

	l.grossSales = l.grossSales.Add(price)
	l.resales++

	return &model.ResaleReceipt{
		Contract: contract,
		TokenID:  tokenID,
		NewOwner: newOwner,
		Price:    price,
		TxRef:    uuid.NewString(),
	}, nil
}

// BurnTicket is the one-way gate: under the lock it checks exists and flips
// it, so concurrent burns of the same ticket yield exactly one success.
func (l *Ledger) BurnTicket(ctx context.Context, contract string, tokenID uint64, requester string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[model.TicketRef(contract, tokenID)]
	if !ok {
		return "", fmt.Errorf("burnTicket: %s #%d: %w", contract, tokenID, ledger.ErrTicketNotFound)
	}

	if !t.Exists {
		return "", fmt.Errorf("burnTicket: %s #%d: %w", contract, tokenID, ledger.ErrAlreadyUsed)
	}

	if requester != t.Owner && requester != l.admin {
		return "", fmt.Errorf("burnTicket: requester %s: %w", requester, ledger.ErrNotAuthorized)
	}

	t.Exists = false
	t.Used = true

	return uuid.NewString(), nil
}

func (l *Ledger) Stats(ctx context.Context) (*model.Analytics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := &model.Analytics{
		TotalEvents:   len(l.events),
		TicketsResold: l.resales,
		GrossSales:    l.grossSales,
		PlatformFees:  l.platformFees,
	}

	for _, e := range l.events {
		if e.Active {
			a.ActiveEvents++
		}
		a.TicketsSold += e.SoldCount
	}

	for _, t := range l.tickets {
		if t.Used {
			a.TicketsUsed++
		}
	}

	sales := a.TicketsSold + a.TicketsResold
	if sales > 0 {
		a.AverageSalePrice = a.GrossSales.Div(decimal.NewFromInt(int64(sales))).RoundDown(18)
	}

	return a, nil
}

// contractAddress derives a stable pseudo address for an event's ticket
// contract so references look like their on-chain counterparts.
func contractAddress(eventID int64, symbol string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", eventID, symbol)))
	return "0x" + hex.EncodeToString(sum[:20])
}
