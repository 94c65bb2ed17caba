package ledger

import (
	"bookbyblock-backend/model"
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrSoldOut        = errors.New("event sold out")
	ErrEventInactive  = errors.New("event not active")

	ErrInsufficientPayment = errors.New("insufficient payment")

	ErrResaleLimitExceeded = errors.New("resale limit exceeded")
	ErrPriceExceedsMarkup  = errors.New("price exceeds markup cap")

	ErrAlreadyUsed   = errors.New("ticket already used")
	ErrNotAuthorized = errors.New("requester not authorized")

	// ErrUnavailable marks transient infrastructure failures. Reads may be
	// retried; burns must not be, unless the backing store makes the retry
	// idempotent.
	ErrUnavailable = errors.New("ticket ledger unavailable")
)

// TicketLedger is the capability interface over the external ticket store.
// Ownership never changes through any other path: mint sets the initial
// owner, resale is the only transfer, burn is terminal. Implementations must
// make BurnTicket atomic per ticket so two racing scanners produce exactly
// one success.
type TicketLedger interface {
	CreateEvent(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error)
	GetEvent(ctx context.Context, eventID int64) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)

	GetTicket(ctx context.Context, contract string, tokenID uint64) (*model.Ticket, error)
	MintTicket(ctx context.Context, eventID int64, buyer string, payment decimal.Decimal) (*model.MintReceipt, error)
	ResaleTicket(ctx context.Context, contract string, tokenID uint64, newOwner string, price decimal.Decimal) (*model.ResaleReceipt, error)
	BurnTicket(ctx context.Context, contract string, tokenID uint64, requester string) (string, error)

	Stats(ctx context.Context) (*model.Analytics, error)
}
