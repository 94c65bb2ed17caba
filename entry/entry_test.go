package entry

import (
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/ledger/memory"
	"bookbyblock-backend/model"
	"bookbyblock-backend/policy"
	"bookbyblock-backend/token"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminAddr = "platform"
	stationID = "gate-7"
)

type fakeGuard struct {
	seen map[string]bool
	err  error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{seen: make(map[string]bool)}
}

func (g *fakeGuard) FirstUse(ctx context.Context, nonce string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.seen[nonce] {
		return false, nil
	}
	g.seen[nonce] = true
	return true, nil
}

func (g *fakeGuard) Release(ctx context.Context, nonce string) error {
	delete(g.seen, nonce)
	return nil
}

// flakyLedger fails event reads with a transient error until healed.
type flakyLedger struct {
	ledger.TicketLedger
	broken bool
}

func (f *flakyLedger) GetEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	if f.broken {
		return nil, fmt.Errorf("getEvent: connection refused: %w", ledger.ErrUnavailable)
	}
	return f.TicketLedger.GetEvent(ctx, eventID)
}

type fixture struct {
	service *Service
	tokens  *token.Service
	ledger  *memory.Ledger
	guard   *fakeGuard
	event   *model.Event
	ticket  *model.MintReceipt
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	l := memory.New(policy.Policy{
		MaxResales:     2,
		MaxMarkupBps:   1000,
		PlatformFeeBps: 250,
		FeeRecipient:   adminAddr,
	}, adminAddr)

	e, err := l.CreateEvent(ctx, &model.CreateEventRequest{
		Name:        "Launch Night",
		Symbol:      "LN",
		BasePrice:   decimal.NewFromInt(100),
		TotalSupply: 10,
		Creator:     "organizer",
	})
	require.NoError(t, err)

	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	f := &fixture{ledger: l, guard: newFakeGuard(), event: e, ticket: receipt, now: time.Now()}
	f.tokens = token.NewService([]byte("test-secret"), 10*time.Second, 16).
		WithClock(func() time.Time { return f.now })
	f.service = NewService(f.tokens, l, f.guard, adminAddr)

	return f
}

func (f *fixture) payload(t *testing.T) []byte {
	t.Helper()
	p, err := f.tokens.Issue(model.TicketRef(f.ticket.Contract, f.ticket.TokenID))
	require.NoError(t, err)
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return raw
}

func TestVerifyAndBurnApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	decision, err := f.service.VerifyAndBurn(ctx, f.payload(t), f.event.EventID, stationID)
	require.NoError(t, err)
	assert.True(t, decision.Approved)
	assert.Empty(t, decision.Reason)
	assert.NotEmpty(t, decision.BurnTxRef)
	require.NotNil(t, decision.Ticket)
	assert.True(t, decision.Ticket.Used)

	tk, err := f.ledger.GetTicket(ctx, f.ticket.Contract, f.ticket.TokenID)
	require.NoError(t, err)
	assert.True(t, tk.Used)
	assert.False(t, tk.Exists)
}

func TestVerifyAndBurnStationSubject(t *testing.T) {
	f := newFixture(t)

	// The station's own subject is not a ticket owner and not the platform
	// address. Burns run under the platform identity, so the scan must
	// still admit.
	decision, err := f.service.VerifyAndBurn(context.Background(), f.payload(t), f.event.EventID, "gate-42")
	require.NoError(t, err)
	assert.True(t, decision.Approved)
	assert.NotEmpty(t, decision.BurnTxRef)
}

func TestVerifyAndBurnSecondEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	decision, err := f.service.VerifyAndBurn(ctx, f.payload(t), f.event.EventID, stationID)
	require.NoError(t, err)
	require.True(t, decision.Approved)

	// Fresh token for the same ticket: the signature is fine, the ticket
	// is gone.
	decision, err = f.service.VerifyAndBurn(ctx, f.payload(t), f.event.EventID, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonAlreadyUsed, decision.Reason)
}

func TestVerifyAndBurnReplayedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.payload(t)

	decision, err := f.service.VerifyAndBurn(ctx, raw, f.event.EventID, stationID)
	require.NoError(t, err)
	require.True(t, decision.Approved)

	// Byte-identical payload again: caught by the nonce guard before any
	// ledger read.
	decision, err = f.service.VerifyAndBurn(ctx, raw, f.event.EventID, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonReplayed, decision.Reason)
}

func TestVerifyAndBurnExpiredToken(t *testing.T) {
	f := newFixture(t)
	raw := f.payload(t)

	f.now = f.now.Add(11 * time.Second)
	decision, err := f.service.VerifyAndBurn(context.Background(), raw, f.event.EventID, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonExpired, decision.Reason)
}

func TestVerifyAndBurnTamperedToken(t *testing.T) {
	f := newFixture(t)

	var p model.TokenPayload
	require.NoError(t, json.Unmarshal(f.payload(t), &p))
	p.TicketRef = model.TicketRef(f.ticket.Contract, f.ticket.TokenID+1)
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	decision, err := f.service.VerifyAndBurn(context.Background(), raw, f.event.EventID, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonInvalidSignature, decision.Reason)
}

func TestVerifyAndBurnGarbagePayload(t *testing.T) {
	f := newFixture(t)

	decision, err := f.service.VerifyAndBurn(context.Background(), []byte("not-a-token"), f.event.EventID, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonMalformedToken, decision.Reason)
}

func TestVerifyAndBurnEventMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.ledger.CreateEvent(ctx, &model.CreateEventRequest{
		Name:        "Other Night",
		Symbol:      "ON",
		BasePrice:   decimal.NewFromInt(50),
		TotalSupply: 10,
		Creator:     "organizer",
	})
	require.NoError(t, err)

	decision, err := f.service.VerifyAndBurn(ctx, f.payload(t), other.EventID, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonEventMismatch, decision.Reason)

	// The ticket survives a mismatched scan.
	tk, err := f.ledger.GetTicket(ctx, f.ticket.Contract, f.ticket.TokenID)
	require.NoError(t, err)
	assert.True(t, tk.Exists)
}

func TestVerifyAndBurnUnknownEvent(t *testing.T) {
	f := newFixture(t)

	decision, err := f.service.VerifyAndBurn(context.Background(), f.payload(t), 99, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonEventMismatch, decision.Reason)
}

func TestVerifyAndBurnGuardDown(t *testing.T) {
	f := newFixture(t)
	f.guard.err = errors.New("connection refused")

	decision, err := f.service.VerifyAndBurn(context.Background(), f.payload(t), f.event.EventID, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonLedgerUnavailable, decision.Reason)
}

func TestVerifyAndBurnLedgerOutageReleasesNonce(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyLedger{TicketLedger: f.ledger, broken: true}
	f.service = NewService(f.tokens, flaky, f.guard, adminAddr)
	f.service.retries = 0
	ctx := context.Background()
	raw := f.payload(t)

	decision, err := f.service.VerifyAndBurn(ctx, raw, f.event.EventID, stationID)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, ReasonLedgerUnavailable, decision.Reason)
	assert.Empty(t, f.guard.seen, "an undecided presentation must not consume the nonce")

	// The same still-valid payload admits once the ledger is back.
	flaky.broken = false
	decision, err = f.service.VerifyAndBurn(ctx, raw, f.event.EventID, stationID)
	require.NoError(t, err)
	assert.True(t, decision.Approved)
}

func TestVerifyAndBurnWithoutGuard(t *testing.T) {
	f := newFixture(t)
	f.service = NewService(f.tokens, f.ledger, nil, adminAddr)

	decision, err := f.service.VerifyAndBurn(context.Background(), f.payload(t), f.event.EventID, stationID)
	require.NoError(t, err)
	assert.True(t, decision.Approved)
}
