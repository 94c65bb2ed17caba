package memory

import (
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/model"
	"bookbyblock-backend/policy"
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminAddr = "platform"

func testLedger() *Ledger {
	return New(policy.Policy{
		MaxResales:     2,
		MaxMarkupBps:   1000,
		PlatformFeeBps: 250,
		FeeRecipient:   adminAddr,
	}, adminAddr)
}

func createEvent(t *testing.T, l *Ledger, supply int) *model.Event {
	t.Helper()
	e, err := l.CreateEvent(context.Background(), &model.CreateEventRequest{
		Name:        "Launch Night",
		Symbol:      "LN",
		BasePrice:   decimal.NewFromInt(100),
		TotalSupply: supply,
		Creator:     "organizer",
	})
	require.NoError(t, err)
	return e
}

func TestCreateAndGetEvent(t *testing.T) {
	l := testLedger()
	ctx := context.Background()

	e := createEvent(t, l, 50)
	assert.EqualValues(t, 1, e.EventID)
	assert.True(t, e.Active)
	assert.NotEmpty(t, e.Contract)
	assert.Equal(t, 50, e.Available())

	got, err := l.GetEvent(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, e.Contract, got.Contract)

	_, err = l.GetEvent(ctx, 99)
	assert.ErrorIs(t, err, ledger.ErrEventNotFound)
}

func TestMintTicket(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)

	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, e.Contract, receipt.Contract)
	assert.EqualValues(t, 1, receipt.TokenID)
	assert.True(t, receipt.Fee.Equal(decimal.RequireFromString("2.5")), "got %s", receipt.Fee)
	assert.NotEmpty(t, receipt.TxRef)

	tk, err := l.GetTicket(ctx, receipt.Contract, receipt.TokenID)
	require.NoError(t, err)
	assert.Equal(t, "alice", tk.Owner)
	assert.True(t, tk.Exists)
	assert.False(t, tk.Used)
	assert.Equal(t, 0, tk.ResaleCount)
}

func TestMintTicketInsufficientPayment(t *testing.T) {
	l := testLedger()
	e := createEvent(t, l, 2)

	_, err := l.MintTicket(context.Background(), e.EventID, "alice", decimal.NewFromInt(99))
	assert.ErrorIs(t, err, ledger.ErrInsufficientPayment)
}

func TestMintTicketSoldOut(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 1)

	_, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = l.MintTicket(ctx, e.EventID, "bob", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ledger.ErrSoldOut)
}

func TestMintTicketUnknownEvent(t *testing.T) {
	l := testLedger()

	_, err := l.MintTicket(context.Background(), 7, "alice", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ledger.ErrEventNotFound)
}

func TestResaleTicket(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	resale, err := l.ResaleTicket(ctx, receipt.Contract, receipt.TokenID, "bob", decimal.NewFromInt(110))
	require.NoError(t, err)
	assert.Equal(t, "bob", resale.NewOwner)

	tk, err := l.GetTicket(ctx, receipt.Contract, receipt.TokenID)
	require.NoError(t, err)
	assert.Equal(t, "bob", tk.Owner)
	assert.Equal(t, 1, tk.ResaleCount)
	assert.True(t, tk.LastPrice.Equal(decimal.NewFromInt(110)))
}

func TestResaleTicketMarkupCap(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = l.ResaleTicket(ctx, receipt.Contract, receipt.TokenID, "bob", decimal.NewFromInt(111))
	assert.ErrorIs(t, err, ledger.ErrPriceExceedsMarkup)
}

func TestResaleTicketMarkupCapCompounds(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	// The cap tracks the last transfer price, not the base price.
	_, err = l.ResaleTicket(ctx, receipt.Contract, receipt.TokenID, "bob", decimal.NewFromInt(110))
	require.NoError(t, err)

	_, err = l.ResaleTicket(ctx, receipt.Contract, receipt.TokenID, "carol", decimal.NewFromInt(121))
	assert.NoError(t, err)
}

func TestResaleTicketLimit(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = l.ResaleTicket(ctx, receipt.Contract, receipt.TokenID, "bob", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = l.ResaleTicket(ctx, receipt.Contract, receipt.TokenID, "carol", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = l.ResaleTicket(ctx, receipt.Contract, receipt.TokenID, "dave", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ledger.ErrResaleLimitExceeded)
}

func TestBurnTicketByOwner(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	txRef, err := l.BurnTicket(ctx, receipt.Contract, receipt.TokenID, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, txRef)

	tk, err := l.GetTicket(ctx, receipt.Contract, receipt.TokenID)
	require.NoError(t, err)
	assert.False(t, tk.Exists)
	assert.True(t, tk.Used)
}

func TestBurnTicketByAdmin(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = l.BurnTicket(ctx, receipt.Contract, receipt.TokenID, adminAddr)
	assert.NoError(t, err)
}

func TestBurnTicketNotAuthorized(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = l.BurnTicket(ctx, receipt.Contract, receipt.TokenID, "mallory")
	assert.ErrorIs(t, err, ledger.ErrNotAuthorized)
}

func TestBurnTicketTwice(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = l.BurnTicket(ctx, receipt.Contract, receipt.TokenID, "alice")
	require.NoError(t, err)

	_, err = l.BurnTicket(ctx, receipt.Contract, receipt.TokenID, "alice")
	assert.ErrorIs(t, err, ledger.ErrAlreadyUsed)
}

func TestBurnTicketConcurrent(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 2)
	receipt, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	const scanners = 16
	var wg sync.WaitGroup
	successes := make(chan string, scanners)

	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if txRef, err := l.BurnTicket(ctx, receipt.Contract, receipt.TokenID, adminAddr); err == nil {
				successes <- txRef
			}
		}()
	}
	wg.Wait()
	close(successes)

	var count int
	for range successes {
		count++
	}
	assert.Equal(t, 1, count, "exactly one racing burn may win")
}

func TestStats(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	e := createEvent(t, l, 5)

	r1, err := l.MintTicket(ctx, e.EventID, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = l.MintTicket(ctx, e.EventID, "bob", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = l.ResaleTicket(ctx, r1.Contract, r1.TokenID, "carol", decimal.NewFromInt(110))
	require.NoError(t, err)
	_, err = l.BurnTicket(ctx, r1.Contract, r1.TokenID, "carol")
	require.NoError(t, err)

	stats, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEvents)
	assert.Equal(t, 1, stats.ActiveEvents)
	assert.Equal(t, 2, stats.TicketsSold)
	assert.Equal(t, 1, stats.TicketsUsed)
	assert.Equal(t, 1, stats.TicketsResold)
	assert.True(t, stats.GrossSales.Equal(decimal.NewFromInt(310)), "got %s", stats.GrossSales)
	assert.True(t, stats.PlatformFees.Equal(decimal.NewFromInt(5)), "got %s", stats.PlatformFees)
}

func TestContractAddressIsStable(t *testing.T) {
	a := contractAddress(1, "LN")
	b := contractAddress(1, "LN")
	c := contractAddress(2, "LN")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 42)
}
