// Package chain is the production TicketLedger variant: MySQL holds the
// authoritative ticket state and every state transition runs as a
// transactional conditional write, while each ticket is mirrored by a
// single-unit asset on Algorand. Burn atomicity comes from the store, not
// from in-process locks, so multiple API instances can verify concurrently.
package chain

import (
	"bookbyblock-backend/algorand"
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/logger"
	"bookbyblock-backend/model"
	"bookbyblock-backend/policy"
	"bookbyblock-backend/vault"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	eventTable  = "Events"
	ticketTable = "Tickets"
	saleTable   = "Sales"
)

var eventCols = []string{"name", "symbol", "base_price", "total_supply", "sold_count", "active", "creator", "contract", "created_at"}
var ticketCols = []string{"contract", "token_id", "owner", "resale_count", "last_price", "still_exists", "used"}
var saleCols = []string{"contract", "token_id", "price", "fee", "kind", "created_at"}

type Ledger struct {
	db     *sql.DB
	algo   algorand.Algo
	vault  *vault.Vault
	policy policy.Policy
	admin  string
	encKey []byte
}

func New(db *sql.DB, algo algorand.Algo, v *vault.Vault, p policy.Policy, admin string, encKey []byte) *Ledger {
	return &Ledger{
		db:     db,
		algo:   algo,
		vault:  v,
		policy: p,
		admin:  admin,
		encKey: encKey,
	}
}

func (l *Ledger) CreateEvent(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	issuer, err := l.algo.GenerateAccount()
	if err != nil {
		return nil, fmt.Errorf("createEvent: error generating issuer account: %w", err)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return nil, unavailable("createEvent", err)
	}

	e := &model.Event{
		Name:        req.Name,
		Symbol:      req.Symbol,
		BasePrice:   req.BasePrice,
		TotalSupply: req.TotalSupply,
		Active:      true,
		Creator:     req.Creator,
		Contract:    issuer.AccountAddress,
		CreatedAt:   time.Now().UTC(),
	}

	values := []interface{}{
		e.Name, e.Symbol, e.BasePrice.String(), e.TotalSupply, 0, 1, e.Creator, e.Contract, e.CreatedAt,
	}
	id, err := create(tx, eventTable, eventCols, values)
	if err != nil {
		tx.Rollback()
		return nil, unavailable("createEvent", err)
	}
	e.EventID = id

	if err := tx.Commit(); err != nil {
		return nil, unavailable("createEvent", err)
	}

	if err := l.vault.StoreEventAccount(e.EventID, issuer, l.encKey); err != nil {
		return nil, fmt.Errorf("createEvent: %w", err)
	}

	return e, nil
}

func (l *Ledger) GetEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	q := `SELECT event_id, name, symbol, base_price, total_supply, sold_count, active, creator, contract, created_at
	      FROM Events WHERE event_id = ?;`

	e, err := scanEvent(l.db.QueryRowContext(ctx, q, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getEvent: id %d: %w", eventID, ledger.ErrEventNotFound)
	}
	if err != nil {
		return nil, unavailable("getEvent", err)
	}

	return e, nil
}

func (l *Ledger) ListEvents(ctx context.Context) ([]model.Event, error) {
	q := `SELECT event_id, name, symbol, base_price, total_supply, sold_count, active, creator, contract, created_at
	      FROM Events ORDER BY event_id;`

	rows, err := l.db.QueryContext(ctx, q)
	if err != nil {
		return nil, unavailable("listEvents", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, unavailable("listEvents", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listEvents", err)
	}

	return events, nil
}

func (l *Ledger) GetTicket(ctx context.Context, contract string, tokenID uint64) (*model.Ticket, error) {
	q := `SELECT contract, token_id, owner, resale_count, last_price, still_exists, used
	      FROM Tickets WHERE contract = ? AND token_id = ?;`

	t, err := scanTicket(l.db.QueryRowContext(ctx, q, contract, tokenID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getTicket: %s #%d: %w", contract, tokenID, ledger.ErrTicketNotFound)
	}
	if err != nil {
		return nil, unavailable("getTicket", err)
	}

	return t, nil
}

func (l *Ledger) MintTicket(ctx context.Context, eventID int64, buyer string, payment decimal.Decimal) (*model.MintReceipt, error) {
	tx, err := l.db.Begin()
	if err != nil {
		return nil, unavailable("mintTicket", err)
	}

	q := `SELECT event_id, name, symbol, base_price, total_supply, sold_count, active, creator, contract, created_at
	      FROM Events WHERE event_id = ? FOR UPDATE;`
	e, err := scanEvent(tx.QueryRowContext(ctx, q, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		return nil, fmt.Errorf("mintTicket: event %d: %w", eventID, ledger.ErrEventNotFound)
	}
	if err != nil {
		tx.Rollback()
		return nil, unavailable("mintTicket", err)
	}

	if !e.Active {
		tx.Rollback()
		return nil, fmt.Errorf("mintTicket: event %d: %w", eventID, ledger.ErrEventInactive)
	}

	if e.SoldCount >= e.TotalSupply {
		tx.Rollback()
		return nil, fmt.Errorf("mintTicket: event %d: %w", eventID, ledger.ErrSoldOut)
	}

	if payment.LessThan(e.BasePrice) {
		tx.Rollback()
		return nil, fmt.Errorf("mintTicket: paid %s for base price %s: %w", payment, e.BasePrice, ledger.ErrInsufficientPayment)
	}

	tokenID := uint64(e.SoldCount + 1)
	fee := l.policy.PlatformFee(e.BasePrice)

	_, err = create(tx, ticketTable, ticketCols, []interface{}{
		e.Contract, tokenID, buyer, 0, e.BasePrice.String(), 1, 0,
	})
	if err != nil {
		tx.Rollback()
		return nil, unavailable("mintTicket", err)
	}

	_, err = update(tx, eventTable,
		[]string{"sold_count"}, []interface{}{e.SoldCount + 1},
		[]string{"event_id"}, []interface{}{eventID})
	if err != nil {
		tx.Rollback()
		return nil, unavailable("mintTicket", err)
	}

	_, err = create(tx, saleTable, saleCols, []interface{}{
		e.Contract, tokenID, e.BasePrice.String(), fee.String(), "MINT", time.Now().UTC(),
	})
	if err != nil {
		tx.Rollback()
		return nil, unavailable("mintTicket", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("mintTicket", err)
	}

	go l.mintAsset(eventID, e, tokenID)

	return &model.MintReceipt{
		EventID:  eventID,
		Contract: e.Contract,
		TokenID:  tokenID,
		Owner:    buyer,
		Price:    e.BasePrice,
		Fee:      fee,
		TxRef:    uuid.NewString(),
	}, nil
}

func (l *Ledger) ResaleTicket(ctx context.Context, contract string, tokenID uint64, newOwner string, price decimal.Decimal) (*model.ResaleReceipt, error) {
	tx, err := l.db.Begin()
	if err != nil {
		return nil, unavailable("resaleTicket", err)
	}

	q := `SELECT contract, token_id, owner, resale_count, last_price, still_exists, used
	      FROM Tickets WHERE contract = ? AND token_id = ? FOR UPDATE;`
	t, err := scanTicket(tx.QueryRowContext(ctx, q, contract, tokenID))
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		return nil, fmt.Errorf("resaleTicket: %s #%d: %w", contract, tokenID, ledger.ErrTicketNotFound)
	}
	if err != nil {
		tx.Rollback()
		return nil, unavailable("resaleTicket", err)
	}

	if !t.Exists {
		tx.Rollback()
		return nil, fmt.Errorf("resaleTicket: %s #%d: %w", contract, tokenID, ledger.ErrAlreadyUsed)
	}

	if err := l.policy.ValidateResale(t.ResaleCount, t.LastPrice, price); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("resaleTicket: %w", err)
	}

	rows, err := update(tx, ticketTable,
		[]string{"owner", "last_price", "resale_count"},
		[]interface{}{newOwner, price.String(), t.ResaleCount + 1},
		[]string{"contract", "token_id", "resale_count"},
		[]interface{}{contract, tokenID, t.ResaleCount})
	if err != nil {
		tx.Rollback()
		return nil, unavailable("resaleTicket", err)
	}
	if rows == 0 {
		tx.Rollback()
		return nil, unavailable("resaleTicket", fmt.Errorf("no row updated"))
	}

	_, err = create(tx, saleTable, saleCols, []interface{}{
		contract, tokenID, price.String(), "0", "RESALE", time.Now().UTC(),
	})
	if err != nil {
		tx.Rollback()
		return nil, unavailable("resaleTicket", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("resaleTicket", err)
	}

	return &model.ResaleReceipt{
		Contract: contract,
		TokenID:  tokenID,
		NewOwner: newOwner,
		Price:    price,
		TxRef:    uuid.NewString(),
	}, nil
}

// BurnTicket is one conditional UPDATE keyed on still_exists, so two racing
// scanners resolve at the store: the loser updates zero rows and gets
// ErrAlreadyUsed, never a second success.
func (l *Ledger) BurnTicket(ctx context.Context, contract string, tokenID uint64, requester string) (string, error) {
	isAdmin := 0
	if requester == l.admin {
		isAdmin = 1
	}

	q := `UPDATE Tickets SET still_exists = 0, used = 1
	      WHERE contract = ? AND token_id = ? AND still_exists = 1 AND (owner = ? OR ? = 1);`
	res, err := l.db.ExecContext(ctx, q, contract, tokenID, requester, isAdmin)
	if err != nil {
		return "", unavailable("burnTicket", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return "", unavailable("burnTicket", err)
	}

	if rows == 0 {
		t, err := l.GetTicket(ctx, contract, tokenID)
		if err != nil {
			return "", fmt.Errorf("burnTicket: %w", err)
		}
		if !t.Exists {
			return "", fmt.Errorf("burnTicket: %s #%d: %w", contract, tokenID, ledger.ErrAlreadyUsed)
		}
		return "", fmt.Errorf("burnTicket: requester %s: %w", requester, ledger.ErrNotAuthorized)
	}

	go l.destroyAsset(contract, tokenID)

	return uuid.NewString(), nil
}

func (l *Ledger) Stats(ctx context.Context) (*model.Analytics, error) {
	a := &model.Analytics{}

	q := `SELECT COUNT(*), COALESCE(SUM(active), 0), COALESCE(SUM(sold_count), 0) FROM Events;`
	if err := l.db.QueryRowContext(ctx, q).Scan(&a.TotalEvents, &a.ActiveEvents, &a.TicketsSold); err != nil {
		return nil, unavailable("stats", err)
	}

	q = `SELECT COALESCE(SUM(used), 0), COALESCE(SUM(resale_count), 0) FROM Tickets;`
	if err := l.db.QueryRowContext(ctx, q).Scan(&a.TicketsUsed, &a.TicketsResold); err != nil {
		return nil, unavailable("stats", err)
	}

	var gross, fees string
	var sales int
	q = `SELECT COALESCE(SUM(price), 0), COALESCE(SUM(fee), 0), COUNT(*) FROM Sales;`
	if err := l.db.QueryRowContext(ctx, q).Scan(&gross, &fees, &sales); err != nil {
		return nil, unavailable("stats", err)
	}

	var err error
	if a.GrossSales, err = decimal.NewFromString(gross); err != nil {
		return nil, fmt.Errorf("stats: error parsing gross sales: %w", err)
	}
	if a.PlatformFees, err = decimal.NewFromString(fees); err != nil {
		return nil, fmt.Errorf("stats: error parsing platform fees: %w", err)
	}
	if sales > 0 {
		a.AverageSalePrice = a.GrossSales.Div(decimal.NewFromInt(int64(sales))).RoundDown(18)
	}

	return a, nil
}

// mintAsset mirrors a freshly minted ticket on chain. Runs detached from
// the request; the SQL row is already authoritative.
func (l *Ledger) mintAsset(eventID int64, e *model.Event, tokenID uint64) {
	ctx := context.Background()

	issuer, err := l.vault.EventAccount(eventID, l.encKey)
	if err != nil {
		logger.Errorf(ctx, "mintAsset: unable to load issuer for event %d: %+v", eventID, err)
		return
	}

	assetID, err := l.algo.CreateTicketAsset(ctx, issuer, fmt.Sprintf("%s #%d", e.Name, tokenID), e.Symbol)
	if err != nil {
		logger.Errorf(ctx, "mintAsset: unable to create asset for %s #%d: %+v", e.Contract, tokenID, err)
		return
	}

	if _, err := l.db.Exec(`UPDATE Tickets SET asset_id = ? WHERE contract = ? AND token_id = ?;`, assetID, e.Contract, tokenID); err != nil {
		logger.Errorf(ctx, "mintAsset: unable to record asset id %d for %s #%d: %+v", assetID, e.Contract, tokenID, err)
	}
}

func (l *Ledger) destroyAsset(contract string, tokenID uint64) {
	ctx := context.Background()

	var assetID sql.NullInt64
	var eventID int64
	q := `SELECT t.asset_id, e.event_id FROM Tickets t INNER JOIN Events e ON t.contract = e.contract
	      WHERE t.contract = ? AND t.token_id = ?;`
	if err := l.db.QueryRow(q, contract, tokenID).Scan(&assetID, &eventID); err != nil {
		logger.Errorf(ctx, "destroyAsset: unable to look up asset for %s #%d: %+v", contract, tokenID, err)
		return
	}

	if !assetID.Valid {
		logger.Warnf(ctx, "destroyAsset: no asset recorded for %s #%d", contract, tokenID)
		return
	}

	issuer, err := l.vault.EventAccount(eventID, l.encKey)
	if err != nil {
		logger.Errorf(ctx, "destroyAsset: unable to load issuer for event %d: %+v", eventID, err)
		return
	}

	if err := l.algo.DestroyTicketAsset(ctx, issuer, uint64(assetID.Int64)); err != nil {
		logger.Errorf(ctx, "destroyAsset: unable to destroy asset %d: %+v", assetID.Int64, err)
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(r rowScanner) (*model.Event, error) {
	var e model.Event
	var basePrice string
	var active int
	if err := r.Scan(&e.EventID, &e.Name, &e.Symbol, &basePrice, &e.TotalSupply, &e.SoldCount, &active, &e.Creator, &e.Contract, &e.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if e.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
		return nil, fmt.Errorf("scanEvent: error parsing base price: %w", err)
	}
	e.Active = active == 1

	return &e, nil
}

func scanTicket(r rowScanner) (*model.Ticket, error) {
	var t model.Ticket
	var lastPrice string
	var exists, used int
	if err := r.Scan(&t.Contract, &t.TokenID, &t.Owner, &t.ResaleCount, &lastPrice, &exists, &used); err != nil {
		return nil, err
	}

	var err error
	if t.LastPrice, err = decimal.NewFromString(lastPrice); err != nil {
		return nil, fmt.Errorf("scanTicket: error parsing last price: %w", err)
	}
	t.Exists = exists == 1
	t.Used = used == 1

	return &t, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ledger.ErrUnavailable)
}
