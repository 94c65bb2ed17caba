// Package entry composes token verification with the ticket ledger to
// decide admission. The decision path is deliberately ordered: cheap
// stateless checks first, the irreversible burn last.
package entry

import (
	c "bookbyblock-backend/context"
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/logger"
	"bookbyblock-backend/model"
	"bookbyblock-backend/monitoring"
	"bookbyblock-backend/token"
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	Approved = "ENTRY_APPROVED"

	ReasonMalformedToken    = "MALFORMED_TOKEN"
	ReasonInvalidSignature  = "INVALID_SIGNATURE"
	ReasonExpired           = "TOKEN_EXPIRED"
	ReasonReplayed          = "TOKEN_REPLAYED"
	ReasonEventMismatch     = "EVENT_MISMATCH"
	ReasonAlreadyUsed       = "ALREADY_USED"
	ReasonNotAuthorized     = "NOT_AUTHORIZED"
	ReasonLedgerUnavailable = "LEDGER_UNAVAILABLE"
)

// NonceGuard reports whether a token nonce is being presented for the
// first time, and can hand a consumed nonce back when the presentation
// could not be decided. Implemented by replay.Guard; nil-able for
// deployments that accept window-bounded replay.
type NonceGuard interface {
	FirstUse(ctx context.Context, nonce string) (bool, error)
	Release(ctx context.Context, nonce string) error
}

type Service struct {
	tokens  *token.Service
	ledger  ledger.TicketLedger
	guard   NonceGuard
	burnAs  string
	retries int
	backoff time.Duration
}

// NewService wires the admission pipeline. burnAs is the platform identity
// burns are executed under: stations authenticate with their own subject,
// but the ledger only honors the owner or the platform, so the handler's
// role check is the authorization and burnAs is the credential.
func NewService(tokens *token.Service, l ledger.TicketLedger, guard NonceGuard, burnAs string) *Service {
	return &Service{
		tokens:  tokens,
		ledger:  l,
		guard:   guard,
		burnAs:  burnAs,
		retries: 2,
		backoff: 200 * time.Millisecond,
	}
}

// VerifyAndBurn runs the full admission protocol for a scanned payload.
// station identifies the scanning endpoint for the audit trail only.
// Denials come back as a Decision, not an error; errors are reserved for
// faults the scanner cannot act on. The burn is never retried: only the
// ledger's own conditional write may decide the race.
func (s *Service) VerifyAndBurn(ctx context.Context, rawPayload []byte, eventID int64, station string) (*model.EntryDecision, error) {
	ctx, cancel := c.NewContextWithTimeOut(ctx, c.DefaultLedgerTimeout)
	defer cancel()

	v, err := s.tokens.Verify(rawPayload)
	if err != nil {
		return s.denied(ctx, tokenReason(err), nil), nil
	}

	if s.guard != nil {
		first, err := s.guard.FirstUse(ctx, v.Nonce)
		if err != nil {
			// A broken guard denies: manual reconciliation beats letting a
			// copied token through.
			logger.Errorf(ctx, "verifyAndBurn: replay guard failed: %+v", err)
			return s.denied(ctx, ReasonLedgerUnavailable, nil), nil
		}
		if !first {
			return s.denied(ctx, ReasonReplayed, nil), nil
		}
	}

	contract, tokenID, err := model.ParseTicketRef(v.TicketRef)
	if err != nil {
		return s.denied(ctx, ReasonMalformedToken, nil), nil
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ledger.ErrEventNotFound) {
			return s.denied(ctx, ReasonEventMismatch, nil), nil
		}
		return s.undecided(ctx, v.Nonce, nil), nil
	}
	if event.Contract != contract {
		return s.denied(ctx, ReasonEventMismatch, nil), nil
	}

	t, err := s.getTicket(ctx, contract, tokenID)
	if err != nil {
		if errors.Is(err, ledger.ErrTicketNotFound) {
			return s.denied(ctx, ReasonAlreadyUsed, nil), nil
		}
		return s.undecided(ctx, v.Nonce, nil), nil
	}

	if !t.Exists || t.Used {
		return s.denied(ctx, ReasonAlreadyUsed, t), nil
	}

	start := time.Now()
	txRef, err := s.ledger.BurnTicket(ctx, contract, tokenID, s.burnAs)
	monitoring.ObserveBurn(time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAlreadyUsed), errors.Is(err, ledger.ErrTicketNotFound):
			return s.denied(ctx, ReasonAlreadyUsed, t), nil
		case errors.Is(err, ledger.ErrNotAuthorized):
			return s.denied(ctx, ReasonNotAuthorized, t), nil
		case errors.Is(err, ledger.ErrUnavailable):
			logger.Errorf(ctx, "verifyAndBurn: burn failed, needs reconciliation for %s #%d: %+v", contract, tokenID, err)
			return s.undecided(ctx, v.Nonce, t), nil
		}
		return nil, fmt.Errorf("verifyAndBurn: %w", err)
	}

	t.Exists = false
	t.Used = true
	monitoring.RecordVerification(Approved)
	logger.Infof(ctx, "verifyAndBurn: station %s admitted %s #%d, burn tx %s", station, contract, tokenID, txRef)

	return &model.EntryDecision{
		Approved:  true,
		Ticket:    t,
		BurnTxRef: txRef,
	}, nil
}

func (s *Service) denied(ctx context.Context, reason string, t *model.Ticket) *model.EntryDecision {
	monitoring.RecordVerification(reason)
	logger.Infof(ctx, "verifyAndBurn: entry denied: %s", reason)
	return &model.EntryDecision{
		Approved: false,
		Reason:   reason,
		Ticket:   t,
	}
}

// undecided is the LEDGER_UNAVAILABLE denial. The nonce goes back to the
// guard so the holder's immediate re-scan of a still-valid token is judged
// on its merits instead of reading as a replay.
func (s *Service) undecided(ctx context.Context, nonce string, t *model.Ticket) *model.EntryDecision {
	if s.guard != nil {
		if err := s.guard.Release(ctx, nonce); err != nil {
			logger.Warnf(ctx, "verifyAndBurn: unable to release nonce: %+v", err)
		}
	}
	return s.denied(ctx, ReasonLedgerUnavailable, t)
}

// getTicket retries transient ledger failures. Reads are safe to retry;
// nothing here mutates.
func (s *Service) getTicket(ctx context.Context, contract string, tokenID uint64) (*model.Ticket, error) {
	var t *model.Ticket
	err := s.withRetry(ctx, func() error {
		var err error
		t, err = s.ledger.GetTicket(ctx, contract, tokenID)
		return err
	})
	return t, err
}

func (s *Service) getEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	var e *model.Event
	err := s.withRetry(ctx, func() error {
		var err error
		e, err = s.ledger.GetEvent(ctx, eventID)
		return err
	})
	return e, err
}

func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ledger.ErrUnavailable) || attempt >= s.retries {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("withRetry: %v: %w", ctx.Err(), ledger.ErrUnavailable)
		case <-time.After(s.backoff << uint(attempt)):
		}
	}
}

func tokenReason(err error) string {
	switch {
	case errors.Is(err, token.ErrInvalidSignature):
		return ReasonInvalidSignature
	case errors.Is(err, token.ErrExpired):
		return ReasonExpired
	default:
		return ReasonMalformedToken
	}
}
