package handler

import (
	"bookbyblock-backend/auth"
	"bookbyblock-backend/config"
	"bookbyblock-backend/event"
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/response"
	"bookbyblock-backend/ticket"
	"bookbyblock-backend/token"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
)

// sendLedgerError maps a service error onto the API error vocabulary. Every
// sentinel the ledger and services expose has a response; anything unmapped
// is an internal fault.
func sendLedgerError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrEventNotFound), errors.Is(err, ledger.ErrTicketNotFound):
		response.ResourceNotFound(err.Error(), "").Send(ctx, w)
	case errors.Is(err, ledger.ErrSoldOut):
		response.SoldOut().Send(ctx, w)
	case errors.Is(err, ledger.ErrEventInactive):
		response.EventInactive().Send(ctx, w)
	case errors.Is(err, ledger.ErrResaleLimitExceeded):
		response.ResaleLimitExceeded().Send(ctx, w)
	case errors.Is(err, ledger.ErrPriceExceedsMarkup):
		response.PriceExceedsMarkup().Send(ctx, w)
	case errors.Is(err, ledger.ErrAlreadyUsed):
		response.AlreadyUsed().Send(ctx, w)
	case errors.Is(err, ledger.ErrNotAuthorized):
		response.NotAuthorized().Send(ctx, w)
	case errors.Is(err, ledger.ErrUnavailable):
		response.LedgerUnavailable().Send(ctx, w)
	case errors.Is(err, ledger.ErrInsufficientPayment),
		errors.Is(err, event.ErrValidation),
		errors.Is(err, ticket.ErrValidation),
		errors.Is(err, token.ErrInvalidInput):
		response.InvalidData(err.Error()).Send(ctx, w)
	default:
		response.SomethingWrong().Send(ctx, w)
	}
}

// requireRole checks the bearer token and returns the authenticated subject.
// On failure it has already written the 401.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (string, bool) {
	subject, ok := auth.VerifyAccessToken(auth.BearerToken(r), viper.GetString(config.Secret), roles...)
	if !ok {
		response.Unauthorized().Send(r.Context(), w)
		return "", false
	}
	return subject, true
}

// ticketVars pulls the {contract}/{tokenID} pair off the route.
func ticketVars(r *http.Request) (contract string, tokenID uint64, err error) {
	vars := mux.Vars(r)
	contract = vars["contract"]

	tokenID, err = strconv.ParseUint(vars["tokenID"], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("ticketVars: invalid token id %q: %w", vars["tokenID"], err)
	}

	return contract, tokenID, nil
}
