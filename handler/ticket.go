package handler

import (
	"bookbyblock-backend/logger"
	"bookbyblock-backend/model"
	"bookbyblock-backend/response"
	"bookbyblock-backend/ticket"
	"encoding/json"
	"fmt"
	"net/http"
)

func BuyTicket(service *ticket.Ticket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.BuyTicketRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logger.Errorf(ctx, "buyTicket: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		receipt, err := service.Buy(ctx, &req)
		if err != nil {
			logger.Errorf(ctx, "buyTicket: unable to buy ticket for event %d: %+v", req.EventID, err)
			sendLedgerError(ctx, w, err)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Mint: receipt},
			StatusCode: http.StatusCreated,
		}.Send(w)
	}
}

func GetTicket(service *ticket.Ticket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		contract, tokenID, err := ticketVars(r)
		if err != nil {
			response.InvalidData(fmt.Sprintf("getTicket: %v", err)).Send(ctx, w)
			return
		}

		tk, err := service.Get(ctx, contract, tokenID)
		if err != nil {
			logger.Errorf(ctx, "getTicket: unable to get ticket %s #%d: %+v", contract, tokenID, err)
			sendLedgerError(ctx, w, err)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Ticket: tk},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func ResaleTicket(service *ticket.Ticket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		contract, tokenID, err := ticketVars(r)
		if err != nil {
			response.InvalidData(fmt.Sprintf("resaleTicket: %v", err)).Send(ctx, w)
			return
		}

		var req model.ResaleTicketRequest
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logger.Errorf(ctx, "resaleTicket: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		receipt, err := service.Resell(ctx, contract, tokenID, &req)
		if err != nil {
			logger.Errorf(ctx, "resaleTicket: unable to resell ticket %s #%d: %+v", contract, tokenID, err)
			sendLedgerError(ctx, w, err)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Resale: receipt},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

// IssueEntryToken hands the holder a short-lived payload to render. Clients
// poll this endpoint on the refresh interval it returns.
func IssueEntryToken(service *ticket.Ticket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		contract, tokenID, err := ticketVars(r)
		if err != nil {
			response.InvalidData(fmt.Sprintf("issueEntryToken: %v", err)).Send(ctx, w)
			return
		}

		issued, err := service.IssueToken(ctx, contract, tokenID)
		if err != nil {
			logger.Errorf(ctx, "issueEntryToken: unable to issue token for %s #%d: %+v", contract, tokenID, err)
			sendLedgerError(ctx, w, err)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Token: issued},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}
