package handler

import (
	"bookbyblock-backend/auth"
	"bookbyblock-backend/entry"
	"bookbyblock-backend/logger"
	"bookbyblock-backend/model"
	"bookbyblock-backend/response"
	"encoding/json"
	"net/http"
)

// VerifyTicket is the scanner endpoint. An approved decision returns the
// burned ticket and its burn reference; denials come back as the matching
// error status so station firmware can branch on Status alone.
func VerifyTicket(service *entry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		station, ok := requireRole(w, r, auth.RoleScanner, auth.RoleAdmin)
		if !ok {
			return
		}

		var req model.VerifyTicketRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logger.Errorf(ctx, "verifyTicket: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}
		if req.Payload == "" || req.EventID <= 0 {
			response.InvalidData("verifyTicket: payload and event_id are required").Send(ctx, w)
			return
		}

		decision, err := service.VerifyAndBurn(ctx, []byte(req.Payload), req.EventID, station)
		if err != nil {
			logger.Errorf(ctx, "verifyTicket: verification failed: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		if !decision.Approved {
			denialResponse(decision.Reason).Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Entry: decision},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func denialResponse(reason string) response.ErrorResponse {
	switch reason {
	case entry.ReasonInvalidSignature:
		return response.InvalidSignature()
	case entry.ReasonExpired:
		return response.TokenExpired()
	case entry.ReasonReplayed:
		return response.TokenReplayed()
	case entry.ReasonEventMismatch:
		return response.EventMismatch()
	case entry.ReasonAlreadyUsed:
		return response.AlreadyUsed()
	case entry.ReasonNotAuthorized:
		return response.NotAuthorized()
	case entry.ReasonLedgerUnavailable:
		return response.LedgerUnavailable()
	default:
		return response.MalformedToken()
	}
}
