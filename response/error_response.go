package response

import (
	"bookbyblock-backend/logger"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	StatusCode  int
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Status      string `json:"status"`
	Description string
}

func (r ErrorResponse) Error() string {
	return fmt.Sprintf("StatusCode: %d, Success: %t, Message: %s, Status: %s, Description: %s", r.StatusCode, r.Success, r.Message, r.Status, r.Description)
}

func (r ErrorResponse) Send(ctx context.Context, w http.ResponseWriter) {
	logger.Errorf(ctx, r.Error())
	w.WriteHeader(r.StatusCode)
	json.NewEncoder(w).Encode(r)
}

func BadRequest(message, description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusBadRequest,
		Success:     false,
		Message:     message,
		Status:      "BAD_REQUEST",
		Description: description,
	}
}

func ResourceNotFound(message, description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusNotFound,
		Success:     false,
		Message:     message,
		Status:      "NOT_FOUND",
		Description: description,
	}
}

func Unauthorized() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		Success:    false,
		Message:    "No valid Auth Token",
		Status:     "UNAUTHORISED",
	}
}

func SomethingWrong() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Success:    false,
		Message:    "Sorry, Something went wrong",
		Status:     "SOMETHING_WRONG",
	}
}

func InvalidData(description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusBadRequest,
		Success:     false,
		Message:     "Invalid data passed",
		Status:      "INVALID_DATA",
		Description: description,
	}
}

func MalformedToken() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Success:    false,
		Message:    "Entry token is malformed",
		Status:     "MALFORMED_TOKEN",
	}
}

func InvalidSignature() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Success:    false,
		Message:    "Entry token signature does not verify",
		Status:     "INVALID_SIGNATURE",
	}
}

func TokenExpired() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusGone,
		Success:    false,
		Message:    "Entry token expired, ask the holder to refresh",
		Status:     "TOKEN_EXPIRED",
	}
}

func TokenReplayed() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "Entry token was already presented",
		Status:     "TOKEN_REPLAYED",
	}
}

func EventMismatch() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "Ticket does not belong to this event",
		Status:     "EVENT_MISMATCH",
	}
}

func AlreadyUsed() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "Ticket already used or burned",
		Status:     "ALREADY_USED",
	}
}

func NotAuthorized() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusForbidden,
		Success:    false,
		Message:    "Requester is neither the ticket owner nor the platform",
		Status:     "NOT_AUTHORIZED",
	}
}

func ResaleLimitExceeded() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Success:    false,
		Message:    "Ticket reached its resale limit",
		Status:     "RESALE_LIMIT_EXCEEDED",
	}
}

func PriceExceedsMarkup() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Success:    false,
		Message:    "Offered price exceeds the resale markup cap",
		Status:     "PRICE_EXCEEDS_MARKUP",
	}
}

func SoldOut() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "Event is sold out",
		Status:     "SOLD_OUT",
	}
}

func EventInactive() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "Event is not active",
		Status:     "EVENT_INACTIVE",
	}
}

func LedgerUnavailable() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusServiceUnavailable,
		Success:    false,
		Message:    "Ticket ledger unavailable, retry shortly",
		Status:     "LEDGER_UNAVAILABLE",
	}
}
