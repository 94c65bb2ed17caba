package response

import (
	"bookbyblock-backend/model"
	"encoding/json"
	"net/http"
)

type SuccessResponse struct {
	Data       *Data `json:"data"`
	StatusCode int   `json:"-"`
}

type Data struct {
	Event     *model.Event         `json:"event,omitempty"`
	Events    []model.Event        `json:"events,omitempty"`
	Ticket    *model.Ticket        `json:"ticket,omitempty"`
	Mint      *model.MintReceipt   `json:"mint,omitempty"`
	Resale    *model.ResaleReceipt `json:"resale,omitempty"`
	Token     *model.IssuedToken   `json:"token,omitempty"`
	Entry     *model.EntryDecision `json:"entry,omitempty"`
	Analytics *model.Analytics     `json:"analytics,omitempty"`
}

func (r SuccessResponse) Send(w http.ResponseWriter) {
	w.WriteHeader(r.StatusCode)
	json.NewEncoder(w).Encode(r)
}
