package handler

import (
	"bookbyblock-backend/auth"
	"bookbyblock-backend/event"
	"bookbyblock-backend/logger"
	"bookbyblock-backend/model"
	"bookbyblock-backend/response"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func CreateEvent(service *event.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
			return
		}

		var req model.CreateEventRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logger.Errorf(ctx, "createEvent: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		created, err := service.CreateEvent(ctx, &req)
		if err != nil {
			logger.Errorf(ctx, "createEvent: unable to create event: %+v", err)
			sendLedgerError(ctx, w, err)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Event: created},
			StatusCode: http.StatusCreated,
		}.Send(w)
	}
}

func GetEvent(service *event.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		vars := mux.Vars(r)
		eventIDString := vars["eventID"]

		eventID, err := strconv.ParseInt(eventIDString, 10, 64)
		if err != nil {
			response.InvalidData(fmt.Sprintf("getEvent: invalid event id: %v", eventIDString)).Send(ctx, w)
			logger.Errorf(ctx, "getEvent: unable to parse eventID: %s: %+v", eventIDString, err)
			return
		}

		ev, err := service.GetEvent(ctx, eventID)
		if err != nil {
			logger.Errorf(ctx, "getEvent: unable to get event %d: %+v", eventID, err)
			sendLedgerError(ctx, w, err)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Event: ev},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func GetEvents(service *event.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		events, err := service.GetEvents(ctx)
		if err != nil {
			logger.Errorf(ctx, "getEvents: unable to list events: %+v", err)
			sendLedgerError(ctx, w, err)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Events: events},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func Analytics(service *event.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
			return
		}

		stats, err := service.Analytics(ctx)
		if err != nil {
			logger.Errorf(ctx, "analytics: unable to aggregate stats: %+v", err)
			sendLedgerError(ctx, w, err)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Analytics: stats},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}
