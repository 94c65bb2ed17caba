package router

import (
	"bookbyblock-backend/algorand"
	"bookbyblock-backend/config"
	"bookbyblock-backend/entry"
	"bookbyblock-backend/event"
	"bookbyblock-backend/factory"
	"bookbyblock-backend/handler"
	"bookbyblock-backend/healthcheck"
	"bookbyblock-backend/ledger"
	"bookbyblock-backend/ledger/chain"
	"bookbyblock-backend/ledger/memory"
	"bookbyblock-backend/logger"
	"bookbyblock-backend/middleware"
	"bookbyblock-backend/policy"
	"bookbyblock-backend/replay"
	"bookbyblock-backend/response"
	"bookbyblock-backend/ticket"
	"bookbyblock-backend/token"
	"bookbyblock-backend/vault"
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

// Router returns the router for all the API handler.
func Router(ctx context.Context) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.SetCorrelationIDHeader)
	r.Use(middleware.PanicHandler)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.ResourceNotFound(fmt.Sprintf("The requested resource was not found: path: %s, method: %s", req.URL.Path, req.Method), "The requested resource was not found!").Send(req.Context(), w)
	})

	r.Use(middleware.ResponseTimeLogging)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.SetContentTypeHeader)

	f := factory.NewFactory()
	p := policy.FromConfig()
	window := time.Duration(viper.GetInt(config.TokenWindowMillis)) * time.Millisecond

	ticketLedger, signingSecret, platformAddr := buildLedger(ctx, f, p)
	tokenService := token.NewService(signingSecret, window, viper.GetInt(config.TokenNonceBytes))

	var guard entry.NonceGuard
	if viper.GetString(config.RedisAddress) != "" {
		guard = replay.NewGuard(f.Redis(ctx), window)
	} else {
		logger.Warnf(ctx, "router: no redis configured, tokens are replayable within their window")
	}

	eventService := event.NewEvent(ticketLedger)
	ticketService := ticket.NewTicket(ticketLedger, tokenService, window)
	entryService := entry.NewService(tokenService, ticketLedger, guard, platformAddr)

	r.HandleFunc("/healthcheck", healthcheck.Self).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	baseRouter := r.PathPrefix("/v1").Subrouter()

	eventRouter := baseRouter.PathPrefix("/event").Subrouter()
	eventRouter.HandleFunc("", handler.CreateEvent(eventService)).Methods(http.MethodPost)
	eventRouter.HandleFunc("", handler.GetEvents(eventService)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID}", handler.GetEvent(eventService)).Methods(http.MethodGet)

	ticketRouter := baseRouter.PathPrefix("/ticket").Subrouter()
	ticketRouter.HandleFunc("", handler.BuyTicket(ticketService)).Methods(http.MethodPost)
	ticketRouter.HandleFunc("/{contract}/{tokenID}", handler.GetTicket(ticketService)).Methods(http.MethodGet)
	ticketRouter.HandleFunc("/{contract}/{tokenID}/resale", handler.ResaleTicket(ticketService)).Methods(http.MethodPost)
	ticketRouter.HandleFunc("/{contract}/{tokenID}/token", handler.IssueEntryToken(ticketService)).Methods(http.MethodGet)

	baseRouter.HandleFunc("/entry/verify", handler.VerifyTicket(entryService)).Methods(http.MethodPost)
	baseRouter.HandleFunc("/admin/analytics", handler.Analytics(eventService)).Methods(http.MethodGet)

	return r
}

// buildLedger assembles the configured ledger backend and resolves the token
// signing secret and the platform identity burns run under. The chain backend
// keeps the secret in vault so every API instance signs with the same key;
// the memory backend runs self contained.
func buildLedger(ctx context.Context, f factory.Factory, p policy.Policy) (ledger.TicketLedger, []byte, string) {
	switch backend := viper.GetString(config.LedgerBackend); backend {
	case config.LedgerBackendChain:
		v, err := vault.New(
			viper.GetString(config.VaultToken),
			viper.GetString(config.VaultUnSealKey),
			viper.GetString(config.VaultAddress),
			viper.GetString(config.SigningPath),
			viper.GetString(config.EventPath))
		if err != nil {
			logger.Fatalf(ctx, "router: error creating vault client: %+v", err)
		}

		secret, err := v.SigningSecret(viper.GetString(config.SigningSecretAt))
		if err != nil {
			logger.Fatalf(ctx, "router: error reading signing secret: %+v", err)
		}

		platform := &algorand.Account{
			AccountAddress:     viper.GetString(config.FromAddress),
			SecurityPassphrase: viper.GetString(config.FromSecurityParaphrase),
		}
		algo := algorand.New(
			platform,
			viper.GetString(config.ApiAddress),
			viper.GetString(config.ApiKey),
			viper.GetUint64(config.MinFee),
		)

		encKey := sha256.Sum256([]byte(viper.GetString(config.Secret)))
		return chain.New(f.DB(ctx), algo, v, p, platform.AccountAddress, encKey[:]), secret, platform.AccountAddress

	case config.LedgerBackendMemory:
		return memory.New(p, p.FeeRecipient), []byte(viper.GetString(config.Secret)), p.FeeRecipient

	default:
		logger.Fatalf(ctx, "router: unknown ledger backend %q", backend)
		return nil, nil, ""
	}
}
