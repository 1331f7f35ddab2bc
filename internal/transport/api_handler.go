// Package transport exposes the HTTP JSON API over the query service.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/query"
)

// RequestMetrics observes served HTTP requests.
type RequestMetrics interface {
	ObserveRequest(route, code string, started time.Time)
}

// APIHandler serves the explorer read API.
type APIHandler struct {
	logger  *zap.Logger
	svc     *query.Service
	metrics RequestMetrics
	router  *mux.Router
}

// NewAPIHandler constructs the handler and its routes.
func NewAPIHandler(logger *zap.Logger, svc *query.Service, metrics RequestMetrics) (*APIHandler, error) {
	if logger == nil {
		return nil, errors.New("logger is nil")
	}
	if svc == nil {
		return nil, errors.New("query service is nil")
	}
	if metrics == nil {
		return nil, errors.New("metrics is nil")
	}

	h := &APIHandler{
		logger:  logger.Named("api"),
		svc:     svc,
		metrics: metrics,
		router:  mux.NewRouter(),
	}
	h.router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	h.router.HandleFunc("/v1/chain/tip", h.chainTip).Methods(http.MethodGet)
	h.router.HandleFunc("/v1/blocks/{id}", h.block).Methods(http.MethodGet)
	h.router.HandleFunc("/v1/transactions/{id}", h.transaction).Methods(http.MethodGet)
	h.router.HandleFunc("/v1/addresses/{address}", h.address).Methods(http.MethodGet)
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *APIHandler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, "/healthz", http.StatusOK, map[string]string{"status": "ok"}, time.Now())
}

func (h *APIHandler) chainTip(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	tip, err := h.svc.Tip(r.Context())
	if err != nil {
		h.writeError(w, "/v1/chain/tip", err, started)
		return
	}
	h.writeJSON(w, "/v1/chain/tip", http.StatusOK, tipResponse{
		Height: tip.Height,
		Hash:   tip.Hash.String(),
	}, started)
}

// block accepts either a decimal height or a hex block hash.
func (h *APIHandler) block(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	id := mux.Vars(r)["id"]

	var (
		b   *model.Block
		err error
	)
	if height, convErr := strconv.ParseUint(id, 10, 64); convErr == nil {
		b, err = h.svc.BlockAtHeight(r.Context(), height)
	} else if hash, hashErr := chainhash.NewHashFromStr(id); hashErr == nil {
		b, err = h.svc.BlockByHash(r.Context(), *hash)
	} else {
		err = query.ErrNotFound
	}
	if err != nil {
		h.writeError(w, "/v1/blocks/{id}", err, started)
		return
	}
	h.writeJSON(w, "/v1/blocks/{id}", http.StatusOK, newBlockResponse(b), started)
}

func (h *APIHandler) transaction(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	id, err := chainhash.NewHashFromStr(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "/v1/transactions/{id}", query.ErrNotFound, started)
		return
	}

	tx, err := h.svc.Transaction(r.Context(), *id)
	if err != nil {
		h.writeError(w, "/v1/transactions/{id}", err, started)
		return
	}
	h.writeJSON(w, "/v1/transactions/{id}", http.StatusOK, newTransactionResponse(tx), started)
}

func (h *APIHandler) address(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	address := mux.Vars(r)["address"]

	view, err := h.svc.Address(r.Context(), address)
	if err != nil {
		h.writeError(w, "/v1/addresses/{address}", err, started)
		return
	}

	resp := addressResponse{
		Address: address,
		Balance: view.Aggregate.Balance,
		TxCount: view.Aggregate.TxCount,
		TxIDs:   make([]string, 0, len(view.TxIDs)),
	}
	for _, id := range view.TxIDs {
		resp.TxIDs = append(resp.TxIDs, id.String())
	}
	h.writeJSON(w, "/v1/addresses/{address}", http.StatusOK, resp, started)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, route string, code int, body any, started time.Time) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("encoding response", zap.String("route", route), zap.Error(err))
	}
	h.metrics.ObserveRequest(route, strconv.Itoa(code), started)
}

func (h *APIHandler) writeError(w http.ResponseWriter, route string, err error, started time.Time) {
	code := http.StatusInternalServerError
	msg := "internal error"
	if errors.Is(err, query.ErrNotFound) {
		code = http.StatusNotFound
		msg = "not found"
	} else {
		h.logger.Error("handling request", zap.String("route", route), zap.Error(err))
	}
	h.writeJSON(w, route, code, map[string]string{"error": msg}, started)
}
