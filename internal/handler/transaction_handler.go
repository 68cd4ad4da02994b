package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/django102/routelink-capricorn/internal/middleware"
	"github.com/django102/routelink-capricorn/internal/models"
	"github.com/django102/routelink-capricorn/internal/service"
	"github.com/django102/routelink-capricorn/pkg/helpers"
	"github.com/django102/routelink-capricorn/pkg/logger"
)

type TransactionHandler struct {
	transactionService service.TransactionService
	validator          *helpers.CustomValidator
	logger             *logger.Logger
}

func NewTransactionHandler(transactionService service.TransactionService, validator *helpers.CustomValidator, log *logger.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		validator:          validator,
		logger:             log,
	}
}

// RegisterRoutes attaches the transaction endpoints to the mux.
func (h *TransactionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/transactions/airtime/purchase", h.PurchaseAirtime)
	mux.HandleFunc("POST /api/transactions/data/purchase", h.PurchaseData)
	mux.HandleFunc("POST /api/transactions/tv/subscribe", h.SubscribeTV)
	mux.HandleFunc("GET /api/transactions/{id}", h.GetTransaction)
}

// PurchaseAirtime handles POST /api/transactions/airtime/purchase
func (h *TransactionHandler) PurchaseAirtime(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req models.AirtimePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Header takes precedence so retried clients need not rebuild the body.
	if key := r.Header.Get(middleware.IdempotencyKeyHeader); key != "" {
		req.IdempotencyKey = key
	}

	transaction, err := h.transactionService.PurchaseAirtime(r.Context(), &req, userCtx.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(transaction))
}

// PurchaseData handles POST /api/transactions/data/purchase
func (h *TransactionHandler) PurchaseData(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req models.DataPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if key := r.Header.Get(middleware.IdempotencyKeyHeader); key != "" {
		req.IdempotencyKey = key
	}

	transaction, err := h.transactionService.PurchaseData(r.Context(), &req, userCtx.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(transaction))
}

// SubscribeTV handles POST /api/transactions/tv/subscribe
func (h *TransactionHandler) SubscribeTV(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req models.TVSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if key := r.Header.Get(middleware.IdempotencyKeyHeader); key != "" {
		req.IdempotencyKey = key
	}

	transaction, err := h.transactionService.SubscribeTV(r.Context(), &req, userCtx.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(transaction))
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "transaction id is required")
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(r.Context(), id, userCtx.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(transaction))
}

// writeServiceError maps the service error taxonomy to HTTP statuses.
func (h *TransactionHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTransactionBlocked):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProviderFailed):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Errorf("Unhandled service error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
