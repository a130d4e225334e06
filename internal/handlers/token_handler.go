package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/volcanocoin/backend/internal/metrics"
	"github.com/volcanocoin/backend/internal/middleware"
	"github.com/volcanocoin/backend/internal/models"
	"github.com/volcanocoin/backend/internal/services"
	"github.com/volcanocoin/backend/internal/token"
)

const maxBodyBytes = 1_048_576 // 1 MB

// TokenHandler exposes the ledger engine over HTTP. It adds no
// invariants of its own: amounts are converted between display units
// and smallest units at this boundary, authorization and conservation
// live in the engine, and engine errors pass through unchanged.
type TokenHandler struct {
	engine    *token.Service
	journal   *services.JournalService
	validator *services.ValidationHelper
}

func NewTokenHandler(engine *token.Service, journal *services.JournalService) *TokenHandler {
	return &TokenHandler{
		engine:    engine,
		journal:   journal,
		validator: services.NewValidationHelper(),
	}
}

// Transfer moves tokens from the authenticated caller to a recipient
// @Summary Transfer tokens
// @Description Transfer tokens from the caller to a recipient; amount is in display units
// @Tags token
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{recipient=string,amount=string} true "Transfer request"
// @Success 201 {object} object{paymentId=uint64}
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /transfer [post]
func (h *TokenHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerAddress(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Recipient string `json:"recipient" validate:"required"`
		Amount    string `json:"amount" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	recipient, err := models.ParseAddress(req.Recipient)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	amount, err := models.ToSmallestUnit(req.Amount)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	paymentID, err := h.engine.Transfer(caller, recipient, amount)
	if err != nil {
		metrics.TransferFailures.WithLabelValues(failureReason(err)).Inc()
		writeEngineError(w, err)
		return
	}

	metrics.TransfersTotal.Inc()
	metrics.PaymentRecordsTotal.Inc()

	// Write-behind: journal failures never fail a committed transfer.
	go func() {
		services.LogJournalError("RecordTransfer",
			h.journal.RecordTransfer(paymentID, caller, recipient, amount))
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"paymentId": paymentID,
		"from":      caller,
		"to":        recipient,
		"amount":    models.FromSmallestUnit(amount),
	})
}

// IncreaseSupply doubles the total supply (owner only)
// @Summary Increase supply
// @Description Double the total supply, crediting the minted amount to the owner
// @Tags token
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{totalSupply=string}
// @Failure 403 {object} services.ErrorResponse
// @Router /supply/increase [post]
func (h *TokenHandler) IncreaseSupply(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerAddress(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	newSupply, err := h.engine.IncreaseSupply(caller)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	metrics.SupplyIncreases.Inc()
	metrics.SetTotalSupply(newSupply)

	minted := new(big.Int).Rsh(newSupply, 1)
	go func() {
		services.LogJournalError("RecordSupplyIncrease",
			h.journal.RecordSupplyIncrease(caller, minted, newSupply))
	}()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"totalSupply": newSupply.String(),
		"display":     models.FromSmallestUnit(newSupply),
	})
}

// UpdateDetails edits a payment record's type and comment
// @Summary Update payment details
// @Description Edit a payment record; admins editing others' records get an audit suffix
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param paymentId path int true "Global payment id"
// @Param request body object{paymentType=int,comment=string} true "New details"
// @Success 200 {object} models.PaymentRecord
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /payments/{paymentId} [put]
func (h *TokenHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerAddress(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	paymentID, err := paymentIDParam(r)
	if err != nil {
		services.SendErrorResponse(w, "Invalid payment id", http.StatusBadRequest, nil)
		return
	}

	var req struct {
		PaymentType uint8  `json:"paymentType" validate:"lte=3"`
		Comment     string `json:"comment" validate:"max=280"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := h.engine.UpdateDetails(caller, paymentID, models.PaymentType(req.PaymentType), req.Comment); err != nil {
		writeEngineError(w, err)
		return
	}

	rec, err := h.engine.PaymentFromID(paymentID)
	if err != nil {
		log.Printf("[TOKEN] Updated payment %d vanished: %v", paymentID, err)
		services.SendErrorResponse(w, "Failed to read payment", http.StatusInternalServerError, nil)
		return
	}

	go func() {
		services.LogJournalError("RecordDetailsUpdate",
			h.journal.RecordDetailsUpdate(caller, paymentID, rec.PaymentType, rec.Comment))
	}()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// GetPayment resolves a payment record by global id
// @Summary Get payment by global id
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param paymentId path int true "Global payment id"
// @Success 200 {object} models.PaymentRecord
// @Failure 404 {object} services.ErrorResponse
// @Router /payments/{paymentId} [get]
func (h *TokenHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := paymentIDParam(r)
	if err != nil {
		services.SendErrorResponse(w, "Invalid payment id", http.StatusBadRequest, nil)
		return
	}

	rec, err := h.engine.PaymentFromID(paymentID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// GetAccountPayment reads a payment record by account and local index
// @Summary Get payment by account and local index
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param address path string true "Account address"
// @Param index path int true "Local index"
// @Success 200 {object} models.PaymentRecord
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{address}/payments/{index} [get]
func (h *TokenHandler) GetAccountPayment(w http.ResponseWriter, r *http.Request) {
	account, err := models.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		services.SendErrorResponse(w, "Invalid payment index", http.StatusBadRequest, nil)
		return
	}

	rec, err := h.engine.PaymentByAccount(account, index)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// ListAccountPayments lists every payment an account has sent
// @Summary List payments sent by an account
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param address path string true "Account address"
// @Success 200 {object} object{payments=[]models.PaymentRecord}
// @Router /accounts/{address}/payments [get]
func (h *TokenHandler) ListAccountPayments(w http.ResponseWriter, r *http.Request) {
	account, err := models.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	payments := h.engine.PaymentsByAccount(account)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"account":  account,
		"payments": payments,
		"count":    len(payments),
	})
}

// BalanceEnquiry returns an account balance
// @Summary Get account balance
// @Tags token
// @Produce json
// @Security BearerAuth
// @Param address path string true "Account address"
// @Success 200 {object} object{balance=string,display=string}
// @Router /accounts/{address}/balance [get]
func (h *TokenHandler) BalanceEnquiry(w http.ResponseWriter, r *http.Request) {
	account, err := models.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	balance := h.engine.BalanceOf(account)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"address": account,
		"balance": balance.String(),
		"display": models.FromSmallestUnit(balance),
	})
}

// TotalSupply returns the current total supply
// @Summary Get total supply
// @Tags token
// @Produce json
// @Success 200 {object} object{totalSupply=string}
// @Router /supply [get]
func (h *TokenHandler) TotalSupply(w http.ResponseWriter, r *http.Request) {
	supply := h.engine.TotalSupply()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"totalSupply": supply.String(),
		"display":     models.FromSmallestUnit(supply),
	})
}

// decodeJSON applies the shared request-body rules: size cap, unknown
// fields rejected, exactly one JSON object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	return true
}

func paymentIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "paymentId"), 10, 64)
}

// writeEngineError maps engine errors to HTTP statuses, passing the
// error text through unchanged.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, token.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, token.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, token.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, token.ErrInvalidRecipient), errors.Is(err, token.ErrInvalidAmount):
		status = http.StatusBadRequest
	}
	services.SendErrorResponse(w, err.Error(), status, nil)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, token.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, token.ErrInvalidRecipient):
		return "invalid_recipient"
	case errors.Is(err, token.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "internal"
	}
}
