package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chipsms/internal/middleware"
	"chipsms/internal/money"
	"chipsms/internal/services"
)

type rechargeRequest struct {
	Amount string `json:"amount"`
}

// Recharge records a PIX balance credit. The demo accepts the confirmation on
// trust; no payment processor is involved.
func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req rechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	balance, err := h.purchaseSvc.Recharge(r.Context(), userID, amountMinor)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			respondError(w, http.StatusBadRequest, "amount must be between 5.00 and 1000.00")
			return
		}
		respondError(w, http.StatusInternalServerError, "recharge failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"balance": money.FormatMinor(balance),
	})
}
