package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chipsms/internal/middleware"
	"chipsms/internal/money"
	"chipsms/internal/services"
	"chipsms/internal/store"

	"github.com/go-chi/chi/v5"
)

type purchaseRequest struct {
	ServiceID string `json:"service_id"`
	Number    string `json:"number"`
}

func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ServiceID == "" || req.Number == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	purchase, err := h.purchaseSvc.CreatePurchase(r.Context(), services.PurchaseRequest{
		UserID:    userID,
		ServiceID: req.ServiceID,
		Number:    req.Number,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientFunds):
			respondError(w, http.StatusPaymentRequired, "insufficient funds")
		case errors.Is(err, services.ErrServiceNotFound), errors.Is(err, services.ErrNumberNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrServiceInactive):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "purchase failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, purchaseJSON(purchase))
}

func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	purchase, err := h.purchaseSvc.GetPurchase(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrPurchaseNotFound) {
			respondError(w, http.StatusNotFound, "purchase not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load purchase")
		return
	}
	respondJSON(w, http.StatusOK, purchaseJSON(purchase))
}

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.purchaseSvc.ListPurchases(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load purchases")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, purchaseJSON(row))
	}
	respondJSON(w, http.StatusOK, normalized)
}

func purchaseJSON(p store.Purchase) map[string]any {
	status := "pending"
	if p.SmsCode != nil {
		status = "fulfilled"
	}
	return map[string]any{
		"id":           p.ID,
		"service_name": p.ServiceName,
		"price":        money.FormatMinor(p.Price),
		"number":       p.Number,
		"sms_code":     p.SmsCode,
		"used":         p.Used,
		"demo":         p.Demo,
		"status":       status,
		"created_at":   p.CreatedAt,
		"fulfilled_at": p.FulfilledAt,
	}
}
