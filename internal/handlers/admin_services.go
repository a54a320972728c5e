package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chipsms/internal/middleware"
	"chipsms/internal/money"
	"chipsms/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type serviceRequest struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	Duration  string `json:"duration"`
	Permanent bool   `json:"permanent"`
	Icon      string `json:"icon"`
	IsActive  *bool  `json:"is_active"`
}

func (h *Handler) AdminListServices(w http.ResponseWriter, r *http.Request) {
	rows, err := h.services.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load services")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, serviceJSON(row))
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) AdminCreateService(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	priceMinor, err := parsePriceMinor(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price")
		return
	}
	serviceID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.services.Create(r.Context(), tx, store.ServiceInput{
			ID:        serviceID,
			Name:      req.Name,
			Price:     priceMinor,
			Duration:  req.Duration,
			Permanent: req.Permanent,
			Icon:      req.Icon,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"name":  req.Name,
			"price": money.FormatMinor(priceMinor),
		})
		return h.audit.Log(r.Context(), tx, actorID, "admin_create_service", "service", serviceID, string(data))
	})
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			respondError(w, http.StatusConflict, "service already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create service")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": serviceID})
}

func (h *Handler) AdminUpdateService(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	serviceID := chi.URLParam(r, "id")
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	priceMinor, err := parsePriceMinor(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price")
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	var updated int64
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		n, err := h.services.Update(r.Context(), tx, store.ServiceInput{
			ID:        serviceID,
			Name:      req.Name,
			Price:     priceMinor,
			Duration:  req.Duration,
			Permanent: req.Permanent,
			Icon:      req.Icon,
		}, isActive)
		if err != nil {
			return err
		}
		updated = n
		if n == 0 {
			return nil
		}
		data, _ := json.Marshal(map[string]string{
			"name":  req.Name,
			"price": money.FormatMinor(priceMinor),
		})
		return h.audit.Log(r.Context(), tx, actorID, "admin_update_service", "service", serviceID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update service")
		return
	}
	if updated == 0 {
		respondError(w, http.StatusNotFound, "service not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) AdminDeleteService(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	serviceID := chi.URLParam(r, "id")
	var deleted int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		n, err := h.services.Delete(r.Context(), tx, serviceID)
		if err != nil {
			return err
		}
		deleted = n
		if n == 0 {
			return nil
		}
		return h.audit.Log(r.Context(), tx, actorID, "admin_delete_service", "service", serviceID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete service")
		return
	}
	if deleted == 0 {
		respondError(w, http.StatusNotFound, "service not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
