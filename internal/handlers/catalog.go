package handlers

import (
	"net/http"

	"chipsms/internal/money"
	"chipsms/internal/store"
)

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	rows, err := h.services.ListActive(r.Context())
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

func (h *Handler) ListNumbers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.numbers.ListAvailable(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load numbers")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, map[string]any{
			"port":   row.Port,
			"number": row.Number,
			"demo":   row.Demo,
			"label":  row.Label,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func serviceJSON(row store.Service) map[string]any {
	return map[string]any{
		"id":        row.ID,
		"name":      row.Name,
		"price":     money.FormatMinor(row.Price),
		"duration":  row.Duration,
		"permanent": row.Permanent,
		"icon":      row.Icon,
		"is_active": row.IsActive,
	}
}
