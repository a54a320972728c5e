package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chipsms/internal/metrics"
	"chipsms/internal/middleware"
	"chipsms/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// A location counts as online when its gateway client posted telemetry within
// this window.
const onlineWindow = 2 * time.Minute

type createLocationRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	locationID := uuid.NewString()
	apiKey := uuid.NewString()
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.gateway.CreateLocation(r.Context(), tx, locationID, userID, req.Name, apiKey); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"name": req.Name})
		return h.audit.Log(r.Context(), tx, userID, "create_location", "location", locationID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create location")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"id":      locationID,
		"name":    req.Name,
		"api_key": apiKey,
	})
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.gateway.ListLocationsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load locations")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, map[string]any{
			"id":           row.ID,
			"name":         row.Name,
			"api_key":      row.APIKey,
			"is_active":    row.IsActive,
			"online":       isOnline(row.LastSeenAt),
			"last_seen_at": row.LastSeenAt,
			"created_at":   row.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	locationID := chi.URLParam(r, "id")
	var deleted int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		n, err := h.gateway.DeleteLocation(r.Context(), tx, locationID, userID)
		if err != nil {
			return err
		}
		deleted = n
		if n == 0 {
			return nil
		}
		return h.audit.Log(r.Context(), tx, userID, "delete_location", "location", locationID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete location")
		return
	}
	if deleted == 0 {
		respondError(w, http.StatusNotFound, "location not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ListLocationModems(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	locationID := chi.URLParam(r, "id")
	owned, err := h.gateway.LocationOwned(r.Context(), locationID, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify location")
		return
	}
	if !owned {
		respondError(w, http.StatusNotFound, "location not found")
		return
	}
	modems, err := h.gateway.ListModems(r.Context(), locationID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load modems")
		return
	}
	normalized := make([]map[string]any, 0, len(modems))
	for _, modem := range modems {
		chips, err := h.gateway.ListChips(r.Context(), modem.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load chips")
			return
		}
		chipRows := make([]map[string]any, 0, len(chips))
		for _, chip := range chips {
			chipRows = append(chipRows, map[string]any{
				"id":           chip.ID,
				"phone_number": chip.PhoneNumber,
				"iccid":        chip.ICCID,
				"operator":     chip.Operator,
				"status":       chip.Status,
			})
		}
		normalized = append(normalized, map[string]any{
			"id":              modem.ID,
			"port_name":       modem.PortName,
			"imei":            modem.IMEI,
			"operator":        modem.Operator,
			"signal_strength": modem.SignalStrength,
			"status":          modem.Status,
			"online":          isOnline(modem.LastSeenAt),
			"last_seen_at":    modem.LastSeenAt,
			"chips":           chipRows,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

type telemetryChip struct {
	PhoneNumber string  `json:"phone_number"`
	ICCID       *string `json:"iccid"`
	Operator    *string `json:"operator"`
	Status      string  `json:"status"`
}

type telemetryModem struct {
	PortName       string          `json:"port_name"`
	IMEI           *string         `json:"imei"`
	Operator       *string         `json:"operator"`
	SignalStrength *int            `json:"signal_strength"`
	Status         string          `json:"status"`
	Chips          []telemetryChip `json:"chips"`
}

type telemetryRequest struct {
	Modems []telemetryModem `json:"modems"`
}

// IngestTelemetry accepts modem and chip state posted by the gateway client
// (app_gsm), authenticated by the location API key. The post doubles as the
// location heartbeat.
func (h *Handler) IngestTelemetry(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		respondError(w, http.StatusUnauthorized, "missing api key")
		return
	}
	location, err := h.gateway.GetLocationByAPIKey(r.Context(), apiKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to verify api key")
		return
	}
	var req telemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.gateway.TouchLocation(r.Context(), tx, location.ID); err != nil {
			return err
		}
		for _, modem := range req.Modems {
			if modem.PortName == "" {
				continue
			}
			status := modem.Status
			if status == "" {
				status = "online"
			}
			modemID, err := h.gateway.UpsertModem(r.Context(), tx, store.ModemInput{
				LocationID:     location.ID,
				PortName:       modem.PortName,
				IMEI:           modem.IMEI,
				Operator:       modem.Operator,
				SignalStrength: modem.SignalStrength,
				Status:         status,
			})
			if err != nil {
				return err
			}
			for _, chip := range modem.Chips {
				if chip.PhoneNumber == "" {
					continue
				}
				chipStatus := chip.Status
				if chipStatus == "" {
					chipStatus = "active"
				}
				if err := h.gateway.UpsertChip(r.Context(), tx, store.ChipInput{
					ModemID:     modemID,
					PhoneNumber: chip.PhoneNumber,
					ICCID:       chip.ICCID,
					Operator:    chip.Operator,
					Status:      chipStatus,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record telemetry")
		return
	}
	metrics.TelemetryPostsTotal.Inc()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isOnline(lastSeen any) bool {
	t, ok := lastSeen.(time.Time)
	if !ok {
		return false
	}
	return time.Since(t) < onlineWindow
}
