package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"chipsms/internal/auth"
	"chipsms/internal/middleware"
	"chipsms/internal/money"
	"chipsms/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.users.ListAllWithRoles(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		roles := []string{}
		if row.Roles != nil && *row.Roles != "" {
			roles = strings.Split(*row.Roles, ",")
		}
		normalized = append(normalized, map[string]any{
			"id":         row.ID,
			"username":   row.Username,
			"email":      row.Email,
			"balance":    money.FormatMinor(row.Balance),
			"roles":      roles,
			"created_at": row.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

type adminCreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Balance  string `json:"balance"`
}

func (h *Handler) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req adminCreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateUsername(req.Username); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance := int64(0)
	if req.Balance != "" {
		parsed, err := money.ParseMinor(req.Balance)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid balance")
			return
		}
		balance = parsed
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	userID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.Create(r.Context(), tx, userID, req.Username, req.Email, passwordHash, balance); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"username": req.Username,
			"email":    req.Email,
		})
		return h.audit.Log(r.Context(), tx, actorID, "admin_create_user", "user", userID, string(data))
	})
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			respondError(w, http.StatusConflict, "username or email already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create user")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": userID})
}

type adminUpdateUserRequest struct {
	Username string `json:"username"`
	Balance  string `json:"balance"`
}

func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	var req adminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateUsername(req.Username); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := money.ParseMinor(req.Balance)
	if err != nil || balance < 0 {
		respondError(w, http.StatusBadRequest, "invalid balance")
		return
	}
	var updated int64
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		n, err := h.users.UpdateProfile(r.Context(), tx, targetID, req.Username, balance)
		if err != nil {
			return err
		}
		updated = n
		if n == 0 {
			return nil
		}
		data, _ := json.Marshal(map[string]string{
			"username": req.Username,
			"balance":  money.FormatMinor(balance),
		})
		return h.audit.Log(r.Context(), tx, actorID, "admin_update_user", "user", targetID, string(data))
	})
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			respondError(w, http.StatusConflict, "username already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update user")
		return
	}
	if updated == 0 {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	if targetID == actorID {
		respondError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}
	var deleted int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		n, err := h.users.Delete(r.Context(), tx, targetID)
		if err != nil {
			return err
		}
		deleted = n
		if n == 0 {
			return nil
		}
		return h.audit.Log(r.Context(), tx, actorID, "admin_delete_user", "user", targetID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete user")
		return
	}
	if deleted == 0 {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
