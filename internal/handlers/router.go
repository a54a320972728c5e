package handlers

import (
	"net/http"
	"strings"

	"chipsms/internal/auth"
	"chipsms/internal/config"
	"chipsms/internal/db"
	"chipsms/internal/middleware"
	"chipsms/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	txRunner       db.TxRunner
	cfg            config.Config
	users          UserStore
	services       ServiceStore
	numbers        NumberStore
	roles          RoleStore
	gateway        GatewayStore
	audit          AuditStore
	purchaseSvc    PurchaseService
	hub            *websocket.Hub
	gatewayLimiter *middleware.RateLimiter
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, services ServiceStore, numbers NumberStore, roles RoleStore, gateway GatewayStore, audit AuditStore, purchaseSvc PurchaseService, hub *websocket.Hub, gatewayLimiter *middleware.RateLimiter) *Handler {
	return &Handler{
		txRunner:       txRunner,
		cfg:            cfg,
		users:          users,
		services:       services,
		numbers:        numbers,
		roles:          roles,
		gateway:        gateway,
		audit:          audit,
		purchaseSvc:    purchaseSvc,
		hub:            hub,
		gatewayLimiter: gatewayLimiter,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Get("/services", h.ListServices)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/numbers", h.ListNumbers)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/purchases", h.CreatePurchase)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/purchases", h.ListPurchases)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/purchases/{id}", h.GetPurchase)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/recharge", h.Recharge)
	router.Get("/ws/updates", h.WSUpdates)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireRole(h.roles, "admin"))
		r.Get("/users", h.AdminListUsers)
		r.Post("/users", h.AdminCreateUser)
		r.Patch("/users/{id}", h.AdminUpdateUser)
		r.Delete("/users/{id}", h.AdminDeleteUser)
		r.Get("/services", h.AdminListServices)
		r.Post("/services", h.AdminCreateService)
		r.Put("/services/{id}", h.AdminUpdateService)
		r.Delete("/services/{id}", h.AdminDeleteService)
		r.Get("/audit", h.ListAuditLogs)
	})

	router.Route("/gateway", func(r chi.Router) {
		r.With(middleware.Auth(h.cfg.JWTSecret)).Post("/locations", h.CreateLocation)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/locations", h.ListLocations)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Delete("/locations/{id}", h.DeleteLocation)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/locations/{id}/modems", h.ListLocationModems)
		r.With(h.gatewayLimiter.Middleware).Post("/telemetry", h.IngestTelemetry)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())
	return router
}

func (h *Handler) WSUpdates(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
