package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chipsms/internal/config"
	"chipsms/internal/db"
	"chipsms/internal/fulfillment"
	"chipsms/internal/handlers"
	"chipsms/internal/middleware"
	"chipsms/internal/services"
	"chipsms/internal/store"
	"chipsms/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	servicesStore := store.NewServiceStore(database)
	numbers := store.NewNumberStore(database)
	purchases := store.NewPurchaseStore(database)
	roles := store.NewRoleStore(database)
	gateway := store.NewGatewayStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	purchaseSvc := services.NewPurchaseService(txRunner, users, servicesStore, numbers, purchases, audit, hub)
	simulator := fulfillment.NewSimulator(purchaseSvc, cfg.FulfillMinDelay, cfg.FulfillMaxDelay)
	purchaseSvc.SetScheduler(simulator)
	if err := simulator.Recover(context.Background()); err != nil {
		log.Printf("fulfillment recovery failed: %v", err)
	}

	gatewayLimiter := middleware.NewRateLimiter(cfg.GatewayRateLimit, cfg.GatewayBurst, 10*time.Minute)
	handler := handlers.New(txRunner, cfg, users, servicesStore, numbers, roles, gateway, audit, purchaseSvc, hub, gatewayLimiter)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("chipsms API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	simulator.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
