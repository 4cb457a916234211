package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barkeep/internal/config"
	httpapi "barkeep/internal/http"
	"barkeep/internal/repository"
	"barkeep/internal/service"

	_ "barkeep/docs"
)

// @title Barkeep API
// @version 1.0
// @description Drink catalog and order queue for the bar.
// @BasePath /api
func main() {
	cfg := config.Load()

	store, err := repository.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ordersRepo := repository.NewSQLiteOrders(store)
	tx := repository.NewSQLiteTx(store)

	drinksSvc := service.NewDrinkService(store)
	ordersSvc := service.NewOrderService(ordersRepo, tx)

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		log.Fatalf("create uploads dir: %v", err)
	}

	srv := httpapi.NewServer(drinksSvc, ordersSvc, cfg.UploadsDir)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Engine(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
