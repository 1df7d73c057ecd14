package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"launchpad-backend/internal/app"
	"launchpad-backend/internal/config"
	"launchpad-backend/internal/db"
	"launchpad-backend/internal/handlers"
	"launchpad-backend/internal/router"

	"github.com/sirupsen/logrus"
)

func main() {
	log.Println("🚀 Starting launchpad backend...")

	configPath := os.Getenv("CONFIG_PATH")
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	db.InitDB()

	networkName := os.Getenv("NETWORK")
	if networkName == "" {
		networkName = "base"
	}

	container, err := app.InitializeContainer(networkName)
	if err != nil {
		log.Fatalf("❌ Failed to initialize service container: %v", err)
	}
	defer container.Cleanup()

	logger := logrus.New()

	h := &router.Handlers{
		AdminAuth:  handlers.NewAdminAuthHandler(),
		Mint:       handlers.NewMintHandler(container.MintService, container.MintRepo, container.Contract.Hex(), logger),
		Proof:      handlers.NewProofHandler(container.ProofService, container.Contract.Hex(), logger),
		Collection: handlers.NewCollectionHandler(container.Collection, container.WebSocketPushService, container.Contract.Hex(), container.ChainID),
		PhaseAdmin: handlers.NewPhaseAdminHandler(container.Collection, container.RelayService, container.Contract, container.EventPublisher, container.WebSocketPushService, logger),
		Settings:   handlers.NewSettingsHandler(container.SettingsRepo, container.Contract.Hex(), logger),
		WebSocket:  handlers.NewWebSocketHandler(container.WebSocketPushService),
	}

	engine := router.SetupRouter(h)

	host := config.AppConfig.Server.Host
	port := config.AppConfig.Server.Port
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		log.Printf("✅ HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🔻 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited")
}
