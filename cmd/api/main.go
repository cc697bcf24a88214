// Futevolei Booking Service
//
// This is the main entry point for the class booking and PIX payment service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/futevolei/futevolei-booking/config"
	"github.com/futevolei/futevolei-booking/internal/api"
	"github.com/futevolei/futevolei-booking/internal/classes"
	"github.com/futevolei/futevolei-booking/internal/domain"
	"github.com/futevolei/futevolei-booking/internal/enrollment"
	"github.com/futevolei/futevolei-booking/internal/platform/mercadopago"
	"github.com/futevolei/futevolei-booking/internal/platform/stubgateway"
	"github.com/futevolei/futevolei-booking/internal/reconcile"
	"github.com/futevolei/futevolei-booking/internal/storage/postgres"
)

func main() {
	log.Println("Starting Futevolei Booking Service...")

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()
	log.Printf("Configuration loaded: Port=%s, Env=%s", cfg.Server.Port, cfg.Environment)

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure Layer
	db, err := postgres.Open(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	store := postgres.NewStore(db)

	var (
		gateway domain.PaymentGateway
		stub    *stubgateway.Gateway
	)
	if cfg.MercadoPago.AccessToken != "" {
		gateway, err = mercadopago.NewAdapter(cfg.MercadoPago.AccessToken, cfg.MercadoPago.NotificationURL)
		if err != nil {
			log.Fatalf("Mercado Pago error: %v", err)
		}
	} else {
		log.Println("MP_ACCESS_TOKEN not set, using stub payment gateway")
		stub = stubgateway.NewGateway()
		gateway = stub
	}
	validator := mercadopago.NewWebhookValidator(cfg.MercadoPago.WebhookSecret)

	// Service Layer
	classService := classes.NewService(store)
	enrollService := enrollment.NewService(store, gateway)
	engine := reconcile.NewEngine(store, gateway)

	// API Layer
	router := api.SetupRouter(api.RouterConfig{
		Student:            api.NewStudentHandler(classService, enrollService, engine),
		Admin:              api.NewAdminHandler(classService, enrollService, engine, store, stub),
		Webhook:            api.NewWebhookHandler(engine, validator),
		JWTSecret:          cfg.Auth.JWTSecret,
		GinMode:            cfg.Server.GinMode,
		EnableTestApproval: cfg.IsDevelopment() && stub != nil,
	})

	// Start server in a goroutine
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	go func() {
		log.Printf("Server listening on %s", serverAddr)
		if err := router.Run(serverAddr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}

// validateConfig checks that required configuration values are set.
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		log.Println("Warning: JWT_SECRET not set")
	}
	if cfg.MercadoPago.AccessToken != "" && cfg.MercadoPago.WebhookSecret == "" {
		log.Println("Warning: MP_WEBHOOK_SECRET not set, webhook signatures will not be validated")
	}
	return nil
}
