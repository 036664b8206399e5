package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/flexipay/installment-engine/internal/config"
	"github.com/flexipay/installment-engine/internal/handler"
	"github.com/flexipay/installment-engine/internal/processor"
	"github.com/flexipay/installment-engine/internal/repository"
	"github.com/flexipay/installment-engine/internal/service"
	"github.com/flexipay/installment-engine/pkg/response"
)

func main() {
	// Load local .env if present
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	txnRepo := repository.NewTransactionRepository(db)
	earlyRepo := repository.NewEarlyPaymentRepository(db)

	// Initialize processor client
	processorClient := processor.NewClient(cfg.Processor.BaseURL, cfg.Processor.APIKey, cfg.GetProcessorTimeout())

	// Initialize service and handlers
	settlementService := service.NewSettlementService(txnRepo, earlyRepo, processorClient, redisClient, cfg)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(settlementHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(settlementHandler *handler.SettlementHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/transactions", settlementHandler.CreateTransaction).Methods("POST")
	api.HandleFunc("/transactions/{transactionId}/schedule", settlementHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/transactions/{transactionId}/progress", settlementHandler.GetProgress).Methods("GET")
	api.HandleFunc("/transactions/{transactionId}/next-payment", settlementHandler.GetNextPayment).Methods("GET")
	api.HandleFunc("/transactions/{transactionId}/early-payment/quote", settlementHandler.QuoteFull).Methods("GET")
	api.HandleFunc("/transactions/{transactionId}/early-payment/quote/partial", settlementHandler.QuotePartial).Methods("POST")
	api.HandleFunc("/transactions/{transactionId}/early-payment/quote/custom", settlementHandler.QuoteCustom).Methods("POST")
	api.HandleFunc("/transactions/{transactionId}/early-payment/simulate", settlementHandler.Simulate).Methods("POST")
	api.HandleFunc("/transactions/{transactionId}/early-payment", settlementHandler.SubmitPayoff).Methods("POST")
	api.HandleFunc("/transactions/{transactionId}/early-payment/history", settlementHandler.GetHistory).Methods("GET")
	api.HandleFunc("/early-payments/{recordId}/cancel", settlementHandler.CancelEarlyPayment).Methods("POST")

	return router
}
