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
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"github.com/loantrack/loantrack/internal/config"
	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/internal/handler"
	"github.com/loantrack/loantrack/internal/repository"
	"github.com/loantrack/loantrack/internal/service"
	"github.com/loantrack/loantrack/pkg/response"
)

func main() {
	// Load .env before viper reads the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	clientRepo := repository.NewClientRepository(db)

	portfolioService := service.NewPortfolioService(loanRepo, clientRepo, redisClient, cfg, domain.SystemClock{})
	portfolioHandler := handler.NewPortfolioHandler(portfolioService)
	clientHandler := handler.NewClientHandler(portfolioService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout)

	router := setupRoutes(portfolioHandler, clientHandler, healthHandler)

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.DSN())
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

func setupRoutes(portfolioHandler *handler.PortfolioHandler, clientHandler *handler.ClientHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health checks
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/clients", clientHandler.Create).Methods("POST")
	api.HandleFunc("/clients", clientHandler.List).Methods("GET")
	api.HandleFunc("/clients/{clientId}", clientHandler.Get).Methods("GET")
	api.HandleFunc("/clients/{clientId}", clientHandler.Update).Methods("PUT")
	api.HandleFunc("/clients/{clientId}/loans", clientHandler.Loans).Methods("GET")
	api.HandleFunc("/clients/{clientId}", clientHandler.Delete).Methods("DELETE")

	api.HandleFunc("/loans", portfolioHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans", portfolioHandler.ListLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", portfolioHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/schedule", portfolioHandler.RegenerateSchedule).Methods("PUT")
	api.HandleFunc("/loans/{loanId}/payments", portfolioHandler.RecordPayment).Methods("POST")

	api.HandleFunc("/portfolio/summary", portfolioHandler.Summary).Methods("GET")
	api.HandleFunc("/simulations", portfolioHandler.Simulate).Methods("POST")
	api.HandleFunc("/settings", portfolioHandler.Settings).Methods("GET")

	return router
}
