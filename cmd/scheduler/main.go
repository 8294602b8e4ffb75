package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/loantrack/loantrack/internal/config"
	"github.com/loantrack/loantrack/internal/domain"
	"github.com/loantrack/loantrack/internal/repository"
	"github.com/loantrack/loantrack/internal/service"
)

func main() {
	log.Println("Starting portfolio scheduler...")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	clientRepo := repository.NewClientRepository(db)
	portfolioService := service.NewPortfolioService(loanRepo, clientRepo, redisClient, cfg, domain.SystemClock{})

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone: %v", err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Nightly refresh: re-derive installment statuses so persisted rows
	// track the calendar, and rewarm the portfolio summary cache.
	_, err = c.AddFunc(cfg.Scheduler.RefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		overdue, err := portfolioService.RefreshOverdue(ctx)
		if err != nil {
			log.Printf("Overdue refresh failed: %v", err)
			return
		}
		log.Printf("Overdue refresh complete: %d installment(s) overdue", overdue)
	})
	if err != nil {
		log.Fatalf("Error scheduling overdue refresh job: %v", err)
	}

	c.Start()
	log.Println("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	stopCtx := c.Stop()
	<-stopCtx.Done()
	log.Println("Scheduler stopped")
}
