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
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/flexipay/installment-engine/internal/config"
	"github.com/flexipay/installment-engine/internal/repository"
)

func main() {
	log.Println("Starting settlement scheduler...")

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	txnRepo := repository.NewTransactionRepository(db)

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(loc))

	// Schedule tasks
	setupCronJobs(c, txnRepo, redisClient)

	// Start the scheduler
	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, txnRepo repository.TransactionRepository, redisClient *redis.Client) {
	// Daily job reporting overdue installments (runs at midnight)
	_, err := c.AddFunc("0 0 0 * * *", func() {
		log.Println("Running daily overdue installment report job...")
		reportOverdueInstallments(txnRepo, redisClient)
	})
	if err != nil {
		log.Printf("Error scheduling overdue report job: %v", err)
	}

	// Hourly job dropping cached progress snapshots so views recompute
	_, err = c.AddFunc("0 0 * * * *", func() {
		log.Println("Running cache flush job...")
		flushProgressCache(redisClient)
	})
	if err != nil {
		log.Printf("Error scheduling cache flush job: %v", err)
	}

	log.Println("Cron jobs scheduled successfully")
}

// reportOverdueInstallments logs installments past due and clears the cached
// progress for their transactions. Classification only; installment status
// transitions stay with the external processor.
func reportOverdueInstallments(txnRepo repository.TransactionRepository, redisClient *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	overdue, err := txnRepo.GetOverduePayments(ctx, time.Now())
	if err != nil {
		log.Printf("Error fetching overdue installments: %v", err)
		return
	}

	for _, p := range overdue {
		log.Printf("Overdue: transaction %s installment %d amount %s due %s",
			p.TransactionID, p.InstallmentNumber, p.Amount, p.DueDate.Format("2006-01-02"))

		cacheKey := "txn:progress:" + p.TransactionID
		if err := redisClient.Del(ctx, cacheKey).Err(); err != nil {
			log.Printf("Error invalidating cache for %s: %v", p.TransactionID, err)
		}
	}

	log.Printf("Overdue report complete: %d installments", len(overdue))
}

func flushProgressCache(redisClient *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	iter := redisClient.Scan(ctx, 0, "txn:progress:*", 100).Iterator()
	flushed := 0
	for iter.Next(ctx) {
		if err := redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("Error deleting key %s: %v", iter.Val(), err)
			continue
		}
		flushed++
	}
	if err := iter.Err(); err != nil {
		log.Printf("Error scanning cache keys: %v", err)
	}

	log.Printf("Cache flush complete: %d keys", flushed)
}
