package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"brickvest/api"
	"brickvest/config"
	"brickvest/database"
	"brickvest/events"
	"brickvest/repository"
	"brickvest/scheduler"
	"brickvest/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting ledger processor...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()
	log.Println("Event bus initialized successfully")

	// Initialize unit of work factory
	log.Println("Initializing unit of work factory...")
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	log.Println("Unit of work factory initialized successfully")

	// Initialize services
	log.Println("Initializing services...")
	converter := service.NewFixedRateConverter(cfg.ExchangeRates)
	planService := service.NewPlanService(uowFactory)
	walletService := service.NewWalletService(uowFactory, converter)
	executorService := service.NewExecutorService(uowFactory)
	statsService := service.NewStatsService(uowFactory)
	log.Println("Services initialized successfully")

	// Start the daily scheduler
	log.Println("Starting scheduler...")
	sched := scheduler.New(executorService, cfg.SchedulerHour, cfg.Location())
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Printf("Scheduler running daily at %02d:00 %s", cfg.SchedulerHour, cfg.SchedulerTimezone)

	// Start the HTTP API
	server := api.NewServer(cfg, planService, walletService, executorService, statsService, sched)
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s in %s mode...", cfg.HTTPAddr, cfg.Environment)
		serverErr <- server.Start()
	}()

	// Wait for shutdown or listener failure
	select {
	case err := <-serverErr:
		sched.Stop()
		db.Close()
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
