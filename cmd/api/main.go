package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rizana/rizana-golang/internal/ai"
	"github.com/rizana/rizana-golang/internal/auth"
	"github.com/rizana/rizana-golang/internal/cache"
	"github.com/rizana/rizana-golang/internal/config"
	"github.com/rizana/rizana-golang/internal/database"
	"github.com/rizana/rizana-golang/internal/handlers"
	"github.com/rizana/rizana-golang/internal/payments"
	"github.com/rizana/rizana-golang/internal/routes"
)

func main() {
	// 0. --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	auth.Init(cfg.JWT.SecretKey, cfg.JWT.Expiry)

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to primary database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// 2. --- Listing Cache (Redis or In-Process) ---
	var listingCache cache.Cache
	if cfg.Cache.Type == "redis" {
		listingCache, err = cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
	} else {
		listingCache = cache.NewMemoryCache()
	}
	defer listingCache.Close()

	// 3. --- AI Service (Optional) ---
	// The assistant runs against a read-only database connection and is only
	// enabled when a Gemini key is configured.
	var aiService *ai.AIService
	if cfg.AI.GeminiAPIKey != "" {
		readOnlyDSN := cfg.Database.ReadOnlyDSN
		if readOnlyDSN == "" {
			readOnlyDSN = cfg.Database.DSN()
			log.Println("WARNING: DB_DSN_READONLY is not set, the assistant will use the primary connection")
		}

		dbReadOnly, err := database.OpenDB(readOnlyDSN)
		if err != nil {
			log.Fatalf("Failed to connect to the read-only database: %v", err)
		}
		defer dbReadOnly.Close()

		aiService, err = ai.NewAIService(cfg.AI.GeminiAPIKey, cfg.AI.Model, dbReadOnly)
		if err != nil {
			log.Fatalf("Failed to initialize AI service: %v", err)
		}
		defer aiService.Client.Close()
	}

	// --- Application Setup ---
	// Inject ALL dependencies (DB, cache, Stripe, AI) into the Handlers struct.
	app := &handlers.Handlers{
		DB:        db,
		Cache:     listingCache,
		Payments:  payments.NewStripeService(cfg.Stripe.APIKey),
		AIService: aiService,
		Config:    cfg,
	}

	// 4. --- Background Worker ---
	// Expires pending orders whose payment never arrived.
	go func() {
		ticker := time.NewTicker(cfg.Orders.CheckInterval)
		defer ticker.Stop()

		log.Println("Background worker started: monitoring for stale orders")

		for range ticker.C {
			if err := app.ExpireStalePendingOrders(context.Background(), cfg.Orders.StaleAge); err != nil {
				log.Printf("stale order sweep failed: %v", err)
			}
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	log.Printf("Starting Rizana API server on port %d...", cfg.Server.Port)
	if err := router.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
