package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cartscan/backend/config"
	httpDelivery "github.com/cartscan/backend/internal/delivery/http"
	"github.com/cartscan/backend/internal/domain"
	"github.com/cartscan/backend/internal/infrastructure/cache"
	"github.com/cartscan/backend/internal/infrastructure/openfoodfacts"
	"github.com/cartscan/backend/internal/infrastructure/upcitemdb"
	"github.com/cartscan/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CartScan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize provider clients
	foodClient := openfoodfacts.NewClient(cfg.Food.BaseURL, cfg.Food.Timeout)
	log.Printf("Food provider: %s (timeout: %s)", cfg.Food.BaseURL, cfg.Food.Timeout)

	retailClient := upcitemdb.NewClient(cfg.Retail.BaseURL, cfg.Retail.APIKey, cfg.Retail.Timeout)
	if cfg.Retail.APIKey != "" {
		log.Printf("Retail provider: %s (authenticated)", cfg.Retail.BaseURL)
	} else {
		log.Printf("Retail provider: %s (trial tier - no API key configured)", cfg.Retail.BaseURL)
	}

	// Optional lookup cache
	var lookupCache domain.CacheRepository
	if cfg.Cache.Enabled {
		lookupCache = cache.NewMemoryCache()
		log.Printf("Lookup cache enabled (TTL: %s)", cfg.Cache.TTL)
	} else {
		log.Printf("Lookup cache disabled")
	}

	// Initialize usecase layer
	lookupService := usecase.NewLookupService(
		foodClient,
		retailClient,
		lookupCache,
		usecase.LookupServiceConfig{
			CacheTTL: cfg.Cache.TTL,
		},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(lookupService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
