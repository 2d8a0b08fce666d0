package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Food      FoodProviderConfig
	Retail    RetailProviderConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FoodProviderConfig holds Open Food Facts configuration
type FoodProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetailProviderConfig holds UPCitemdb configuration. APIKey is optional;
// without it requests go to the trial tier.
type RetailProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration. Caching is off by default
// so every lookup hits the providers fresh.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds the per-client-IP rate limit
type RateLimitConfig struct {
	PerIP float64 `mapstructure:"per_ip"`
	Burst int     `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartscan/")

	// Environment variable settings
	v.SetEnvPrefix("CARTSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"capacitor://localhost", "http://localhost:8100"})

	// Provider defaults
	v.SetDefault("food.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("food.timeout", "10s")
	v.SetDefault("retail.base_url", "https://api.upcitemdb.com/prod/trial")
	v.SetDefault("retail.api_key", "")
	v.SetDefault("retail.timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults (requests per second per client IP)
	v.SetDefault("ratelimit.per_ip", 10)
	v.SetDefault("ratelimit.burst", 20)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Food.BaseURL == "" {
		return fmt.Errorf("food provider base URL is required (set CARTSCAN_FOOD_BASE_URL)")
	}
	if config.Retail.BaseURL == "" {
		return fmt.Errorf("retail provider base URL is required (set CARTSCAN_RETAIL_BASE_URL)")
	}

	if config.Food.Timeout <= 0 || config.Retail.Timeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}

	if config.Cache.Enabled && config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when caching is enabled")
	}

	return nil
}
