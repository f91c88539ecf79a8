package config

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/storefront/pkg/config"
)

type ServiceConfig struct {
	config.Config
}

// Load reads .env when present, then the process environment, and exits on
// missing required settings.
func Load() ServiceConfig {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustSecret(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustSecret(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	if cfg.AdminEmail != "" {
		config.MustNonEmpty(cfg.AdminPassword, "ADMIN_PASSWORD")
	}
	if cfg.StripeSecretKey != "" {
		config.MustNonEmpty(cfg.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	}

	return ServiceConfig{Config: cfg}
}
