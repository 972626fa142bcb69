package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingDatabaseURL is returned when no database connection string is configured.
// The gateway cannot record verdicts without a database, so this is fatal at startup.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment string
	HTTPPort    string

	// DatabaseURL is the connection string for the verdict store. Required.
	DatabaseURL string

	// AdminKey guards the incident intake and admin listing endpoints.
	// When empty the admin surface rejects every request.
	AdminKey string

	// RAGServiceURL points at the semantic analysis service. When empty the
	// semantic stage is skipped entirely and inspection runs on rule sets only.
	RAGServiceURL string
	RAGTimeout    time.Duration

	// FailOpen controls the verdict when the semantic service is unreachable:
	// false blocks the request (the default), true lets it through.
	FailOpen bool

	// NotifyURL is an optional shoutrrr destination for blocked-request alerts.
	NotifyURL string
}

// Load reads env vars and falls back to defaults so the gateway can boot with
// minimal configuration. Only DATABASE_URL is mandatory.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("RAG_TIMEOUT_SECONDS", 5)
	v.SetDefault("FAIL_OPEN", false)
	v.AutomaticEnv()

	cfg := Config{
		Environment:   v.GetString("ENVIRONMENT"),
		HTTPPort:      v.GetString("HTTP_PORT"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		AdminKey:      v.GetString("ADMIN_KEY"),
		RAGServiceURL: v.GetString("RAG_SERVICE_URL"),
		RAGTimeout:    time.Duration(v.GetInt("RAG_TIMEOUT_SECONDS")) * time.Second,
		FailOpen:      v.GetBool("FAIL_OPEN"),
		NotifyURL:     v.GetString("NOTIFY_URL"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, ErrMissingDatabaseURL
	}

	return cfg, nil
}
