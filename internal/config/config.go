// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	SweepInterval   time.Duration
	LoginURL        string
	ClientKey       string
	ClientSecret    string
	BigQueryProject string
	BigQueryDataset string
	CredentialsFile string
	SecretKey       []byte
}

// HasOAuthCredentials returns true when both ClientKey and ClientSecret are
// non-empty. Used by the composition root to decide whether the OAuth
// endpoints can be served.
func (c *Config) HasOAuthCredentials() bool {
	return c.ClientKey != "" && c.ClientSecret != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// SALESYNC_BIGQUERY_PROJECT is required. OAuth credentials (SALESYNC_CLIENT_KEY,
// SALESYNC_CLIENT_SECRET) are optional; without them the app starts but new
// accounts cannot be connected. Optional variables with defaults:
// SALESYNC_SWEEP_INTERVAL (1h), SALESYNC_LISTEN_ADDR (127.0.0.1:4444),
// SALESYNC_DB_PATH (salesync.db), SALESYNC_LOGIN_URL
// (https://login.salesforce.com), SALESYNC_BIGQUERY_DATASET (salesforce).
func Load() (*Config, error) {
	project := os.Getenv("SALESYNC_BIGQUERY_PROJECT")
	if project == "" {
		return nil, fmt.Errorf("SALESYNC_BIGQUERY_PROJECT is required")
	}

	sweepInterval := time.Hour
	if v, ok := os.LookupEnv("SALESYNC_SWEEP_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SALESYNC_SWEEP_INTERVAL has invalid duration %q: %w", v, err)
		}
		sweepInterval = parsed
	}

	listenAddr := "127.0.0.1:4444"
	if v, ok := os.LookupEnv("SALESYNC_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "salesync.db"
	if v, ok := os.LookupEnv("SALESYNC_DB_PATH"); ok {
		dbPath = v
	}

	loginURL := "https://login.salesforce.com"
	if v, ok := os.LookupEnv("SALESYNC_LOGIN_URL"); ok {
		loginURL = v
	}

	dataset := "salesforce"
	if v, ok := os.LookupEnv("SALESYNC_BIGQUERY_DATASET"); ok {
		dataset = v
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("SALESYNC_SECRET_KEY"); ok && v != "" {
		decoded, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("SALESYNC_SECRET_KEY is not valid hex: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("SALESYNC_SECRET_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		secretKey = decoded
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		SweepInterval:   sweepInterval,
		LoginURL:        loginURL,
		ClientKey:       os.Getenv("SALESYNC_CLIENT_KEY"),
		ClientSecret:    os.Getenv("SALESYNC_CLIENT_SECRET"),
		BigQueryProject: project,
		BigQueryDataset: dataset,
		CredentialsFile: os.Getenv("SALESYNC_GOOGLE_CREDENTIALS"),
		SecretKey:       secretKey,
	}, nil
}
