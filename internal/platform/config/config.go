package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr string

	// DatabaseURL selects the PostgreSQL store. Empty means in-memory
	// stores, which is what local demos use.
	DatabaseURL string

	// RedisURL enables the verification-status cache. Empty disables it.
	RedisURL string

	// KafkaBrokers enables the kafka domain-event publisher. Empty means
	// events stay on the in-process channel worker.
	KafkaBrokers []string
	KafkaTopic   string

	// Identity provider token verification.
	IdentitySigningKey string
	IdentityIssuer     string
	IdentityAudience   string

	// ExpirySweepInterval controls how often the sweeper marks past-expiry
	// donations expired.
	ExpirySweepInterval time.Duration
}

// FromEnv builds a Config from environment variables with dev defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("DANA_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		KafkaTopic:          envOr("KAFKA_TOPIC", "dana.donation-events"),
		IdentitySigningKey:  envOr("IDENTITY_SIGNING_KEY", "dev-secret-key-change-in-production"),
		IdentityIssuer:      envOr("IDENTITY_ISSUER", "dana-identity"),
		IdentityAudience:    envOr("IDENTITY_AUDIENCE", "dana-api"),
		ExpirySweepInterval: durationOr("EXPIRY_SWEEP_INTERVAL", 10*time.Minute),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
