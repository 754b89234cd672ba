package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

var (
	ErrSecretTooShort = errors.New("SESSION_SECRET must be at least 32 characters long")
	ErrInvalidPremium = errors.New("PREMIUM must be a boolean")
	ErrInvalidIdle    = errors.New("SESSION_IDLE_TIMEOUT must be a positive duration")
	ErrInvalidMax     = errors.New("MAX_SESSIONS must be a non-negative integer")
)

// Config holds runtime settings read from the environment
type Config struct {
	HTTPAddr      string
	Premium       bool
	CatalogFile   string
	AssetsDir     string
	SessionSecret string
	// GeneratedSecret is true when no SESSION_SECRET was set and a random one was used.
	GeneratedSecret bool
	// SessionIdleTimeout releases in-memory pages of sessions not seen for this long.
	SessionIdleTimeout time.Duration
	// MaxSessions caps live in-memory pages, 0 means unlimited.
	MaxSessions int
	DatabaseURL     string
	KafkaBrokers    []string
	KafkaTopic      string
	LogLevel        string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only
func FromEnv() (*Config, error) {
	premium, err := strconv.ParseBool(getEnv("PREMIUM", "true"))
	if err != nil {
		return nil, ErrInvalidPremium
	}

	idle, err := time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m"))
	if err != nil || idle <= 0 {
		return nil, ErrInvalidIdle
	}
	maxSessions, err := strconv.Atoi(getEnv("MAX_SESSIONS", "10000"))
	if err != nil || maxSessions < 0 {
		return nil, ErrInvalidMax
	}

	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		Premium:       premium,
		CatalogFile:   os.Getenv("CATALOG_FILE"),
		AssetsDir:     os.Getenv("ASSETS_DIR"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "product-card-events"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		SessionIdleTimeout: idle,
		MaxSessions:        maxSessions,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
		cfg.GeneratedSecret = true
	} else if len(cfg.SessionSecret) < minSecretLength {
		return nil, ErrSecretTooShort
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func randomSecret() (string, error) {
	buf := make([]byte, minSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
