// Package config loads client settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends for the durable per-session key-value store.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Ledger strategies.
const (
	LedgerAuto   = "auto"
	LedgerRemote = "remote"
	LedgerLocal  = "local"
)

const defaultAPIBaseURL = "https://localhost:7147/api"

// Config holds all client settings.
type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	InsecureTLS bool

	RateLimitRPS   float64 // 0 disables pacing
	RateLimitBurst int

	Store         string
	StorePath     string
	StoreKey      string // passphrase sealing the file store; empty = plaintext 0600 file
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionID     string // namespace in shared stores

	Ledger         string
	NotifyDuration time.Duration

	Env      string
	LogLevel string
}

// Dev reports whether development logging is requested.
func (c *Config) Dev() bool { return c.Env == "dev" || c.Env == "development" }

// Load reads envFile (if present, missing is fine) and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	timeout, err := getEnvDuration("IMAGESHOP_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	notifyDur, err := getEnvDuration("IMAGESHOP_NOTIFY_DURATION", 4200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	rps, err := getEnvFloat("IMAGESHOP_RATE_LIMIT_RPS", 0)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvInt("IMAGESHOP_RATE_LIMIT_BURST", 5)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("IMAGESHOP_REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL:     strings.TrimRight(getEnv("IMAGESHOP_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPTimeout:    timeout,
		InsecureTLS:    getEnvBool("IMAGESHOP_INSECURE_TLS", false),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		Store:          strings.ToLower(getEnv("IMAGESHOP_STORE", StoreFile)),
		StorePath:      getEnv("IMAGESHOP_STORE_PATH", defaultStorePath()),
		StoreKey:       os.Getenv("IMAGESHOP_STORE_KEY"),
		PostgresDSN:    os.Getenv("IMAGESHOP_PG_DSN"),
		RedisAddr:      getEnv("IMAGESHOP_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("IMAGESHOP_REDIS_PASSWORD"),
		RedisDB:        redisDB,
		SessionID:      getEnv("IMAGESHOP_SESSION_ID", "default"),
		Ledger:         strings.ToLower(getEnv("IMAGESHOP_LEDGER", LedgerAuto)),
		NotifyDuration: notifyDur,
		Env:            strings.ToLower(getEnv("IMAGESHOP_ENV", "prod")),
		LogLevel:       strings.ToLower(getEnv("IMAGESHOP_LOG_LEVEL", "info")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum values and ranges.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("IMAGESHOP_API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("IMAGESHOP_HTTP_TIMEOUT must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("IMAGESHOP_RATE_LIMIT_RPS must be >= 0")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("IMAGESHOP_RATE_LIMIT_BURST must be >= 1")
	}
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("IMAGESHOP_PG_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown IMAGESHOP_STORE %q", c.Store)
	}
	switch c.Ledger {
	case LedgerAuto, LedgerRemote, LedgerLocal:
	default:
		return fmt.Errorf("unknown IMAGESHOP_LEDGER %q", c.Ledger)
	}
	if c.SessionID == "" {
		return fmt.Errorf("IMAGESHOP_SESSION_ID must not be empty")
	}
	return nil
}

func defaultStorePath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "imageshop", "session.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "imageshop", "session.json")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
