package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Logging
	LogLevel  string
	LogFormat string

	// Batch defaults
	Batch BatchConfig

	// Cache
	Cache CacheConfig

	// HTTP
	HTTP HTTPConfig

	// Sources
	Yahoo YahooConfig
	Naver NaverConfig

	// Redis
	Redis RedisConfig

	// Database
	Database DatabaseConfig
}

// BatchConfig holds defaults applied when a run does not override them
type BatchConfig struct {
	BenchTicker     string
	Threshold       float64 // thresh.bad.data
	Workers         int           // parallel executor size
	ConnectivityURL string
	RunTimeout      time.Duration // upper bound of one API-triggered run
}

// CacheConfig selects and configures the price cache backend
type CacheConfig struct {
	Backend string // file, memory, redis, postgres
	Folder  string
	TTL     time.Duration
}

// HTTPConfig holds outbound HTTP client settings
type HTTPConfig struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	RatePerSecond float64
}

// YahooConfig holds Yahoo Finance chart API settings
type YahooConfig struct {
	BaseURL string
}

// NaverConfig holds Naver Finance chart API settings
type NaverConfig struct {
	BaseURL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int // 0 = sized from WORKERS
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Cache backends
const (
	CacheBackendFile     = "file"
	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Batch: BatchConfig{
			BenchTicker:     getEnv("BENCH_TICKER", "^GSPC"),
			Threshold:       getEnvAsFloat("THRESH_BAD_DATA", 0.75),
			Workers:         getEnvAsInt("WORKERS", 4),
			ConnectivityURL: getEnv("CONNECTIVITY_URL", "https://finance.yahoo.com"),
			RunTimeout:      getEnvAsDuration("BATCH_RUN_TIMEOUT", "10m"),
		},

		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", CacheBackendFile),
			Folder:  getEnv("CACHE_FOLDER", "BGS_Cache"),
			TTL:     getEnvAsDuration("CACHE_TTL", "24h"),
		},

		HTTP: HTTPConfig{
			Timeout:       getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			MaxRetries:    getEnvAsInt("HTTP_MAX_RETRIES", 3),
			RetryDelay:    getEnvAsDuration("HTTP_RETRY_DELAY", "1s"),
			RatePerSecond: getEnvAsFloat("HTTP_RATE_PER_SEC", 5),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
		},

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://fchart.stock.naver.com"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 0),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks cross-field constraints
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendMemory:
	case CacheBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case CacheBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: file, memory, redis, postgres")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("WORKERS must be >= 1")
	}

	if c.Batch.RunTimeout <= 0 {
		return fmt.Errorf("BATCH_RUN_TIMEOUT must be positive")
	}

	if c.Batch.Threshold < 0 || c.Batch.Threshold > 1 {
		return fmt.Errorf("THRESH_BAD_DATA must be within [0, 1]")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
