package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	Auth      AuthConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig

	SubscriptionConfigPath string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	SnowflakeNode int64
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	SessionCacheTTL time.Duration
}

// SchedulerConfig controls the in-process expiry sweep.
type SchedulerConfig struct {
	Enabled      bool
	Interval     time.Duration
	SweepTimeout time.Duration
}

// RateLimitConfig configures the redis backed write throttle and action locks.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ActionRate    float64
	ActionBurst   int
	LockTTL       time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "eventtria"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Auth: AuthConfig{
			JWTSecret:       strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
			JWTIssuer:       strings.TrimSpace(getenv("AUTH_JWT_ISSUER", "")),
			JWTAudience:     strings.TrimSpace(getenv("AUTH_JWT_AUDIENCE", "authenticated")),
			SessionCacheTTL: getenvDuration("SESSION_CACHE_TTL", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			ActionRate:    getenvFloat("RATE_LIMIT_ACTION_RATE", 2),
			ActionBurst:   getenvInt("RATE_LIMIT_ACTION_BURST", 10),
			LockTTL:       getenvDuration("RATE_LIMIT_LOCK_TTL", 5*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:      getenvBool("SCHEDULER_ENABLED", true),
			Interval:     getenvDuration("SCHEDULER_INTERVAL", 5*time.Minute),
			SweepTimeout: getenvDuration("SCHEDULER_SWEEP_TIMEOUT", 30*time.Second),
		},
		SubscriptionConfigPath: getenv("SUBSCRIPTION_CONFIG_PATH", ""),
		DBType:                 getenv("DATABASE_TYPE", "postgres"),
		DBHost:                 getenv("DATABASE_HOST", "localhost"),
		DBPort:                 getenv("DATABASE_PORT", "5432"),
		DBName:                 getenv("DATABASE_NAME", "eventtria"),
		DBUser:                 getenv("DATABASE_USER", "postgres"),
		DBPassword:             getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:              getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:          getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:          getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime:      getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:      getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBAutoMigrate:          getenvBool("DATABASE_AUTO_MIGRATE", true),
		SnowflakeNode:          getenvInt64("SNOWFLAKE_NODE", 1),
	}

	if cfg.Auth.JWTSecret == "" {
		log.Println("[config] AUTH_JWT_SECRET is empty, the api server will refuse to start")
	}

	return cfg
}

// IsProduction reports whether the service runs in a production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, value, def)
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, value, def)
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, value, def)
		return def
	}
	return parsed
}
