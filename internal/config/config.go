package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultJWTSecret is the well-known placeholder value; production deployments
// must override it.
const defaultJWTSecret = "your-secret-key-change-in-production"

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	RedisAddr       string
	JWTSecret       string
	JWTExpiresIn    time.Duration
	BcryptCost      int
	RateLimitPerMin int
	LogLevel        string
}

// Load returns application config populated from environment variables with
// sensible defaults. DATABASE_URL and JWT_SECRET are required; a missing value
// is a startup error.
func Load() (App, error) {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("PORT", "3000"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiresIn:    durationEnv("JWT_EXPIRES_IN", 7*24*time.Hour),
		BcryptCost:      intEnv("BCRYPT_COST", 10),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	return cfg, cfg.validate()
}

// IsProduction reports whether the app runs with production settings.
func (a App) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

func (a App) validate() error {
	var missing []string
	if a.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if a.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if a.IsProduction() {
		if a.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from default value in production")
		}
		if len(a.JWTSecret) < 32 {
			log.Println("warning: JWT_SECRET is less than 32 characters; use a stronger secret in production")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := parseDuration(val)
	if err != nil {
		log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
		return fallback
	}
	return d
}

// parseDuration extends time.ParseDuration with a "d" (day) suffix, so token
// lifetimes like "7d" work.
func parseDuration(val string) (time.Duration, error) {
	if strings.HasSuffix(val, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(val, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", val)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(val)
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
