package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by CLUBLEDGER_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("CLUBLEDGER_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// AutoMigrate reports whether the server applies pending migrations on start.
func AutoMigrate() bool {
	v, _ := strconv.ParseBool(os.Getenv("AUTO_MIGRATE"))
	return v
}

func JWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

// JWTTTLHours returns the lifetime of issued access tokens.
// Defaults to 24 if not set.
func JWTTTLHours() int {
	h, err := strconv.Atoi(os.Getenv("JWT_TTL_HOURS"))
	if err != nil || h <= 0 {
		return 24
	}
	return h
}

func SentryDSN() string {
	return os.Getenv("SENTRY_DSN")
}

func SentryEnvironment() string {
	env := os.Getenv("SENTRY_ENVIRONMENT")
	if env == "" {
		return "development"
	}
	return env
}

// DefaultGuard returns the guard name roles are scoped under.
// Defaults to "web" if not set.
func DefaultGuard() string {
	g := os.Getenv("DEFAULT_GUARD")
	if g == "" {
		return "web"
	}
	return g
}

// EventWorkers returns the number of goroutines draining the event queue.
// Defaults to 4 if not set.
func EventWorkers() int {
	n, err := strconv.Atoi(os.Getenv("EVENT_WORKERS"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

// EventQueueSize returns the buffered capacity of the event queue.
// Defaults to 256 if not set.
func EventQueueSize() int {
	n, err := strconv.Atoi(os.Getenv("EVENT_QUEUE_SIZE"))
	if err != nil || n <= 0 {
		return 256
	}
	return n
}

// EventMaxAttempts returns how many times a failing event handler is run.
// Defaults to 3 if not set.
func EventMaxAttempts() int {
	n, err := strconv.Atoi(os.Getenv("EVENT_MAX_ATTEMPTS"))
	if err != nil || n <= 0 {
		return 3
	}
	return n
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
