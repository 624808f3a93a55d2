package config

import (
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	// HTTP server
	Port       string
	CORSOrigin string

	// Database
	DBPath string

	// Tokens
	SecretKey   string
	TokenTTL    time.Duration
	TokenIssuer string
	BcryptCost  int

	// Logging
	LogLevel  slog.Level
	LogFormat string

	// Bootstrap admin, created on first start when the user table is empty
	AdminUser     string
	AdminEmail    string
	AdminPassword string

	// values present in the environment that could not be parsed
	loadErrors []string
}

// Load reads envPath (if present) into the process environment and builds the config
// from environment variables. A missing env file is not an error.
func Load(envPath string) *Config {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	c := &Config{
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),

		DBPath: getEnv("DB_PATH", "expenses.db"),

		SecretKey:   os.Getenv("SECRET_KEY"),
		TokenIssuer: getEnv("TOKEN_ISSUER", "expense-api"),

		LogLevel:  parseLevel(os.Getenv("LOG_LEVEL")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		AdminUser:     os.Getenv("ADMIN_USER"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	c.TokenTTL = c.getEnvDuration("TOKEN_TTL", 2*time.Hour)
	c.BcryptCost = c.getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	return c
}

// Validate validates the configuration and returns an error listing every problem found.
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}

	if c.SecretKey == "" {
		errors = append(errors, "SECRET_KEY is required")
	} else if len(c.SecretKey) < 16 {
		errors = append(errors, "SECRET_KEY must be at least 16 characters")
	}

	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token ttl %v: must be at least 1 minute", c.TokenTTL))
	} else if c.TokenTTL > 30*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid token ttl %v: must be at most 30 days", c.TokenTTL))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if (c.AdminUser == "") != (c.AdminPassword == "") {
		errors = append(errors, "ADMIN_USER and ADMIN_PASSWORD must be set together")
	}
	if c.AdminEmail != "" {
		if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
			errors = append(errors, fmt.Sprintf("invalid admin email '%s'", c.AdminEmail))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt keeps the default for unparsable values and records the problem for Validate.
func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		c.loadErrors = append(c.loadErrors, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.loadErrors = append(c.loadErrors, fmt.Sprintf("invalid %s '%s': must be a duration such as 2h or 30m", key, value))
		return defaultValue
	}
	return d
}
