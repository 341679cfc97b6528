package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort       string
	DatabaseDriver string
	DatabaseDSN    string
	LogLevel       string
	LogFormat      string
	SeedCSV        string
	MetricsEnabled bool
	AllowedOrigins []string
	// Warnings lists settings that were replaced by a default, for the caller to log.
	Warnings []string
}

// Load reads configuration from the environment (and an optional .env file) with reasonable defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "farmacia")

	driver := strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DRIVER")))
	if driver != DriverSQLite && driver != DriverPostgres {
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	dsn := v.GetString("DATABASE_DSN")
	if dsn == "" {
		if driver == DriverPostgres {
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
				v.GetString("DB_USER"), v.GetString("DB_PASSWORD"), v.GetString("DB_HOST"), v.GetString("DB_PORT"), v.GetString("DB_NAME"))
		} else {
			dsn = "file:farmacia.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	}

	var warnings []string
	port := v.GetString("HTTP_PORT")
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		warnings = append(warnings, fmt.Sprintf("invalid HTTP_PORT value %q, defaulting to 8080", port))
		port = "8080"
	}

	return Config{
		HTTPPort:       port,
		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		SeedCSV:        v.GetString("SEED_CSV"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		Warnings:       warnings,
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
