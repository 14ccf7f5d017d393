package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
	SSLMode    string
	RedisHost  string
	RedisPort  string
	NatsHost   string
	NatsPort   string
	ApiPort    string
	ApiEnabled string
}

// New loads and validates configuration from environment variables.
// Postgres is required. Redis (balance cache) and NATS (side-effect bus and
// audit worker) are optional: leave the hosts empty and the core runs with
// no-op collaborators. The HTTP server is optional the same way the rest is:
// if FAMLEDGER_API_ENABLED != "true", ApiAddr() returns an error and the
// server simply won't start.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:     os.Getenv("FAMLEDGER_POSTGRES_USER"),
		DBPass:     os.Getenv("FAMLEDGER_POSTGRES_PASSWORD"),
		DBHost:     os.Getenv("FAMLEDGER_POSTGRES_HOST"),
		DBPort:     os.Getenv("FAMLEDGER_POSTGRES_PORT"),
		DBName:     os.Getenv("FAMLEDGER_POSTGRES_DB"),
		SSLMode:    os.Getenv("FAMLEDGER_POSTGRES_SSLMODE"),
		RedisHost:  os.Getenv("FAMLEDGER_REDIS_HOST"),
		RedisPort:  os.Getenv("FAMLEDGER_REDIS_PORT"),
		NatsHost:   os.Getenv("FAMLEDGER_NATS_HOST"),
		NatsPort:   os.Getenv("FAMLEDGER_NATS_PORT"),
		ApiPort:    os.Getenv("FAMLEDGER_API_PORT"),
		ApiEnabled: os.Getenv("FAMLEDGER_API_ENABLED"),
	}

	// Required: database
	if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBName == "" || cfg.SSLMode == "" {
		return nil, fmt.Errorf("missing required env for database: FAMLEDGER_POSTGRES_USER/HOST/DB/SSLMODE")
	}

	// Optional: redis and nats, but partial config is a mistake worth failing on.
	if (cfg.RedisHost == "") != (cfg.RedisPort == "") {
		return nil, fmt.Errorf("incomplete redis config: set both FAMLEDGER_REDIS_HOST and FAMLEDGER_REDIS_PORT or neither")
	}
	if (cfg.NatsHost == "") != (cfg.NatsPort == "") {
		return nil, fmt.Errorf("incomplete nats config: set both FAMLEDGER_NATS_HOST and FAMLEDGER_NATS_PORT or neither")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func (c *Config) RedisEnabled() bool { return c.RedisHost != "" }

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NatsEnabled() bool { return c.NatsHost != "" }

func (c *Config) NatsAddr() string {
	return fmt.Sprintf("nats://%s:%s", c.NatsHost, c.NatsPort)
}

// ApiAddr returns the HTTP listen address if the API is enabled.
// Returns an error if FAMLEDGER_API_ENABLED != "true" — callers should skip
// starting the HTTP server.
func (c *Config) ApiAddr() (string, error) {
	if c.ApiEnabled == "true" {
		if c.ApiPort == "" {
			return "", fmt.Errorf("FAMLEDGER_API_PORT is required when FAMLEDGER_API_ENABLED=true")
		}
		return ":" + c.ApiPort, nil
	}
	return "", fmt.Errorf("HTTP API is disabled (FAMLEDGER_API_ENABLED != true)")
}
