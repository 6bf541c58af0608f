package connector

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ConfigFromEnv builds a Config from DYNQ_DB_* environment variables, loading
// a .env file first when one is present. Intended for integration setups
// where credentials live outside the repository.
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Host:     os.Getenv("DYNQ_DB_HOST"),
		Database: os.Getenv("DYNQ_DB_NAME"),
		Username: os.Getenv("DYNQ_DB_USER"),
		Password: os.Getenv("DYNQ_DB_PASSWORD"),
		SSLMode:  os.Getenv("DYNQ_DB_SSLMODE"),
	}
	if port, err := strconv.Atoi(os.Getenv("DYNQ_DB_PORT")); err == nil {
		cfg.Port = port
	}
	if d, err := time.ParseDuration(os.Getenv("DYNQ_DB_CONNECT_TIMEOUT")); err == nil {
		cfg.ConnectTimeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("DYNQ_DB_QUERY_TIMEOUT")); err == nil {
		cfg.QueryTimeout = d
	}
	return cfg
}
