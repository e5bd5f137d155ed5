package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends for the link indexes.
const (
	StoreBackendFile  = "file"
	StoreBackendRedis = "redis"
)

type Config struct {
	Environment string
	ServerPort  string

	AllowedOrigins string

	// UpstreamBaseURL is the records API this gateway reconciles against.
	UpstreamBaseURL string
	UpstreamTimeout int

	StoreBackend string
	StorePath    string
	StorePrefix  string
	RedisURL     string
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load() // Ignore error since file might not exist in production

	// Get environment with default
	env := getEnvWithDefault("ENVIRONMENT", "development")
	env = strings.ToLower(env)

	// Validate environment value
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[env] {
		return nil, fmt.Errorf("invalid environment value: %s", env)
	}

	upstream := os.Getenv("UPSTREAM_BASE_URL")
	if upstream == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL environment variable is required")
	}

	timeout, err := strconv.Atoi(getEnvWithDefault("UPSTREAM_TIMEOUT_SECONDS", "10"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT_SECONDS value")
	}

	backend := strings.ToLower(getEnvWithDefault("STORE_BACKEND", StoreBackendFile))
	switch backend {
	case StoreBackendFile, StoreBackendRedis:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND value: %s", backend)
	}

	config := &Config{
		Environment: env,
		ServerPort:  getEnvWithDefault("SERVER_PORT", "8080"),

		AllowedOrigins: getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000"),

		UpstreamBaseURL: upstream,
		UpstreamTimeout: timeout,

		StoreBackend: backend,
		StorePath:    getEnvWithDefault("STORE_PATH", "./data"),
		StorePrefix:  getEnvWithDefault("STORE_PREFIX", "careloop:"),
		RedisURL:     os.Getenv("REDIS_URL"),
	}

	if config.StoreBackend == StoreBackendRedis && config.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when STORE_BACKEND is redis")
	}

	return config, nil
}

// IsDevelopment returns whether the current environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns whether the current environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
