// Package config loads process configuration from the environment: a
// package-level struct populated once at startup, with sane local
// defaults so the binary runs against a dev Redis with no env set.
package config

import (
	"os"
	"strconv"
)

// Config holds every environment-derived setting the server needs.
type Config struct {
	Port          string
	RedisURL      string
	RedisPassword string
	RedisDB       int
}

// AppConfig is the process-wide configuration, populated by Load.
var AppConfig Config

// Load reads environment variables into AppConfig, falling back to
// local-dev defaults for anything unset.
func Load() {
	AppConfig = Config{
		Port:          getEnv("PORT", "8080"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
