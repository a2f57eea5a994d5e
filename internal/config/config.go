package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the daemon
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Server ServerConfig
	Store  StoreConfig
	Target TargetConfig
}

// ServerConfig holds the editor-facing WebSocket server configuration
type ServerConfig struct {
	ListenAddr      string
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	CommandBuffer   int
	BroadcastBuffer int
}

// StoreConfig holds project persistence configuration
type StoreConfig struct {
	Path         string
	SaveInterval time.Duration
	DefaultName  string
	DefaultBpm   float32
}

// TargetConfig holds the OSC target connection configuration
type TargetConfig struct {
	DefaultAddr    string
	ReconnectDelay time.Duration
}

// Load loads configuration from environment variables
// It first loads a .env file from the current directory if one exists
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			ListenAddr:      getEnv("VIBED_LISTEN_ADDR", "0.0.0.0:8000"),
			WriteTimeout:    getEnvAsDuration("VIBED_WRITE_TIMEOUT", 10*time.Second),
			PingInterval:    getEnvAsDuration("VIBED_PING_INTERVAL", 30*time.Second),
			CommandBuffer:   getEnvAsInt("VIBED_COMMAND_BUFFER", 32),
			BroadcastBuffer: getEnvAsInt("VIBED_BROADCAST_BUFFER", 64),
		},
		Store: StoreConfig{
			Path:         getEnv("VIBED_STORE_PATH", "./vibe-store.json"),
			SaveInterval: getEnvAsDuration("VIBED_SAVE_INTERVAL", 10*time.Second),
			DefaultName:  getEnv("VIBED_DEFAULT_NAME", "Unnamed"),
			DefaultBpm:   getEnvAsFloat32("VIBED_DEFAULT_BPM", 120.0),
		},
		Target: TargetConfig{
			DefaultAddr:    getEnv("VIBED_DEFAULT_TARGET_ADDR", "127.0.0.1:8001"),
			ReconnectDelay: getEnvAsDuration("VIBED_RECONNECT_DELAY", 200*time.Millisecond),
		},
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return defaultValue
	}
	return float32(floatValue)
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
