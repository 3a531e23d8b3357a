package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	LogLevel      string
	FetchTimeout  time.Duration
	MaxDownloadMB int
	MetricsAddr   string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		LogLevel:      getEnvString("COMPRESS_MCP_LOG_LEVEL", "info"),
		FetchTimeout:  time.Duration(getEnvInt("COMPRESS_MCP_FETCH_TIMEOUT_SEC", 30)) * time.Second,
		MaxDownloadMB: getEnvInt("COMPRESS_MCP_MAX_DOWNLOAD_MB", 50),
		MetricsAddr:   getEnvString("COMPRESS_MCP_METRICS_ADDR", ""),
	}
}

// MaxDownloadBytes returns the download cap in bytes.
func (c *Config) MaxDownloadBytes() int64 {
	return int64(c.MaxDownloadMB) * 1024 * 1024
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
