// Package config assembles server settings from the environment, an
// optional .env file and command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Config struct {
	Transport string
	Host      string
	Port      int
	DBPath    string
	Storage   string

	// Model gateway
	ProxyURL   string
	APIKey     string
	Model      string
	LLMTimeout time.Duration
	UseMockLLM bool

	TimeZone string
	LogLevel string
}

// Load reads defaults from the environment. A .env file in the working
// directory is loaded first when present; real env vars win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Transport:  getEnv("FOOD_DIARY_TRANSPORT", "http"),
		Host:       getEnv("FOOD_DIARY_HOST", "0.0.0.0"),
		Port:       getEnvInt("FOOD_DIARY_PORT", 8011),
		DBPath:     getEnv("FOOD_DIARY_DB_PATH", "/data/food-diary.db"),
		Storage:    getEnv("FOOD_DIARY_STORAGE", StorageSQLite),
		ProxyURL:   getEnv("MCP_PROXY_URL", "http://mcp-compose-http-proxy:9876"),
		APIKey:     getEnv("MCP_PROXY_API_KEY", ""),
		Model:      getEnv("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet"),
		LLMTimeout: time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		UseMockLLM: getBoolEnv("FOOD_DIARY_USE_MOCK_LLM", false),
		TimeZone:   getEnv("FOOD_DIARY_TZ", "Local"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// RegisterFlags binds flags to c using the loaded values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Transport, "transport", c.Transport, "Transport mode: http")
	fs.IntVar(&c.Port, "port", c.Port, "Port for HTTP transport")
	fs.StringVar(&c.Host, "host", c.Host, "Host address")
	fs.StringVar(&c.DBPath, "db-path", c.DBPath, "Database path")
	fs.StringVar(&c.Storage, "storage", c.Storage, "Storage backend: sqlite or memory")
	fs.BoolVar(&c.UseMockLLM, "mock-llm", c.UseMockLLM, "Use canned model replies instead of the gateway")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
}

func (c *Config) Validate() error {
	if c.Transport != "http" {
		return fmt.Errorf("unsupported transport %q", c.Transport)
	}
	if c.Storage != StorageSQLite && c.Storage != StorageMemory {
		return fmt.Errorf("unsupported storage %q", c.Storage)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location is the zone that decides which day an entry belongs to.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
