package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Storefront StorefrontConfig `yaml:"storefront"`
	OTLP       OTLPConfig       `yaml:"otlp"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig describes the remote QKart service
type StoreConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StorefrontConfig struct {
	SearchDebounce     time.Duration `yaml:"search_debounce"`
	NotificationBuffer int           `yaml:"notification_buffer"`
}

type OTLPConfig struct {
	Endpoint      string `yaml:"endpoint"`
	ServiceName   string `yaml:"service_name"`
	Environment   string `yaml:"environment"`
	ExportEnabled bool   `yaml:"export_enabled"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			BaseURL: "http://localhost:8082/api/v1",
			Timeout: 10 * time.Second,
		},
		Storefront: StorefrontConfig{
			SearchDebounce:     500 * time.Millisecond,
			NotificationBuffer: 50,
		},
		OTLP: OTLPConfig{
			Endpoint:      "localhost:4317",
			ServiceName:   "qkart-storefront",
			Environment:   "development",
			ExportEnabled: true,
			LogLevel:      "debug",
		},
	}
}

// LoadConfig loads configuration from an optional YAML file and environment variables.
// Environment variables take precedence over the file.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Store.BaseURL = getEnv("STORE_BASE_URL", cfg.Store.BaseURL)
	cfg.Store.Timeout = getEnvDuration("STORE_TIMEOUT", cfg.Store.Timeout)

	cfg.Storefront.SearchDebounce = getEnvDuration("SEARCH_DEBOUNCE", cfg.Storefront.SearchDebounce)
	cfg.Storefront.NotificationBuffer = getEnvInt("NOTIFICATION_BUFFER", cfg.Storefront.NotificationBuffer)

	cfg.OTLP.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLP.Endpoint)
	cfg.OTLP.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.OTLP.ServiceName)
	cfg.OTLP.Environment = getEnv("OTEL_ENVIRONMENT", cfg.OTLP.Environment)
	cfg.OTLP.ExportEnabled = getEnvBool("OTEL_EXPORT_ENABLED", cfg.OTLP.ExportEnabled)
	cfg.OTLP.LogLevel = getEnv("LOG_LEVEL", cfg.OTLP.LogLevel)
}

// Validate rejects settings the storefront cannot run with
func (c *Config) Validate() error {
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store base url is required")
	}
	if c.Storefront.SearchDebounce <= 0 {
		return fmt.Errorf("search debounce must be positive, got %s", c.Storefront.SearchDebounce)
	}
	if c.Storefront.NotificationBuffer <= 0 {
		return fmt.Errorf("notification buffer must be positive, got %d", c.Storefront.NotificationBuffer)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go duration strings ("750ms", "2s")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}
