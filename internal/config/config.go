package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Merchant       UpstreamConfig       `yaml:"merchant"`
	Processor      ProcessorConfig      `yaml:"processor"`
	Recurring      UpstreamConfig       `yaml:"recurring"`
	Validation     ValidationConfig     `yaml:"validation"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Secrets        SecretsConfig        `yaml:"secrets"`
	Logger         LoggerConfig         `yaml:"logger"`
}

// ServerConfig holds the listener configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Environment     string        `yaml:"environment"`
	Port            int           `yaml:"port"`
	HealthGRPCPort  int           `yaml:"health_grpc_port"`
	MetricsPort     int           `yaml:"metrics_port"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration. When neither URL nor Host is
// set the server runs on the in-memory store.
type DatabaseConfig struct {
	URL            string `yaml:"url"`
	Host           string `yaml:"host"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"ssl_mode"`
	Port           int    `yaml:"port"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// UpstreamConfig describes an HTTP dependency
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ProcessorConfig describes the payment processor and its circuit breaker
type ProcessorConfig struct {
	BaseURL            string        `yaml:"base_url"`
	APIKey             string        `yaml:"api_key"`
	Timeout            time.Duration `yaml:"timeout"`
	BreakerMaxFailures int           `yaml:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout"`
}

// ValidationConfig holds the allow-lists injected into the validation rules
type ValidationConfig struct {
	Currencies []string `yaml:"currencies"`
	Kinds      []string `yaml:"kinds"`
}

// ReconciliationConfig controls the stale-PENDING sweep
type ReconciliationConfig struct {
	CronSecret string        `yaml:"cron_secret"`
	StaleAfter time.Duration `yaml:"stale_after"`
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	Enabled    bool          `yaml:"enabled"`
}

// RateLimitConfig holds the per-client limiter settings
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	Enabled           bool    `yaml:"enabled"`
}

// SecretsConfig selects where credentials are read from
type SecretsConfig struct {
	Provider         string `yaml:"provider"` // env, file, aws or vault
	FileDir          string `yaml:"file_dir"`
	AWSRegion        string `yaml:"aws_region"`
	AWSEndpoint      string `yaml:"aws_endpoint"`
	VaultAddress     string `yaml:"vault_address"`
	VaultToken       string `yaml:"vault_token"`
	VaultMount       string `yaml:"vault_mount"`
	DBPasswordPath   string `yaml:"db_password_path"`
	ProcessorKeyPath string `yaml:"processor_key_path"`
	CronSecretPath   string `yaml:"cron_secret_path"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Environment:     "development",
			Port:            8080,
			HealthGRPCPort:  50051,
			MetricsPort:     9090,
			HandlerTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Port:           5432,
			User:           "postgres",
			Database:       "transaction_gateway",
			SSLMode:        "disable",
			MaxConns:       25,
			MinConns:       5,
			MigrateOnStart: true,
		},
		Merchant: UpstreamConfig{
			BaseURL: "http://localhost:8081",
			Timeout: 5 * time.Second,
		},
		Processor: ProcessorConfig{
			BaseURL:            "http://localhost:8082",
			Timeout:            15 * time.Second,
			BreakerMaxFailures: 5,
			BreakerOpenTimeout: 30 * time.Second,
		},
		Recurring: UpstreamConfig{
			BaseURL: "http://localhost:8083",
			Timeout: 5 * time.Second,
		},
		Validation: ValidationConfig{
			Currencies: []string{"USD", "EUR"},
			Kinds:      []string{"PAYMENT", "WITHDRAWAL", "TRANSFER", "REFUND"},
		},
		Reconciliation: ReconciliationConfig{
			StaleAfter: 15 * time.Minute,
			Interval:   5 * time.Minute,
			BatchSize:  100,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
		Secrets: SecretsConfig{
			Provider:         "env",
			FileDir:          "./secrets",
			AWSRegion:        "us-east-1",
			VaultMount:       "secret",
			DBPasswordPath:   "transaction-gateway/db-password",
			ProcessorKeyPath: "transaction-gateway/processor-api-key",
			CronSecretPath:   "transaction-gateway/cron-secret",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and then environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from defaults and environment variables only
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.HealthGRPCPort = getEnvAsInt("HEALTH_GRPC_PORT", c.Server.HealthGRPCPort)
	c.Server.MetricsPort = getEnvAsInt("METRICS_PORT", c.Server.MetricsPort)
	c.Server.HandlerTimeout = getEnvAsDuration("HANDLER_TIMEOUT", c.Server.HandlerTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.MaxConns = int32(getEnvAsInt("DB_MAX_CONNS", int(c.Database.MaxConns)))
	c.Database.MinConns = int32(getEnvAsInt("DB_MIN_CONNS", int(c.Database.MinConns)))
	c.Database.MigrateOnStart = getEnvAsBool("DB_MIGRATE_ON_START", c.Database.MigrateOnStart)

	c.Merchant.BaseURL = getEnv("MERCHANT_BASE_URL", c.Merchant.BaseURL)
	c.Merchant.Timeout = getEnvAsDuration("MERCHANT_TIMEOUT", c.Merchant.Timeout)

	c.Processor.BaseURL = getEnv("PROCESSOR_BASE_URL", c.Processor.BaseURL)
	c.Processor.APIKey = getEnv("PROCESSOR_API_KEY", c.Processor.APIKey)
	c.Processor.Timeout = getEnvAsDuration("PROCESSOR_TIMEOUT", c.Processor.Timeout)
	c.Processor.BreakerMaxFailures = getEnvAsInt("PROCESSOR_BREAKER_MAX_FAILURES", c.Processor.BreakerMaxFailures)
	c.Processor.BreakerOpenTimeout = getEnvAsDuration("PROCESSOR_BREAKER_OPEN_TIMEOUT", c.Processor.BreakerOpenTimeout)

	c.Recurring.BaseURL = getEnv("RECURRING_BASE_URL", c.Recurring.BaseURL)
	c.Recurring.Timeout = getEnvAsDuration("RECURRING_TIMEOUT", c.Recurring.Timeout)

	c.Validation.Currencies = getEnvAsList("ALLOWED_CURRENCIES", c.Validation.Currencies)
	c.Validation.Kinds = getEnvAsList("ALLOWED_KINDS", c.Validation.Kinds)

	c.Reconciliation.Enabled = getEnvAsBool("RECONCILE_ENABLED", c.Reconciliation.Enabled)
	c.Reconciliation.StaleAfter = getEnvAsDuration("RECONCILE_STALE_AFTER", c.Reconciliation.StaleAfter)
	c.Reconciliation.Interval = getEnvAsDuration("RECONCILE_INTERVAL", c.Reconciliation.Interval)
	c.Reconciliation.BatchSize = getEnvAsInt("RECONCILE_BATCH_SIZE", c.Reconciliation.BatchSize)
	c.Reconciliation.CronSecret = getEnv("CRON_SECRET", c.Reconciliation.CronSecret)

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerSecond = getEnvAsFloat("RATE_LIMIT_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.Burst)

	c.Secrets.Provider = getEnv("SECRETS_PROVIDER", c.Secrets.Provider)
	c.Secrets.FileDir = getEnv("SECRETS_FILE_DIR", c.Secrets.FileDir)
	c.Secrets.AWSRegion = getEnv("AWS_REGION", c.Secrets.AWSRegion)
	c.Secrets.AWSEndpoint = getEnv("AWS_SECRETS_ENDPOINT", c.Secrets.AWSEndpoint)
	c.Secrets.VaultAddress = getEnv("VAULT_ADDR", c.Secrets.VaultAddress)
	c.Secrets.VaultToken = getEnv("VAULT_TOKEN", c.Secrets.VaultToken)
	c.Secrets.VaultMount = getEnv("VAULT_MOUNT", c.Secrets.VaultMount)

	c.Logger.Level = getEnv("LOG_LEVEL", c.Logger.Level)
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server port must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"handler timeout":   c.Server.HandlerTimeout,
		"merchant timeout":  c.Merchant.Timeout,
		"processor timeout": c.Processor.Timeout,
		"recurring timeout": c.Recurring.Timeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Merchant.BaseURL == "" {
		errs = append(errs, fmt.Errorf("merchant base URL is required"))
	}
	if c.Processor.BaseURL == "" {
		errs = append(errs, fmt.Errorf("processor base URL is required"))
	}
	if c.Recurring.BaseURL == "" {
		errs = append(errs, fmt.Errorf("recurring base URL is required"))
	}
	if len(c.Validation.Currencies) == 0 {
		errs = append(errs, fmt.Errorf("at least one allowed currency is required"))
	}
	if len(c.Validation.Kinds) == 0 {
		errs = append(errs, fmt.Errorf("at least one allowed transaction kind is required"))
	}
	if c.Reconciliation.Enabled && (c.Reconciliation.StaleAfter <= 0 || c.Reconciliation.Interval <= 0) {
		errs = append(errs, fmt.Errorf("reconciliation stale_after and interval must be positive"))
	}
	switch c.Secrets.Provider {
	case "env", "file", "aws", "vault":
	default:
		errs = append(errs, fmt.Errorf("unsupported secrets provider: %q", c.Secrets.Provider))
	}

	return errors.Join(errs...)
}

// UsesPostgres reports whether a database is configured
func (c *DatabaseConfig) UsesPostgres() bool {
	return c.URL != "" || c.Host != ""
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// IsProduction reports whether the server runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated value, upper-casing each item
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
