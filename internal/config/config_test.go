package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"USD", "EUR"}, cfg.Validation.Currencies)
	assert.False(t, cfg.Database.UsesPostgres())
	assert.False(t, cfg.Reconciliation.Enabled)
	assert.Equal(t, "env", cfg.Secrets.Provider)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
processor:
  base_url: http://processor.internal
  timeout: 7s
validation:
  currencies: [USD, EUR, GBP]
reconciliation:
  enabled: true
  stale_after: 20m
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("ALLOWED_KINDS", "payment, refund")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "http://processor.internal", cfg.Processor.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.Processor.Timeout)
	assert.Equal(t, []string{"USD", "EUR", "GBP"}, cfg.Validation.Currencies)
	assert.Equal(t, []string{"PAYMENT", "REFUND"}, cfg.Validation.Kinds)
	assert.True(t, cfg.Reconciliation.Enabled)
	assert.Equal(t, 20*time.Minute, cfg.Reconciliation.StaleAfter)
	assert.Equal(t, 5*time.Minute, cfg.Reconciliation.Interval, "unset keys keep their defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero processor timeout", func(c *Config) { c.Processor.Timeout = 0 }, "processor timeout must be positive"},
		{"negative merchant timeout", func(c *Config) { c.Merchant.Timeout = -time.Second }, "merchant timeout must be positive"},
		{"empty currencies", func(c *Config) { c.Validation.Currencies = nil }, "allowed currency"},
		{"empty kinds", func(c *Config) { c.Validation.Kinds = []string{} }, "allowed transaction kind"},
		{"unknown secrets provider", func(c *Config) { c.Secrets.Provider = "gcp" }, "unsupported secrets provider"},
		{"reconciler without interval", func(c *Config) {
			c.Reconciliation.Enabled = true
			c.Reconciliation.Interval = 0
		}, "reconciliation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	db := DatabaseConfig{URL: "postgres://u:p@db:5432/gw"}
	assert.True(t, db.UsesPostgres())
	assert.Equal(t, "postgres://u:p@db:5432/gw", db.ConnectionString())

	db = DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "gw", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=gw sslmode=disable", db.ConnectionString())
}
