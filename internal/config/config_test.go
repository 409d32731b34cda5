package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treasury.yaml")
	content := `
currencies:
  primary: eur
  secondary: USD
risk:
  threshold: "-250.50"
  default_horizon_days: 90
scan:
  schedule: "0 6 * * *"
  horizon_days: 45
store:
  driver: memory
  fixture_path: testdata/ledger.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	pair, err := cfg.CurrencyPair()
	if err != nil {
		t.Fatalf("CurrencyPair() error = %v", err)
	}
	if pair.Primary != "EUR" || pair.Secondary != "USD" {
		t.Errorf("Unexpected currency pair %+v", pair)
	}
	threshold, _ := cfg.RiskThreshold()
	if threshold.String() != "-250.5" {
		t.Errorf("Expected threshold -250.5, got %s", threshold)
	}
	if cfg.Risk.DefaultHorizonDays != 90 || cfg.Scan.HorizonDays != 45 {
		t.Errorf("Unexpected horizons %d/%d", cfg.Risk.DefaultHorizonDays, cfg.Scan.HorizonDays)
	}
	// defaults survive a partial file
	if cfg.HTTP.Port != "8080" || cfg.Log.Level != "info" {
		t.Errorf("Expected defaults to be kept, got port %q level %q", cfg.HTTP.Port, cfg.Log.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TREASURY_STORE_DRIVER":   "postgres",
		"DATABASE_URL":            "postgres://localhost/treasury",
		"TREASURY_HORIZON_DAYS":   "60",
		"NOTION_TOKEN":            "secret",
		"NOTION_DATABASE_ID":      "db",
		"TREASURY_LOG_FORMAT":     "json",
		"TREASURY_RISK_THRESHOLD": "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}
	if cfg.Store.Driver != DriverPostgres || cfg.Store.DatabaseURL == "" {
		t.Errorf("Unexpected store config %+v", cfg.Store)
	}
	if cfg.Risk.DefaultHorizonDays != 60 || cfg.Scan.HorizonDays != 60 {
		t.Errorf("Expected horizon 60, got %d/%d", cfg.Risk.DefaultHorizonDays, cfg.Scan.HorizonDays)
	}
	if cfg.Risk.Threshold != "0" {
		t.Errorf("Expected empty env value to keep the threshold, got %q", cfg.Risk.Threshold)
	}
	if !cfg.NotionEnabled() {
		t.Error("Expected Notion to be enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestApplyEnv_BadHorizon(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(key string) (string, bool) {
		if key == "TREASURY_HORIZON_DAYS" {
			return "soon", true
		}
		return "", false
	})
	if err == nil {
		t.Error("Expected error for non-numeric horizon")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown currency", func(c *Config) { c.Currencies.Primary = "ZZZ" }, "currency"},
		{"same currencies", func(c *Config) { c.Currencies.Secondary = "USD" }, "currency"},
		{"bad threshold", func(c *Config) { c.Risk.Threshold = "lots" }, "risk.threshold"},
		{"zero horizon", func(c *Config) { c.Risk.DefaultHorizonDays = 0 }, "default_horizon_days"},
		{"postgres without url", func(c *Config) { c.Store.Driver = DriverPostgres }, "database_url"},
		{"bigquery without dataset", func(c *Config) { c.Store.Driver = DriverBigQuery }, "bigquery_dataset"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "unknown store driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
