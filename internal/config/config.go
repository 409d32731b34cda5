package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/treasury"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverBigQuery = "bigquery"
)

// Config is the runtime configuration shared by every command.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Currencies CurrenciesConfig `yaml:"currencies"`
	Risk       RiskConfig       `yaml:"risk"`
	Store      StoreConfig      `yaml:"store"`
	Scan       ScanConfig       `yaml:"scan"`
	Notion     NotionConfig     `yaml:"notion"`
	Export     ExportConfig     `yaml:"export"`
	Insights   InsightsConfig   `yaml:"insights"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HTTPConfig struct {
	Port      string `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

type CurrenciesConfig struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
	// Strict fails aggregations over movements missing the requested amount.
	Strict bool `yaml:"strict"`
}

type RiskConfig struct {
	Threshold          string `yaml:"threshold"`
	DefaultHorizonDays int    `yaml:"default_horizon_days"`
}

type StoreConfig struct {
	Driver          string `yaml:"driver"`
	DatabaseURL     string `yaml:"database_url"`
	BigQueryProject string `yaml:"bigquery_project"`
	BigQueryDataset string `yaml:"bigquery_dataset"`
	FixturePath     string `yaml:"fixture_path"`
}

type ScanConfig struct {
	// Schedule is a cron expression; empty disables scheduled scans.
	Schedule    string `yaml:"schedule"`
	HorizonDays int    `yaml:"horizon_days"`
	RiskOnly    bool   `yaml:"risk_only"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
	DryRun     bool   `yaml:"dry_run"`
}

type ExportConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type InsightsConfig struct {
	Model string `yaml:"model"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:        LogConfig{Level: "info", Format: "console"},
		HTTP:       HTTPConfig{Port: "8080"},
		Currencies: CurrenciesConfig{Primary: "USD"},
		Risk:       RiskConfig{Threshold: "0", DefaultHorizonDays: 30},
		Store:      StoreConfig{Driver: DriverMemory},
		Scan:       ScanConfig{HorizonDays: 30},
		Export:     ExportConfig{Prefix: "reports"},
		Insights:   InsightsConfig{Model: "gemini-2.5-flash"},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies
// .env and environment overrides, then validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("Load: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("Load: decoding %s: %w", path, err)
		}
	}

	// a missing .env file is not an error
	_ = godotenv.Load()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("TREASURY_LOG_LEVEL", &c.Log.Level)
	str("TREASURY_LOG_FORMAT", &c.Log.Format)
	str("PORT", &c.HTTP.Port)
	str("API_AUTH_TOKEN", &c.HTTP.AuthToken)
	str("TREASURY_PRIMARY_CURRENCY", &c.Currencies.Primary)
	str("TREASURY_SECONDARY_CURRENCY", &c.Currencies.Secondary)
	str("TREASURY_RISK_THRESHOLD", &c.Risk.Threshold)
	str("TREASURY_STORE_DRIVER", &c.Store.Driver)
	str("DATABASE_URL", &c.Store.DatabaseURL)
	str("GCP_PROJECT_ID", &c.Store.BigQueryProject)
	str("BIGQUERY_DATASET", &c.Store.BigQueryDataset)
	str("TREASURY_FIXTURE", &c.Store.FixturePath)
	str("TREASURY_SCAN_SCHEDULE", &c.Scan.Schedule)
	str("NOTION_TOKEN", &c.Notion.Token)
	str("NOTION_DATABASE_ID", &c.Notion.DatabaseID)
	str("GCS_BUCKET", &c.Export.Bucket)
	str("GEMINI_MODEL", &c.Insights.Model)

	if v, ok := lookup("TREASURY_HORIZON_DAYS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TREASURY_HORIZON_DAYS: %w", err)
		}
		c.Risk.DefaultHorizonDays = n
		c.Scan.HorizonDays = n
	}
	return nil
}

// Validate checks currency codes, the risk threshold, horizons and the
// store driver.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.CurrencyPair(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RiskThreshold(); err != nil {
		errs = append(errs, err)
	}
	if c.Risk.DefaultHorizonDays <= 0 || c.Risk.DefaultHorizonDays > treasury.MaxHorizonDays {
		errs = append(errs, fmt.Errorf("risk.default_horizon_days must be in 1..%d, got %d", treasury.MaxHorizonDays, c.Risk.DefaultHorizonDays))
	}
	if c.Scan.HorizonDays <= 0 || c.Scan.HorizonDays > treasury.MaxHorizonDays {
		errs = append(errs, fmt.Errorf("scan.horizon_days must be in 1..%d, got %d", treasury.MaxHorizonDays, c.Scan.HorizonDays))
	}
	switch strings.ToLower(c.Store.Driver) {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the postgres driver"))
		}
	case DriverBigQuery:
		if c.Store.BigQueryProject == "" || c.Store.BigQueryDataset == "" {
			errs = append(errs, errors.New("store.bigquery_project and store.bigquery_dataset are required for the bigquery driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	return errors.Join(errs...)
}

// CurrencyPair returns the validated reporting currencies.
func (c Config) CurrencyPair() (domain.CurrencyPair, error) {
	return domain.NewCurrencyPair(c.Currencies.Primary, c.Currencies.Secondary)
}

// RiskThreshold returns the parsed risk threshold.
func (c Config) RiskThreshold() (decimal.Decimal, error) {
	if strings.TrimSpace(c.Risk.Threshold) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(c.Risk.Threshold))
	if err != nil {
		return decimal.Zero, fmt.Errorf("risk.threshold: %w", err)
	}
	return d, nil
}

// ServiceConfig builds the treasury service configuration.
func (c Config) ServiceConfig() (treasury.ServiceConfig, error) {
	pair, err := c.CurrencyPair()
	if err != nil {
		return treasury.ServiceConfig{}, err
	}
	threshold, err := c.RiskThreshold()
	if err != nil {
		return treasury.ServiceConfig{}, err
	}
	return treasury.ServiceConfig{Currencies: pair, Threshold: threshold, StrictCurrency: c.Currencies.Strict}, nil
}

// NotionEnabled reports whether at-risk accounts should be published.
func (c Config) NotionEnabled() bool {
	return c.Notion.Token != "" && c.Notion.DatabaseID != ""
}
