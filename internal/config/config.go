package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	RowStoreSheets   = "sheets"
	RowStorePostgres = "postgres"
	RowStoreBadger   = "badger"
	RowStoreMemory   = "memory"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// redis (login tokens, rate limiting, rest timer notifications)
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`

	// row store
	RowStore            string `toml:"row_store"`
	SheetsSpreadsheetID string `toml:"sheets_spreadsheet_id"`
	LogTable            string `toml:"log_table"`
	PostgresHost        string `toml:"postgres_host"`
	PostgresPort        string `toml:"postgres_port"`
	PostgresDBName      string `toml:"postgres_db_name"`
	BadgerPath          string `toml:"badger_path"`
	ConfigCacheTTLSecs  int    `toml:"config_cache_ttl_seconds"`

	// workout session
	RestTimerSeconds           int  `toml:"rest_timer_seconds"`
	RestTimerDoneLingerSeconds int  `toml:"rest_timer_done_linger_seconds"`
	InitialSets                int  `toml:"initial_sets"`
	ResetSessionOnCommit       bool `toml:"reset_session_on_commit"`

	// users
	MinUsernameLen  int  `toml:"min_username_len"`
	PasswordHashing bool `toml:"password_hashing"`
}

func (c *Config) RestTimerDuration() time.Duration {
	return time.Duration(c.RestTimerSeconds) * time.Second
}

func (c *Config) RestTimerDoneLinger() time.Duration {
	return time.Duration(c.RestTimerDoneLingerSeconds) * time.Second
}

func (c *Config) ConfigCacheTTL() time.Duration {
	return time.Duration(c.ConfigCacheTTLSecs) * time.Second
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.RowStore == "" {
		c.RowStore = RowStoreMemory
	}
	if c.LogTable == "" {
		c.LogTable = "Hoja 1"
	}
	if c.RestTimerSeconds <= 0 {
		c.RestTimerSeconds = 60
	}
	if c.RestTimerDoneLingerSeconds <= 0 {
		c.RestTimerDoneLingerSeconds = 3
	}
	if c.InitialSets <= 0 {
		c.InitialSets = 1
	}
	if c.MinUsernameLen <= 0 {
		c.MinUsernameLen = 3
	}
	if c.LoginRateLimitAllowedPerMin <= 0 {
		c.LoginRateLimitAllowedPerMin = 15
	}
	if c.ConfigCacheTTLSecs <= 0 {
		c.ConfigCacheTTLSecs = 300
	}
}

func (c *Config) validate() error {
	switch c.RowStore {
	case RowStoreSheets:
		if c.SheetsSpreadsheetID == "" {
			return errors.New("sheets row store requires sheets_spreadsheet_id")
		}
	case RowStorePostgres:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			return errors.New("postgres row store requires postgres_host and postgres_db_name")
		}
	case RowStoreBadger:
		if c.BadgerPath == "" {
			return errors.New("badger row store requires badger_path")
		}
	case RowStoreMemory:
	default:
		return fmt.Errorf("unknown row store: %s", c.RowStore)
	}
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	cfg.Environment = strings.ToLower(env)
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env, with defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode toml config %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}

	return cfg, nil
}

// Secrets are never kept in the TOML file.
type Secrets struct {
	RedisPassword         string `env:"GYMTRACKER_REDIS_PASS"`
	SheetsCredentialsFile string `env:"GYMTRACKER_SHEETS_CREDENTIALS_FILE, default=credenciales.json"`
	SheetsCredentialsJSON string `env:"GYMTRACKER_SHEETS_CREDENTIALS_JSON"`
	SentryDSN             string `env:"SENTRY_DSN"`
	HoneycombEnabled      bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey       string `env:"HONEYCOMB_API_KEY"`
	OtelServiceName       string `env:"OTEL_SERVICE_NAME"`
	PostgresPassword      string `env:"GYMTRACKER_POSTGRES_PASS"`
}

// LoadSecrets reads secrets from the environment. A .env file in the working
// directory is loaded first when present; variables already set win.
func LoadSecrets(ctx context.Context) (*Secrets, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	var s Secrets
	if err := envconfig.Process(ctx, &s); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}
	return &s, nil
}
