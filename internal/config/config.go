// Package config loads foresight.yaml with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/foresight/internal/anomaly"
	"github.com/cleared-dev/foresight/internal/forecast"
	"github.com/cleared-dev/foresight/internal/goal"
	"github.com/cleared-dev/foresight/internal/log"
)

// FileName is the project config file at the repo root.
const FileName = "foresight.yaml"

// EnvPrefix prefixes every environment override, e.g. FORESIGHT_STORAGE_DB_PATH.
const EnvPrefix = "FORESIGHT_"

// Config represents the top-level foresight.yaml configuration.
type Config struct {
	Business BusinessConfig  `yaml:"business"`
	Storage  StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Forecast forecast.Config `yaml:"forecast" envPrefix:"FORECAST_"`
	Anomaly  anomaly.Config  `yaml:"anomaly" envPrefix:"ANOMALY_"`
	Goals    goal.Config     `yaml:"goals"`
	Alerts   AlertsConfig    `yaml:"alerts" envPrefix:"ALERTS_"`
	Log      LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Git      GitConfig       `yaml:"git" envPrefix:"GIT_"`
}

// BusinessConfig identifies the business.
type BusinessConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// StorageConfig locates the summary database. Relative paths are resolved
// against the repo root.
type StorageConfig struct {
	DBPath string `yaml:"db_path" env:"DB_PATH"`
}

// AlertsConfig points at the RabbitMQ broker anomaly alerts go to. An empty
// URL disables publishing.
type AlertsConfig struct {
	AMQPURL    string `yaml:"amqp_url,omitempty" env:"AMQP_URL"`
	Exchange   string `yaml:"exchange" env:"EXCHANGE"`
	Queue      string `yaml:"queue" env:"QUEUE"`
	RoutingKey string `yaml:"routing_key" env:"ROUTING_KEY"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit" env:"AUTO_COMMIT"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a foresight.yaml file from disk. Sections missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadProject loads <repoRoot>/foresight.yaml, applies <repoRoot>/.env and
// FORESIGHT_* environment overrides, and validates the result.
func LoadProject(repoRoot string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(repoRoot, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := Load(filepath.Join(repoRoot, FileName))
	if err != nil {
		return nil, err
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv applies FORESIGHT_* environment variables onto target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:     businessName,
			Currency: "USD",
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(".foresight", "foresight.db"),
		},
		Forecast: forecast.DefaultConfig(),
		Anomaly:  anomaly.DefaultConfig(),
		Goals:    goal.DefaultConfig(),
		Alerts: AlertsConfig{
			Exchange:   "foresight",
			Queue:      "anomaly_alerts",
			RoutingKey: "anomaly",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Foresight",
			AuthorEmail: "foresight@cleared.dev",
		},
	}
}

// DBPath resolves the database path against repoRoot.
func (c *Config) DBPath(repoRoot string) string {
	if filepath.IsAbs(c.Storage.DBPath) {
		return c.Storage.DBPath
	}
	return filepath.Join(repoRoot, c.Storage.DBPath)
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errs []string

	if c.Storage.DBPath == "" {
		errs = append(errs, "storage db_path cannot be empty")
	}

	if c.Forecast.MinPeriods != 0 && c.Forecast.MinPeriods < forecast.MinPeriods {
		errs = append(errs, fmt.Sprintf("invalid forecast min_periods %d: must be at least %d", c.Forecast.MinPeriods, forecast.MinPeriods))
	}
	if c.Forecast.IntervalZ < 0 {
		errs = append(errs, fmt.Sprintf("invalid forecast interval_z %v: must not be negative", c.Forecast.IntervalZ))
	}

	a := c.Anomaly
	if a.ZThreshold <= 0 {
		errs = append(errs, fmt.Sprintf("invalid anomaly z_threshold %v: must be positive", a.ZThreshold))
	}
	if a.Contamination <= 0 || a.Contamination >= 0.5 {
		errs = append(errs, fmt.Sprintf("invalid anomaly contamination %v: must be in (0, 0.5)", a.Contamination))
	}
	if a.MinCategorySize < 2 {
		errs = append(errs, fmt.Sprintf("invalid anomaly min_category_size %d: must be at least 2", a.MinCategorySize))
	}
	if a.Trees < 1 {
		errs = append(errs, fmt.Sprintf("invalid anomaly trees %d: must be at least 1", a.Trees))
	}
	if a.DBSCANEps <= 0 {
		errs = append(errs, fmt.Sprintf("invalid anomaly dbscan_eps %v: must be positive", a.DBSCANEps))
	}
	if a.DBSCANMinSamples < 1 {
		errs = append(errs, fmt.Sprintf("invalid anomaly dbscan_min_samples %d: must be at least 1", a.DBSCANMinSamples))
	}
	if a.MinEntries < 1 {
		errs = append(errs, fmt.Sprintf("invalid anomaly min_entries %d: must be at least 1", a.MinEntries))
	}
	known := anomaly.DefaultRegistry()
	for _, name := range a.Detectors {
		if _, ok := known.Get(name); !ok {
			errs = append(errs, fmt.Sprintf("unknown anomaly detector %q: must be one of %v", name, known.Names()))
		}
	}

	if c.Goals.TrendWindow < 0 {
		errs = append(errs, fmt.Sprintf("invalid goals trend_window %d: must not be negative", c.Goals.TrendWindow))
	}

	if c.Alerts.AMQPURL != "" {
		if u, err := url.Parse(c.Alerts.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.Alerts.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.Alerts.Exchange == "" {
			errs = append(errs, "alerts exchange cannot be empty when amqp_url is set")
		}
		if c.Alerts.Queue == "" {
			errs = append(errs, "alerts queue cannot be empty when amqp_url is set")
		}
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level: %v", err))
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "text" && f != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
