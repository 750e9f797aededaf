// Package config loads the bot configuration: a YAML file overlaid with
// environment variables, with an optional .env file loaded first.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coredatabase "github.com/m3rciful/weatherbot/core/database"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

var validate = validator.New()

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver     string `yaml:"driver" envconfig:"STORE_DRIVER" validate:"oneof=postgres sqlite memory"`
	SQLitePath string `yaml:"sqlite_path" envconfig:"STORE_SQLITE_PATH"`
}

// WeatherConfig configures the WeatherAPI.com client.
type WeatherConfig struct {
	APIKey       string        `yaml:"api_key" envconfig:"WEATHER_API_KEY" validate:"required"`
	BaseURL      string        `yaml:"base_url" envconfig:"WEATHER_API_BASE_URL" validate:"omitempty,url"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"WEATHER_API_TIMEOUT"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"WEATHER_API_MAX_RETRIES" validate:"gte=0,lte=10"`
	ForecastDays int           `yaml:"forecast_days" envconfig:"WEATHER_FORECAST_DAYS" validate:"min=1,max=10"`
}

// AlertsConfig tunes the alert scheduler.
type AlertsConfig struct {
	CheckInterval time.Duration `yaml:"check_interval" envconfig:"ALERT_CHECK_INTERVAL" validate:"gte=10s"`
	Cooldown      time.Duration `yaml:"cooldown" envconfig:"ALERT_COOLDOWN"`
	Delay         time.Duration `yaml:"delay" envconfig:"ALERT_DELAY"`
	// SkipSweep disables the startup check for chats that blocked the bot.
	SkipSweep bool `yaml:"skip_sweep" envconfig:"ALERT_SKIP_SWEEP"`
}

// HealthConfig enables the HTTP health endpoint when Listen is set.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Store    StoreConfig         `yaml:"store"`
	Weather  WeatherConfig       `yaml:"weather"`
	Alerts   AlertsConfig        `yaml:"alerts"`
	Health   HealthConfig        `yaml:"health"`
}

// CoreConfig exposes the shared core settings to the runner.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("skip .env: %v", err)
	}

	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults and validates the configuration.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverPostgres
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "data/weatherbot.db"
	}
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = "migrations"
	}
	if cfg.Weather.Timeout <= 0 {
		cfg.Weather.Timeout = 10 * time.Second
	}
	if cfg.Weather.MaxRetries == 0 {
		cfg.Weather.MaxRetries = 2
	}
	if cfg.Weather.ForecastDays == 0 {
		cfg.Weather.ForecastDays = 3
	}
	if cfg.Alerts.CheckInterval == 0 {
		cfg.Alerts.CheckInterval = 300 * time.Second
	}
	if cfg.Alerts.Cooldown <= 0 {
		cfg.Alerts.Cooldown = 60 * time.Minute
	}
	if cfg.Alerts.Delay <= 0 {
		cfg.Alerts.Delay = 100 * time.Millisecond
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 5
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Store.Driver == DriverPostgres && (cfg.Database.Host == "" || cfg.Database.Name == "") {
		return fmt.Errorf("database.host and database.name are required for store.driver %q", DriverPostgres)
	}
	return nil
}

// UsesDatabase reports whether a Postgres connection is needed.
func (c *Config) UsesDatabase() bool { return c.Store.Driver == DriverPostgres }
