package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/todod/internal/storage"
)

// Environment variables that override the config file.
const (
	EnvDBURL   = "DB_URL"
	EnvDBArgs  = "DB_ARGS"
	EnvBaseURL = "BASE_URL"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Store   StoreConfig       `yaml:"store"`
	Metrics MetricsConfig     `yaml:"metrics"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}

// ApplyEnv applies DB_URL, DB_ARGS and BASE_URL when they are set.
// DB_ARGS is a JSON object; non-string values are formatted with %v.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDBURL); v != "" {
		c.Store.DBURL = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.App.BaseURL = v
	}
	if v := os.Getenv(EnvDBArgs); v != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(v), &raw); err != nil {
			return fmt.Errorf("%s: %w", EnvDBArgs, err)
		}
		args := make(map[string]string, len(raw))
		for k, val := range raw {
			args[k] = fmt.Sprint(val)
		}
		c.Store.DBArgs = args
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	BaseURL  string     `yaml:"base_url"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the todo store backing. An empty Driver is inferred
// from the db_url scheme, falling back to memory when no URL is set.
type StoreConfig struct {
	Driver          string            `yaml:"driver"`
	DBURL           string            `yaml:"db_url"`
	DBArgs          map[string]string `yaml:"db_args"`
	MaxOpenConns    int               `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration     `yaml:"conn_max_lifetime"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		switch {
		case c.DBURL == "":
			c.Driver = storage.DriverMemory
		case storage.DriverFromURL(c.DBURL) != "":
			c.Driver = storage.DriverFromURL(c.DBURL)
		default:
			return fmt.Errorf("driver: cannot infer from db_url %q", c.DBURL)
		}
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(storage.DriverMemory, storage.DriverSQLite, storage.DriverPostgres)),
		validation.Field(&c.DBURL, validation.When(c.Driver != storage.DriverMemory, validation.Required)),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.ConnMaxLifetime, validation.Min(time.Duration(0))),
	)
}

// Options converts the config into storage options.
func (c *StoreConfig) Options() storage.Options {
	return storage.Options{
		Driver:          c.Driver,
		URL:             c.DBURL,
		Args:            c.DBArgs,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

var metricsPathRe = regexp.MustCompile(`^/[A-Za-z0-9/_-]*$`)

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the metrics configuration.
func (c *MetricsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required, validation.Match(metricsPathRe))),
	)
}

// EventsConfig controls the Server-Sent Events stream.
type EventsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	KeepAlive time.Duration `yaml:"keep_alive"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			BaseURL:  "http://localhost:5000/",
			HTTP: HTTPConfig{
				Port: 5000,
			},
		},
		Store: StoreConfig{
			Driver:          storage.DriverMemory,
			MaxOpenConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Events: EventsConfig{
			Enabled:   true,
			KeepAlive: 15 * time.Second,
		},
	}
}
