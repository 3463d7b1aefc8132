// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	StoreStatic   = "static"
	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

var (
	ErrMissingDatabaseURL = errors.New("database.url is required for the postgres store")
	ErrMissingRabbitURL   = errors.New("rabbitmq.url is required when ingestion or event publishing is enabled")
)

var validate = validator.New()

type Config struct {
	Server struct {
		Addr    string `yaml:"addr" validate:"required"`
		OpsAddr string `yaml:"ops_addr" validate:"required"`
	} `yaml:"server"`

	Store struct {
		Kind       string `yaml:"kind" validate:"oneof=static postgres badger"`
		BadgerPath string `yaml:"badger_path" validate:"required_if=Kind badger"`
	} `yaml:"store"`

	Database struct {
		URL     string `yaml:"url"`
		Migrate bool   `yaml:"migrate"`
	} `yaml:"database"`

	RabbitMQ struct {
		URL           string `yaml:"url"`
		PublishEvents bool   `yaml:"publish_events"`
		Ingest        bool   `yaml:"ingest"`
		Workers       int    `yaml:"workers" validate:"min=1"`
	} `yaml:"rabbitmq"`

	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
	} `yaml:"log"`
}

// overrides are read from the environment and win over the YAML file.
type overrides struct {
	ServerAddr    *string `env:"SERVER_ADDR"`
	OpsAddr       *string `env:"OPS_ADDR"`
	StoreKind     *string `env:"STORE_KIND"`
	BadgerPath    *string `env:"BADGER_PATH"`
	DatabaseURL   *string `env:"DATABASE_URL"`
	RabbitURL     *string `env:"RABBITMQ_URL"`
	IngestWorkers *int    `env:"INGEST_WORKERS"`
	LogLevel      *string `env:"LOG_LEVEL"`
}

// Default returns the configuration used when no file is present: the static
// store on :8080, no broker.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.OpsAddr = ":9090"
	cfg.Store.Kind = StoreStatic
	cfg.Store.BadgerPath = "data/badger"
	cfg.Database.Migrate = true
	cfg.RabbitMQ.Workers = 4
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig reads the YAML file at path on top of the defaults, applies
// environment overrides and validates the result. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var o overrides
	if _, err := env.UnmarshalFromEnviron(&o); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o overrides) apply(cfg *Config) {
	set(&cfg.Server.Addr, o.ServerAddr)
	set(&cfg.Server.OpsAddr, o.OpsAddr)
	set(&cfg.Store.Kind, o.StoreKind)
	set(&cfg.Store.BadgerPath, o.BadgerPath)
	set(&cfg.Database.URL, o.DatabaseURL)
	set(&cfg.RabbitMQ.URL, o.RabbitURL)
	set(&cfg.RabbitMQ.Workers, o.IngestWorkers)
	set(&cfg.Log.Level, o.LogLevel)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks field constraints and the requirements of the selected backends.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Kind == StorePostgres && c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if c.BrokerEnabled() && c.RabbitMQ.URL == "" {
		return ErrMissingRabbitURL
	}
	return nil
}

// BrokerEnabled reports whether a RabbitMQ connection is needed at all.
func (c *Config) BrokerEnabled() bool {
	return c.RabbitMQ.Ingest || c.RabbitMQ.PublishEvents
}
