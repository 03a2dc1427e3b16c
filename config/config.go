// Package config loads and validates the agent service configuration.
package config

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/llmfactory"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

// Config is the full service configuration. Database and model settings are
// required: the process refuses to start without them.
type Config struct {
	Database  Database          `json:"database" yaml:"database" validate:"required"`
	Providers llmfactory.Config `json:"providers_config" yaml:"providers_config"`
	Embedding Embedding         `json:"embedding" yaml:"embedding" validate:"required"`
	Redis     *Redis            `json:"redis,omitempty" yaml:"redis,omitempty"`
	Agent     Agent             `json:"agent" yaml:"agent"`
}

// Database holds the Postgres connection settings.
type Database struct {
	Host     string `json:"host" yaml:"host" validate:"required"`
	Port     int    `json:"port" yaml:"port" validate:"required"`
	User     string `json:"user" yaml:"user" validate:"required"`
	Password string `json:"password" yaml:"password" validate:"required"`
	Name     string `json:"name" yaml:"name" validate:"required"`
}

// DataSource returns the connection string for the pgx driver.
func (d *Database) DataSource() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Embedding configures the embedding backend and the knowledge-base
// collection it serves.
type Embedding struct {
	BaseURL    string `json:"base_url" yaml:"base_url" validate:"required"`
	Model      string `json:"model" yaml:"model" validate:"required"`
	Collection string `json:"collection" yaml:"collection" validate:"required"`
	// TopK is the number of passages retrieved per query, 0 for the default.
	TopK int `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// Redis configures the optional embedding cache.
type Redis struct {
	Server string `json:"server" yaml:"server" validate:"required"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Agent bounds the reasoning loop.
type Agent struct {
	// MaxTurns caps the number of model round trips per run, 0 for the default.
	MaxTurns int `json:"max_turns,omitempty" yaml:"max_turns,omitempty"`
}

// Load reads the configuration file, expands environment variables,
// and validates required settings.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}
	if len(cfg.Providers.Providers) == 0 {
		return nil, errors.New("invalid configuration: no model providers")
	}
	return cfg, nil
}
