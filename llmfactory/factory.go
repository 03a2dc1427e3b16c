// Package llmfactory constructs model gateways from configuration.
package llmfactory

import (
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/gateway"
	"github.com/comprice/deviceagent/gateway/ollamagw"
	"github.com/comprice/deviceagent/gateway/openaigw"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "llmfactory")

// Factory provides configured model gateways.
type Factory interface {
	DefaultGateway() (gateway.Gateway, error)
	GatewayByName(name string) (gateway.Gateway, error)
}

// Load returns a gateway factory from the config file.
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	byName map[string]gateway.Gateway
	lock   sync.Mutex
}

// New creates a new gateway factory
func New(cfg *Config) Factory {
	return &factory{
		cfg:    cfg,
		byName: make(map[string]gateway.Gateway),
	}
}

// NewGateway constructs a gateway from one provider config.
func NewGateway(cfg *ProviderConfig) (gateway.Gateway, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch typ := strings.ToUpper(cfg.Type); typ {
	case "OLLAMA", "":
		// the native client has no default endpoint
		if cfg.BaseURL == "" {
			return nil, errors.Newf("provider %s: base_url is required", cfg.Name)
		}
		gw, err := ollamagw.New(cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		return gw.WithSystemPrompt(cfg.SystemPrompt).WithTimeout(timeout), nil
	case "OPENAI", "OPEN_AI":
		gw := openaigw.New(cfg.BaseURL, cfg.Token, cfg.Model)
		return gw.WithSystemPrompt(cfg.SystemPrompt).WithTimeout(timeout), nil
	default:
		return nil, errors.Newf("unsupported provider type: %s", cfg.Type)
	}
}

// DefaultGateway returns the gateway for the first configured provider.
func (f *factory) DefaultGateway() (gateway.Gateway, error) {
	if len(f.cfg.Providers) == 0 {
		return nil, errors.New("no providers configured")
	}
	return f.GatewayByName(f.cfg.Providers[0].Name)
}

func (f *factory) GatewayByName(name string) (gateway.Gateway, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if gw, ok := f.byName[name]; ok {
		return gw, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			gw, err := NewGateway(cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_gateway",
				"type", cfg.Type,
				"model", cfg.Model,
				"name", cfg.Name)

			f.byName[name] = gw
			return gw, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}
