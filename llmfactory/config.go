package llmfactory

import (
	"github.com/effective-security/x/configloader"
)

// Config describes the configured model backends.
type Config struct {
	Providers []*ProviderConfig `json:"providers" yaml:"providers" validate:"required,dive"`
}

// ProviderConfig describes one model backend.
type ProviderConfig struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	// Type specifies the backend protocol: OLLAMA|OPENAI
	Type string `json:"type" yaml:"type"`
	// BaseURL is the backend endpoint, e.g. http://localhost:11434
	// or http://localhost:11434/v1 for the OpenAI-compatible surface.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Token is the API token, empty for local backends.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// Model is the model name to request.
	Model string `json:"model" yaml:"model" validate:"required"`
	// TimeoutSeconds bounds a single completion call. Zero means no deadline
	// beyond the caller's context.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	// SystemPrompt is prepended to every completion.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
