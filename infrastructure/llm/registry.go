package llm

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ProviderConfig describes how to build a client for one provider.
type ProviderConfig struct {
	// Type is the registered provider factory name (openai, anthropic, google).
	Type string
	// EnvVar names the environment variable holding the API key.
	EnvVar string
	// DefaultModel is used when a spec names only the provider.
	DefaultModel string
	// BaseURL overrides the default API endpoint for the provider.
	BaseURL string
}

// DefaultProviders lists the supported providers with their key variables
// and default models.
var DefaultProviders = map[string]ProviderConfig{
	"openai": {
		Type:         "openai",
		EnvVar:       "OPENAI_API_KEY",
		DefaultModel: OpenAIDefaultModel,
	},
	"anthropic": {
		Type:         "anthropic",
		EnvVar:       "ANTHROPIC_API_KEY",
		DefaultModel: AnthropicDefaultModel,
	},
	"google": {
		Type:         "google",
		EnvVar:       "GOOGLE_API_KEY",
		DefaultModel: GoogleDefaultModel,
	},
}

// RegistryConfig holds configuration for a Registry.
type RegistryConfig struct {
	// Providers defines the available providers. Nil means DefaultProviders.
	Providers map[string]ProviderConfig
	// DefaultProvider is used by GetDefaultClient.
	DefaultProvider string
	// DefaultTimeout is passed to providers as their HTTP timeout.
	DefaultTimeout time.Duration
	// Middleware builds the middleware chain for a client of the named
	// provider. It may be nil.
	Middleware func(provider string) []Middleware
	// LookupEnv resolves API keys. Nil means os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// Registry builds and caches one client per provider/model pair. API keys
// are only ever read from the environment.
type Registry struct {
	mu      sync.RWMutex
	config  RegistryConfig
	clients map[string]*Client
}

// NewRegistry validates config and returns an empty registry.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if config.Providers == nil {
		config.Providers = DefaultProviders
	}
	if config.LookupEnv == nil {
		config.LookupEnv = os.LookupEnv
	}
	if config.DefaultProvider == "" {
		return nil, fmt.Errorf("default provider cannot be empty")
	}
	if _, exists := config.Providers[config.DefaultProvider]; !exists {
		return nil, fmt.Errorf("default provider %q not found in providers configuration", config.DefaultProvider)
	}

	return &Registry{
		config:  config,
		clients: make(map[string]*Client),
	}, nil
}

// GetDefaultClient returns a client for the default provider and its
// default model.
func (r *Registry) GetDefaultClient() (*Client, error) {
	return r.GetClient(r.config.DefaultProvider)
}

// GetClient returns the client for spec, creating it on first use. Spec is
// either "provider" (default model) or "provider/model".
func (r *Registry) GetClient(spec string) (*Client, error) {
	if spec == "" {
		return nil, fmt.Errorf("provider specification cannot be empty; use GetDefaultClient() for default provider")
	}

	provider, model := r.parseSpec(spec)
	key := provider + "/" + model

	r.mu.RLock()
	client, ok := r.clients[key]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[key]; ok {
		return client, nil
	}

	client, err := r.createClient(provider, model)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client
	return client, nil
}

// Providers returns the configured provider names, sorted.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.config.Providers))
	for name := range r.config.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseSpec splits "provider/model", filling in the provider's default
// model when none is given.
func (r *Registry) parseSpec(spec string) (provider, model string) {
	provider, model, _ = strings.Cut(spec, "/")
	if model == "" {
		if pc, ok := r.config.Providers[provider]; ok {
			model = pc.DefaultModel
		}
	}
	return provider, model
}

func (r *Registry) createClient(provider, model string) (*Client, error) {
	pc, exists := r.config.Providers[provider]
	if !exists {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", provider, strings.Join(r.Providers(), ", "))
	}

	apiKey, _ := r.config.LookupEnv(pc.EnvVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set for provider %q", pc.EnvVar, provider)
	}

	config := ClientConfig{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: pc.BaseURL,
		Timeout: r.config.DefaultTimeout,
	}
	if r.config.Middleware != nil {
		config.Middleware = r.config.Middleware(provider)
	}

	return NewClient(pc.Type, config)
}
